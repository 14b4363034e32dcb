package chart

import (
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"fde-dashboard/internal/theme"
	"fde-dashboard/internal/views"
)

// WritePNG renders a single series as a static bar chart in percent.
// go-chart has no grouped bars, so exports are one metric per image.
func WritePNG(w io.Writer, points []views.ChartPoint, metric string, sig theme.Signal, o Options) error {
	s, err := SeriesByKey(metric)
	if err != nil {
		return fmt.Errorf("%w: %q", err, metric)
	}
	if len(points) == 0 {
		return ErrNoData
	}
	o = o.WithDefaults()

	colors := theme.Resolve(sig)
	page := theme.PagePalette(sig)
	text := hexColor(colors.Text)
	grid := hexColor(colors.Grid)
	bg := hexColor(page.Card)
	fill := hexColor(s.Color)

	bars := make([]gochart.Value, len(points))
	for i, p := range points {
		bars[i] = gochart.Value{
			Label: p.Name,
			Value: s.Value(p) * 100,
			Style: gochart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		}
	}

	barWidth := (o.Width - 160) / (2*len(bars) + 1)
	if barWidth < 8 {
		barWidth = 8
	}

	bc := gochart.BarChart{
		Title:      s.Label + " (%)",
		TitleStyle: gochart.Style{FontColor: text},
		Width:      o.Width,
		Height:     o.Height,
		BarWidth:   barWidth,
		BarSpacing: barWidth,
		Background: gochart.Style{
			FillColor: bg,
			Padding:   gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16},
		},
		Canvas: gochart.Style{FillColor: bg},
		XAxis:  gochart.Style{FontColor: text, StrokeColor: grid, FontSize: 9},
		YAxis: gochart.YAxis{
			Style: gochart.Style{FontColor: text, StrokeColor: grid},
			Range: &gochart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	if err := bc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render %s png: %w", s.Key, err)
	}
	return nil
}

func hexColor(s string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
}
