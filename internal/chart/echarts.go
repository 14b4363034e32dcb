package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"
	"github.com/go-echarts/go-echarts/v2/types"

	"fde-dashboard/internal/theme"
	"fde-dashboard/internal/views"
)

// tooltipFormatter rescales the hovered fractions to percents with two
// decimals. views.TooltipValue is the Go equivalent.
const tooltipFormatter = `function (params) {
  var items = Array.isArray(params) ? params : [params];
  if (items.length === 0) { return ''; }
  var lines = [items[0].name];
  for (var i = 0; i < items.length; i++) {
    var p = items[i];
    lines.push(p.marker + p.seriesName + ': ' + (Number(p.value) * 100).toFixed(2) + '%');
  }
  return lines.join('<br/>');
}`

// tooltipChrome restyles the tooltip after init. opts.Tooltip has no
// color fields, so the palette goes through setOption on the instance.
func tooltipChrome(colors theme.Colors) types.FuncStr {
	return types.FuncStr(fmt.Sprintf(
		"%s.setOption({tooltip:{backgroundColor:%q,borderColor:%q,textStyle:{color:%q}}});",
		render.EchartsInstancePlaceholder, colors.TooltipBackground, colors.TooltipBorder, colors.Text))
}

// NewBar builds the grouped bar chart for points with the given chrome.
func NewBar(points []views.ChartPoint, colors theme.Colors, o Options, assetsHost string) *charts.Bar {
	o = o.WithDefaults()

	initOpts := opts.Initialization{
		PageTitle:       o.Title,
		Width:           "100%",
		Height:          fmt.Sprintf("%dpx", o.Height),
		BackgroundColor: "transparent",
	}
	if assetsHost != "" {
		initOpts.AssetsHost = assetsHost
	}

	gridLine := &opts.SplitLine{
		Show:      opts.Bool(true),
		LineStyle: &opts.LineStyle{Color: colors.Grid, Type: "dashed"},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{
			Title:      o.Title,
			Left:       "center",
			TitleStyle: &opts.TextStyle{Color: colors.Text},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "axis",
			Formatter: opts.FuncOpts(tooltipFormatter),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Bottom:    "0",
			TextStyle: &opts.TextStyle{Color: colors.Text},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "category",
			AxisLabel: &opts.AxisLabel{
				Show:     opts.Bool(true),
				Interval: "0",
				Color:    colors.Text,
				FontSize: 12,
			},
			SplitLine: gridLine,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "value",
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: colors.Text},
			SplitLine: gridLine,
		}),
	)

	names := make([]string, len(points))
	for i, p := range points {
		names[i] = p.Name
	}
	bar.SetXAxis(names)

	for _, s := range AllSeries {
		data := make([]opts.BarData, len(points))
		for i, p := range points {
			data[i] = opts.BarData{Name: p.Name, Value: s.Value(p)}
		}
		bar.AddSeries(s.Label, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	bar.AddJSFuncStrs(tooltipChrome(colors))
	return bar
}

// Render writes the interactive chart page to w.
func Render(w io.Writer, points []views.ChartPoint, colors theme.Colors, o Options, assetsHost string) error {
	if err := NewBar(points, colors, o, assetsHost).Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
