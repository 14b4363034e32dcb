package chart

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"fde-dashboard/internal/roster"
	"fde-dashboard/internal/theme"
	"fde-dashboard/internal/views"
)

func defaultPoints() []views.ChartPoint {
	return views.Project(roster.Default().Models())
}

func TestAllSeries(t *testing.T) {
	want := []struct{ key, label, color string }{
		{"mAP50", "mAP@50", "#3b82f6"},
		{"mAP50_95", "mAP@50-95", "#60a5fa"},
		{"precision", "Precision", "#82ca9d"},
		{"recall", "Recall", "#fbbf24"},
	}
	if len(AllSeries) != len(want) {
		t.Fatalf("len(AllSeries) = %d", len(AllSeries))
	}
	p := views.ChartPoint{MAP50: 0.1, MAP50_95: 0.2, Precision: 0.3, Recall: 0.4}
	for i, w := range want {
		s := AllSeries[i]
		if s.Key != w.key || s.Label != w.label || s.Color != w.color {
			t.Errorf("series %d = %s/%s/%s, want %s/%s/%s", i, s.Key, s.Label, s.Color, w.key, w.label, w.color)
		}
		if got := s.Value(p); got != float64(i+1)/10 {
			t.Errorf("series %s Value = %v", s.Key, got)
		}
	}
}

func TestSeriesByKey(t *testing.T) {
	if s, err := SeriesByKey("recall"); err != nil || s.Label != "Recall" {
		t.Errorf("SeriesByKey(recall) = %+v, %v", s, err)
	}
	if _, err := SeriesByKey("boxLoss"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("SeriesByKey(boxLoss) err = %v", err)
	}
}

func TestRenderInteractive(t *testing.T) {
	var buf bytes.Buffer
	colors := theme.Resolve(theme.Dark)
	if err := Render(&buf, defaultPoints(), colors, DefaultOptions(), ""); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"YOLOv8-N (Baseline)",
		"YOLOv8-FDE (Proposed)",
		"mAP@50-95",
		"#3b82f6", "#60a5fa", "#82ca9d", "#fbbf24",
		colors.Grid,
		colors.TooltipBackground,
		colors.TooltipBorder,
		"goecharts_",
		`.setOption({tooltip:{backgroundColor:"` + colors.TooltipBackground + `",borderColor:"` + colors.TooltipBorder + `"`,
		"toFixed(2)",
		`"interval":"0"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("chart output missing %q", want)
		}
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	d := DefaultOptions()
	if got := (Options{}).WithDefaults(); got != d {
		t.Errorf("zero options = %+v, want %+v", got, d)
	}
	got := Options{Title: "t", Height: 200, Width: -1}.WithDefaults()
	if got.Title != "t" || got.Height != 200 || got.Width != d.Width {
		t.Errorf("partial options = %+v", got)
	}
}

func TestRenderSeriesColorsIgnoreTheme(t *testing.T) {
	var light, dark bytes.Buffer
	if err := Render(&light, defaultPoints(), theme.Resolve(theme.Light), DefaultOptions(), ""); err != nil {
		t.Fatal(err)
	}
	if err := Render(&dark, defaultPoints(), theme.Resolve(theme.Dark), DefaultOptions(), ""); err != nil {
		t.Fatal(err)
	}
	for _, s := range AllSeries {
		if !strings.Contains(light.String(), s.Color) || !strings.Contains(dark.String(), s.Color) {
			t.Errorf("series color %s missing from a theme", s.Color)
		}
	}
	if strings.Contains(light.String(), theme.Resolve(theme.Dark).TooltipBackground) {
		t.Error("light chart uses dark tooltip background")
	}
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, nil, theme.Resolve(theme.Light), Options{}, ""); err != nil {
		t.Fatalf("Render(empty) error = %v", err)
	}
	if !strings.Contains(buf.String(), "xAxis") {
		t.Error("empty chart should still declare axes")
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	o := Options{Width: 640, Height: 320}
	if err := WritePNG(&buf, defaultPoints(), "mAP50", theme.Light, o); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 320 {
		t.Errorf("image size = %dx%d, want 640x320", b.Dx(), b.Dy())
	}
}

func TestWritePNGErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, nil, "recall", theme.Dark, Options{}); !errors.Is(err, ErrNoData) {
		t.Errorf("empty points err = %v, want ErrNoData", err)
	}
	if err := WritePNG(&buf, defaultPoints(), "nope", theme.Dark, Options{}); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("unknown metric err = %v, want ErrUnknownMetric", err)
	}
}
