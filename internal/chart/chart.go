// Package chart renders the grouped performance bar chart: an interactive
// ECharts page for the dashboard and a PNG export for static use.
package chart

import (
	"errors"

	"fde-dashboard/internal/theme"
	"fde-dashboard/internal/views"
)

var (
	// ErrNoData is returned by exports that need at least one data point.
	ErrNoData = errors.New("no chart data")
	// ErrUnknownMetric is returned for a metric key outside the four series.
	ErrUnknownMetric = errors.New("unknown metric")
)

// Series describes one bar series of the chart.
type Series struct {
	Key   string
	Label string
	Color string
	Value func(views.ChartPoint) float64
}

// AllSeries lists the chart series in legend order. Colors are fixed and do
// not follow the theme.
var AllSeries = []Series{
	{Key: "mAP50", Label: "mAP@50", Color: theme.ColorMAP50, Value: func(p views.ChartPoint) float64 { return p.MAP50 }},
	{Key: "mAP50_95", Label: "mAP@50-95", Color: theme.ColorMAP50_95, Value: func(p views.ChartPoint) float64 { return p.MAP50_95 }},
	{Key: "precision", Label: "Precision", Color: theme.ColorPrecision, Value: func(p views.ChartPoint) float64 { return p.Precision }},
	{Key: "recall", Label: "Recall", Color: theme.ColorRecall, Value: func(p views.ChartPoint) float64 { return p.Recall }},
}

// SeriesByKey looks up a series by its data key.
func SeriesByKey(key string) (Series, error) {
	for _, s := range AllSeries {
		if s.Key == key {
			return s, nil
		}
	}
	return Series{}, ErrUnknownMetric
}

// Options controls chart sizing.
type Options struct {
	Title  string
	Width  int // pixels
	Height int // pixels
}

// DefaultOptions matches the dashboard layout.
func DefaultOptions() Options {
	return Options{
		Title:  "Performance Metrics (percent)",
		Width:  1024,
		Height: 420,
	}
}

// WithDefaults fills unset fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Title == "" {
		o.Title = d.Title
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}
