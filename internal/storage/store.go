// Package storage persists page render telemetry. It records metadata about
// each render only, never the rendered markup.
package storage

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Status is the outcome of a render.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// RenderEvent is the telemetry for a single page, chart or export render.
type RenderEvent struct {
	ID         string `json:"id"`
	TS         int64  `json:"ts"` // unix ms
	Page       string `json:"page"`
	Theme      string `json:"theme"`
	Status     Status `json:"status"`
	HTTPStatus int    `json:"http_status"`
	DurationMs int    `json:"duration_ms"`
	Bytes      int64  `json:"bytes"`
	Fallbacks  int    `json:"fallbacks"` // placeholder images substituted
	Error      string `json:"error,omitempty"`
}

// ListOptions filters for listing renders.
type ListOptions struct {
	Limit  int
	Offset int
	Page   string
	Theme  string
	Status *Status
	Window time.Duration
}

// Overview summarises renders within a time window.
type Overview struct {
	TotalRenders  int     `json:"total_renders"`
	ErrorCount    int     `json:"error_count"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMs int     `json:"avg_duration_ms"`
	P95DurationMs int     `json:"p95_duration_ms"`
	TotalBytes    int64   `json:"total_bytes"`
	Fallbacks     int     `json:"fallbacks"`
	DarkShare     float64 `json:"dark_share"` // fraction rendered with the dark theme
}

// PageStat is a per-page rollup.
type PageStat struct {
	Page          string  `json:"page"`
	RenderCount   int     `json:"render_count"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMs int     `json:"avg_duration_ms"`
	AvgBytes      int64   `json:"avg_bytes"`
	Fallbacks     int     `json:"fallbacks"`
}

// DataPoint is a single point in a time series.
type DataPoint struct {
	Timestamp int64   `json:"ts"` // unix ms (bin start)
	Value     float64 `json:"value"`
}

// Series metrics.
const (
	MetricRenderCount = "render_count"
	MetricDurationP95 = "duration_p95"
	MetricBytes       = "bytes"
)

// SeriesOptions configures time series queries.
type SeriesOptions struct {
	Window time.Duration
	Metric string
	Page   string // optional filter
}

// Store is the interface for render telemetry storage.
type Store interface {
	// Insert records a completed render.
	Insert(ev *RenderEvent) error

	// GetByID retrieves a single render, or nil when unknown.
	GetByID(id string) (*RenderEvent, error)

	// List retrieves renders newest first with filtering and pagination.
	List(opts ListOptions) ([]RenderEvent, error)

	// Overview returns aggregate statistics for a time window.
	Overview(window time.Duration) (*Overview, error)

	// PageStats returns per-page rollups, busiest first.
	PageStats(window time.Duration) ([]PageStat, error)

	// Series returns time-binned data.
	Series(opts SeriesOptions) ([]DataPoint, error)

	// Close releases resources.
	Close() error
}

// GetBinConfig returns the number of bins and interval for a time window.
func GetBinConfig(window time.Duration) (bins int, interval time.Duration) {
	switch {
	case window <= time.Hour:
		return 60, time.Minute
	case window <= 24*time.Hour:
		return 96, 15 * time.Minute
	default:
		return 168, time.Hour
	}
}

type sample struct {
	ts    int64
	value float64
}

// binSeries places samples into bins starting at cutoff and aggregates each
// bin for the metric.
func binSeries(samples []sample, cutoff time.Time, opts SeriesOptions) []DataPoint {
	bins, interval := GetBinConfig(opts.Window)
	points := make([]DataPoint, bins)
	for i := range points {
		points[i] = DataPoint{Timestamp: cutoff.Add(time.Duration(i) * interval).UnixMilli()}
	}

	binValues := make([][]float64, bins)
	start := cutoff.UnixMilli()
	for _, s := range samples {
		idx := int((s.ts - start) / interval.Milliseconds())
		if idx >= 0 && idx < bins {
			binValues[idx] = append(binValues[idx], s.value)
		}
	}

	for i, vals := range binValues {
		if len(vals) == 0 {
			continue
		}
		switch opts.Metric {
		case MetricRenderCount:
			points[i].Value = float64(len(vals))
		case MetricDurationP95:
			points[i].Value = percentile(vals, 0.95)
		case MetricBytes:
			var sum float64
			for _, v := range vals {
				sum += v
			}
			points[i].Value = sum
		}
	}
	return points
}

func percentile(vals []float64, p float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// validMetric reports whether metric is a known series metric.
func validMetric(metric string) bool {
	switch metric {
	case MetricRenderCount, MetricDurationP95, MetricBytes:
		return true
	}
	return false
}

// Open returns the backend named by kind ("sqlite", "memory" or "off").
// "off" yields a nil Store. A SQLite store that fails to open falls back to
// memory with a warning.
func Open(kind, path string, maxRows int, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch kind {
	case "off", "":
		return nil, nil
	case "memory":
		return NewMemoryStore(maxRows), nil
	case "sqlite":
		st, err := NewSQLiteStore(path, maxRows, logger)
		if err != nil {
			logger.Warn("sqlite storage unavailable, falling back to memory", "path", path, "err", err)
			return NewMemoryStore(maxRows), nil
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
