// Package metrics exposes Prometheus collectors for page renders, asset
// fallbacks and theme changes.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for the dashboard.
type Metrics struct {
	rendersTotal     *prometheus.CounterVec
	renderDuration   *prometheus.HistogramVec
	renderBytes      *prometheus.CounterVec
	assetAvailable   *prometheus.GaugeVec
	assetFallbacks   *prometheus.CounterVec
	themeChanges     *prometheus.CounterVec
	eventSubscribers prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// New returns the process-wide metrics collector.
func New() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			rendersTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fde_dashboard_renders_total",
					Help: "Total number of page renders",
				},
				[]string{"page", "theme", "status"},
			),
			renderDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "fde_dashboard_render_duration_seconds",
					Help:    "Page render duration in seconds",
					Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
				},
				[]string{"page"},
			),
			renderBytes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fde_dashboard_render_bytes_total",
					Help: "Total bytes written by page renders",
				},
				[]string{"page"},
			),
			assetAvailable: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "fde_dashboard_asset_available",
					Help: "Asset availability from the last probe (1 = available, 0 = missing)",
				},
				[]string{"asset"},
			),
			assetFallbacks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fde_dashboard_asset_fallbacks_total",
					Help: "Total number of placeholder substitutions per asset",
				},
				[]string{"asset"},
			),
			themeChanges: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fde_dashboard_theme_changes_total",
					Help: "Total number of theme changes by target theme",
				},
				[]string{"theme"},
			),
			eventSubscribers: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "fde_dashboard_event_subscribers",
					Help: "Number of connected event stream subscribers",
				},
			),
		}
	})
	return metricsInst
}

// RecordRender records a completed page render.
func (m *Metrics) RecordRender(page, theme, status string, duration time.Duration, bytes int64) {
	if m == nil {
		return
	}
	if page == "" {
		page = "unknown"
	}
	if theme == "" {
		theme = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	m.rendersTotal.WithLabelValues(page, theme, status).Inc()
	m.renderDuration.WithLabelValues(page).Observe(duration.Seconds())
	if bytes > 0 {
		m.renderBytes.WithLabelValues(page).Add(float64(bytes))
	}
}

// UpdateAssetAvailable sets the availability gauge for an asset.
func (m *Metrics) UpdateAssetAvailable(asset string, available bool) {
	if m == nil {
		return
	}
	if available {
		m.assetAvailable.WithLabelValues(asset).Set(1)
	} else {
		m.assetAvailable.WithLabelValues(asset).Set(0)
	}
}

// RecordAssetFallback records a placeholder substitution.
func (m *Metrics) RecordAssetFallback(asset string) {
	if m == nil {
		return
	}
	m.assetFallbacks.WithLabelValues(asset).Inc()
}

// RecordThemeChange records a theme switch.
func (m *Metrics) RecordThemeChange(theme string) {
	if m == nil {
		return
	}
	m.themeChanges.WithLabelValues(theme).Inc()
}

// UpdateSubscribers sets the event subscriber gauge.
func (m *Metrics) UpdateSubscribers(n int) {
	if m == nil {
		return
	}
	m.eventSubscribers.Set(float64(n))
}
