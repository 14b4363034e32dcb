package api

import (
	"net/http"
	"time"

	"fde-dashboard/internal/assets"
	"fde-dashboard/internal/chart"
	"fde-dashboard/internal/storage"
	"fde-dashboard/internal/theme"
	"fde-dashboard/internal/views"
)

// handleModels returns the roster and every derived view.
// GET /api/v1/models
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.source.Snapshot())
}

// ConclusionResponse is the proposed-model summary.
type ConclusionResponse struct {
	Marker string `json:"marker"`
	views.Conclusion
}

// handleConclusion returns the proposed-model summary.
// GET /api/v1/conclusion
func (s *Server) handleConclusion(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	s.writeJSON(w, ConclusionResponse{Marker: snap.Marker, Conclusion: snap.Conclusion})
}

// SeriesInfo describes one chart series.
type SeriesInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// ThemeResponse is the resolved palette for a theme signal.
type ThemeResponse struct {
	Theme  theme.Signal `json:"theme"`
	Toggle theme.Signal `json:"toggle"`
	Chart  theme.Colors `json:"chart"`
	Page   theme.Page   `json:"page"`
	Series []SeriesInfo `json:"series"`
}

// handleTheme resolves a theme signal.
// GET /api/v1/theme?theme=light|dark
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("theme")
	if raw == "" {
		raw = s.cfg.DefaultTheme
	}
	sig := theme.Parse(raw)

	series := make([]SeriesInfo, len(chart.AllSeries))
	for i, sr := range chart.AllSeries {
		series[i] = SeriesInfo{Key: sr.Key, Label: sr.Label, Color: sr.Color}
	}

	s.writeJSON(w, ThemeResponse{
		Theme:  sig,
		Toggle: sig.Toggle(),
		Chart:  theme.Resolve(sig),
		Page:   theme.PagePalette(sig),
		Series: series,
	})
}

// AssetsResponse lists asset availability.
type AssetsResponse struct {
	Assets    []assets.Status `json:"assets"`
	Available int             `json:"available"`
	Missing   int             `json:"missing"`
}

// handleAssets returns the last probe result for every asset.
// GET /api/v1/assets
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if s.prober == nil {
		s.writeError(w, http.StatusServiceUnavailable, "asset probing not enabled")
		return
	}
	resp := AssetsResponse{Assets: s.prober.Statuses()}
	for _, st := range resp.Assets {
		if !st.Checked {
			continue
		}
		if st.Available {
			resp.Available++
		} else {
			resp.Missing++
		}
	}
	s.writeJSON(w, resp)
}

// OverviewResponse contains render statistics and time series.
type OverviewResponse struct {
	Window  string             `json:"window"`
	Summary storage.Overview   `json:"summary"`
	Pages   []storage.PageStat `json:"pages"`
	Series  SeriesData         `json:"series"`
}

// SeriesData contains time-binned chart data.
type SeriesData struct {
	RenderCount []storage.DataPoint `json:"render_count"`
	DurationP95 []storage.DataPoint `json:"duration_p95"`
	Bytes       []storage.DataPoint `json:"bytes"`
}

// handleOverview returns summary statistics and series.
// GET /api/v1/overview?window=1h|24h|7d
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "storage not available")
		return
	}

	window := parseWindow(r)
	cacheKey := window.String()

	s.overviewCacheMu.RLock()
	if cached, ok := s.overviewCache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.overviewCacheMu.RUnlock()
		s.writeJSON(w, cached.data)
		return
	}
	s.overviewCacheMu.RUnlock()

	overview, err := s.store.Overview(window)
	if err != nil {
		s.logger.Error("failed to get overview", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get overview")
		return
	}
	pageStats, err := s.store.PageStats(window)
	if err != nil {
		s.logger.Error("failed to get page stats", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get page stats")
		return
	}

	resp := &OverviewResponse{
		Window:  cacheKey,
		Summary: *overview,
		Pages:   pageStats,
	}
	resp.Series.RenderCount = s.series(window, storage.MetricRenderCount)
	resp.Series.DurationP95 = s.series(window, storage.MetricDurationP95)
	resp.Series.Bytes = s.series(window, storage.MetricBytes)

	if cacheableWindows[window] {
		s.overviewCacheMu.Lock()
		s.overviewCache[cacheKey] = &cachedOverview{
			data:      resp,
			expiresAt: time.Now().Add(overviewCacheDuration),
		}
		s.overviewCacheMu.Unlock()
	}

	s.writeJSON(w, resp)
}

func (s *Server) series(window time.Duration, metric string) []storage.DataPoint {
	pts, err := s.store.Series(storage.SeriesOptions{Window: window, Metric: metric})
	if err != nil {
		s.logger.Warn("failed to get series", "metric", metric, "err", err)
		return nil
	}
	return pts
}

// RenderListResponse contains a page of renders.
type RenderListResponse struct {
	Renders []storage.RenderEvent `json:"renders"`
	Count   int                   `json:"count"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// handleListRenders returns recent renders.
// GET /api/v1/renders?limit=50&offset=0&page=&theme=&status=&window=24h
func (s *Server) handleListRenders(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "storage not available")
		return
	}

	q := r.URL.Query()
	limit := parseInt(q.Get("limit"), 50)
	if limit > 500 {
		limit = 500
	}
	offset := parseInt(q.Get("offset"), 0)

	opts := storage.ListOptions{
		Limit:  limit,
		Offset: offset,
		Page:   q.Get("page"),
		Theme:  q.Get("theme"),
		Window: parseWindow(r),
	}
	if status := q.Get("status"); status != "" {
		st := storage.Status(status)
		opts.Status = &st
	}

	renders, err := s.store.List(opts)
	if err != nil {
		s.logger.Error("failed to list renders", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list renders")
		return
	}
	if renders == nil {
		renders = []storage.RenderEvent{}
	}

	s.writeJSON(w, RenderListResponse{
		Renders: renders,
		Count:   len(renders),
		Limit:   limit,
		Offset:  offset,
	})
}

// handleGetRender returns a single render.
// GET /api/v1/renders/{id}
func (s *Server) handleGetRender(w http.ResponseWriter, r *http.Request, id string) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "storage not available")
		return
	}

	ev, err := s.store.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get render", "err", err, "id", id)
		s.writeError(w, http.StatusInternalServerError, "failed to get render")
		return
	}
	if ev == nil {
		s.writeError(w, http.StatusNotFound, "render not found")
		return
	}
	s.writeJSON(w, ev)
}

// ConfigResponse exposes the non-sensitive runtime configuration.
type ConfigResponse struct {
	Mode           string `json:"mode"`
	DefaultTheme   string `json:"default_theme"`
	ProposedMarker string `json:"proposed_marker"`
	Storage        string `json:"storage"`
	StorageMaxRows int    `json:"storage_max_rows"`
	PaperURL       string `json:"paper_url"`
	Features       struct {
		Pages      bool `json:"pages"`
		API        bool `json:"api"`
		Events     bool `json:"events"`
		Metrics    bool `json:"metrics"`
		Storage    bool `json:"storage"`
		AssetProbe bool `json:"asset_probe"`
	} `json:"features"`
}

// handleConfig returns the current configuration.
// GET /api/v1/config
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	f := s.cfg.Features()

	var resp ConfigResponse
	resp.Mode = string(s.cfg.Mode)
	resp.DefaultTheme = s.cfg.DefaultTheme
	resp.ProposedMarker = s.source.Marker()
	resp.Storage = string(s.cfg.Storage)
	resp.StorageMaxRows = s.cfg.StorageMaxRows
	resp.PaperURL = s.cfg.PaperURL
	resp.Features.Pages = f.Pages
	resp.Features.API = f.API
	resp.Features.Events = f.Events
	resp.Features.Metrics = f.Metrics
	resp.Features.Storage = f.Storage && s.store != nil
	resp.Features.AssetProbe = f.AssetProbe && s.prober != nil

	s.writeJSON(w, resp)
}
