// Package server routes dashboard HTTP traffic: pages, chart exports, theme
// changes, the event stream, static assets, the JSON API and metrics.
package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fde-dashboard/internal/api"
	"fde-dashboard/internal/chart"
	"fde-dashboard/internal/config"
	"fde-dashboard/internal/events"
	"fde-dashboard/internal/metrics"
	"fde-dashboard/internal/pages"
	"fde-dashboard/internal/storage"
	"fde-dashboard/internal/theme"
)

const (
	// ThemeCookie carries the selected theme between requests.
	ThemeCookie = "theme"

	themeCookieMaxAge = 365 * 24 * 60 * 60

	// pngPage labels chart exports in telemetry.
	pngPage = "chart.png"
)

// Deps are the collaborators a Handler routes to. Only Dashboard is
// required; nil entries disable their routes.
type Deps struct {
	Dashboard *pages.Dashboard
	API       *api.Server
	Bus       *events.Bus
	Metrics   *metrics.Metrics
	Store     storage.Store
	// Assets is rooted like web/static, so /images/x.png is images/x.png.
	Assets fs.FS
	// Papers is the root of /papers/.
	Papers fs.FS
	// Probe reports image availability for /healthz/assets.
	Probe api.AssetStatuser
}

// Handler is the dashboard's root http.Handler.
type Handler struct {
	cfg       config.Config
	features  config.Features
	logger    *slog.Logger
	dashboard *pages.Dashboard
	apiServer *api.Server
	bus       *events.Bus
	metrics   *metrics.Metrics
	store     storage.Store
	probe     api.AssetStatuser
	assets    http.Handler
	papers    http.Handler
}

// NewHandler constructs the root handler.
func NewHandler(cfg config.Config, deps Deps, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		cfg:       cfg,
		features:  cfg.Features(),
		logger:    logger,
		dashboard: deps.Dashboard,
		apiServer: deps.API,
		bus:       deps.Bus,
		metrics:   deps.Metrics,
		store:     deps.Store,
		probe:     deps.Probe,
	}
	if deps.Assets != nil {
		h.assets = http.FileServer(http.FS(deps.Assets))
	}
	if deps.Papers != nil {
		h.papers = http.StripPrefix("/papers", http.FileServer(http.FS(deps.Papers)))
	}
	return h
}

// ServeHTTP routes a request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.cfg.CORSAllowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", h.cfg.CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
	}
	if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path := r.URL.Path

	// API endpoints (when enabled)
	if h.features.API && h.apiServer != nil && h.apiServer.Handles(path) {
		h.apiServer.ServeHTTP(w, r)
		return
	}

	if h.features.Metrics && path == "/metrics" && r.Method == http.MethodGet {
		h.handleMetrics(w, r)
		return
	}

	if path == "/healthz" {
		h.handleHealthz(w, r)
		return
	}
	if path == "/healthz/assets" {
		h.handleHealthzAssets(w, r)
		return
	}

	if h.features.Events && path == "/events" && r.Method == http.MethodGet {
		h.handleSSEEvents(w, r)
		return
	}

	if path == "/theme" {
		h.handleTheme(w, r)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch {
	case path == "/" || path == "/models":
		h.servePage(w, r, pages.Models)
	case path == "/about":
		h.servePage(w, r, pages.About)
	case path == "/models/chart":
		h.servePage(w, r, pages.Chart)
	case strings.HasPrefix(path, "/models/chart/") && strings.HasSuffix(path, ".png"):
		metric := strings.TrimSuffix(strings.TrimPrefix(path, "/models/chart/"), ".png")
		h.servePNG(w, r, metric)
	case strings.HasPrefix(path, "/images/"):
		h.serveFiles(w, r, h.assets)
	case strings.HasPrefix(path, "/papers/"):
		h.serveFiles(w, r, h.papers)
	default:
		http.NotFound(w, r)
	}
}

// ResolveTheme picks the theme for a request: the theme query parameter,
// then the theme cookie, then the configured default. Unknown values
// resolve to light.
func (h *Handler) ResolveTheme(r *http.Request) theme.Signal {
	if v := r.URL.Query().Get("theme"); v != "" {
		return theme.Parse(v)
	}
	if c, err := r.Cookie(ThemeCookie); err == nil && c.Value != "" {
		return theme.Parse(c.Value)
	}
	return theme.Parse(h.cfg.DefaultTheme)
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request, p pages.Page) {
	sig := h.ResolveTheme(r)
	start := time.Now()

	cw := NewCountingWriter(w)
	cw.Header().Set("Content-Type", "text/html; charset=utf-8")
	cw.Header().Set("Cache-Control", "no-store")

	info, err := h.dashboard.Render(cw, p, sig)
	if err != nil {
		h.logger.Error("page render failed", "page", p, "theme", sig, "err", err)
		http.Error(cw, "render failed", http.StatusInternalServerError)
	}
	h.recordRender(string(p), sig, cw, start, info, err)
}

func (h *Handler) servePNG(w http.ResponseWriter, r *http.Request, metric string) {
	sig := h.ResolveTheme(r)
	start := time.Now()

	cw := NewCountingWriter(w)
	cw.Header().Set("Content-Type", "image/png")

	info, err := h.dashboard.RenderPNG(cw, metric, sig)
	switch {
	case err == nil:
	case errors.Is(err, chart.ErrUnknownMetric), errors.Is(err, chart.ErrNoData):
		http.Error(cw, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("chart export failed", "metric", metric, "err", err)
		http.Error(cw, "render failed", http.StatusInternalServerError)
	}
	h.recordRender(pngPage, sig, cw, start, info, err)
}

// recordRender feeds one completed render into metrics, storage and the
// event bus.
func (h *Handler) recordRender(page string, sig theme.Signal, cw *CountingWriter, start time.Time, info pages.Info, renderErr error) {
	dur := time.Since(start)
	status := storage.StatusOK
	if renderErr != nil {
		status = storage.StatusError
	}

	h.metrics.RecordRender(page, string(sig), string(status), dur, cw.BytesWritten())

	if h.store != nil {
		ev := &storage.RenderEvent{
			ID:         uuid.NewString(),
			TS:         start.UnixMilli(),
			Page:       page,
			Theme:      string(sig),
			Status:     status,
			HTTPStatus: cw.StatusCode(),
			DurationMs: int(dur.Milliseconds()),
			Bytes:      cw.BytesWritten(),
			Fallbacks:  info.Fallbacks,
		}
		if renderErr != nil {
			ev.Error = renderErr.Error()
		}
		if err := h.store.Insert(ev); err != nil {
			h.logger.Warn("failed to record render", "page", page, "err", err)
		}
	}

	if h.bus != nil {
		h.bus.Publish(events.Event{Type: events.Rendered, Theme: string(sig), Page: page})
	}
}

// handleTheme sets the theme cookie and announces the change.
// POST /theme (form: theme, redirect) or GET /theme?set=dark&redirect=/about
func (h *Handler) handleTheme(w http.ResponseWriter, r *http.Request) {
	var raw, redirect string
	switch r.Method {
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		raw = r.PostFormValue("theme")
		redirect = r.PostFormValue("redirect")
	case http.MethodGet, http.MethodHead:
		raw = r.URL.Query().Get("set")
		redirect = r.URL.Query().Get("redirect")
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if strings.TrimSpace(raw) == "" {
		http.Error(w, "missing theme", http.StatusBadRequest)
		return
	}

	sig := theme.Parse(raw)
	http.SetCookie(w, &http.Cookie{
		Name:     ThemeCookie,
		Value:    string(sig),
		Path:     "/",
		MaxAge:   themeCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.metrics.RecordThemeChange(string(sig))
	if h.bus != nil {
		h.bus.Publish(events.Event{Type: events.ThemeChanged, Theme: string(sig)})
	}
	h.logger.Debug("theme changed", "theme", sig)

	http.Redirect(w, r, localRedirect(redirect), http.StatusSeeOther)
}

// localRedirect keeps redirects on this host.
func localRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/models"
	}
	return target
}

func (h *Handler) serveFiles(w http.ResponseWriter, r *http.Request, files http.Handler) {
	// no directory listings
	if files == nil || strings.HasSuffix(r.URL.Path, "/") {
		http.NotFound(w, r)
		return
	}
	files.ServeHTTP(w, r)
}

func (h *Handler) handleSSEEvents(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		http.Error(w, "event bus not available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	eventCh := h.bus.Subscribe()
	defer h.bus.Unsubscribe(eventCh)

	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			data, err := events.FormatSSE(ev)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte(data)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		http.Error(w, "metrics not enabled", http.StatusServiceUnavailable)
		return
	}
	promhttp.Handler().ServeHTTP(w, r)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleHealthzAssets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.probe == nil {
		json.NewEncoder(w).Encode(map[string]any{
			"healthy": true,
			"probing": false,
		})
		return
	}

	missing := []string{}
	var lastCheck time.Time
	for _, st := range h.probe.Statuses() {
		if st.Checked && !st.Available {
			missing = append(missing, st.Path)
		}
		if st.LastCheck.After(lastCheck) {
			lastCheck = st.LastCheck
		}
	}

	healthy := len(missing) == 0
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]any{
		"healthy": healthy,
		"probing": true,
		"missing": missing,
	}
	if !lastCheck.IsZero() {
		response["last_check"] = lastCheck.Format(time.RFC3339)
	}
	json.NewEncoder(w).Encode(response)
}
