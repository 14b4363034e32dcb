// Package api provides the versioned JSON API for the dashboard data and
// render telemetry. All endpoints are under /api/v1/.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fde-dashboard/internal/assets"
	"fde-dashboard/internal/config"
	"fde-dashboard/internal/storage"
	"fde-dashboard/internal/views"
)

const (
	// APIPrefix is the base path for all API endpoints.
	APIPrefix = "/api/v1"

	overviewCacheDuration = 2 * time.Second
)

// SnapshotSource builds the derived views. *pages.Dashboard implements it.
type SnapshotSource interface {
	Snapshot() views.Snapshot
	Marker() string
}

// AssetStatuser reports asset availability. *assets.Prober implements it.
type AssetStatuser interface {
	Statuses() []assets.Status
}

// Server handles API requests.
type Server struct {
	source SnapshotSource
	prober AssetStatuser
	store  storage.Store
	cfg    config.Config
	logger *slog.Logger

	overviewCache   map[string]*cachedOverview
	overviewCacheMu sync.RWMutex
}

type cachedOverview struct {
	data      *OverviewResponse
	expiresAt time.Time
}

// NewServer creates an API server. prober and store may be nil; their
// endpoints then answer 503.
func NewServer(source SnapshotSource, prober AssetStatuser, store storage.Store, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		source:        source,
		prober:        prober,
		store:         store,
		cfg:           cfg,
		logger:        logger,
		overviewCache: make(map[string]*cachedOverview),
	}
}

// ServeHTTP routes requests under APIPrefix.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, APIPrefix)
	if path == r.URL.Path {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch {
	case path == "/models":
		s.handleModels(w, r)
	case path == "/conclusion":
		s.handleConclusion(w, r)
	case path == "/theme":
		s.handleTheme(w, r)
	case path == "/assets":
		s.handleAssets(w, r)
	case path == "/overview":
		s.handleOverview(w, r)
	case path == "/renders":
		s.handleListRenders(w, r)
	case strings.HasPrefix(path, "/renders/"):
		s.handleGetRender(w, r, strings.TrimPrefix(path, "/renders/"))
	case path == "/config":
		s.handleConfig(w, r)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

// Handles reports whether path belongs to the API.
func (s *Server) Handles(path string) bool {
	return path == APIPrefix || strings.HasPrefix(path, APIPrefix+"/")
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// cacheableWindows bounds the overview cache to the named windows.
var cacheableWindows = map[time.Duration]bool{
	time.Hour:          true,
	24 * time.Hour:     true,
	7 * 24 * time.Hour: true,
}

func parseWindow(r *http.Request) time.Duration {
	w := r.URL.Query().Get("window")
	switch w {
	case "1h":
		return time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	case "24h", "":
		return 24 * time.Hour
	default:
		if d, err := time.ParseDuration(w); err == nil && d > 0 {
			return d
		}
		return 24 * time.Hour
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
