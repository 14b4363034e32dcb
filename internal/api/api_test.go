package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fde-dashboard/internal/assets"
	"fde-dashboard/internal/config"
	"fde-dashboard/internal/roster"
	"fde-dashboard/internal/storage"
	"fde-dashboard/internal/views"
)

type rosterSource struct{ marker string }

func (s rosterSource) Snapshot() views.Snapshot { return views.Build(roster.Default(), s.marker) }
func (s rosterSource) Marker() string           { return s.marker }

type staticStatuses []assets.Status

func (s staticStatuses) Statuses() []assets.Status { return s }

func testConfig() config.Config {
	return config.Config{
		Mode:           config.ModeMonitor,
		DefaultTheme:   "dark",
		Storage:        config.StorageMemory,
		StorageMaxRows: 500,
		PaperURL:       "/papers/YOLO_FDE.pdf",
	}
}

func newTestServer(t *testing.T, prober AssetStatuser, store storage.Store) *Server {
	t.Helper()
	return NewServer(rosterSource{marker: "FDE"}, prober, store, testConfig(), nil)
}

func get(t *testing.T, s *Server, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", target, err)
		}
	}
	return rec
}

func seed(t *testing.T, store storage.Store) {
	t.Helper()
	now := time.Now().UnixMilli()
	events := []storage.RenderEvent{
		{ID: "r1", TS: now - 3000, Page: "models", Theme: "light", Status: storage.StatusOK, HTTPStatus: 200, DurationMs: 12, Bytes: 4000},
		{ID: "r2", TS: now - 2000, Page: "models", Theme: "dark", Status: storage.StatusOK, HTTPStatus: 200, DurationMs: 20, Bytes: 4100, Fallbacks: 1},
		{ID: "r3", TS: now - 1000, Page: "about", Theme: "dark", Status: storage.StatusError, HTTPStatus: 500, DurationMs: 3, Error: "boom"},
	}
	for i := range events {
		if err := store.Insert(&events[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func TestModels(t *testing.T) {
	s := newTestServer(t, nil, nil)

	var snap views.Snapshot
	rec := get(t, s, "/api/v1/models", &snap)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if len(snap.Models) != 5 || len(snap.Performance) != 5 || len(snap.Chart) != 5 {
		t.Errorf("snapshot sizes = %d/%d/%d", len(snap.Models), len(snap.Performance), len(snap.Chart))
	}
	if !snap.Performance[4].Style.Proposed {
		t.Error("last row should be the proposed model")
	}
}

func TestConclusion(t *testing.T) {
	s := newTestServer(t, nil, nil)

	var resp ConclusionResponse
	get(t, s, "/api/v1/conclusion", &resp)
	if resp.Marker != "FDE" || !resp.Found {
		t.Fatalf("conclusion = %+v", resp)
	}
	if resp.Name != "YOLOv8-FDE (Proposed)" || resp.MAP50 != "92.4%" {
		t.Errorf("conclusion = %+v", resp)
	}
}

func TestTheme(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		query      string
		want, flip string
	}{
		{"", "dark", "light"}, // falls back to the configured default
		{"?theme=light", "light", "dark"},
		{"?theme=DARK", "dark", "light"},
		{"?theme=sepia", "light", "dark"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var resp ThemeResponse
			get(t, s, "/api/v1/theme"+tt.query, &resp)
			if string(resp.Theme) != tt.want || string(resp.Toggle) != tt.flip {
				t.Errorf("theme = %s toggle = %s", resp.Theme, resp.Toggle)
			}
			if len(resp.Series) != 4 || resp.Series[0].Key != "mAP50" {
				t.Errorf("series = %+v", resp.Series)
			}
			if resp.Chart.Text == "" || resp.Page.Background == "" {
				t.Error("palette should be populated")
			}
		})
	}
}

func TestAssets(t *testing.T) {
	s := newTestServer(t, nil, nil)
	if rec := get(t, s, "/api/v1/assets", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("without prober status = %d", rec.Code)
	}

	s = newTestServer(t, staticStatuses{
		{Path: "/images/a.png", Checked: true, Available: true},
		{Path: "/images/b.png", Checked: true},
		{Path: "/images/c.png"},
	}, nil)
	var resp AssetsResponse
	get(t, s, "/api/v1/assets", &resp)
	if len(resp.Assets) != 3 || resp.Available != 1 || resp.Missing != 1 {
		t.Errorf("assets = %+v", resp)
	}
}

func TestStorageEndpointsWithoutStore(t *testing.T) {
	s := newTestServer(t, nil, nil)
	for _, path := range []string{"/api/v1/overview", "/api/v1/renders", "/api/v1/renders/x"} {
		if rec := get(t, s, path, nil); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, rec.Code)
		}
	}
}

func TestListRenders(t *testing.T) {
	store := storage.NewMemoryStore(100)
	seed(t, store)
	s := newTestServer(t, nil, store)

	var all RenderListResponse
	get(t, s, "/api/v1/renders", &all)
	if all.Count != 3 || all.Limit != 50 || all.Renders[0].ID != "r3" {
		t.Errorf("list = %+v", all)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"?page=models", []string{"r2", "r1"}},
		{"?theme=dark", []string{"r3", "r2"}},
		{"?status=error", []string{"r3"}},
		{"?limit=1&offset=1", []string{"r2"}},
		{"?limit=bogus", []string{"r3", "r2", "r1"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var resp RenderListResponse
			get(t, s, "/api/v1/renders"+tt.query, &resp)
			if len(resp.Renders) != len(tt.want) {
				t.Fatalf("got %d renders, want %d", len(resp.Renders), len(tt.want))
			}
			for i, id := range tt.want {
				if resp.Renders[i].ID != id {
					t.Errorf("renders[%d] = %s, want %s", i, resp.Renders[i].ID, id)
				}
			}
		})
	}

	var capped RenderListResponse
	get(t, s, "/api/v1/renders?limit=9999", &capped)
	if capped.Limit != 500 {
		t.Errorf("limit = %d, want capped at 500", capped.Limit)
	}
}

func TestListRendersEmpty(t *testing.T) {
	s := newTestServer(t, nil, storage.NewMemoryStore(100))
	rec := get(t, s, "/api/v1/renders", nil)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["renders"]) != "[]" {
		t.Errorf("renders = %s, want []", raw["renders"])
	}
}

func TestGetRender(t *testing.T) {
	store := storage.NewMemoryStore(100)
	seed(t, store)
	s := newTestServer(t, nil, store)

	var ev storage.RenderEvent
	get(t, s, "/api/v1/renders/r2", &ev)
	if ev.ID != "r2" || ev.Fallbacks != 1 {
		t.Errorf("render = %+v", ev)
	}

	if rec := get(t, s, "/api/v1/renders/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown render status = %d", rec.Code)
	}
}

func TestOverview(t *testing.T) {
	store := storage.NewMemoryStore(100)
	seed(t, store)
	s := newTestServer(t, nil, store)

	var resp OverviewResponse
	get(t, s, "/api/v1/overview?window=1h", &resp)
	if resp.Window != time.Hour.String() {
		t.Errorf("window = %q", resp.Window)
	}
	if resp.Summary.TotalRenders != 3 || resp.Summary.ErrorCount != 1 {
		t.Errorf("summary = %+v", resp.Summary)
	}
	if len(resp.Pages) != 2 || resp.Pages[0].Page != "models" {
		t.Errorf("pages = %+v", resp.Pages)
	}
	if len(resp.Series.RenderCount) == 0 {
		t.Error("render count series empty")
	}

	// cached for the same window
	if err := store.Insert(&storage.RenderEvent{ID: "r4", TS: time.Now().UnixMilli(), Page: "chart", Status: storage.StatusOK}); err != nil {
		t.Fatal(err)
	}
	var again OverviewResponse
	get(t, s, "/api/v1/overview?window=1h", &again)
	if again.Summary.TotalRenders != 3 {
		t.Errorf("cached total = %d, want 3", again.Summary.TotalRenders)
	}
}

func TestOverviewCachesNamedWindowsOnly(t *testing.T) {
	store := storage.NewMemoryStore(100)
	seed(t, store)
	s := newTestServer(t, nil, store)

	for _, w := range []string{"90m", "2h", "3h30m", "1h", "24h", "7d"} {
		get(t, s, "/api/v1/overview?window="+w, nil)
	}
	s.overviewCacheMu.RLock()
	n := len(s.overviewCache)
	s.overviewCacheMu.RUnlock()
	if n != 3 {
		t.Errorf("cache entries = %d, want 3", n)
	}

	// custom windows are always computed fresh
	if err := store.Insert(&storage.RenderEvent{ID: "r4", TS: time.Now().UnixMilli(), Page: "chart", Status: storage.StatusOK}); err != nil {
		t.Fatal(err)
	}
	var resp OverviewResponse
	get(t, s, "/api/v1/overview?window=90m", &resp)
	if resp.Summary.TotalRenders != 4 {
		t.Errorf("90m total = %d, want 4", resp.Summary.TotalRenders)
	}
}

func TestConfigEndpoint(t *testing.T) {
	s := newTestServer(t, nil, storage.NewMemoryStore(100))

	var resp ConfigResponse
	get(t, s, "/api/v1/config", &resp)
	if resp.Mode != "monitor" || resp.ProposedMarker != "FDE" || resp.Storage != "memory" {
		t.Errorf("config = %+v", resp)
	}
	if !resp.Features.API || !resp.Features.Storage {
		t.Errorf("features = %+v", resp.Features)
	}
	if resp.Features.AssetProbe {
		t.Error("asset probe should report false without a prober")
	}
}

func TestRouting(t *testing.T) {
	s := newTestServer(t, nil, nil)

	if rec := get(t, s, "/api/v1/unknown", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/models", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d", rec.Code)
	}

	for path, want := range map[string]bool{
		"/api/v1":        true,
		"/api/v1/models": true,
		"/api/v10":       false,
		"/models":        false,
	} {
		if got := s.Handles(path); got != want {
			t.Errorf("Handles(%q) = %v", path, got)
		}
	}
}

func TestParseWindow(t *testing.T) {
	tests := map[string]time.Duration{
		"":      24 * time.Hour,
		"1h":    time.Hour,
		"7d":    7 * 24 * time.Hour,
		"30m":   30 * time.Minute,
		"-5m":   24 * time.Hour,
		"weird": 24 * time.Hour,
	}
	for in, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/overview?window="+in, nil)
		if got := parseWindow(r); got != want {
			t.Errorf("parseWindow(%q) = %v, want %v", in, got, want)
		}
	}
}
