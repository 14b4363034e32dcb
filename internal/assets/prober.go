// Package assets tracks availability of the image assets referenced by the
// dashboard and substitutes placeholders for missing ones. Each asset is
// probed and resolved independently.
package assets

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fde-dashboard/internal/metrics"
	"fde-dashboard/internal/roster"
)

// Placeholder images substituted on load failure.
const (
	PlaceholderModule = "/images/placeholder_module.png"
	PlaceholderArch   = "/images/placeholder_arch.png"
)

// Ref is an asset path and the placeholder that replaces it.
type Ref struct {
	Path     string
	Fallback string
}

// Status is the probe result for one asset.
type Status struct {
	Path      string    `json:"path"`
	Fallback  string    `json:"fallback"`
	Checked   bool      `json:"checked"`
	Available bool      `json:"available"`
	LastCheck time.Time `json:"last_check"`
	LastError string    `json:"last_error,omitempty"`
}

type assetState struct {
	ref       Ref
	checked   atomic.Bool
	available atomic.Bool
	lastCheck atomic.Value // time.Time
	lastError atomic.Value // string
}

// Config controls how the prober reaches assets.
type Config struct {
	// BaseURL, when set, probes assets over HTTP instead of the filesystem.
	BaseURL  string
	Interval time.Duration
	Timeout  time.Duration
	// OnChange is called when an asset's availability flips after its
	// first probe.
	OnChange func(path string, available bool)
}

// Prober periodically checks asset availability out of band.
type Prober struct {
	fsys    fs.FS
	cfg     Config
	states  map[string]*assetState
	metrics *metrics.Metrics
	logger  *slog.Logger
	client  *http.Client
	stopCh  chan struct{}
	once    sync.Once
}

// NewProber creates a prober for refs. Probing starts with Start.
func NewProber(refs []Ref, fsys fs.FS, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	p := &Prober{
		fsys:    fsys,
		cfg:     cfg,
		states:  make(map[string]*assetState, len(refs)),
		metrics: m,
		logger:  logger,
		client:  &http.Client{Timeout: cfg.Timeout},
		stopCh:  make(chan struct{}),
	}
	for _, r := range refs {
		p.states[r.Path] = &assetState{ref: r}
	}
	return p
}

// Start launches the background probe loop. The first probe runs immediately.
func (p *Prober) Start() {
	go p.run()
}

func (p *Prober) run() {
	p.CheckAll(context.Background())

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.CheckAll(context.Background())
		case <-p.stopCh:
			return
		}
	}
}

// CheckAll probes every asset once. A failure only affects its own asset.
func (p *Prober) CheckAll(ctx context.Context) {
	for _, st := range p.states {
		p.check(ctx, st)
	}
}

func (p *Prober) check(ctx context.Context, st *assetState) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var err error
	if p.cfg.BaseURL != "" {
		err = p.checkHTTP(ctx, st.ref.Path)
	} else {
		err = p.checkFS(st.ref.Path)
	}

	available := err == nil
	was := st.available.Swap(available)
	st.lastCheck.Store(time.Now())
	if err != nil {
		st.lastError.Store(err.Error())
		p.logger.Debug("asset probe failed", "asset", st.ref.Path, "err", err)
	} else {
		st.lastError.Store("")
	}

	// checked is published last so Resolve never pairs it with a stale result
	wasChecked := st.checked.Swap(true)
	if wasChecked && was != available && p.cfg.OnChange != nil {
		p.cfg.OnChange(st.ref.Path, available)
	}

	p.metrics.UpdateAssetAvailable(st.ref.Path, err == nil)
}

func (p *Prober) checkFS(path string) error {
	if p.fsys == nil {
		return fmt.Errorf("no asset filesystem")
	}
	info, err := fs.Stat(p.fsys, strings.TrimPrefix(path, "/"))
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func (p *Prober) checkHTTP(ctx context.Context, path string) error {
	url := strings.TrimSuffix(p.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return nil
	}
	return fmt.Errorf("status code: %d", resp.StatusCode)
}

// Resolve returns path, or its placeholder when the last probe failed.
// Unregistered and not-yet-probed assets resolve to themselves.
func (p *Prober) Resolve(path string) string {
	st, ok := p.states[path]
	if !ok || !st.checked.Load() || st.available.Load() {
		return path
	}
	p.metrics.RecordAssetFallback(path)
	return st.ref.Fallback
}

// Fallback returns the registered placeholder for path, if any.
func (p *Prober) Fallback(path string) string {
	if st, ok := p.states[path]; ok {
		return st.ref.Fallback
	}
	return ""
}

// Statuses returns the probe state of every asset, sorted by path.
func (p *Prober) Statuses() []Status {
	out := make([]Status, 0, len(p.states))
	for _, st := range p.states {
		s := Status{
			Path:      st.ref.Path,
			Fallback:  st.ref.Fallback,
			Checked:   st.checked.Load(),
			Available: st.available.Load(),
		}
		if v := st.lastCheck.Load(); v != nil {
			s.LastCheck = v.(time.Time)
		}
		if v := st.lastError.Load(); v != nil {
			s.LastError = v.(string)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Shutdown stops the probe loop.
func (p *Prober) Shutdown() {
	p.once.Do(func() { close(p.stopCh) })
}

// RefsFor lists the image assets referenced by a roster: one per module
// diagram plus the architecture figure.
func RefsFor(r *roster.Roster) []Ref {
	var refs []Ref
	for _, m := range r.Modules() {
		if m.Diagram != "" {
			refs = append(refs, Ref{Path: m.Diagram, Fallback: PlaceholderModule})
		}
	}
	if r.Architecture() != "" {
		refs = append(refs, Ref{Path: r.Architecture(), Fallback: PlaceholderArch})
	}
	return refs
}
