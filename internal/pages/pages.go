// Package pages renders the dashboard pages. Every render builds a fresh
// views.Snapshot from the roster, resolves the theme, then executes the page
// template, so output is a pure function of the roster, the theme and the
// current asset availability.
package pages

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"fde-dashboard/internal/assets"
	"fde-dashboard/internal/chart"
	"fde-dashboard/internal/roster"
	"fde-dashboard/internal/table"
	"fde-dashboard/internal/theme"
	"fde-dashboard/internal/views"
	"fde-dashboard/web"
)

// Page names a renderable page.
type Page string

const (
	Models Page = "models"
	About  Page = "about"
	Chart  Page = "chart"
)

// ErrUnknownPage is returned for a page name Render does not know.
var ErrUnknownPage = errors.New("unknown page")

// AssetResolver maps an asset path to the path that should be displayed.
// *assets.Prober implements it.
type AssetResolver interface {
	Resolve(path string) string
}

// Config controls page rendering.
type Config struct {
	Marker   string
	PaperURL string
	Chart    chart.Options
	// ChartAssetsHost overrides where the chart page loads echarts from.
	ChartAssetsHost string
	// Static renders links for a self-contained export directory and drops
	// the theme toggle and live event stream.
	Static bool
	About  AboutContent
}

// Info describes a completed render.
type Info struct {
	Bytes     int64
	Fallbacks int // placeholder images substituted
}

// Dashboard renders pages for a roster.
type Dashboard struct {
	roster   *roster.Roster
	cfg      Config
	resolver AssetResolver
	models   *template.Template
	about    *template.Template
	logger   *slog.Logger
}

// New creates a Dashboard. A nil resolver shows every asset as authored.
func New(r *roster.Roster, cfg Config, resolver AssetResolver, logger *slog.Logger) (*Dashboard, error) {
	if r == nil {
		return nil, fmt.Errorf("pages: nil roster")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Marker == "" {
		cfg.Marker = roster.ProposedMarker
	}
	if cfg.PaperURL == "" {
		cfg.PaperURL = r.Paper()
	}
	if cfg.About.Product == "" {
		cfg.About = DefaultAbout()
	}
	cfg.Chart = cfg.Chart.WithDefaults()

	tfs, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	models, err := parsePage(tfs, "models.html")
	if err != nil {
		return nil, err
	}
	about, err := parsePage(tfs, "about.html")
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		roster:   r,
		cfg:      cfg,
		resolver: resolver,
		models:   models,
		about:    about,
		logger:   logger,
	}, nil
}

func parsePage(tfs fs.FS, name string) (*template.Template, error) {
	t, err := template.New(name).ParseFS(tfs, "layout.html", name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, nil
}

// Marker returns the proposed-model marker in use.
func (d *Dashboard) Marker() string { return d.cfg.Marker }

// Snapshot builds the derived views for the current roster.
func (d *Dashboard) Snapshot() views.Snapshot {
	return views.Build(d.roster, d.cfg.Marker)
}

// Render writes page p with theme sig to w. Nothing is written when
// rendering fails.
func (d *Dashboard) Render(w io.Writer, p Page, sig theme.Signal) (Info, error) {
	snap := d.Snapshot()
	sig = theme.Parse(string(sig))

	var buf bytes.Buffer
	var info Info
	var err error
	switch p {
	case Models:
		info.Fallbacks, err = d.renderModels(&buf, snap, sig)
	case About:
		err = d.renderLayout(&buf, d.about, d.basePage(About, "About", sig))
	case Chart:
		err = chart.Render(&buf, snap.Chart, theme.Resolve(sig), d.cfg.Chart, d.cfg.ChartAssetsHost)
	default:
		return info, fmt.Errorf("%w: %q", ErrUnknownPage, p)
	}
	if err != nil {
		return info, fmt.Errorf("render %s: %w", p, err)
	}

	n, err := buf.WriteTo(w)
	info.Bytes = n
	return info, err
}

// RenderPNG writes the single-metric PNG export for metric with theme sig.
func (d *Dashboard) RenderPNG(w io.Writer, metric string, sig theme.Signal) (Info, error) {
	snap := d.Snapshot()

	var buf bytes.Buffer
	if err := chart.WritePNG(&buf, snap.Chart, metric, theme.Parse(string(sig)), d.cfg.Chart); err != nil {
		return Info{}, err
	}
	n, err := buf.WriteTo(w)
	return Info{Bytes: n}, err
}

// links holds the navigation targets for one rendered page.
type links struct {
	Models string
	About  string
	Chart  string
	Theme  string
	Events string
	Self   string
}

type imageRef struct {
	Src      string
	Fallback string
}

type moduleCard struct {
	roster.ModuleDescriptor
	Image imageRef
}

type exportLink struct {
	Label string
	Href  string
}

type pageData struct {
	Title    string
	Page     Page
	Theme    theme.Signal
	Toggle   theme.Signal
	RootVars template.CSS
	Static   bool
	Links    links

	// Models page
	Snapshot         views.Snapshot
	ChartTitle       string
	ChartHeight      int
	Exports          []exportLink
	PerformanceTable template.HTML
	LossTable        template.HTML
	Modules          []moduleCard
	Architecture     imageRef
	PaperURL         string

	// About page
	About AboutContent
}

func (d *Dashboard) basePage(p Page, title string, sig theme.Signal) pageData {
	return pageData{
		Title:    title,
		Page:     p,
		Theme:    sig,
		Toggle:   sig.Toggle(),
		RootVars: rootVars(theme.PagePalette(sig)),
		Static:   d.cfg.Static,
		Links:    d.links(p, sig),
		About:    d.cfg.About,
	}
}

func (d *Dashboard) links(p Page, sig theme.Signal) links {
	if d.cfg.Static {
		return links{Models: "index.html", About: "about.html", Chart: "chart.html"}
	}
	l := links{
		Models: "/models",
		About:  "/about",
		Chart:  "/models/chart?theme=" + string(sig),
		Theme:  "/theme",
		Events: "/events",
	}
	if p == About {
		l.Self = l.About
	} else {
		l.Self = l.Models
	}
	return l
}

func (d *Dashboard) exportLinks(sig theme.Signal) []exportLink {
	out := make([]exportLink, 0, len(chart.AllSeries))
	for _, s := range chart.AllSeries {
		href := "/models/chart/" + s.Key + ".png?theme=" + string(sig)
		if d.cfg.Static {
			href = ExportPNGName(s.Key)
		}
		out = append(out, exportLink{Label: s.Label, Href: href})
	}
	return out
}

// ExportPNGName is the file name of a metric's PNG in a static export.
func ExportPNGName(metric string) string {
	return "chart_" + metric + ".png"
}

func (d *Dashboard) resolve(path, fallback string) (imageRef, bool) {
	src := path
	if d.resolver != nil {
		src = d.resolver.Resolve(path)
	}
	return imageRef{Src: src, Fallback: fallback}, src != path
}

func (d *Dashboard) renderModels(w io.Writer, snap views.Snapshot, sig theme.Signal) (int, error) {
	perf, err := table.PerformanceHTML(snap.Performance)
	if err != nil {
		return 0, err
	}
	loss, err := table.LossHTML(snap.Losses)
	if err != nil {
		return 0, err
	}

	data := d.basePage(Models, "Models", sig)
	data.Snapshot = snap
	data.ChartTitle = d.cfg.Chart.Title
	data.ChartHeight = d.cfg.Chart.Height + 40
	data.Exports = d.exportLinks(sig)
	data.PerformanceTable = perf
	data.LossTable = loss
	data.PaperURL = d.cfg.PaperURL

	fallbacks := 0
	for _, m := range snap.Modules {
		img, fell := d.resolve(m.Diagram, assets.PlaceholderModule)
		if fell {
			fallbacks++
		}
		data.Modules = append(data.Modules, moduleCard{ModuleDescriptor: m, Image: img})
	}
	arch, fell := d.resolve(d.roster.Architecture(), assets.PlaceholderArch)
	if fell {
		fallbacks++
	}
	data.Architecture = arch

	if fallbacks > 0 {
		d.logger.Debug("rendering with placeholder images", "count", fallbacks)
	}
	return fallbacks, d.renderLayout(w, d.models, data)
}

func (d *Dashboard) renderLayout(w io.Writer, t *template.Template, data pageData) error {
	return t.ExecuteTemplate(w, "layout", data)
}

func rootVars(p theme.Page) template.CSS {
	vars := []struct{ name, value string }{
		{"bg", p.Background},
		{"card", p.Card},
		{"border", p.Border},
		{"text", p.Text},
		{"muted", p.Muted},
		{"header-row", p.HeaderRow},
		{"row-even", p.RowEven},
		{"row-odd", p.RowOdd},
		{"emphasis", p.Emphasis},
		{"accent", p.Accent},
	}
	var b strings.Builder
	for _, v := range vars {
		fmt.Fprintf(&b, "--%s: %s; ", v.name, v.value)
	}
	return template.CSS(strings.TrimSpace(b.String()))
}
