package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fde-dashboard/internal/assets"
	"fde-dashboard/internal/chart"
	"fde-dashboard/internal/config"
	"fde-dashboard/internal/pages"
	"fde-dashboard/internal/roster"
	"fde-dashboard/internal/server"
	"fde-dashboard/internal/theme"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
)

func newExportCmd(a *app) *cobra.Command {
	var outDir, themeName string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dashboard as static files",
		Long: "Renders index.html, about.html, chart.html and one PNG per chart metric\n" +
			"into --out, and copies the referenced images. Serve the directory from a web root.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if themeName == "" {
				themeName = cfg.DefaultTheme
			}
			return export(cmd.Context(), cmd.OutOrStdout(), cfg, outDir, theme.Parse(themeName), logger)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "dist", "output directory")
	cmd.Flags().StringVar(&themeName, "theme", "", "light|dark (default DEFAULT_THEME)")
	cmd.Flags().String("assets-dir", "", "directory layered over the embedded static assets")
	a.bind(cmd, config.KeyAssetsDir, "assets-dir")
	return cmd
}

type exportFile struct {
	name   string
	render func(io.Writer) (pages.Info, error)
}

// export renders the static site into outDir.
func export(ctx context.Context, w io.Writer, cfg config.Config, outDir string, sig theme.Signal, logger *slog.Logger) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files, err := assetFS(cfg)
	if err != nil {
		return err
	}

	// One synchronous probe so missing images are exported as placeholders.
	r := roster.Default()
	refs := assets.RefsFor(r)
	prober := assets.NewProber(refs, files, assets.Config{Timeout: cfg.AssetProbeTimeout}, nil, logger)
	prober.CheckAll(ctx)

	dash, err := pages.New(r, pagesConfig(cfg, true), prober, logger)
	if err != nil {
		return err
	}

	outputs := []exportFile{
		{"index.html", func(w io.Writer) (pages.Info, error) { return dash.Render(w, pages.Models, sig) }},
		{"about.html", func(w io.Writer) (pages.Info, error) { return dash.Render(w, pages.About, sig) }},
		{"chart.html", func(w io.Writer) (pages.Info, error) { return dash.Render(w, pages.Chart, sig) }},
	}
	for _, s := range chart.AllSeries {
		metric := s.Key
		outputs = append(outputs, exportFile{pages.ExportPNGName(metric), func(w io.Writer) (pages.Info, error) {
			return dash.RenderPNG(w, metric, sig)
		}})
	}

	fallbacks := 0
	for _, o := range outputs {
		var buf bytes.Buffer
		info, err := o.render(&buf)
		if err != nil {
			return fmt.Errorf("render %s: %w", o.name, err)
		}
		if err := os.WriteFile(filepath.Join(outDir, o.name), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.name, err)
		}
		fallbacks += info.Fallbacks
		fmt.Fprintf(w, "%s %s (%s)\n", okMark("✓"), o.name, server.FormatBytes(info.Bytes))
	}

	copied := copyImages(w, files, refs, outDir)
	if fallbacks > 0 {
		fmt.Fprintf(w, "%s %d image(s) replaced by placeholders\n", warnMark("!"), fallbacks)
	}
	fmt.Fprintf(w, "%s exported %d files and %d images to %s (theme %s)\n",
		okMark("✓"), len(outputs), copied, outDir, sig)
	return nil
}

// copyImages copies every referenced image and both placeholders that exist
// in files. Missing images are reported and skipped.
func copyImages(w io.Writer, files fs.FS, refs []assets.Ref, outDir string) int {
	paths := []string{assets.PlaceholderModule, assets.PlaceholderArch}
	for _, ref := range refs {
		paths = append(paths, ref.Path)
	}

	copied := 0
	seen := make(map[string]bool)
	for _, p := range paths {
		name := strings.TrimPrefix(p, "/")
		if seen[name] {
			continue
		}
		seen[name] = true

		data, err := fs.ReadFile(files, name)
		if err != nil {
			fmt.Fprintf(w, "%s %s missing, skipped\n", warnMark("!"), p)
			continue
		}
		dst := filepath.Join(outDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", warnMark("!"), p, err)
			continue
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", warnMark("!"), p, err)
			continue
		}
		copied++
	}
	return copied
}
