package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"fde-dashboard/internal/config"
	"fde-dashboard/internal/pages"
	"fde-dashboard/internal/theme"
	"fde-dashboard/internal/views"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootShortDescription(t *testing.T) {
	root := newRootCmd()
	if strings.Contains(root.Short, root.Name()) {
		t.Errorf("Short %q repeats the command name", root.Short)
	}
}

func TestSummary(t *testing.T) {
	out, err := run(t, "summary")
	if err != nil {
		t.Fatalf("summary error = %v", err)
	}
	want := "The proposed YOLOv8-FDE (Proposed) achieves 92.4% mAP@50 and 81.6% mAP@50-95, with only 2.69M parameters and 3.5 GFLOPs."
	if strings.TrimSpace(out) != want {
		t.Errorf("summary = %q", out)
	}
}

func TestSummaryWithoutMatch(t *testing.T) {
	out, err := run(t, "summary", "--proposed-marker", "YOLOv9")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "The proposed model achieves "+views.Placeholder) {
		t.Errorf("summary = %q", out)
	}
}

func TestConfigFileFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	if err := os.WriteFile(path, []byte("proposed_marker: YOLOv8-N\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "summary", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "YOLOv8-N (Baseline)") {
		t.Errorf("summary = %q, config file marker not applied", out)
	}

	// flag beats the file
	out, err = run(t, "summary", "--config", path, "--proposed-marker", "FDE")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "YOLOv8-FDE") {
		t.Errorf("summary = %q, flag should override the file", out)
	}
}

func TestAssetsDirFlagPerCommand(t *testing.T) {
	for _, name := range []string{"serve", "export"} {
		t.Run(name, func(t *testing.T) {
			a := &app{v: config.NewViper()}
			root := a.rootCmd()
			sub, _, err := root.Find([]string{name})
			if err != nil {
				t.Fatal(err)
			}

			var got string
			sub.RunE = func(*cobra.Command, []string) error {
				cfg, err := a.config()
				got = cfg.AssetsDir
				return err
			}
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs([]string{name, "--assets-dir", "/srv/figures"})
			if err := root.Execute(); err != nil {
				t.Fatal(err)
			}
			if got != "/srv/figures" {
				t.Errorf("%s --assets-dir: AssetsDir = %q", name, got)
			}
		})
	}
}

func TestConfigFileMissing(t *testing.T) {
	if _, err := run(t, "summary", "--config", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestInvalidEnvConfig(t *testing.T) {
	t.Setenv("DEFAULT_THEME", "sepia")
	if _, err := run(t, "summary"); err == nil {
		t.Error("expected a config error")
	}
}

func TestTable(t *testing.T) {
	tests := []struct {
		kind    string
		want    []string
		notWant []string
	}{
		{"performance", []string{performanceTitle, "Parameters (M)", "YOLOv8-FDE (Proposed)"}, []string{lossTitle}},
		{"loss", []string{lossTitle, "Box Loss"}, []string{performanceTitle}},
		{"all", []string{performanceTitle, lossTitle}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			out, err := run(t, "table", "--kind", tt.kind, "--theme", "dark")
			if err != nil {
				t.Fatal(err)
			}
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q", s)
				}
			}
		})
	}

	if _, err := run(t, "table", "--kind", "speed"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "export", "--out", dir, "--theme", "dark")
	if err != nil {
		t.Fatalf("export error = %v", err)
	}

	for _, name := range []string{
		"index.html",
		"about.html",
		"chart.html",
		pages.ExportPNGName("mAP50"),
		pages.ExportPNGName("mAP50_95"),
		pages.ExportPNGName("precision"),
		pages.ExportPNGName("recall"),
		"images/placeholder_module.png",
		"images/placeholder_arch.png",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
		if !strings.HasSuffix(name, ".png") && !strings.Contains(out, name) {
			t.Errorf("output does not mention %s", name)
		}
	}

	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	html := string(index)
	if !strings.Contains(html, `data-theme="dark"`) {
		t.Error("export should use the requested theme")
	}
	// only the placeholders ship embedded, so every figure falls back
	if strings.Contains(html, `src="/images/dwr_diagram.png"`) {
		t.Error("missing diagram should be replaced by its placeholder")
	}
	if strings.Contains(html, "EventSource") {
		t.Error("static export should not open an event stream")
	}
	if !strings.Contains(out, "replaced by placeholders") {
		t.Errorf("output = %q", out)
	}
}

func TestExportWithAssetsDir(t *testing.T) {
	assetsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(assetsDir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(assetsDir, "images", "dwr_diagram.png"), []byte("diagram"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if _, err := run(t, "export", "--out", dir, "--assets-dir", assetsDir); err != nil {
		t.Fatal(err)
	}

	index, _ := os.ReadFile(filepath.Join(dir, "index.html"))
	if !strings.Contains(string(index), `src="/images/dwr_diagram.png"`) {
		t.Error("available diagram should be referenced directly")
	}
	data, err := os.ReadFile(filepath.Join(dir, "images", "dwr_diagram.png"))
	if err != nil || string(data) != "diagram" {
		t.Errorf("diagram not copied: %q, %v", data, err)
	}
}

func TestPrintTablesRejectsKind(t *testing.T) {
	var buf bytes.Buffer
	if err := printTables(&buf, views.Snapshot{}, "", theme.Light); err == nil {
		t.Error("empty kind should be rejected")
	}
	if buf.Len() != 0 {
		t.Error("nothing should be printed on error")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		warn  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{"warning", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}
	for _, tt := range tests {
		l := newLogger(io.Discard, tt.level)
		ctx := context.Background()
		if got := l.Enabled(ctx, slog.LevelDebug); got != tt.debug {
			t.Errorf("%s: debug enabled = %v", tt.level, got)
		}
		if got := l.Enabled(ctx, slog.LevelWarn); got != tt.warn {
			t.Errorf("%s: warn enabled = %v", tt.level, got)
		}
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:0")
	t.Setenv("STORAGE", "memory")
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, newLogger(io.Discard, "error")) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeReportsListenError(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "256.0.0.1:99999")
	t.Setenv("MODE", "static")
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := serve(ctx, cfg, newLogger(io.Discard, "error")); err == nil {
		t.Error("expected a listen error")
	}
}
