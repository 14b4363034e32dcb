package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != ModeMonitor {
		t.Errorf("Mode = %v, want %v", cfg.Mode, ModeMonitor)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.DefaultTheme != "light" {
		t.Errorf("DefaultTheme = %q", cfg.DefaultTheme)
	}
	if cfg.ProposedMarker != "FDE" {
		t.Errorf("ProposedMarker = %q", cfg.ProposedMarker)
	}
	if cfg.Storage != StorageSQLite {
		t.Errorf("Storage = %v, want sqlite in monitor mode", cfg.Storage)
	}
	if cfg.AssetProbeInterval != 30*time.Second || cfg.AssetProbeTimeout != 5*time.Second {
		t.Errorf("probe interval/timeout = %v/%v", cfg.AssetProbeInterval, cfg.AssetProbeTimeout)
	}
	if cfg.PaperURL != "/papers/YOLO_FDE.pdf" {
		t.Errorf("PaperURL = %q", cfg.PaperURL)
	}
	if cfg.StorageMaxRows != 3000 || cfg.EventBuffer != 64 {
		t.Errorf("StorageMaxRows/EventBuffer = %d/%d", cfg.StorageMaxRows, cfg.EventBuffer)
	}
}

func TestModeStatic(t *testing.T) {
	t.Setenv("MODE", "static")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage != StorageOff {
		t.Errorf("Storage = %v, want off in static mode", cfg.Storage)
	}

	f := cfg.Features()
	if !f.Pages {
		t.Error("Features.Pages should be true for MODE=static")
	}
	if f.API || f.Events || f.Metrics || f.Storage || f.AssetProbe {
		t.Errorf("static mode enabled extra features: %+v", f)
	}
}

func TestModeMonitorFeatures(t *testing.T) {
	t.Setenv("MODE", "Monitor")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	f := cfg.Features()
	if !f.Pages || !f.API || !f.Events || !f.Metrics || !f.Storage || !f.AssetProbe {
		t.Errorf("monitor features = %+v, want all enabled", f)
	}
}

func TestStorageOffDisablesStorageFeature(t *testing.T) {
	t.Setenv("STORAGE", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Features().Storage {
		t.Error("Features.Storage should be false for STORAGE=off")
	}
	if !cfg.Features().API {
		t.Error("API should stay enabled")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("DEFAULT_THEME", "DARK")
	t.Setenv("ASSET_PROBE_INTERVAL", "2m")
	t.Setenv("STORAGE", "memory")
	t.Setenv("STORAGE_MAX_ROWS", "500")
	t.Setenv("CHART_WIDTH", "800")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.DefaultTheme != "dark" {
		t.Errorf("DefaultTheme = %q", cfg.DefaultTheme)
	}
	if cfg.AssetProbeInterval != 2*time.Minute {
		t.Errorf("AssetProbeInterval = %v", cfg.AssetProbeInterval)
	}
	if cfg.Storage != StorageMemory || cfg.StorageMaxRows != 500 {
		t.Errorf("storage = %v/%d", cfg.Storage, cfg.StorageMaxRows)
	}
	if cfg.ChartWidth != 800 {
		t.Errorf("ChartWidth = %d", cfg.ChartWidth)
	}
}

func TestConfigFileLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	content := "listen_addr: \":7070\"\nproposed_marker: Proposed\nstorage: memory\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	// env beats the file
	t.Setenv("STORAGE", "off")

	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}
	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper() error = %v", err)
	}
	if cfg.ListenAddr != ":7070" || cfg.ProposedMarker != "Proposed" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Storage != StorageOff {
		t.Errorf("Storage = %v, env should override the file", cfg.Storage)
	}
}

func TestOverrideTakesPrecedence(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":1111")
	v := NewViper()
	v.Set(KeyListenAddr, ":2222")
	cfg, err := FromViper(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":2222" {
		t.Errorf("ListenAddr = %q, explicit value should win", cfg.ListenAddr)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad mode", func(c *Config) { c.Mode = "protect" }, "MODE"},
		{"empty listen", func(c *Config) { c.ListenAddr = "" }, "LISTEN_ADDR"},
		{"bad theme", func(c *Config) { c.DefaultTheme = "sepia" }, "DEFAULT_THEME"},
		{"blank marker", func(c *Config) { c.ProposedMarker = "  " }, "PROPOSED_MARKER"},
		{"tiny chart", func(c *Config) { c.ChartWidth = 10 }, "CHART_WIDTH"},
		{"asset url scheme", func(c *Config) { c.AssetBaseURL = "ftp://cdn/x" }, "ASSET_BASE_URL"},
		{"asset url ok", func(c *Config) { c.AssetBaseURL = "https://cdn.example.com/static" }, ""},
		{"zero interval", func(c *Config) { c.AssetProbeInterval = 0 }, "ASSET_PROBE_INTERVAL"},
		{"zero timeout", func(c *Config) { c.AssetProbeTimeout = 0 }, "ASSET_PROBE_TIMEOUT"},
		{"empty paper", func(c *Config) { c.PaperURL = "" }, "PAPER_URL"},
		{"bad storage", func(c *Config) { c.Storage = "redis" }, "STORAGE"},
		{"sqlite without path", func(c *Config) { c.StoragePath = "" }, "STORAGE_PATH"},
		{"too few rows", func(c *Config) { c.StorageMaxRows = 99 }, "STORAGE_MAX_ROWS"},
		{"zero event buffer", func(c *Config) { c.EventBuffer = 0 }, "EVENT_BUFFER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("MODE", "retry")
	if _, err := Load(); err == nil {
		t.Error("Load() should reject MODE=retry")
	}
}
