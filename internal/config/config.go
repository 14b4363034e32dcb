package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Mode controls which features are enabled.
// - static: pages and assets only, no API/events/metrics/storage/probing
// - monitor (default): pages + API + events + metrics + render telemetry + asset probing
type Mode string

const (
	ModeStatic  Mode = "static"
	ModeMonitor Mode = "monitor"
)

// StorageType controls the telemetry storage backend.
type StorageType string

const (
	StorageSQLite StorageType = "sqlite"
	StorageMemory StorageType = "memory"
	StorageOff    StorageType = "off"
)

// Features derived from MODE.
type Features struct {
	Pages      bool
	API        bool
	Events     bool
	Metrics    bool
	Storage    bool
	AssetProbe bool
}

// Config contains all runtime configuration for the dashboard.
type Config struct {
	// Core
	Mode       Mode
	ListenAddr string
	LogLevel   string

	// Presentation
	DefaultTheme    string
	ProposedMarker  string
	ChartWidth      int
	ChartHeight     int
	ChartAssetsHost string

	// Assets
	AssetsDir          string
	AssetBaseURL       string
	AssetProbeInterval time.Duration
	AssetProbeTimeout  time.Duration
	PaperURL           string
	PapersDir          string

	// Storage (enabled in monitor mode unless STORAGE=off)
	Storage        StorageType
	StoragePath    string
	StorageMaxRows int

	// HTTP
	EventBuffer     int
	CORSAllowOrigin string
}

// Keys are the viper keys; each also reads the upper-cased env var of the
// same name (LISTEN_ADDR, STORAGE_MAX_ROWS, ...).
const (
	KeyMode               = "mode"
	KeyListenAddr         = "listen_addr"
	KeyLogLevel           = "log_level"
	KeyDefaultTheme       = "default_theme"
	KeyProposedMarker     = "proposed_marker"
	KeyChartWidth         = "chart_width"
	KeyChartHeight        = "chart_height"
	KeyChartAssetsHost    = "chart_assets_host"
	KeyAssetsDir          = "assets_dir"
	KeyAssetBaseURL       = "asset_base_url"
	KeyAssetProbeInterval = "asset_probe_interval"
	KeyAssetProbeTimeout  = "asset_probe_timeout"
	KeyPaperURL           = "paper_url"
	KeyPapersDir          = "papers_dir"
	KeyStorage            = "storage"
	KeyStoragePath        = "storage_path"
	KeyStorageMaxRows     = "storage_max_rows"
	KeyEventBuffer        = "event_buffer"
	KeyCORSAllowOrigin    = "cors_allow_origin"
)

// Features returns the feature flags derived from the current MODE.
func (c *Config) Features() Features {
	if c.Mode == ModeStatic {
		return Features{Pages: true}
	}
	return Features{
		Pages:      true,
		API:        true,
		Events:     true,
		Metrics:    true,
		Storage:    c.Storage != StorageOff,
		AssetProbe: true,
	}
}

// SetDefaults registers default values on v. STORAGE has no static default;
// it follows MODE.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyMode, string(ModeMonitor))
	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDefaultTheme, "light")
	v.SetDefault(KeyProposedMarker, "FDE")
	v.SetDefault(KeyChartWidth, 1024)
	v.SetDefault(KeyChartHeight, 420)
	v.SetDefault(KeyChartAssetsHost, "")
	v.SetDefault(KeyAssetsDir, "")
	v.SetDefault(KeyAssetBaseURL, "")
	v.SetDefault(KeyAssetProbeInterval, 30*time.Second)
	v.SetDefault(KeyAssetProbeTimeout, 5*time.Second)
	v.SetDefault(KeyPaperURL, "/papers/YOLO_FDE.pdf")
	v.SetDefault(KeyPapersDir, "")
	v.SetDefault(KeyStoragePath, "data/fde-dashboard.sqlite")
	v.SetDefault(KeyStorageMaxRows, 3000)
	v.SetDefault(KeyEventBuffer, 64)
	v.SetDefault(KeyCORSAllowOrigin, "*")
}

// NewViper returns a viper instance with defaults and env lookup wired.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

// Load reads env vars and returns a validated Config.
func Load() (Config, error) {
	return FromViper(NewViper())
}

// FromViper builds a validated Config from v. Callers layer a config file
// and command-line flags onto v before calling it.
func FromViper(v *viper.Viper) (Config, error) {
	mode := Mode(strings.ToLower(v.GetString(KeyMode)))

	storage := StorageType(strings.ToLower(v.GetString(KeyStorage)))
	if storage == "" {
		if mode == ModeStatic {
			storage = StorageOff
		} else {
			storage = StorageSQLite
		}
	}

	cfg := Config{
		Mode:       mode,
		ListenAddr: v.GetString(KeyListenAddr),
		LogLevel:   v.GetString(KeyLogLevel),

		DefaultTheme:    strings.ToLower(v.GetString(KeyDefaultTheme)),
		ProposedMarker:  v.GetString(KeyProposedMarker),
		ChartWidth:      v.GetInt(KeyChartWidth),
		ChartHeight:     v.GetInt(KeyChartHeight),
		ChartAssetsHost: v.GetString(KeyChartAssetsHost),

		AssetsDir:          v.GetString(KeyAssetsDir),
		AssetBaseURL:       v.GetString(KeyAssetBaseURL),
		AssetProbeInterval: v.GetDuration(KeyAssetProbeInterval),
		AssetProbeTimeout:  v.GetDuration(KeyAssetProbeTimeout),
		PaperURL:           v.GetString(KeyPaperURL),
		PapersDir:          v.GetString(KeyPapersDir),

		Storage:        storage,
		StoragePath:    v.GetString(KeyStoragePath),
		StorageMaxRows: v.GetInt(KeyStorageMaxRows),

		EventBuffer:     v.GetInt(KeyEventBuffer),
		CORSAllowOrigin: v.GetString(KeyCORSAllowOrigin),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration constraints.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeStatic, ModeMonitor:
	default:
		return fmt.Errorf("invalid MODE: %q (must be static|monitor)", c.Mode)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR must not be empty")
	}

	switch c.DefaultTheme {
	case "light", "dark":
	default:
		return fmt.Errorf("invalid DEFAULT_THEME: %q (must be light|dark)", c.DefaultTheme)
	}

	if strings.TrimSpace(c.ProposedMarker) == "" {
		return fmt.Errorf("PROPOSED_MARKER must not be empty")
	}

	if c.ChartWidth < 200 || c.ChartHeight < 150 {
		return fmt.Errorf("CHART_WIDTH must be >= 200 and CHART_HEIGHT >= 150")
	}

	if c.AssetBaseURL != "" {
		u, err := url.Parse(c.AssetBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid ASSET_BASE_URL: %q (must be an http(s) URL)", c.AssetBaseURL)
		}
	}
	if c.AssetProbeInterval <= 0 {
		return fmt.Errorf("ASSET_PROBE_INTERVAL must be > 0")
	}
	if c.AssetProbeTimeout <= 0 {
		return fmt.Errorf("ASSET_PROBE_TIMEOUT must be > 0")
	}

	if c.PaperURL == "" {
		return fmt.Errorf("PAPER_URL must not be empty")
	}

	switch c.Storage {
	case StorageSQLite, StorageMemory, StorageOff:
	default:
		return fmt.Errorf("invalid STORAGE: %q (must be sqlite|memory|off)", c.Storage)
	}
	if c.Storage == StorageSQLite && c.StoragePath == "" {
		return fmt.Errorf("STORAGE_PATH must be set when STORAGE=sqlite")
	}
	if c.StorageMaxRows < 100 {
		return fmt.Errorf("STORAGE_MAX_ROWS must be >= 100")
	}

	if c.EventBuffer < 1 {
		return fmt.Errorf("EVENT_BUFFER must be >= 1")
	}

	return nil
}
