// Package cli wires the fde-dashboard command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"fde-dashboard/internal/config"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	cfgFile string
	v       *viper.Viper
}

// viperKeyAnnotation tags a flag with the config key it overrides.
const viperKeyAnnotation = "viper_key"

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fde-dashboard",
		Short:        "Serve and export the YOLOv8-FDE model comparison dashboard",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.bindFlags(cmd); err != nil {
				return err
			}
			return a.readConfigFile()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().String("proposed-marker", "FDE", "substring that identifies the proposed model")
	a.bind(cmd, config.KeyLogLevel, "log-level")
	a.bind(cmd, config.KeyProposedMarker, "proposed-marker")

	cmd.AddCommand(
		newServeCmd(a),
		newExportCmd(a),
		newTableCmd(a),
		newSummaryCmd(a),
	)
	return cmd
}

// bind makes a flag override the config file and env for key. Subcommands
// share flag names, so the binding is applied by bindFlags for the command
// that actually runs.
func (a *app) bind(cmd *cobra.Command, key, flag string) {
	flags := cmd.Flags()
	if flags.Lookup(flag) == nil {
		flags = cmd.PersistentFlags()
	}
	_ = flags.SetAnnotation(flag, viperKeyAnnotation, []string{key})
}

// bindFlags binds the tagged flags of cmd, inherited ones included.
func (a *app) bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[viperKeyAnnotation]
		if len(keys) == 0 || err != nil {
			return
		}
		if bindErr := a.v.BindPFlag(keys[0], f); bindErr != nil {
			err = fmt.Errorf("bind --%s: %w", f.Name, bindErr)
		}
	})
	return err
}

func (a *app) readConfigFile() error {
	if a.cfgFile == "" {
		return nil
	}
	a.v.SetConfigFile(a.cfgFile)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// config materializes the merged configuration (flags > env > file > defaults).
func (a *app) config() (config.Config, error) {
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch strings.ToLower(level) {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "info":
		lvl.Set(slog.LevelInfo)
	case "warn", "warning":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}

func logConfig(logger *slog.Logger, cfg config.Config) {
	f := cfg.Features()
	logger.Info("configuration",
		"mode", string(cfg.Mode),
		"listen_addr", cfg.ListenAddr,
		"default_theme", cfg.DefaultTheme,
		"proposed_marker", cfg.ProposedMarker,
		"chart_size", fmt.Sprintf("%dx%d", cfg.ChartWidth, cfg.ChartHeight),
		"assets_dir", cfg.AssetsDir,
		"asset_base_url", cfg.AssetBaseURL,
		"asset_probe_interval", cfg.AssetProbeInterval,
		"asset_probe_timeout", cfg.AssetProbeTimeout,
		"paper_url", cfg.PaperURL,
		"papers_dir", cfg.PapersDir,
		"storage", string(cfg.Storage),
		"storage_path", cfg.StoragePath,
		"storage_max_rows", cfg.StorageMaxRows,
		"event_buffer", cfg.EventBuffer,
		"cors_allow_origin", cfg.CORSAllowOrigin,
		"log_level", cfg.LogLevel,
		"features", fmt.Sprintf("api=%t events=%t metrics=%t storage=%t asset_probe=%t",
			f.API, f.Events, f.Metrics, f.Storage, f.AssetProbe),
	)
}
