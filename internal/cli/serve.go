package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fde-dashboard/internal/api"
	"fde-dashboard/internal/assets"
	"fde-dashboard/internal/chart"
	"fde-dashboard/internal/config"
	"fde-dashboard/internal/events"
	"fde-dashboard/internal/metrics"
	"fde-dashboard/internal/pages"
	"fde-dashboard/internal/roster"
	"fde-dashboard/internal/server"
	"fde-dashboard/internal/storage"
	"fde-dashboard/web"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stdout, cfg.LogLevel)
			logConfig(logger, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().String("listen", ":8080", "listen address")
	cmd.Flags().String("mode", "monitor", "static|monitor")
	cmd.Flags().String("storage", "", "render telemetry backend (sqlite|memory|off)")
	cmd.Flags().String("assets-dir", "", "directory layered over the embedded static assets")
	a.bind(cmd, config.KeyListenAddr, "listen")
	a.bind(cmd, config.KeyMode, "mode")
	a.bind(cmd, config.KeyStorage, "storage")
	a.bind(cmd, config.KeyAssetsDir, "assets-dir")
	return cmd
}

// assetFS layers ASSETS_DIR over the embedded static assets.
func assetFS(cfg config.Config) (fs.FS, error) {
	static, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("load static assets: %w", err)
	}
	if cfg.AssetsDir == "" {
		return static, nil
	}
	return assets.Overlay(os.DirFS(cfg.AssetsDir), static), nil
}

func pagesConfig(cfg config.Config, static bool) pages.Config {
	return pages.Config{
		Marker:          cfg.ProposedMarker,
		PaperURL:        cfg.PaperURL,
		Chart:           chart.Options{Width: cfg.ChartWidth, Height: cfg.ChartHeight},
		ChartAssetsHost: cfg.ChartAssetsHost,
		Static:          static,
	}
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	features := cfg.Features()
	r := roster.Default()

	var m *metrics.Metrics
	if features.Metrics {
		m = metrics.New()
	}

	files, err := assetFS(cfg)
	if err != nil {
		return err
	}

	var bus *events.Bus
	if features.Events {
		bus = events.NewBus(cfg.EventBuffer, m)
		defer bus.Shutdown()
	}

	var prober *assets.Prober
	if features.AssetProbe {
		prober = assets.NewProber(assets.RefsFor(r), files, assets.Config{
			BaseURL:  cfg.AssetBaseURL,
			Interval: cfg.AssetProbeInterval,
			Timeout:  cfg.AssetProbeTimeout,
			OnChange: func(path string, available bool) {
				logger.Info("asset availability changed", "asset", path, "available", available)
				if bus != nil {
					bus.Publish(events.Event{Type: events.AssetsRefreshed, Asset: path})
				}
			},
		}, m, logger)
		prober.Start()
		defer prober.Shutdown()
	}

	var resolver pages.AssetResolver
	if prober != nil {
		resolver = prober
	}
	dash, err := pages.New(r, pagesConfig(cfg, false), resolver, logger)
	if err != nil {
		return err
	}

	var store storage.Store
	if features.Storage {
		store, err = storage.Open(string(cfg.Storage), cfg.StoragePath, cfg.StorageMaxRows, logger)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		if store != nil {
			defer store.Close()
		}
	}

	// a nil *Prober must not become a non-nil interface
	var statuses api.AssetStatuser
	if prober != nil {
		statuses = prober
	}

	var apiServer *api.Server
	if features.API {
		apiServer = api.NewServer(dash, statuses, store, cfg, logger)
	}

	var papers fs.FS
	if cfg.PapersDir != "" {
		papers = os.DirFS(cfg.PapersDir)
	}

	h := server.NewHandler(cfg, server.Deps{
		Dashboard: dash,
		API:       apiServer,
		Bus:       bus,
		Metrics:   m,
		Store:     store,
		Assets:    files,
		Papers:    papers,
		Probe:     statuses,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting fde-dashboard", "listen", cfg.ListenAddr, "mode", string(cfg.Mode))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	// close event streams first so Shutdown does not wait on them
	if bus != nil {
		bus.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
