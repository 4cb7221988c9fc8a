package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promptlens/promptlens/internal/config"
	errwrap "github.com/promptlens/promptlens/internal/errors"
	"github.com/promptlens/promptlens/internal/metrics"
	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/server"
	"github.com/promptlens/promptlens/internal/server/handlers"
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prompt library over HTTP",
	Long: `Start the HTTP API with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Reparse every prompt source

With --watch the prompt sources are also reloaded when their directories
change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host (default from server.host)")
	serveCmd.Flags().IntP("port", "p", 0, "server port (default from server.port)")
	serveCmd.Flags().Bool("watch", false, "reload prompts when source directories change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return errwrap.NewConfigInvalidError(err.Error())
	}
	serverCfg := cfg.Server
	if cmd.Flags().Changed("host") {
		serverCfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		serverCfg.Port, _ = cmd.Flags().GetInt("port")
	}
	watch, _ := cmd.Flags().GetBool("watch")

	logger := observability.InitServerLogger(config.AppName, cfg.Logging.Level, config.AppName)

	if cfg.Metrics.Enabled {
		metricsPort := cfg.Metrics.Port
		if metricsPort == 0 {
			metricsPort = observability.DefaultMetricsPort
		}
		if err := observability.InitMetrics(config.AppName, metricsPort); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close() // nolint:errcheck // best-effort cleanup

	if err := a.load(ctx); err != nil {
		return err
	}

	logger.Info("Initializing server",
		zap.String("version", versionInfo.Version),
		zap.String("host", serverCfg.Host),
		zap.Int("port", serverCfg.Port),
		zap.String("store", a.backend.Driver),
		zap.Int("prompts", len(a.loader.FilteredPrompts(nil))))

	health := handlers.NewHealthManager(versionInfo.Version)
	if cfg.Health.Enabled {
		health.RegisterChecker("store", handlers.StoreChecker(a.backend))
		health.RegisterChecker("prompts", handlers.PromptsChecker(a.loader))
		if cfg.Metrics.Enabled {
			health.RegisterChecker("telemetry", telemetryHealthChecker{})
		}
	}

	handlers.SetAppName(config.AppName)
	srv := server.New(serverCfg, server.Options{
		Prompts: &handlers.PromptHandler{
			Loader:    a.loader,
			Builder:   a.builder,
			Formatter: a.formatter,
			Pins:      a.pins,
			History:   a.history,
			RootDir:   a.cfg.Prompts.RootDir,
		},
		Health:     health,
		AdminToken: os.Getenv(server.AdminTokenEnv),
	})

	shutdownTimeout := serverCfg.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}

	// Registered LIFO: the HTTP server stops first, the logger flushes last.
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Flushing logger...")
		if err := logger.Sync(); err != nil {
			// Sync errors are often benign (stdout/stderr already closed)
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		cancel()
		shutdownCtx, stop := context.WithTimeout(ctx, shutdownTimeout)
		defer stop()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: reloading prompt sources")
		if err := a.reload(ctx); err != nil {
			logger.Error("Prompt reload failed", zap.Error(err))
			return err
		}
		logger.Info("Prompt sources reloaded",
			zap.Int("prompts", len(a.loader.FilteredPrompts(nil))),
			zap.String("signature", a.loader.Signature()))
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if watch {
		go func() {
			err := watchLoader(ctx, a.loader, a.cfg.Prompts.WatchDebounce, func(err error) {
				if err != nil {
					metrics.RecordPromptLoadError("watch")
					logger.Error("Prompt reload failed", zap.Error(err))
					return
				}
				logger.Info("Prompt sources changed; tree reloaded",
					zap.Int("prompts", len(a.loader.FilteredPrompts(nil))))
			})
			if err != nil {
				logger.Warn("Prompt watcher stopped", zap.Error(err))
			}
		}()
	}

	if err := <-errChan; err != nil {
		return errwrap.WrapInternal(cmd.Context(), err, "server error")
	}
	return nil
}
