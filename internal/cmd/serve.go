package cmd

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/astrasemi/qualitylens/internal/ailink"
	"github.com/astrasemi/qualitylens/internal/appid"
	errwrap "github.com/astrasemi/qualitylens/internal/errors"
	"github.com/astrasemi/qualitylens/internal/metrics"
	"github.com/astrasemi/qualitylens/internal/observability"
	"github.com/astrasemi/qualitylens/internal/server"
	"github.com/astrasemi/qualitylens/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// checkFunc adapts a function to handlers.HealthChecker.
type checkFunc func(ctx context.Context) error

func (f checkFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

func checkTelemetry(context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// checkIdentity rejects an identity missing the fields config and env
// lookups depend on.
func checkIdentity(identity *appidentity.Identity) checkFunc {
	return func(context.Context) error {
		switch {
		case identity == nil || identity.BinaryName == "":
			return errwrap.NewConfigInvalidError("app identity missing binary name")
		case identity.EnvPrefix == "":
			return errwrap.NewConfigInvalidError("app identity missing env prefix")
		case identity.ConfigName == "":
			return errwrap.NewConfigInvalidError("app identity missing config name")
		}
		return nil
	}
}

// registerHealthChecks installs the checkers behind /health and /health/ready.
func registerHealthChecks(hm *handlers.HealthManager, identity *appidentity.Identity, service *ailink.Service, withTelemetry bool) {
	hm.RegisterChecker("signal_handlers", checkFunc(func(context.Context) error { return nil }))
	if withTelemetry {
		hm.RegisterChecker("telemetry", checkFunc(checkTelemetry))
	}
	hm.RegisterChecker("app_identity", checkIdentity(identity))
	hm.RegisterChecker("ailink", service)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the insight HTTP server",
	Long: `Start the HTTP server that answers POST /api/quality-insight.

Without a configured provider (ailink.providers or OPENAI_API_KEY) the
endpoint answers with mock insights.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config re-read (restart to apply provider changes)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig(ctx)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "configuration invalid")
		}

		identity := GetAppIdentity()
		namespace := appid.TelemetryNamespace()

		logLevel := cfg.Logging.Level
		if verbose {
			logLevel = "debug"
		}
		observability.InitServerLogger(observability.ServerLoggerOptions{
			Service:     identity.BinaryName,
			Level:       logLevel,
			Format:      cfg.Logging.Format,
			Environment: cfg.Logging.Environment,
			Namespace:   namespace,
		})
		logger := observability.ServerLogger

		if tf := strings.TrimSpace(cfg.AILink.Debug.TraceFile); tf != "" && traceFile == "" {
			enableTracing(tf)
		}

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(identity.BinaryName, cfg.Metrics.Port, namespace); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
			}
		}

		service, err := buildInsightService(cfg)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "insight service initialization failed")
		}

		mode := "mock"
		if service.Providers.Ready(ailink.RoleQualityInsight) {
			mode = "provider"
		}
		logger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
			zap.Int("metrics_port", observability.GetMetricsPort()),
			zap.String("insight_mode", mode))

		handlers.InitHealthManager(versionInfo.Version)
		registerHealthChecks(handlers.GetHealthManager(), identity, service, cfg.Metrics.Enabled)

		handlers.SetAppIdentity(identity)
		handlers.SetInsightMode(mode)

		srv := server.New(server.Options{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			HandlerTimeout: ailink.CallTimeout(cfg.AILink.DefaultTimeout),
			Insight:        service,
			AdminToken:     cfg.Server.AdminToken,
		})

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 10 * time.Second
		}

		startedAt := time.Now()
		metrics.SetServerStartTime(startedAt.Unix())

		// Shutdown handlers run LIFO: the HTTP server stops before metrics and the logger.
		signals.OnShutdown(func(ctx context.Context) error {
			if err := observability.ShutdownMetrics(); err != nil {
				logger.Warn("Metrics exporter stop returned error", zap.Error(err))
			}
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			metrics.SetServerUptime(int64(time.Since(startedAt).Seconds()))
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: re-reading configuration")
			if err := viper.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if errors.As(err, &notFound) {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			if _, err := loadConfig(ctx); err != nil {
				logger.Error("Reloaded configuration is invalid", zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			logger.Info("Configuration re-read; restart to apply server and provider changes",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("Starting HTTP server...", zap.String("addr", srv.Addr()))
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			if err := signals.Listen(gctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Signal handler error", zap.Error(err))
				return err
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
