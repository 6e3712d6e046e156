package main

import (
	"context"
	"dbprobe/internal/api"
	"dbprobe/internal/config"
	"dbprobe/internal/database"
	"dbprobe/internal/logger"
	"dbprobe/internal/models"
	"dbprobe/internal/observability"
	"dbprobe/internal/probe"
	"dbprobe/internal/ratelimit"
	"dbprobe/internal/version"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	configFile    = flag.String("config", "", "Path to configuration file")
	showVersion   = flag.Bool("version", false, "Print version information and exit")
	exampleConfig = flag.String("example-config", "", "Write an example configuration file to this path and exit")
)

func main() {
	flag.Parse()

	ver := version.GetInfo()

	if *showVersion {
		fmt.Println(ver.String())
		return
	}

	if *exampleConfig != "" {
		if err := config.SaveExample(*exampleConfig); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Example configuration written to %s\n", *exampleConfig)
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	prober, err := newProber(cfg, log)
	if err != nil {
		slog.Error("Failed to initialize probe", "error", err)
		os.Exit(1)
	}

	handlers := api.NewHandlers(prober)

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	if cfg.Security.RateLimit.Enabled {
		limiter := ratelimit.NewMemoryLimiter(cfg.Security.RateLimit)
		defer limiter.Close()
		routeOpts = append(routeOpts, api.WithRateLimiter(
			ratelimit.Middleware(limiter, cfg.Security.RateLimit.TrustProxyHeaders),
		))
	}

	router := api.SetupRoutes(handlers, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Starting server",
			"addr", server.Addr,
			"variant", cfg.Probe.Variant,
			"driver", driverLabel(cfg.Probe.Driver),
			"tls", cfg.Server.TLSEnabled)

		var err error
		if cfg.Server.TLSEnabled {
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	// In-flight probes finish and close their sessions before this returns.
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// newProber assembles the probe handler: the variant from configuration, a
// connector from newConnector, and a key source that prefers the environment
// over the config file's settings.
func newProber(cfg *models.Config, log *slog.Logger) (*probe.Handler, error) {
	variant, err := probe.VariantFor(cfg.Probe)
	if err != nil {
		return nil, err
	}

	connector, err := newConnector(cfg)
	if err != nil {
		return nil, err
	}

	return probe.NewHandler(variant, config.NewSource(cfg.Probe.Settings), connector,
		probe.WithTimeout(cfg.Probe.Timeout),
		probe.WithDateLayout(cfg.Probe.DateLayout),
		probe.WithLogger(log),
	), nil
}

// newConnector returns a connector for the configured (or detected) driver,
// instrumented whenever metrics or tracing would record it.
func newConnector(cfg *models.Config) (database.Connector, error) {
	connector, err := database.NewConnector(cfg.Probe.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	if !cfg.Metrics.Enabled && !cfg.Observability.Tracing.Enabled {
		return connector, nil
	}

	instrumented, err := observability.NewInstrumentedConnector(connector)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumented connector: %w", err)
	}
	return instrumented, nil
}

func driverLabel(driver string) string {
	if driver == "" {
		return "auto"
	}
	return driver
}
