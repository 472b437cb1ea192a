package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/adapters/http/api"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/adapters/http/swagger"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/adapters/seed"
	service "github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/app"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/config"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr since the logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat))); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "analytics daemon failed", logger.Error(err))
		os.Exit(1)
	}
}

// configureMetrics rebuilds the global metrics manager from cfg.
func configureMetrics(cfg *config.Config) *metrics.Manager {
	return metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithCustomLabels(cfg.MetricsLabels),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
	)
}

// run serves the analytics API until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	configureMetrics(cfg)
	svc := newService(cfg, log)
	if err := seedService(ctx, svc, cfg.SeedPath); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx, metrics.Default().RefreshInterval())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.DrainTimeout() + readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Close(shutdownCtx); err != nil {
		log.Error(ctx, "service close failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

func newService(cfg *config.Config, log logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(log.Named("service")),
		service.WithQueueSize(cfg.QueueSize),
		service.WithYieldEvery(cfg.YieldEvery),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithDiagnosticsSize(cfg.DiagnosticsSize),
	)
}

// seedService initializes svc from the snapshot at path. An empty path
// leaves the service uninitialized until a client calls POST /initialize.
func seedService(ctx context.Context, svc *service.Service, path string) error {
	if path == "" {
		return nil
	}
	snap, err := seed.Load(ctx, path)
	if err != nil {
		return err
	}
	report, err := svc.Initialize(ctx, snap.Tastings, snap.Experiences)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "initialized from seed",
		logger.Int("tastings", report.Tastings),
		logger.Int("experiences", report.Experiences),
		logger.Int("skipped_tastings", report.SkippedTastings),
		logger.Int("skipped_experiences", report.SkippedExperiences),
		logger.Duration("took", report.Duration),
	)
	return nil
}

func newMux(ctx context.Context, svc *service.Service, cfg *config.Config, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithDrainTimeout(cfg.DrainTimeout()),
		api.WithLogger(log.Named("api")),
	).Register(mux)
	return mux
}

// startSystemMetricsUpdater periodically refreshes process gauges.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
