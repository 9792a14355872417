// Command bookability serves the bookability scoring and ranking API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/bookability/internal/adapters/history"
	"github.com/okian/bookability/internal/adapters/http/api"
	"github.com/okian/bookability/internal/adapters/http/swagger"
	app "github.com/okian/bookability/internal/app"
	"github.com/okian/bookability/internal/config"
	"github.com/okian/bookability/pkg/logger"
	"github.com/okian/bookability/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	limiterCleanupInterval    = time.Minute
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Our own registry carries the system gauges; drop the default collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// The logger may not exist yet.
		_, _ = os.Stderr.WriteString("bookability: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	hist, err := history.Open(ctx, cfg.HistoryDSN)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() {
		if err := hist.Close(); err != nil {
			log.Error(ctx, "closing history failed", logger.Error(err))
		}
	}()

	svc := newService(cfg, hist, log)
	// Workers must outlive the signal so queued snapshots drain in Stop.
	if err := svc.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	limiter := api.NewRateLimiter(cfg.IngestRatePerSec, cfg.IngestBurst)
	if limiter != nil {
		limiter.StartCleanup(ctx, limiterCleanupInterval)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, svc, limiter, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
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
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

func newService(cfg *config.Config, hist history.Store, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithTopCacheSize(cfg.TopCacheSize),
		app.WithSnapshotInterval(cfg.SnapshotInterval()),
		app.WithHistory(hist),
	)
}

// newHandler registers the docs and the business API on a fresh mux.
func newHandler(cfg *config.Config, svc *app.Service, limiter *api.RateLimiter, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(mux)

	apiServer := api.NewServer(svc, svc,
		api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		api.WithMaxHistoryLimit(cfg.MaxHistoryLimit),
		api.WithRateLimiter(limiter),
		api.WithLogger(log.Named("api")),
	)
	apiServer.Register(mux)
	return mux
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
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

// startServiceMetricsUpdater refreshes queue and ranking gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics relies on GetStats publishing queue and ranking
// gauges; it adds queue utilisation on top.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	queueLen, okLen := stats["queueLength"].(int)
	queueCap, okCap := stats["queueCapacity"].(int)
	if okLen && okCap && queueCap > 0 {
		metrics.UpdateQueueUtilization(float64(queueLen) / float64(queueCap))
	}
}
