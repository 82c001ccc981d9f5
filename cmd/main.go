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

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/okian/parkrank/internal/adapters/http/api"
	"github.com/okian/parkrank/internal/adapters/http/swagger"
	"github.com/okian/parkrank/internal/adapters/repository"
	"github.com/okian/parkrank/internal/adapters/repository/postgres"
	"github.com/okian/parkrank/internal/adapters/seed"
	service "github.com/okian/parkrank/internal/app"
	"github.com/okian/parkrank/internal/config"
	"github.com/okian/parkrank/pkg/logger"
	"github.com/okian/parkrank/pkg/metrics"
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
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("parkrank: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	opts, err := serviceOptions(cfg, log)
	if err != nil {
		_ = store.Close()
		return err
	}
	svc := service.New(store, opts...)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("start service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		tick(gctx, systemMetricsInterval, updateSystemMetrics)
		return nil
	})
	g.Go(func() error {
		tick(gctx, serviceMetricsInterval, func() { updateServiceMetrics(svc) })
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), svc.Stop(shutdownCtx))
	})

	err = g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

// openStore builds the configured park store.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.DBMaxConns,
			MaxConnIdleTime: cfg.DBMaxConnIdle,
			MaxConnLifetime: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.New(pool), nil
	default:
		return repository.NewTreapStore(), nil
	}
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config, log logger.Logger) ([]service.Option, error) {
	opts := []service.Option{
		service.WithLogger(log),
		service.WithKFactor(cfg.KFactor),
		service.WithQueueSize(cfg.VoteQueueSize),
		service.WithVoteTimeout(cfg.VoteTimeout),
		service.WithDedupe(cfg.DedupeSize, cfg.DedupeTTL),
		service.WithRankingCache(cfg.CacheSize, cfg.CacheTTL),
		service.WithRecentVotes(cfg.RecentVotesDefault, cfg.RecentVotesMax),
	}
	if cfg.MatchupSeed != 0 {
		opts = append(opts, service.WithMatchupSeed(cfg.MatchupSeed))
	}
	if cfg.SeedOnStart {
		parks, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithSeedParks(parks))
	}
	return opts, nil
}

// newRouter registers the API and docs routes.
func newRouter(svc *service.Service) chi.Router {
	r := api.NewRouter()
	api.NewServer(svc).Register(r)
	swagger.Register(r)
	return r
}

func tick(ctx context.Context, every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
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

// updateServiceMetrics refreshes gauges derived from service stats.
// GetStats itself updates the park and vote totals.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	queueLen, ok := stats["queueLength"].(int)
	if !ok {
		return
	}
	if capacity, ok := stats["queueSize"].(int); ok {
		metrics.UpdateQueueSize(queueLen, capacity)
	}
}
