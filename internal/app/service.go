// Package service wires the park store, rating engine, matchup selector and
// vote worker into the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/parkrank/internal/adapters/mq/queue"
	"github.com/okian/parkrank/internal/adapters/mq/worker"
	"github.com/okian/parkrank/internal/adapters/repository"
	"github.com/okian/parkrank/internal/domain/dedupe"
	"github.com/okian/parkrank/internal/domain/matchup"
	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/internal/domain/ranking"
	"github.com/okian/parkrank/internal/domain/rating"
	"github.com/okian/parkrank/internal/domain/search"
	"github.com/okian/parkrank/pkg/logger"
	"github.com/okian/parkrank/pkg/metrics"
)

// Service implements the API dependencies for park voting.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	engine   *rating.Engine
	selector *matchup.Selector
	deduper  dedupe.Deduper
	cache    *rankingCache
	queue    *queue.InMemoryQueue
	worker   *worker.InMemoryWorker

	// Configuration
	queueSize     int
	voteTimeout   time.Duration
	dedupeSize    int
	dedupeTTL     time.Duration
	cacheSize     int
	cacheTTL      time.Duration
	kFactor       float64
	matchupSeed   int64
	recentDefault int
	recentMax     int
	seedParks     []model.NewPark

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		queueSize:     1024,
		voteTimeout:   5 * time.Second,
		dedupeSize:    100000,
		dedupeTTL:     10 * time.Minute,
		cacheSize:     128,
		cacheTTL:      2 * time.Second,
		kFactor:       rating.DefaultKFactor,
		recentDefault: 10,
		recentMax:     100,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.engine = rating.NewEngine(rating.WithKFactor(s.kFactor))
	s.selector = matchup.NewSelector(matchup.WithSeed(s.matchupSeed))
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithTTL(s.dedupeTTL),
	)
	s.cache = newRankingCache(s.cacheSize, s.cacheTTL)
	return s
}

// Start seeds the store when configured and starts the vote worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting park voting service...")

	if len(s.seedParks) > 0 {
		n, err := s.Seed(ctx, s.seedParks)
		if err != nil {
			return fmt.Errorf("seed parks: %w", err)
		}
		if n > 0 {
			s.logger.Info(ctx, "seeded parks", logger.Int("count", n))
		}
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, worker.ApplierFunc(s.apply),
		worker.WithLogger(s.logger.Named("worker")))

	// the worker outlives request contexts; Stop ends it
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "park voting service started",
		logger.Int("queueSize", s.queueSize),
		logger.Duration("voteTimeout", s.voteTimeout),
		logger.Float64("kFactor", s.engine.KFactor()),
	)
	return nil
}

// Stop drains queued ballots, stops the worker and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping park voting service...")

	var errs []error
	if err := s.worker.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	s.cancel()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "park voting service stopped")
	return errors.Join(errs...)
}

// Seed inserts parks when the store is empty and assigns every park its
// rank. It returns the number of parks created.
func (s *Service) Seed(ctx context.Context, parks []model.NewPark) (int, error) {
	created := 0
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		n, err := tx.CountParks(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, np := range parks {
			if _, err := tx.CreatePark(ctx, np); err != nil {
				return err
			}
			created++
		}

		ordered, err := tx.Rankings(ctx)
		if err != nil {
			return err
		}
		for _, p := range ranking.Placements(ordered) {
			if _, err := tx.ApplyScoreUpdate(ctx, p.ParkID, p.Elo, p.Rank); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.cache.invalidate()
	return created, nil
}

// RandomMatchup picks two distinct parks.
func (s *Service) RandomMatchup(ctx context.Context) (model.Matchup, error) {
	parks, err := s.store.ListParks(ctx)
	if err != nil {
		return model.Matchup{}, err
	}
	m, err := s.selector.Pick(parks)
	if err != nil {
		return model.Matchup{}, err
	}
	metrics.RecordMatchupServed()
	return m, nil
}

// Rankings returns parks in rank order: all of them when limit is 0,
// otherwise the top limit.
func (s *Service) Rankings(ctx context.Context, limit int) ([]model.Park, error) {
	switch {
	case limit < 0:
		return nil, model.Invalid("limit must not be negative")
	case limit == 0:
		return s.cache.get(ctx, "all", s.store.Rankings)
	default:
		return s.cache.get(ctx, "top:"+strconv.Itoa(limit), func(ctx context.Context) ([]model.Park, error) {
			return s.store.TopParks(ctx, limit)
		})
	}
}

// Park returns one park.
func (s *Service) Park(ctx context.Context, id int64) (model.Park, error) {
	if id < 1 {
		return model.Park{}, model.Invalid("park id must be positive")
	}
	return s.store.GetPark(ctx, id)
}

// Parks returns every park in id order.
func (s *Service) Parks(ctx context.Context) ([]model.Park, error) {
	return s.store.ListParks(ctx)
}

// SearchParks fuzzy-matches query against park names and states. A blank
// query returns every park.
func (s *Service) SearchParks(ctx context.Context, query string, limit int) ([]model.Park, error) {
	parks, err := s.store.ListParks(ctx)
	if err != nil {
		return nil, err
	}
	if search.Blank(query) {
		return parks, nil
	}
	out := search.Parks(parks, query, limit)
	if out == nil {
		out = []model.Park{}
	}
	return out, nil
}

// RecentVotes returns the newest votes. limit < 1 uses the default and
// larger values are capped.
func (s *Service) RecentVotes(ctx context.Context, limit int) ([]model.Vote, error) {
	if limit < 1 {
		limit = s.recentDefault
	}
	limit = min(limit, s.recentMax)
	return s.store.RecentVotes(ctx, limit)
}

// Ready reports whether the store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	return s.store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.deduper.Size(),
		"kFactor":     s.engine.KFactor(),
		"voteTimeout": s.voteTimeout.String(),
	}

	if parks, err := s.store.CountParks(ctx); err == nil {
		stats["totalParks"] = parks
		metrics.UpdateTotalParks(parks)
	}
	if votes, err := s.store.CountVotes(ctx); err == nil {
		stats["totalVotes"] = votes
		metrics.UpdateTotalVotes(votes)
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
	}
	return stats
}
