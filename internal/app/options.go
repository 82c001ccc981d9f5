package service

import (
	"time"

	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the maximum number of ballots waiting for the worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithVoteTimeout bounds how long SubmitVote waits for the worker.
func WithVoteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.voteTimeout = d
		}
	}
}

// WithDedupe sizes the idempotency-key window. A zero size is unbounded.
func WithDedupe(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

// WithRankingCache sizes the ranking read cache; size 0 disables it.
func WithRankingCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithKFactor sets the Elo K-factor.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithMatchupSeed makes matchups reproducible. Zero keeps them time-seeded.
func WithMatchupSeed(seed int64) Option {
	return func(s *Service) {
		s.matchupSeed = seed
	}
}

// WithRecentVotes sets the default and maximum limits for RecentVotes.
func WithRecentVotes(def, maxLimit int) Option {
	return func(s *Service) {
		if def > 0 {
			s.recentDefault = def
		}
		if maxLimit > 0 {
			s.recentMax = maxLimit
		}
	}
}

// WithSeedParks seeds an empty store with parks on Start.
func WithSeedParks(parks []model.NewPark) Option {
	return func(s *Service) {
		s.seedParks = parks
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
