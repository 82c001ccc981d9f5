package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithClock sets the time source used to stamp votes.
func WithClock(clock func() time.Time) Option {
	return func(s *TreapStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithPrioritySeed makes treap priorities reproducible.
func WithPrioritySeed(seed int64) Option {
	return func(s *TreapStore) {
		if seed != 0 {
			s.seed = seed
		}
	}
}
