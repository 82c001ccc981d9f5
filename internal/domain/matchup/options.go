package matchup

import "math/rand"

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithSeed makes the selector reproducible; 0 keeps the clock seed.
func WithSeed(seed int64) Option {
	return func(s *Selector) {
		if seed != 0 {
			s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // not security sensitive
		}
	}
}

// WithSource uses src for all draws.
func WithSource(src rand.Source) Option {
	return func(s *Selector) {
		if src != nil {
			s.rng = rand.New(src) //nolint:gosec // not security sensitive
		}
	}
}
