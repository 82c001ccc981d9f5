// Package matchup picks random head-to-head pairs of parks.
package matchup

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/parkrank/internal/domain/model"
)

// Selector draws two distinct parks uniformly at random. Safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a Selector seeded from the clock unless an option overrides it.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{rng: rand.New(rand.NewSource(time.Now().UnixNano()))} //nolint:gosec // not security sensitive
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pick returns two distinct parks from parks. It fails with
// model.ErrInsufficientData when fewer than two parks are given.
func (s *Selector) Pick(parks []model.Park) (model.Matchup, error) {
	n := len(parks)
	if n < 2 {
		return model.Matchup{}, fmt.Errorf("matchup needs 2 parks, have %d: %w", n, model.ErrInsufficientData)
	}

	s.mu.Lock()
	i := s.rng.Intn(n)
	j := s.rng.Intn(n - 1)
	s.mu.Unlock()

	// skip over i so j is uniform over the remaining n-1 parks
	if j >= i {
		j++
	}
	return model.Matchup{Park1: parks[i], Park2: parks[j]}, nil
}
