// Package dedupe tracks idempotency keys of vote submissions.
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Deduper records seen keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission that failed before being applied
	// (e.g. queue backpressure) can be retried with the same key.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps keys in a size-bounded LRU whose entries expire after ttl.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    *expirable.LRU[string, time.Time]
	maxSize int
	ttl     time.Duration
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
		ttl:     10 * time.Minute,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = expirable.NewLRU[string, time.Time](d.maxSize, nil, d.ttl)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Get, unlike Contains, honours expiry
	if _, ok := d.seen.Get(id); ok {
		return true
	}
	d.seen.Add(id, time.Now())
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen.Remove(id)
}

func (d *inMemoryDeduper) Size() int64 {
	return int64(d.seen.Len())
}
