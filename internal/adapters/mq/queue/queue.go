// Package queue carries vote ballots from HTTP handlers to the single
// apply worker.
//
// The in-memory queue is bounded; a full queue rejects instead of blocking
// so callers can surface backpressure.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Result is the outcome of applying one Item.
type Result struct {
	Receipt model.Receipt
	Err     error
}

// Item is a ballot waiting to be applied.
type Item struct {
	Ballot model.Ballot
	// Reply receives exactly one Result. It must be buffered.
	Reply chan Result
	// Deadline after which the submitter no longer waits; zero means none.
	Deadline   time.Time
	EnqueuedAt time.Time
	// OnDiscard, when set, runs once the ballot is settled without being
	// applied.
	OnDiscard func()
}

// NewItem builds an Item with a one-slot reply channel.
func NewItem(b model.Ballot, deadline time.Time) Item {
	return Item{
		Ballot:     b,
		Reply:      make(chan Result, 1),
		Deadline:   deadline,
		EnqueuedAt: time.Now(),
	}
}

// Expired reports whether the submitter has stopped waiting.
func (it Item) Expired(now time.Time) bool {
	return !it.Deadline.IsZero() && now.After(it.Deadline)
}

// Respond delivers r without blocking; later calls are dropped.
func (it Item) Respond(r Result) {
	select {
	case it.Reply <- r:
	default:
	}
}

// Discard runs OnDiscard, then delivers err.
func (it Item) Discard(err error) {
	if it.OnDiscard != nil {
		it.OnDiscard()
	}
	it.Respond(Result{Err: err})
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an item; false means the queue is full or closed.
	Enqueue(ctx context.Context, it Item) bool

	// Dequeue returns a channel closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Item

	Len(ctx context.Context) int
	Capacity() int

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int
	mu       sync.RWMutex
	closed   bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0, q.capacity)
	return q
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, it Item) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	}

	select {
	case q.items <- it:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items), q.capacity)
		return true
	default:
		metrics.RecordQueueEnqueueError("full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives items as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Item {
	out := make(chan Item)
	go func() {
		defer close(out)
		for it := range q.items {
			select {
			case out <- it:
				metrics.RecordQueueDequeue()
				metrics.RecordQueueWait(float64(time.Since(it.EnqueuedAt).Milliseconds()))
				metrics.UpdateQueueSize(len(q.items), q.capacity)
			case <-ctx.Done():
				it.Respond(Result{Err: ErrClosed})
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued items.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size, q.capacity)
	return size
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting items. Queued items are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
