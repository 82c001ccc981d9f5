// Package worker applies queued ballots one at a time.
//
// A single worker is the only writer of ratings, which keeps every vote's
// read-compute-write cycle serialised in this process.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/parkrank/internal/adapters/mq/queue"
	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/pkg/logger"
	"github.com/okian/parkrank/pkg/metrics"
)

// Applier settles one ballot.
type Applier interface {
	Apply(ctx context.Context, b model.Ballot) (model.Receipt, error)
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(ctx context.Context, b model.Ballot) (model.Receipt, error)

// Apply calls f.
func (f ApplierFunc) Apply(ctx context.Context, b model.Ballot) (model.Receipt, error) {
	return f(ctx, b)
}

// Queue defines how the worker receives items.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Item
}

// Worker processes ballots until its queue closes.
type Worker interface {
	// Run blocks until the queue is drained and closed, ctx ends, or
	// Shutdown gives up waiting.
	Run(ctx context.Context)

	// Shutdown closes the queue and waits for queued ballots to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

var _ Worker = (*InMemoryWorker)(nil)

// NewInMemoryWorker creates a worker reading from q.
func NewInMemoryWorker(q Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			w.process(ctx, it)
		}
	}
}

// Shutdown closes the queue if it can be closed, then waits for Run to
// drain it. When ctx ends first the loop is told to stop.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	if closer, ok := w.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			w.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		close(w.shutdown)
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, it queue.Item) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if it.Expired(start) {
		metrics.RecordErrorByComponent("worker", "expired")
		it.Discard(ErrExpired)
		return
	}

	applyCtx := ctx
	if !it.Deadline.IsZero() {
		var cancel context.CancelFunc
		applyCtx, cancel = context.WithDeadline(ctx, it.Deadline)
		defer cancel()
	}

	receipt, err := w.applier.Apply(applyCtx, it.Ballot)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrInvalidInput) {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "apply_error")
			metrics.RecordErrorByType("apply_error", "high")
			w.logger.Error(ctx, "apply failed",
				logger.Int64("winner_id", it.Ballot.WinnerID),
				logger.Int64("loser_id", it.Ballot.LoserID),
				logger.Error(err),
			)
		}
		it.Discard(err)
		return
	}
	it.Respond(queue.Result{Receipt: receipt})
}
