package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/parkrank/internal/adapters/mq/queue"
	worker "github.com/okian/parkrank/internal/adapters/mq/worker"
	model "github.com/okian/parkrank/internal/domain/model"
	logging "github.com/okian/parkrank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// recordingApplier remembers ballots in apply order.
type recordingApplier struct {
	mu      sync.Mutex
	ballots []model.Ballot
	errs    map[int64]error
	delay   time.Duration
}

func (r *recordingApplier) Apply(ctx context.Context, b model.Ballot) (model.Receipt, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs[b.WinnerID]; err != nil {
		return model.Receipt{}, err
	}
	r.ballots = append(r.ballots, b)
	return model.Receipt{Vote: model.Vote{ID: int64(len(r.ballots)), WinnerID: b.WinnerID, LoserID: b.LoserID}}, nil
}

func (r *recordingApplier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ballots)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker on an in-memory queue", t, func() {
		convey.So(logging.Init(), convey.ShouldBeNil)
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		applier := &recordingApplier{errs: map[int64]error{}}
		w := worker.NewInMemoryWorker(q, applier, worker.WithName("votes"))
		ctx := context.Background()
		go w.Run(ctx)

		convey.Convey("When a ballot is enqueued", func() {
			it := queue.NewItem(model.Ballot{WinnerID: 1, LoserID: 2}, time.Now().Add(time.Second))
			convey.So(q.Enqueue(ctx, it), convey.ShouldBeTrue)

			convey.Convey("Then the submitter receives the receipt", func() {
				res := <-it.Reply
				convey.So(res.Err, convey.ShouldBeNil)
				convey.So(res.Receipt.Vote.WinnerID, convey.ShouldEqual, 1)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the applier fails", func() {
			boom := errors.New("boom")
			applier.mu.Lock()
			applier.errs[7] = boom
			applier.mu.Unlock()
			it := queue.NewItem(model.Ballot{WinnerID: 7, LoserID: 2}, time.Time{})
			convey.So(q.Enqueue(ctx, it), convey.ShouldBeTrue)

			convey.Convey("Then the error is delivered and nothing is recorded", func() {
				res := <-it.Reply
				convey.So(errors.Is(res.Err, boom), convey.ShouldBeTrue)
				convey.So(applier.count(), convey.ShouldEqual, 0)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When a ballot is already past its deadline", func() {
			it := queue.NewItem(model.Ballot{WinnerID: 1, LoserID: 2}, time.Now().Add(-time.Second))
			convey.So(q.Enqueue(ctx, it), convey.ShouldBeTrue)

			convey.Convey("Then it is not applied", func() {
				res := <-it.Reply
				convey.So(errors.Is(res.Err, worker.ErrExpired), convey.ShouldBeTrue)
				convey.So(applier.count(), convey.ShouldEqual, 0)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When ballots carry a discard hook", func() {
			var discarded sync.Map
			hooked := func(b model.Ballot, deadline time.Time) queue.Item {
				it := queue.NewItem(b, deadline)
				it.OnDiscard = func() { discarded.Store(b.WinnerID, true) }
				return it
			}
			applier.mu.Lock()
			applier.errs[7] = errors.New("boom")
			applier.mu.Unlock()

			expired := hooked(model.Ballot{WinnerID: 5, LoserID: 2}, time.Now().Add(-time.Second))
			failed := hooked(model.Ballot{WinnerID: 7, LoserID: 2}, time.Time{})
			applied := hooked(model.Ballot{WinnerID: 1, LoserID: 2}, time.Time{})
			for _, it := range []queue.Item{expired, failed, applied} {
				convey.So(q.Enqueue(ctx, it), convey.ShouldBeTrue)
			}

			convey.Convey("Then only the unapplied ones run it, before the reply", func() {
				<-expired.Reply
				_, ok := discarded.Load(int64(5))
				convey.So(ok, convey.ShouldBeTrue)
				<-failed.Reply
				_, ok = discarded.Load(int64(7))
				convey.So(ok, convey.ShouldBeTrue)
				res := <-applied.Reply
				convey.So(res.Err, convey.ShouldBeNil)
				_, ok = discarded.Load(int64(1))
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutting down with ballots still queued", func() {
			applier.delay = 5 * time.Millisecond
			items := make([]queue.Item, 0, 5)
			for i := int64(1); i <= 5; i++ {
				it := queue.NewItem(model.Ballot{WinnerID: i, LoserID: i + 1}, time.Time{})
				convey.So(q.Enqueue(ctx, it), convey.ShouldBeTrue)
				items = append(items, it)
			}
			err := w.Shutdown(ctx)

			convey.Convey("Then every ballot is applied in order before Run exits", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(applier.count(), convey.ShouldEqual, 5)
				for i, it := range items {
					res := <-it.Reply
					convey.So(res.Err, convey.ShouldBeNil)
					convey.So(res.Receipt.Vote.ID, convey.ShouldEqual, i+1)
				}
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWorkerContextCancel(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		convey.So(logging.Init(), convey.ShouldBeNil)
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := worker.NewInMemoryWorker(q, worker.ApplierFunc(func(context.Context, model.Ballot) (model.Receipt, error) {
			return model.Receipt{}, nil
		}))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		convey.Convey("When the context is cancelled", func() {
			cancel()

			convey.Convey("Then the worker stops", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestShutdownTimeout(t *testing.T) {
	convey.Convey("Given a worker stuck on a slow ballot", t, func() {
		convey.So(logging.Init(), convey.ShouldBeNil)
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		release := make(chan struct{})
		w := worker.NewInMemoryWorker(q, worker.ApplierFunc(func(context.Context, model.Ballot) (model.Receipt, error) {
			<-release
			return model.Receipt{}, nil
		}), worker.WithLogger(logging.Named("slow")))
		go w.Run(context.Background())
		convey.So(q.Enqueue(context.Background(), queue.NewItem(model.Ballot{WinnerID: 1, LoserID: 2}, time.Time{})), convey.ShouldBeTrue)

		convey.Convey("When shutdown outlives its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := w.Shutdown(ctx)
			close(release)

			convey.Convey("Then it reports the timeout", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}
