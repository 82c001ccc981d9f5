package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/parkrank/internal/adapters/mq/queue"
	"github.com/okian/parkrank/internal/adapters/mq/worker"
	"github.com/okian/parkrank/internal/adapters/repository"
	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/internal/domain/ranking"
	"github.com/okian/parkrank/pkg/logger"
	"github.com/okian/parkrank/pkg/metrics"
)

// SubmitVote queues a ballot for the worker and waits for it to settle.
func (s *Service) SubmitVote(ctx context.Context, b model.Ballot) (model.Receipt, error) {
	if err := b.Validate(); err != nil {
		metrics.RecordVoteRejected("invalid_input")
		return model.Receipt{}, err
	}

	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started || q == nil || q.IsClosed() {
		metrics.RecordVoteRejected("stopped")
		return model.Receipt{}, ErrStopped
	}

	if b.IdempotencyKey != "" && s.deduper.SeenAndRecord(ctx, b.IdempotencyKey) {
		metrics.RecordVoteDuplicate()
		s.logger.Debug(ctx, "duplicate ballot", logger.String("idempotency_key", b.IdempotencyKey))
		return model.Receipt{}, ErrDuplicateVote
	}

	deadline := time.Now().Add(s.voteTimeout)
	item := queue.NewItem(b, deadline)
	if b.IdempotencyKey != "" {
		// the worker releases the key for ballots it never applies, even
		// after this call has stopped waiting
		detached := context.WithoutCancel(ctx)
		item.OnDiscard = func() { s.forget(detached, b) }
	}
	if !q.Enqueue(ctx, item) {
		s.forget(ctx, b)
		if q.IsClosed() {
			metrics.RecordVoteRejected("stopped")
			return model.Receipt{}, ErrStopped
		}
		metrics.RecordVoteRejected("backpressure")
		return model.Receipt{}, ErrBackpressure
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case res := <-item.Reply:
		return s.settle(res)
	case <-timer.C:
		// the ballot may still be applied, so its key stays recorded
		metrics.RecordVoteRejected("timeout")
		return model.Receipt{}, ErrVoteTimeout
	case <-ctx.Done():
		metrics.RecordVoteRejected("cancelled")
		return model.Receipt{}, ctx.Err()
	}
}

// settle maps a worker result onto SubmitVote's return values. The
// worker has already released the key of any ballot it did not apply.
func (s *Service) settle(res queue.Result) (model.Receipt, error) {
	switch {
	case res.Err == nil:
		return res.Receipt, nil
	case errors.Is(res.Err, worker.ErrExpired), errors.Is(res.Err, context.DeadlineExceeded):
		metrics.RecordVoteRejected("timeout")
		return model.Receipt{}, ErrVoteTimeout
	case errors.Is(res.Err, queue.ErrClosed):
		metrics.RecordVoteRejected("stopped")
		return model.Receipt{}, ErrStopped
	case errors.Is(res.Err, model.ErrNotFound):
		metrics.RecordVoteRejected("not_found")
		return model.Receipt{}, res.Err
	default:
		metrics.RecordVoteRejected("internal")
		return model.Receipt{}, res.Err
	}
}

func (s *Service) forget(ctx context.Context, b model.Ballot) {
	if b.IdempotencyKey != "" {
		s.deduper.Unrecord(ctx, b.IdempotencyKey)
	}
}

// apply runs the rating update and rank walk for one ballot atomically.
// Only the worker calls it.
func (s *Service) apply(ctx context.Context, b model.Ballot) (model.Receipt, error) {
	start := time.Now()
	var receipt model.Receipt

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		winner, err := tx.GetPark(ctx, b.WinnerID)
		if err != nil {
			return err
		}
		loser, err := tx.GetPark(ctx, b.LoserID)
		if err != nil {
			return err
		}

		out := s.engine.Apply(winner.Elo, loser.Elo)
		vote, err := tx.AppendVote(ctx, model.NewVote{
			WinnerID:        winner.ID,
			LoserID:         loser.ID,
			WinnerEloBefore: out.WinnerBefore,
			LoserEloBefore:  out.LoserBefore,
			WinnerEloAfter:  out.WinnerAfter,
			LoserEloAfter:   out.LoserAfter,
		})
		if err != nil {
			return err
		}

		if winner, err = tx.ApplyScoreUpdate(ctx, winner.ID, out.WinnerAfter, winner.Rank); err != nil {
			return err
		}
		if loser, err = tx.ApplyScoreUpdate(ctx, loser.ID, out.LoserAfter, loser.Rank); err != nil {
			return err
		}

		ordered, err := tx.Rankings(ctx)
		if err != nil {
			return err
		}
		moves := ranking.Reassign(ordered)
		for _, m := range moves {
			p, err := tx.ApplyScoreUpdate(ctx, m.ParkID, m.Elo, m.Rank)
			if err != nil {
				return fmt.Errorf("rerank park %d: %w", m.ParkID, err)
			}
			switch p.ID {
			case winner.ID:
				winner = p
			case loser.ID:
				loser = p
			}
		}

		receipt = model.Receipt{Vote: vote, Winner: winner, Loser: loser, RankMoves: len(moves)}
		return nil
	})
	if err != nil {
		return model.Receipt{}, err
	}

	s.cache.invalidate()
	metrics.RecordVoteApplyLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordVote(receipt.Vote.WinnerEloAfter-receipt.Vote.WinnerEloBefore,
		receipt.Vote.LoserEloAfter-receipt.Vote.LoserEloBefore, receipt.RankMoves)
	s.logger.Debug(ctx, "vote applied",
		logger.Int64("vote_id", receipt.Vote.ID),
		logger.Int64("winner_id", receipt.Winner.ID),
		logger.Int("winner_elo", receipt.Winner.Elo),
		logger.Int64("loser_id", receipt.Loser.ID),
		logger.Int("loser_elo", receipt.Loser.Elo),
		logger.Int("rank_moves", receipt.RankMoves),
	)
	return receipt, nil
}
