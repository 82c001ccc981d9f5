package votesim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/parkrank/pkg/logger"
)

const defaultRecentWindow = 50

// Run casts cfg.Votes random votes with cfg.Workers voters, then verifies
// the final ranking and the recent-vote ledger.
func Run(ctx context.Context, cfg *Config) (Stats, error) {
	log := logger.Named("votesim")
	start := time.Now()
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting vote simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("votes", cfg.Votes),
		logger.Int("workers", cfg.Workers))

	if err := c.ready(ctx); err != nil {
		return Stats{}, fmt.Errorf("service readiness check failed: %w", err)
	}

	stats, err := castVotes(ctx, c, cfg)
	if err != nil {
		return stats, fmt.Errorf("vote submission failed: %w", err)
	}

	parks, err := verify(ctx, c, cfg, stats.VotesRecorded)
	if err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}
	stats.Parks = len(parks)
	stats.Duration = time.Since(start)

	log.Info(ctx, "final statistics",
		logger.Int("cast", stats.VotesCast),
		logger.Int("recorded", stats.VotesRecorded),
		logger.Int("duplicate", stats.VotesDuplicate),
		logger.Int("rejected", stats.VotesRejected),
		logger.Int("failed", stats.VotesFailed),
		logger.Int("replaysRejected", stats.ReplaysRejected),
		logger.Duration("duration", stats.Duration))
	if len(parks) > 0 {
		log.Info(ctx, "leader", logger.String("park", parks[0].Name), logger.Int("elo", parks[0].Elo))
	}
	return stats, nil
}

func castVotes(ctx context.Context, c *client, cfg *Config) (Stats, error) {
	var recorded, duplicate, rejected, failed, replays atomic.Int64
	log := logger.Named("votesim")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := range cfg.Votes {
		g.Go(func() error {
			m, err := c.matchup(gctx)
			if err != nil {
				return err
			}
			b := voteRequest{WinnerID: m.Park1.ID, LoserID: m.Park2.ID}
			if rand.IntN(2) == 0 { //nolint:gosec // vote direction only
				b.WinnerID, b.LoserID = b.LoserID, b.WinnerID
			}
			key := uuid.NewString()

			status, err := c.vote(gctx, b, key)
			switch {
			case err != nil:
				failed.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "vote failed", logger.Error(err))
				}
				return nil
			case status == http.StatusCreated:
				recorded.Add(1)
			case status == http.StatusConflict:
				duplicate.Add(1)
				return nil
			case status == http.StatusTooManyRequests, status == http.StatusGatewayTimeout:
				rejected.Add(1)
				return nil
			default:
				failed.Add(1)
				return nil
			}

			if cfg.ReplayEvery > 0 && i%cfg.ReplayEvery == 0 {
				status, err := c.vote(gctx, b, key)
				if err == nil && status == http.StatusConflict {
					replays.Add(1)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	return Stats{
		VotesCast:       cfg.Votes,
		VotesRecorded:   int(recorded.Load()),
		VotesDuplicate:  int(duplicate.Load()),
		VotesRejected:   int(rejected.Load()),
		VotesFailed:     int(failed.Load()),
		ReplaysRejected: int(replays.Load()),
	}, err
}
