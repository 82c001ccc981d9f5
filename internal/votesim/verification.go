package votesim

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/internal/domain/ranking"
)

// ErrVerification reports a ranking or ledger that fails its checks.
var ErrVerification = errors.New("verification failed")

// verify checks dense ranks, recent-vote ordering and that every recorded
// vote made it into the ledger window.
func verify(ctx context.Context, c *client, cfg *Config, recorded int) ([]model.Park, error) {
	parks, err := c.ranking(ctx)
	if err != nil {
		return nil, err
	}
	if err := ranking.Verify(parks); err != nil {
		return parks, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	for i := 1; i < len(parks); i++ {
		if !ranking.Less(parks[i-1].Elo, parks[i-1].ID, parks[i].Elo, parks[i].ID) {
			return parks, fmt.Errorf("%w: ranking out of order at position %d", ErrVerification, i+1)
		}
	}

	window := cfg.RecentWindow
	if window < 1 {
		window = defaultRecentWindow
	}
	votes, err := c.recentVotes(ctx, window)
	if err != nil {
		return parks, err
	}
	if err := verifyRecent(votes); err != nil {
		return parks, err
	}
	if want := min(window, recorded); len(votes) < want {
		return parks, fmt.Errorf("%w: ledger returned %d votes, want at least %d", ErrVerification, len(votes), want)
	}
	return parks, nil
}

// verifyRecent checks newest-first order: timestamp DESC then id DESC.
func verifyRecent(votes []model.Vote) error {
	for i := 1; i < len(votes); i++ {
		prev, cur := votes[i-1], votes[i]
		if cur.Timestamp.After(prev.Timestamp) ||
			(cur.Timestamp.Equal(prev.Timestamp) && cur.ID > prev.ID) {
			return fmt.Errorf("%w: vote %d listed before newer vote %d", ErrVerification, prev.ID, cur.ID)
		}
		if cur.WinnerID == cur.LoserID {
			return fmt.Errorf("%w: vote %d has the same winner and loser", ErrVerification, cur.ID)
		}
	}
	return nil
}
