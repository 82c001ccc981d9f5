package postgres

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/okian/parkrank/internal/adapters/repository"
	"github.com/okian/parkrank/internal/domain/model"
)

var testDBConnString string

func TestMain(m *testing.M) {
	flag.Parse()

	var terminate func()
	if !testing.Short() {
		testDBConnString, terminate = setupContainer(context.Background())
	}

	code := m.Run()

	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

func setupContainer(ctx context.Context) (string, func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic in setupContainer: %v\n", r)
		}
	}()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("parkrank"),
		tcpostgres.WithUsername("parkrank"),
		tcpostgres.WithPassword("parkrank"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Printf("WARNING: Failed to start postgres container: %v\n", err)
		return "", func() {}
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Printf("WARNING: Failed to get connection string: %v\n", err)
		_ = pgContainer.Terminate(ctx)
		return "", func() {}
	}

	return connStr, func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}
}

// newTestStore returns a migrated store with empty tables.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if testDBConnString == "" {
		t.Skip("Skipping integration test: no database available")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, PoolConfig{URL: testDBConnString, MaxConns: 8})
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE votes, parks RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	s := New(pool)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedParks(t *testing.T, s *Store, names ...string) []model.Park {
	t.Helper()
	out := make([]model.Park, 0, len(names))
	for _, n := range names {
		p, err := s.CreatePark(context.Background(), model.NewPark{Name: n, State: "Utah"})
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parks := seedParks(t, s, "Zion", "Arches", "Bryce Canyon")
	assert.Equal(t, int64(1), parks[0].ID)
	assert.Equal(t, 1500, parks[0].Elo)
	assert.Equal(t, 3, parks[2].Rank)
	assert.Nil(t, parks[0].PreviousRank)

	got, err := s.GetPark(ctx, parks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Arches", got.Name)

	_, err = s.GetPark(ctx, 999)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	n, err := s.CountParks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_ApplyScoreUpdateAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedParks(t, s, "Zion", "Arches", "Bryce Canyon", "Capitol Reef")

	p, err := s.ApplyScoreUpdate(ctx, 3, 1516, 1)
	require.NoError(t, err)
	require.NotNil(t, p.PreviousElo)
	require.NotNil(t, p.PreviousRank)
	assert.Equal(t, 1500, *p.PreviousElo)
	assert.Equal(t, 3, *p.PreviousRank)
	assert.Equal(t, 1, p.Rank)

	_, err = s.ApplyScoreUpdate(ctx, 1, 1484, 4)
	require.NoError(t, err)

	ranked, err := s.Rankings(ctx)
	require.NoError(t, err)
	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	assert.Equal(t, []int64{3, 2, 4, 1}, ids)

	top, err := s.TopParks(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	_, err = s.TopParks(ctx, 0)
	assert.True(t, errors.Is(err, repository.ErrInvalidLimit))

	_, err = s.ApplyScoreUpdate(ctx, 42, 1500, 1)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestStore_VoteLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedParks(t, s, "Zion", "Arches")

	for i := 0; i < 3; i++ {
		_, err := s.AppendVote(ctx, model.NewVote{
			WinnerID: 1, LoserID: 2,
			WinnerEloBefore: 1500 + i, LoserEloBefore: 1500 - i,
			WinnerEloAfter: 1516 + i, LoserEloAfter: 1484 - i,
		})
		require.NoError(t, err)
	}

	votes, err := s.RecentVotes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, int64(3), votes[0].ID)
	assert.Equal(t, int64(2), votes[1].ID)
	assert.False(t, votes[0].Timestamp.Before(votes[1].Timestamp))

	n, err := s.CountVotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = s.AppendVote(ctx, model.NewVote{WinnerID: 1, LoserID: 1})
	assert.Error(t, err)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedParks(t, s, "Zion", "Arches")

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.ApplyScoreUpdate(ctx, 1, 1600, 1); err != nil {
			return err
		}
		if _, err := tx.AppendVote(ctx, model.NewVote{WinnerID: 1, LoserID: 2}); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	p, err := s.GetPark(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1500, p.Elo)

	n, err := s.CountVotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_WithinTxPanicRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedParks(t, s, "Zion", "Arches")

	assert.PanicsWithValue(t, "boom", func() {
		_ = s.WithinTx(ctx, func(tx repository.Tx) error {
			if _, err := tx.AppendVote(ctx, model.NewVote{WinnerID: 1, LoserID: 2}); err != nil {
				return err
			}
			panic("boom")
		})
	})

	n, err := s.CountVotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// the vote lock is free again
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error {
		_, err := tx.ApplyScoreUpdate(ctx, 1, 1516, 1)
		return err
	}))
}

func TestStore_WithinTxSerialises(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedParks(t, s, "Zion")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.WithinTx(ctx, func(tx repository.Tx) error {
				p, err := tx.GetPark(ctx, 1)
				if err != nil {
					return err
				}
				_, err = tx.ApplyScoreUpdate(ctx, 1, p.Elo+1, 1)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	p, err := s.GetPark(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1500+workers, p.Elo)
	require.NoError(t, s.Ping(ctx))
}
