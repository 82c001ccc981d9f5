// Package postgres implements the park store and vote ledger on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/parkrank/internal/adapters/repository"
	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/pkg/metrics"
)

// voteLockKey serialises vote transactions across processes.
const voteLockKey int64 = 0x7061726b72616e6b // "parkrank"

const parkColumns = `id, name, description, state, image_url, icon, established, elo, previous_elo, rank, previous_rank`

const voteColumns = `id, winner_id, loser_id, winner_elo_before, loser_elo_before, winner_elo_after, loser_elo_after, created_at`

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ops implements repository.Tx on top of a querier.
type ops struct {
	q querier
}

// Store is the PostgreSQL repository.Store.
type Store struct {
	ops
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// New wraps an open pool. The caller runs Migrate first.
func New(pool *pgxpool.Pool) *Store {
	return &Store{ops: ops{q: pool}, pool: pool}
}

func trackQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
}

func trackUpdate(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
}

func scanPark(row pgx.Row) (model.Park, error) {
	var p model.Park
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.State, &p.ImageURL, &p.Icon,
		&p.Established, &p.Elo, &p.PreviousElo, &p.Rank, &p.PreviousRank)
	return p, err
}

func scanVote(row pgx.Row) (model.Vote, error) {
	var v model.Vote
	err := row.Scan(&v.ID, &v.WinnerID, &v.LoserID, &v.WinnerEloBefore, &v.LoserEloBefore,
		&v.WinnerEloAfter, &v.LoserEloAfter, &v.Timestamp)
	v.Timestamp = v.Timestamp.UTC()
	return v, err
}

func collectParks(rows pgx.Rows) ([]model.Park, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Park, error) {
		return scanPark(row)
	})
}

func (o ops) GetPark(ctx context.Context, id int64) (model.Park, error) {
	defer trackQuery(time.Now())
	p, err := scanPark(o.q.QueryRow(ctx, `SELECT `+parkColumns+` FROM parks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Park{}, model.ParkNotFound(id)
	}
	if err != nil {
		return model.Park{}, fmt.Errorf("get park %d: %w", id, err)
	}
	return p, nil
}

func (o ops) Rankings(ctx context.Context) ([]model.Park, error) {
	defer trackQuery(time.Now())
	rows, err := o.q.Query(ctx, `SELECT `+parkColumns+` FROM parks ORDER BY elo DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("rankings: %w", err)
	}
	parks, err := collectParks(rows)
	if err != nil {
		return nil, fmt.Errorf("rankings: %w", err)
	}
	return parks, nil
}

func (o ops) CountParks(ctx context.Context) (int, error) {
	var n int
	if err := o.q.QueryRow(ctx, `SELECT count(*) FROM parks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count parks: %w", err)
	}
	return n, nil
}

func (o ops) CreatePark(ctx context.Context, np model.NewPark) (model.Park, error) {
	defer trackUpdate(time.Now())
	p, err := scanPark(o.q.QueryRow(ctx, `
		INSERT INTO parks (name, description, state, image_url, icon, established, elo, rank)
		VALUES ($1, $2, $3, $4, $5, $6, 1500, (SELECT count(*) + 1 FROM parks))
		RETURNING `+parkColumns,
		np.Name, np.Description, np.State, np.ImageURL, np.Icon, np.Established))
	if err != nil {
		return model.Park{}, fmt.Errorf("create park %q: %w", np.Name, err)
	}
	return p, nil
}

func (o ops) ApplyScoreUpdate(ctx context.Context, id int64, elo, rank int) (model.Park, error) {
	defer trackUpdate(time.Now())
	p, err := scanPark(o.q.QueryRow(ctx, `
		UPDATE parks
		SET previous_elo = elo, elo = $2, previous_rank = rank, rank = $3
		WHERE id = $1
		RETURNING `+parkColumns, id, elo, rank))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Park{}, model.ParkNotFound(id)
	}
	if err != nil {
		return model.Park{}, fmt.Errorf("update park %d: %w", id, err)
	}
	return p, nil
}

func (o ops) AppendVote(ctx context.Context, nv model.NewVote) (model.Vote, error) {
	defer trackUpdate(time.Now())
	// created_at never precedes the newest vote already in the ledger
	v, err := scanVote(o.q.QueryRow(ctx, `
		INSERT INTO votes (winner_id, loser_id, winner_elo_before, loser_elo_before, winner_elo_after, loser_elo_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			GREATEST(clock_timestamp(), COALESCE((SELECT max(created_at) FROM votes), '-infinity'::timestamptz)))
		RETURNING `+voteColumns,
		nv.WinnerID, nv.LoserID, nv.WinnerEloBefore, nv.LoserEloBefore, nv.WinnerEloAfter, nv.LoserEloAfter))
	if err != nil {
		return model.Vote{}, fmt.Errorf("append vote: %w", err)
	}
	return v, nil
}

// ListParks returns all parks in id order.
func (s *Store) ListParks(ctx context.Context) ([]model.Park, error) {
	defer trackQuery(time.Now())
	rows, err := s.pool.Query(ctx, `SELECT `+parkColumns+` FROM parks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list parks: %w", err)
	}
	parks, err := collectParks(rows)
	if err != nil {
		return nil, fmt.Errorf("list parks: %w", err)
	}
	return parks, nil
}

// TopParks returns the first n parks in rank order.
func (s *Store) TopParks(ctx context.Context, n int) ([]model.Park, error) {
	defer trackQuery(time.Now())
	if n < 1 {
		return nil, repository.ErrInvalidLimit
	}
	rows, err := s.pool.Query(ctx, `SELECT `+parkColumns+` FROM parks ORDER BY elo DESC, id ASC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("top parks: %w", err)
	}
	parks, err := collectParks(rows)
	if err != nil {
		return nil, fmt.Errorf("top parks: %w", err)
	}
	return parks, nil
}

// RecentVotes returns up to limit votes, newest first.
func (s *Store) RecentVotes(ctx context.Context, limit int) ([]model.Vote, error) {
	defer trackQuery(time.Now())
	if limit < 1 {
		return nil, repository.ErrInvalidLimit
	}
	rows, err := s.pool.Query(ctx, `SELECT `+voteColumns+` FROM votes ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent votes: %w", err)
	}
	votes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Vote, error) {
		return scanVote(row)
	})
	if err != nil {
		return nil, fmt.Errorf("recent votes: %w", err)
	}
	return votes, nil
}

// CountVotes returns the ledger size.
func (s *Store) CountVotes(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM votes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return n, nil
}

// WithinTx runs fn in a transaction holding the vote advisory lock.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%s: %w", errMsgBeginTx, err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			metrics.RecordRepositoryTransaction("rollback")
			panic(r)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			metrics.RecordRepositoryTransaction("rollback")
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, voteLockKey); err != nil {
		return fmt.Errorf("acquire vote lock: %w", err)
	}
	if err = fn(ops{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", errMsgCommitTx, err)
	}
	metrics.RecordRepositoryTransaction("commit")
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
