// Package repository defines the park ranking store and vote ledger.
package repository

import (
	"context"

	"github.com/okian/parkrank/internal/domain/model"
)

// Tx is the set of operations available inside WithinTx. Every Store is
// also a Tx whose calls are individually atomic.
type Tx interface {
	// GetPark returns the park or an error wrapping model.ErrNotFound.
	GetPark(ctx context.Context, id int64) (model.Park, error)

	// Rankings returns all parks ordered by elo desc, id asc.
	Rankings(ctx context.Context) ([]model.Park, error)

	// CountParks returns the number of parks.
	CountParks(ctx context.Context) (int, error)

	// CreatePark assigns the next id, elo 1500 and rank count+1.
	CreatePark(ctx context.Context, p model.NewPark) (model.Park, error)

	// ApplyScoreUpdate moves elo and rank into previousElo/previousRank and
	// stores the new values. Unknown ids fail with model.ErrNotFound and
	// leave the store unchanged.
	ApplyScoreUpdate(ctx context.Context, id int64, elo, rank int) (model.Park, error)

	// AppendVote adds a vote to the ledger with the next id and a timestamp
	// that never precedes the previous vote's.
	AppendVote(ctx context.Context, v model.NewVote) (model.Vote, error)
}

// Store provides read/write access to parks and the vote ledger.
type Store interface {
	Tx

	// ListParks returns all parks in id order.
	ListParks(ctx context.Context) ([]model.Park, error)

	// TopParks returns the first n parks of Rankings.
	TopParks(ctx context.Context, n int) ([]model.Park, error)

	// RecentVotes returns up to limit votes, newest first (ties by id desc).
	RecentVotes(ctx context.Context, limit int) ([]model.Vote, error)

	// CountVotes returns the ledger size.
	CountVotes(ctx context.Context) (int, error)

	// WithinTx runs fn atomically; any error from fn undoes its writes.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error

	Close() error
}
