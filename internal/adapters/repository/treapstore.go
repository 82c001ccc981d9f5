package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/internal/domain/rating"
	"github.com/okian/parkrank/pkg/metrics"
)

// TreapStore is the in-memory Store. A single RWMutex guards parks, the
// rank treap and the vote ledger; WithinTx holds the write lock for the
// whole callback and replays an undo log if the callback fails.
type TreapStore struct {
	mu         sync.RWMutex
	root       *node
	parks      map[int64]model.Park
	votes      []model.Vote
	nextParkID int64
	nextVoteID int64
	lastVoteAt time.Time
	closed     bool

	clock func() time.Time
	seed  int64
	rng   *rand.Rand
}

var _ Store = (*TreapStore)(nil)

// NewTreapStore constructs an empty treap store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		parks: make(map[int64]model.Park),
		clock: time.Now,
		seed:  time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewSource(s.seed)) //nolint:gosec // treap priorities only
	return s
}

func trackQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
}

func trackUpdate(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
}

// GetPark returns a park by id.
func (s *TreapStore) GetPark(_ context.Context, id int64) (model.Park, error) {
	defer trackQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(id)
}

// Rankings returns all parks in rank order.
func (s *TreapStore) Rankings(_ context.Context) ([]model.Park, error) {
	defer trackQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rankedLocked(-1), nil
}

// TopParks returns the first n parks in rank order.
func (s *TreapStore) TopParks(_ context.Context, n int) ([]model.Park, error) {
	defer trackQuery(time.Now())
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rankedLocked(n), nil
}

// ListParks returns all parks in id order.
func (s *TreapStore) ListParks(_ context.Context) ([]model.Park, error) {
	defer trackQuery(time.Now())
	s.mu.RLock()
	out := make([]model.Park, 0, len(s.parks))
	for _, p := range s.parks {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CountParks returns the number of parks.
func (s *TreapStore) CountParks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.parks), nil
}

// Position returns the park's 1-based place in the current order, derived
// from the treap rather than the stored rank.
func (s *TreapStore) Position(_ context.Context, id int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.getLocked(id)
	if err != nil {
		return 0, err
	}
	return position(s.root, p.ID, p.Elo), nil
}

// CreatePark adds a park with the initial rating.
func (s *TreapStore) CreatePark(_ context.Context, np model.NewPark) (model.Park, error) {
	defer trackUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Park{}, ErrClosed
	}
	p, _ := s.createLocked(np)
	return p, nil
}

// ApplyScoreUpdate stores a new elo and rank for a park.
func (s *TreapStore) ApplyScoreUpdate(_ context.Context, id int64, elo, rank int) (model.Park, error) {
	defer trackUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Park{}, ErrClosed
	}
	p, _, err := s.applyLocked(id, elo, rank)
	return p, err
}

// AppendVote adds a vote to the ledger.
func (s *TreapStore) AppendVote(_ context.Context, nv model.NewVote) (model.Vote, error) {
	defer trackUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Vote{}, ErrClosed
	}
	v, _ := s.appendLocked(nv)
	return v, nil
}

// RecentVotes returns up to limit votes, newest first.
func (s *TreapStore) RecentVotes(_ context.Context, limit int) ([]model.Vote, error) {
	defer trackQuery(time.Now())
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// append order is already (timestamp, id) ascending
	n := min(limit, len(s.votes))
	out := make([]model.Vote, 0, n)
	for i := len(s.votes) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.votes[i])
	}
	return out, nil
}

// CountVotes returns the ledger size.
func (s *TreapStore) CountVotes(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.votes), nil
}

// WithinTx runs fn while holding the write lock. A panic in fn undoes
// its writes before propagating.
func (s *TreapStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx := &memTx{s: s}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			metrics.RecordRepositoryTransaction("rollback")
			panic(r)
		}
	}()
	if err := fn(tx); err != nil {
		tx.rollback()
		metrics.RecordRepositoryTransaction("rollback")
		return err
	}
	metrics.RecordRepositoryTransaction("commit")
	return nil
}

// Ping fails once the store is closed.
func (s *TreapStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed. Data stays readable.
func (s *TreapStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *TreapStore) getLocked(id int64) (model.Park, error) {
	p, ok := s.parks[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Park{}, model.ParkNotFound(id)
	}
	return p, nil
}

func (s *TreapStore) rankedLocked(limit int) []model.Park {
	size := len(s.parks)
	if limit > 0 && limit < size {
		size = limit
	}
	out := make([]model.Park, 0, size)
	walk(s.root, limit, func(id int64) {
		out = append(out, s.parks[id])
	})
	return out
}

func (s *TreapStore) createLocked(np model.NewPark) (model.Park, func()) {
	id := s.nextParkID + 1
	p := model.Park{
		ID:          id,
		Name:        np.Name,
		Description: np.Description,
		State:       np.State,
		ImageURL:    np.ImageURL,
		Icon:        np.Icon,
		Established: np.Established,
		Elo:         rating.InitialRating,
		Rank:        len(s.parks) + 1,
	}
	s.parks[id] = p
	s.nextParkID = id
	s.root = insert(s.root, id, p.Elo, s.rng.Uint64())

	return p, func() {
		s.root = deleteNode(s.root, id, p.Elo)
		delete(s.parks, id)
		s.nextParkID = id - 1
	}
}

func (s *TreapStore) applyLocked(id int64, elo, rank int) (model.Park, func(), error) {
	old, err := s.getLocked(id)
	if err != nil {
		return model.Park{}, nil, err
	}

	prevElo, prevRank := old.Elo, old.Rank
	p := old
	p.PreviousElo = &prevElo
	p.PreviousRank = &prevRank
	p.Elo = elo
	p.Rank = rank
	s.parks[id] = p
	if elo != old.Elo {
		s.root = deleteNode(s.root, id, old.Elo)
		s.root = insert(s.root, id, elo, s.rng.Uint64())
	}

	return p, func() {
		if elo != old.Elo {
			s.root = deleteNode(s.root, id, elo)
			s.root = insert(s.root, id, old.Elo, s.rng.Uint64())
		}
		s.parks[id] = old
	}, nil
}

func (s *TreapStore) appendLocked(nv model.NewVote) (model.Vote, func()) {
	ts := s.clock().UTC()
	if ts.Before(s.lastVoteAt) {
		ts = s.lastVoteAt
	}
	prevLast := s.lastVoteAt
	id := s.nextVoteID + 1
	v := model.Vote{
		ID:              id,
		WinnerID:        nv.WinnerID,
		LoserID:         nv.LoserID,
		WinnerEloBefore: nv.WinnerEloBefore,
		LoserEloBefore:  nv.LoserEloBefore,
		WinnerEloAfter:  nv.WinnerEloAfter,
		LoserEloAfter:   nv.LoserEloAfter,
		Timestamp:       ts,
	}
	s.votes = append(s.votes, v)
	s.nextVoteID = id
	s.lastVoteAt = ts

	return v, func() {
		s.votes = s.votes[:len(s.votes)-1]
		s.nextVoteID = id - 1
		s.lastVoteAt = prevLast
	}
}

// memTx runs store operations under the lock already held by WithinTx.
type memTx struct {
	s    *TreapStore
	undo []func()
}

func (t *memTx) GetPark(_ context.Context, id int64) (model.Park, error) {
	return t.s.getLocked(id)
}

func (t *memTx) Rankings(_ context.Context) ([]model.Park, error) {
	return t.s.rankedLocked(-1), nil
}

func (t *memTx) CountParks(_ context.Context) (int, error) {
	return len(t.s.parks), nil
}

func (t *memTx) CreatePark(_ context.Context, np model.NewPark) (model.Park, error) {
	p, undo := t.s.createLocked(np)
	t.undo = append(t.undo, undo)
	return p, nil
}

func (t *memTx) ApplyScoreUpdate(_ context.Context, id int64, elo, rank int) (model.Park, error) {
	p, undo, err := t.s.applyLocked(id, elo, rank)
	if err != nil {
		return model.Park{}, fmt.Errorf("apply score update: %w", err)
	}
	t.undo = append(t.undo, undo)
	return p, nil
}

func (t *memTx) AppendVote(_ context.Context, nv model.NewVote) (model.Vote, error) {
	v, undo := t.s.appendLocked(nv)
	t.undo = append(t.undo, undo)
	return v, nil
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}
