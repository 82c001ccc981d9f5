package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/parkrank/internal/domain/model"
)

const (
	maxVoteBody          = 1 << 10
	idempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

// VoteDependencies defines vote submission and the ledger read.
type VoteDependencies interface {
	SubmitVote(ctx context.Context, b model.Ballot) (model.Receipt, error)
	RecentVotes(ctx context.Context, limit int) ([]model.Vote, error)
}

// VoteHandler handles vote requests.
type VoteHandler struct {
	deps VoteDependencies
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(deps VoteDependencies) *VoteHandler {
	return &VoteHandler{deps: deps}
}

type voteResponse struct {
	Message         string     `json:"message"`
	WinnerNewRating int        `json:"winnerNewRating"`
	LoserNewRating  int        `json:"loserNewRating"`
	Vote            model.Vote `json:"vote"`
	Winner          model.Park `json:"winner"`
	Loser           model.Park `json:"loser"`
}

// HandlePostVote handles POST /api/vote.
func (h *VoteHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vote"
	r.Body = http.MaxBytesReader(w, r.Body, maxVoteBody)

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeFailure(r.Context(), w, op, NewKind(op, ErrBodyTooBig))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", errors.New(validationMessage(err)))
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLen {
		writeError(w, http.StatusBadRequest, "invalid_input", errors.New("idempotency key is too long"))
		return
	}

	receipt, err := h.deps.SubmitVote(r.Context(), model.Ballot{
		WinnerID:       int64(req.WinnerID),
		LoserID:        int64(req.LoserID),
		IdempotencyKey: key,
	})
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}

	writeJSON(w, http.StatusCreated, voteResponse{
		Message:         "Vote recorded successfully",
		WinnerNewRating: receipt.Vote.WinnerEloAfter,
		LoserNewRating:  receipt.Vote.LoserEloAfter,
		Vote:            receipt.Vote,
		Winner:          receipt.Winner,
		Loser:           receipt.Loser,
	})
}

// HandleRecentVotes handles GET /api/votes/recent?limit=N. A missing or
// unusable limit falls back to the service default.
func (h *VoteHandler) HandleRecentVotes(w http.ResponseWriter, r *http.Request) {
	const op = "api.recent_votes"
	votes, err := h.deps.RecentVotes(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		writeFailure(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, votes)
}
