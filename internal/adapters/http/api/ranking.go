package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/parkrank/internal/domain/model"
)

// RankingDependencies defines the ranking read.
type RankingDependencies interface {
	Rankings(ctx context.Context, limit int) ([]model.Park, error)
}

// RankingHandler handles ranking requests.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleGetRanking handles GET /api/ranking?limit=N. Without limit every
// park is returned.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_input", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	parks, err := h.deps.Rankings(r.Context(), limit)
	if err != nil {
		writeFailure(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, parks)
}
