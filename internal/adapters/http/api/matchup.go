package api

import (
	"context"
	"net/http"

	"github.com/okian/parkrank/internal/domain/model"
)

// MatchupDependencies draws a random pair.
type MatchupDependencies interface {
	RandomMatchup(ctx context.Context) (model.Matchup, error)
}

// MatchupHandler handles matchup requests.
type MatchupHandler struct {
	deps MatchupDependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps MatchupDependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

// HandleGetMatchup handles GET /api/matchup.
func (h *MatchupHandler) HandleGetMatchup(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_matchup"
	m, err := h.deps.RandomMatchup(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}
