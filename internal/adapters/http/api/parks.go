package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/parkrank/internal/domain/model"
)

// ParkDependencies defines the park lookups the handlers need.
type ParkDependencies interface {
	Park(ctx context.Context, id int64) (model.Park, error)
	Parks(ctx context.Context) ([]model.Park, error)
	SearchParks(ctx context.Context, query string, limit int) ([]model.Park, error)
}

// ParksHandler handles park requests.
type ParksHandler struct {
	deps ParkDependencies
}

// NewParksHandler creates a new parks handler.
func NewParksHandler(deps ParkDependencies) *ParksHandler {
	return &ParksHandler{deps: deps}
}

// HandleListParks handles GET /api/parks, optionally filtered by ?q=.
func (h *ParksHandler) HandleListParks(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_parks"
	var (
		parks []model.Park
		err   error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		parks, err = h.deps.SearchParks(r.Context(), q, queryInt(r, "limit", 0))
	} else {
		parks, err = h.deps.Parks(r.Context())
	}
	if err != nil {
		writeFailure(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, parks)
}

// HandleGetPark handles GET /api/parks/{id}.
func (h *ParksHandler) HandleGetPark(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_park"
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid_input", NewKind(op, ErrBadRequest))
		return
	}
	park, err := h.deps.Park(r.Context(), id)
	if err != nil {
		writeFailure(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, park)
}
