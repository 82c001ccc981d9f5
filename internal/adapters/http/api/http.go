// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/parkrank/internal/app"
	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ParkDependencies
	MatchupDependencies
	RankingDependencies
	VoteDependencies
	ReadinessChecker
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	parksHandler   *ParksHandler
	matchupHandler *MatchupHandler
	rankingHandler *RankingHandler
	voteHandler    *VoteHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(deps),
		parksHandler:   NewParksHandler(deps),
		matchupHandler: NewMatchupHandler(deps),
		rankingHandler: NewRankingHandler(deps),
		voteHandler:    NewVoteHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	r.Get("/readyz", MetricsMiddleware(s.healthHandler.HandleReady, "readyz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/parks", MetricsMiddleware(s.parksHandler.HandleListParks, "parks"))
		r.Get("/parks/{id}", MetricsMiddleware(s.parksHandler.HandleGetPark, "park"))
		r.Get("/matchup", MetricsMiddleware(s.matchupHandler.HandleGetMatchup, "matchup"))
		r.Get("/ranking", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
		r.Post("/vote", MetricsMiddleware(s.voteHandler.HandlePostVote, "vote"))
		r.Get("/votes/recent", MetricsMiddleware(s.voteHandler.HandleRecentVotes, "recent_votes"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a service error onto its HTTP status and error code.
// Server-side failures are logged and their details withheld.
func writeFailure(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		if status == http.StatusInternalServerError {
			writeError(w, status, code, nil)
			return
		}
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooBig):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrInsufficientData):
		return http.StatusConflict, "insufficient_data"
	case errors.Is(err, service.ErrDuplicateVote):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrVoteTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, service.ErrStopped), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// queryInt returns the integer query parameter name, or def when it is
// missing, not a number or below 1.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil || v < 1 {
		return def
	}
	return v
}
