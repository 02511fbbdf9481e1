package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/models"
	"github.com/matchpulse/core/pkg/models/api"
)

// Runner is the orchestrator surface the handler exposes for administrative
// invocation.
type Runner interface {
	Run(ctx context.Context) (models.PassSummary, error)
}

// StatsReader exposes the poller's diagnostic counters.
type StatsReader interface {
	Stats(ctx context.Context) (models.PollerStats, error)
}

// StoreReader is the read-only store slice backing the inspection endpoints.
type StoreReader interface {
	GetMatchByID(ctx context.Context, matchID int64) (models.Match, error)
	ListStandings(ctx context.Context, tournamentID int64) ([]models.Standing, error)
}

// Handler exposes the match refresh pipeline for manual triggering and
// inspection.
type Handler struct {
	runner Runner
	stats  StatsReader
	store  StoreReader
	logger *logger.Logger
}

func NewHandler(runner Runner, stats StatsReader, store StoreReader, log *logger.Logger) *Handler {
	return &Handler{
		runner: runner,
		stats:  stats,
		store:  store,
		logger: log,
	}
}

// Run handles POST /api/sync/run: executes one pass and returns its summary.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	summary, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "manual_pass_failed").
			Msg("Manually triggered pass failed")
		writeError(w, http.StatusInternalServerError, "refresh pass failed")
		return
	}

	writeJSON(w, http.StatusOK, api.PassResponse{
		Summary:  summary,
		Duration: time.Since(start).String(),
	})
}

// Stats handles GET /api/sync/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "poller_stats_failed").
			Msg("Failed to read poller stats")
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Match handles GET /api/sync/match?id=: one match row as the pipeline sees it.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	matchID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	match, err := h.store.GetMatchByID(r.Context(), matchID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("match_id", matchID).
			Str("action", "match_lookup_failed").
			Msg("Failed to read match")
		writeError(w, http.StatusInternalServerError, "failed to read match")
		return
	}

	writeJSON(w, http.StatusOK, match)
}

// Standings handles GET /api/sync/standings?tournament_id=.
func (h *Handler) Standings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tournamentID, err := strconv.ParseInt(r.URL.Query().Get("tournament_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tournament_id")
		return
	}

	standings, err := h.store.ListStandings(r.Context(), tournamentID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("tournament_id", tournamentID).
			Str("action", "standings_lookup_failed").
			Msg("Failed to read standings")
		writeError(w, http.StatusInternalServerError, "failed to read standings")
		return
	}

	writeJSON(w, http.StatusOK, standings)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}
