package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/models"
	"github.com/matchpulse/core/pkg/models/api"
)

const defaultMaxRetries = 3

// Registry is the read-only slice of the job registry the handler exposes.
type Registry interface {
	Stats(ctx context.Context, filter models.JobStatsFilter) (models.JobStats, error)
	RetryableJobs(ctx context.Context, maxRetries int) ([]models.ScheduledJob, error)
}

// Handler exposes scheduled-job statistics for operators.
type Handler struct {
	registry Registry
	logger   *logger.Logger
}

func NewHandler(registry Registry, log *logger.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   log,
	}
}

// Stats handles GET /api/jobs/stats with optional ?type= and ?tournament_id=
// filters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var filter models.JobStatsFilter
	if v := r.URL.Query().Get("type"); v != "" {
		scheduleType := models.ScheduleType(v)
		filter.ScheduleType = &scheduleType
	}
	if v := r.URL.Query().Get("tournament_id"); v != "" {
		tournamentID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid tournament_id")
			return
		}
		filter.TournamentID = &tournamentID
	}

	stats, err := h.registry.Stats(r.Context(), filter)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "job_stats_failed").
			Msg("Failed to read job stats")
		writeError(w, http.StatusInternalServerError, "failed to read job stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Retryable handles GET /api/jobs/retryable with optional ?max_retries=.
func (h *Handler) Retryable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	maxRetries := defaultMaxRetries
	if v := r.URL.Query().Get("max_retries"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid max_retries")
			return
		}
		maxRetries = parsed
	}

	retryable, err := h.registry.RetryableJobs(r.Context(), maxRetries)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "retryable_jobs_failed").
			Msg("Failed to list retryable jobs")
		writeError(w, http.StatusInternalServerError, "failed to list retryable jobs")
		return
	}

	responses := make([]api.ScheduledJobResponse, 0, len(retryable))
	for _, job := range retryable {
		responses = append(responses, api.FromScheduledJob(job))
	}

	writeJSON(w, http.StatusOK, responses)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}
