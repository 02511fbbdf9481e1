package api

import (
	"time"

	"github.com/matchpulse/core/pkg/models"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// PassResponse wraps the outcome of one manually triggered refresh pass
type PassResponse struct {
	Summary  models.PassSummary `json:"summary"`
	Duration string             `json:"duration"`
}

// ScheduledJobResponse represents a scheduled job in API responses
type ScheduledJobResponse struct {
	ScheduleID     string     `json:"schedule_id"`
	ScheduleType   string     `json:"schedule_type"`
	Status         string     `json:"status"`
	TournamentID   int64      `json:"tournament_id"`
	MatchID        *int64     `json:"match_id,omitempty"`
	Expression     *string    `json:"expression,omitempty"`
	ExternalHandle *string    `json:"external_handle,omitempty"`
	RetryCount     int32      `json:"retry_count"`
	LastError      *string    `json:"last_error,omitempty"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// FromScheduledJob maps a job row onto its API shape.
func FromScheduledJob(job models.ScheduledJob) ScheduledJobResponse {
	resp := ScheduledJobResponse{
		ScheduleID:     job.ScheduleID,
		ScheduleType:   string(job.ScheduleType),
		Status:         string(job.Status),
		TournamentID:   job.TournamentID,
		MatchID:        job.MatchID,
		Expression:     job.Expression,
		ExternalHandle: job.ExternalHandle,
		RetryCount:     job.RetryCount,
		ScheduledAt:    job.ScheduledAt,
		CompletedAt:    job.CompletedAt,
		CreatedAt:      job.CreatedAt,
	}
	if job.ExecutionError != nil {
		msg := job.ExecutionError.Message
		resp.LastError = &msg
	}
	return resp
}

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Error string `json:"error"`
}
