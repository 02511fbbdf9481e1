package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/models"
)

// ErrInvalidTransition marks a lifecycle transition the state machine does
// not allow. It indicates a programming error in the caller, not an
// environmental condition, and is meant to propagate.
var ErrInvalidTransition = errors.New("invalid job transition")

// JobStore is the slice of the store the registry needs.
type JobStore interface {
	GetScheduledJob(ctx context.Context, scheduleID string) (models.ScheduledJob, error)
	InsertScheduledJob(ctx context.Context, arg models.ScheduleRequest) (models.ScheduledJob, error)
	UpdateScheduledJob(ctx context.Context, job models.ScheduledJob) (models.ScheduledJob, error)
	ListRetryableJobs(ctx context.Context, maxRetries int32) ([]models.ScheduledJob, error)
	CountJobsByStatus(ctx context.Context, filter models.JobStatsFilter) (models.JobStats, error)
}

// JobRegistry is the authoritative lifecycle record for externally scheduled
// triggers. Transitions move forward only: pending -> scheduled -> triggered
// -> executing -> completed, with failed and cancelled reachable from any
// non-terminal state. Re-attempting a failed job is a separate creation; the
// registry never retries on its own.
type JobRegistry struct {
	store  JobStore
	now    func() time.Time
	logger *logger.Logger
}

func NewJobRegistry(store JobStore) *JobRegistry {
	return &JobRegistry{
		store:  store,
		now:    time.Now,
		logger: logger.New("job-registry"),
	}
}

// IsDuplicate reports whether a job row already exists for the schedule id.
// Callers check this before creating an external trigger and skip the whole
// creation silently on true; the deterministic schedule id makes two logical
// requests for the same event collide here.
func (r *JobRegistry) IsDuplicate(ctx context.Context, scheduleID string) (bool, error) {
	_, err := r.store.GetScheduledJob(ctx, scheduleID)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate %s: %w", scheduleID, err)
	}
	return true, nil
}

// RecordCreation inserts the pending row for a new trigger request.
func (r *JobRegistry) RecordCreation(ctx context.Context, req models.ScheduleRequest) (models.ScheduledJob, error) {
	job, err := r.store.InsertScheduledJob(ctx, req)
	if err != nil {
		return models.ScheduledJob{}, err
	}

	r.logger.Info().
		Str("action", "job_recorded").
		Str("schedule_id", job.ScheduleID).
		Str("schedule_type", string(job.ScheduleType)).
		Int64("tournament_id", job.TournamentID).
		Msg("Scheduled job recorded")

	return job, nil
}

// MarkScheduled moves a pending job to scheduled once the backend confirmed
// trigger creation. A missing row is an invariant violation and the error
// propagates.
func (r *JobRegistry) MarkScheduled(ctx context.Context, scheduleID, externalHandle string, scheduledAt time.Time) error {
	return r.transition(ctx, scheduleID, models.JobStatusScheduled, func(job *models.ScheduledJob) {
		job.ExternalHandle = &externalHandle
		job.ScheduledAt = &scheduledAt
	})
}

// MarkTriggered records that the backend fired the trigger.
func (r *JobRegistry) MarkTriggered(ctx context.Context, scheduleID, executionID string) error {
	now := r.now()
	return r.transition(ctx, scheduleID, models.JobStatusTriggered, func(job *models.ScheduledJob) {
		job.TriggeredAt = &now
		if executionID != "" {
			job.ExecutionID = &executionID
		}
	})
}

// MarkExecuting records that the triggered handler started its work.
func (r *JobRegistry) MarkExecuting(ctx context.Context, scheduleID string) error {
	now := r.now()
	return r.transition(ctx, scheduleID, models.JobStatusExecuting, func(job *models.ScheduledJob) {
		job.ExecutedAt = &now
	})
}

// MarkCompleted records that the triggered handler finished successfully.
func (r *JobRegistry) MarkCompleted(ctx context.Context, scheduleID, executionStatus string) error {
	now := r.now()
	return r.transition(ctx, scheduleID, models.JobStatusCompleted, func(job *models.ScheduledJob) {
		job.CompletedAt = &now
		if executionStatus != "" {
			job.ExecutionStatus = &executionStatus
		}
	})
}

// MarkFailed moves any non-terminal job to failed, capturing structured error
// detail and incrementing the retry counter. It is invoked both when the
// backend call throws and when later bookkeeping throws, so a failed attempt
// is always observable.
func (r *JobRegistry) MarkFailed(ctx context.Context, scheduleID string, cause error) error {
	now := r.now()
	return r.transition(ctx, scheduleID, models.JobStatusFailed, func(job *models.ScheduledJob) {
		job.ExecutionError = &models.ExecutionError{
			Message:   cause.Error(),
			Detail:    fmt.Sprintf("%+v", cause),
			Timestamp: now,
		}
		job.RetryCount++
		job.LastRetryAt = &now
	})
}

// Cancel moves any non-terminal job to cancelled with a reason.
func (r *JobRegistry) Cancel(ctx context.Context, scheduleID, reason string) error {
	now := r.now()
	return r.transition(ctx, scheduleID, models.JobStatusCancelled, func(job *models.ScheduledJob) {
		job.ExecutionError = &models.ExecutionError{
			Message:   reason,
			Timestamp: now,
		}
	})
}

// RetryableJobs lists failed jobs still under the retry budget. Nothing in
// this core consumes the list automatically; resubmission is an external,
// operator-driven step.
func (r *JobRegistry) RetryableJobs(ctx context.Context, maxRetries int) ([]models.ScheduledJob, error) {
	return r.store.ListRetryableJobs(ctx, int32(maxRetries))
}

// Stats aggregates job rows by lifecycle state.
func (r *JobRegistry) Stats(ctx context.Context, filter models.JobStatsFilter) (models.JobStats, error) {
	return r.store.CountJobsByStatus(ctx, filter)
}

// transitionSources names the states a target may be entered from. Failed and
// cancelled accept every non-terminal state and are handled separately.
var transitionSources = map[models.JobStatus][]models.JobStatus{
	models.JobStatusScheduled: {models.JobStatusPending},
	models.JobStatusTriggered: {models.JobStatusScheduled},
	models.JobStatusExecuting: {models.JobStatusTriggered},
	models.JobStatusCompleted: {models.JobStatusExecuting},
}

func (r *JobRegistry) transition(ctx context.Context, scheduleID string, target models.JobStatus, apply func(*models.ScheduledJob)) error {
	job, err := r.store.GetScheduledJob(ctx, scheduleID)
	if err != nil {
		return err
	}

	if !transitionAllowed(job.Status, target) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, job.Status, target, scheduleID)
	}

	job.Status = target
	apply(&job)

	if _, err := r.store.UpdateScheduledJob(ctx, job); err != nil {
		return err
	}

	r.logger.Info().
		Str("action", "job_transition").
		Str("schedule_id", scheduleID).
		Str("status", string(target)).
		Msg("Scheduled job transitioned")

	return nil
}

func transitionAllowed(from, to models.JobStatus) bool {
	switch to {
	case models.JobStatusFailed, models.JobStatusCancelled:
		return !from.IsTerminal()
	}
	for _, allowed := range transitionSources[to] {
		if from == allowed {
			return true
		}
	}
	return false
}
