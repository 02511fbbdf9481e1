package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matchpulse/core/pkg/models"
)

const scheduledJobColumns = `id, schedule_id, external_handle, schedule_type,
	expression, target_input, tournament_id, match_id, match_external_id,
	match_provider, round_slug, status, scheduled_at, triggered_at,
	executed_at, completed_at, execution_id, execution_status,
	execution_error, retry_count, last_retry_at, environment, created_by,
	created_at, updated_at`

func scanScheduledJob(row pgx.Row) (models.ScheduledJob, error) {
	var j models.ScheduledJob
	var execErr []byte
	err := row.Scan(
		&j.ID, &j.ScheduleID, &j.ExternalHandle, &j.ScheduleType,
		&j.Expression, &j.TargetInput, &j.TournamentID, &j.MatchID,
		&j.MatchExternalID, &j.MatchProvider, &j.RoundSlug, &j.Status,
		&j.ScheduledAt, &j.TriggeredAt, &j.ExecutedAt, &j.CompletedAt,
		&j.ExecutionID, &j.ExecutionStatus, &execErr, &j.RetryCount,
		&j.LastRetryAt, &j.Environment, &j.CreatedBy, &j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return models.ScheduledJob{}, err
	}
	if len(execErr) > 0 {
		var detail models.ExecutionError
		if err := json.Unmarshal(execErr, &detail); err != nil {
			return models.ScheduledJob{}, fmt.Errorf("failed to decode execution error for %s: %w", j.ScheduleID, err)
		}
		j.ExecutionError = &detail
	}
	return j, nil
}

// InsertScheduledJob records a new pending job row. The unique constraint on
// schedule_id backstops the registry's duplicate check against concurrent
// creation attempts.
func (q *Queries) InsertScheduledJob(ctx context.Context, arg models.ScheduleRequest) (models.ScheduledJob, error) {
	createdBy := arg.CreatedBy
	if createdBy == "" {
		createdBy = "system"
	}

	row := q.db.QueryRow(ctx, `
		INSERT INTO scheduled_jobs (
			schedule_id, schedule_type, expression, target_input,
			tournament_id, match_id, match_external_id, match_provider,
			round_slug, environment, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+scheduledJobColumns,
		arg.ScheduleID, arg.ScheduleType, arg.Expression,
		[]byte(arg.TargetInput), arg.TournamentID, arg.MatchID,
		arg.MatchExternalID, arg.MatchProvider, arg.RoundSlug,
		arg.Environment, createdBy,
	)

	j, err := scanScheduledJob(row)
	if err != nil {
		return models.ScheduledJob{}, fmt.Errorf("failed to insert scheduled job %s: %w", arg.ScheduleID, err)
	}
	return j, nil
}

// GetScheduledJob returns the job row keyed by its schedule id.
func (q *Queries) GetScheduledJob(ctx context.Context, scheduleID string) (models.ScheduledJob, error) {
	j, err := scanScheduledJob(q.db.QueryRow(ctx,
		`SELECT `+scheduledJobColumns+` FROM scheduled_jobs WHERE schedule_id = $1`, scheduleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ScheduledJob{}, fmt.Errorf("scheduled job %s: %w", scheduleID, ErrNotFound)
	}
	if err != nil {
		return models.ScheduledJob{}, fmt.Errorf("failed to get scheduled job %s: %w", scheduleID, err)
	}
	return j, nil
}

// UpdateScheduledJob persists the mutable lifecycle fields of a job row.
// Transition validation is the registry's responsibility, not the store's.
func (q *Queries) UpdateScheduledJob(ctx context.Context, job models.ScheduledJob) (models.ScheduledJob, error) {
	var execErr []byte
	if job.ExecutionError != nil {
		var err error
		execErr, err = json.Marshal(job.ExecutionError)
		if err != nil {
			return models.ScheduledJob{}, fmt.Errorf("failed to encode execution error for %s: %w", job.ScheduleID, err)
		}
	}

	row := q.db.QueryRow(ctx, `
		UPDATE scheduled_jobs SET
			external_handle = $2,
			status = $3,
			scheduled_at = $4,
			triggered_at = $5,
			executed_at = $6,
			completed_at = $7,
			execution_id = $8,
			execution_status = $9,
			execution_error = $10,
			retry_count = $11,
			last_retry_at = $12,
			updated_at = now()
		WHERE schedule_id = $1
		RETURNING `+scheduledJobColumns,
		job.ScheduleID, job.ExternalHandle, job.Status, job.ScheduledAt,
		job.TriggeredAt, job.ExecutedAt, job.CompletedAt, job.ExecutionID,
		job.ExecutionStatus, execErr, job.RetryCount, job.LastRetryAt,
	)

	updated, err := scanScheduledJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ScheduledJob{}, fmt.Errorf("scheduled job %s: %w", job.ScheduleID, ErrNotFound)
	}
	if err != nil {
		return models.ScheduledJob{}, fmt.Errorf("failed to update scheduled job %s: %w", job.ScheduleID, err)
	}
	return updated, nil
}

// ListRetryableJobs returns failed jobs still under the retry budget. Nothing
// in the sync core consumes this automatically; resubmission is an operator
// or cron driven step.
func (q *Queries) ListRetryableJobs(ctx context.Context, maxRetries int32) ([]models.ScheduledJob, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+scheduledJobColumns+`
		FROM scheduled_jobs
		WHERE status = 'failed' AND retry_count < $1
		ORDER BY updated_at ASC`,
		maxRetries,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list retryable jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.ScheduledJob
	for rows.Next() {
		j, err := scanScheduledJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan retryable job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// CountJobsByStatus aggregates job rows by lifecycle state, optionally
// narrowed by schedule type or tournament.
func (q *Queries) CountJobsByStatus(ctx context.Context, filter models.JobStatsFilter) (models.JobStats, error) {
	var stats models.JobStats
	err := q.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'scheduled'),
			count(*) FILTER (WHERE status = 'triggered'),
			count(*) FILTER (WHERE status = 'executing'),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'failed'),
			count(*) FILTER (WHERE status = 'cancelled')
		FROM scheduled_jobs
		WHERE ($1::text IS NULL OR schedule_type = $1)
		  AND ($2::bigint IS NULL OR tournament_id = $2)`,
		filter.ScheduleType, filter.TournamentID,
	).Scan(
		&stats.Total, &stats.Pending, &stats.Scheduled, &stats.Triggered,
		&stats.Executing, &stats.Completed, &stats.Failed, &stats.Cancelled,
	)
	if err != nil {
		return models.JobStats{}, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	return stats, nil
}
