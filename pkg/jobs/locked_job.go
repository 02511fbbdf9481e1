package jobs

import (
	"context"
	"fmt"

	"github.com/matchpulse/core/pkg/logger"
)

// LockedJob wraps a job with a distributed lock so overlapping triggers do
// not run the same job concurrently. If the lock is held elsewhere the run is
// skipped, not failed: the other instance is already doing the work and the
// cron will fire again.
type LockedJob struct {
	job         Job
	lockManager LockManager
	logger      *logger.Logger
}

// NewLockedJob wraps the given job with distributed locking.
func NewLockedJob(job Job, lockManager LockManager) *LockedJob {
	return &LockedJob{
		job:         job,
		lockManager: lockManager,
		logger:      logger.New("locked-job"),
	}
}

func (l *LockedJob) Name() string {
	return l.job.Name()
}

func (l *LockedJob) Schedule() string {
	return l.job.Schedule()
}

func (l *LockedJob) Execute(ctx context.Context) error {
	lockKey := "job:" + l.job.Name()

	acquired, err := l.lockManager.AcquireLock(ctx, lockKey)
	if err != nil {
		return fmt.Errorf("failed to acquire lock for job %s: %w", l.job.Name(), err)
	}
	if !acquired {
		l.logger.Info().
			Str("job_name", l.job.Name()).
			Str("action", "job_skipped_locked").
			Msg("Job skipped, another instance is running")
		return nil
	}

	defer func() {
		if releaseErr := l.lockManager.ReleaseLock(ctx, lockKey); releaseErr != nil {
			l.logger.Error().
				Err(releaseErr).
				Str("job_name", l.job.Name()).
				Str("action", "lock_release_failed").
				Msg("Failed to release job lock")
		}
	}()

	return l.job.Execute(ctx)
}
