package jobs

import (
	"context"
	"crypto/md5"
	"fmt"

	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/logger"
)

// LockManager provides distributed locking keyed by name. It serves two
// callers: the job wrapper guarding overlapping pass executions, and the
// schedule planner guarding its dedup check against concurrent runs.
type LockManager interface {
	// AcquireLock attempts to acquire a distributed lock for the given key.
	// Returns true if the lock was acquired, false if another instance
	// holds it.
	AcquireLock(ctx context.Context, key string) (bool, error)

	// ReleaseLock releases the distributed lock for the given key
	ReleaseLock(ctx context.Context, key string) error
}

// PostgresLockManager implements distributed locking using PostgreSQL
// advisory locks.
type PostgresLockManager struct {
	db     database.DBTX
	logger *logger.Logger
}

// NewPostgresLockManager creates a new PostgreSQL-based lock manager
func NewPostgresLockManager(db database.DBTX) *PostgresLockManager {
	return &PostgresLockManager{
		db:     db,
		logger: logger.New("lock-manager"),
	}
}

// generateLockID creates a consistent numeric lock ID from the key.
// PostgreSQL advisory locks require int64 keys.
func (p *PostgresLockManager) generateLockID(key string) int64 {
	hash := md5.Sum([]byte(key))

	lockID := int64(0)
	for i := 0; i < 8; i++ {
		lockID = lockID<<8 + int64(hash[i])
	}
	if lockID < 0 {
		lockID = -lockID
	}
	return lockID
}

// AcquireLock attempts to acquire a distributed lock for the given key
func (p *PostgresLockManager) AcquireLock(ctx context.Context, key string) (bool, error) {
	lockID := p.generateLockID(key)

	// pg_try_advisory_lock returns immediately: true if acquired, false if
	// already locked.
	var acquired bool
	err := p.db.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock for %s: %w", key, err)
	}

	if acquired {
		p.logger.Debug().
			Str("lock_key", key).
			Int64("lock_id", lockID).
			Str("action", "lock_acquired").
			Msg("Acquired distributed lock")
	} else {
		p.logger.Debug().
			Str("lock_key", key).
			Int64("lock_id", lockID).
			Str("action", "lock_already_held").
			Msg("Lock already held by another instance")
	}

	return acquired, nil
}

// ReleaseLock releases the distributed lock for the given key
func (p *PostgresLockManager) ReleaseLock(ctx context.Context, key string) error {
	lockID := p.generateLockID(key)

	var released bool
	err := p.db.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", lockID).Scan(&released)
	if err != nil {
		return fmt.Errorf("failed to release lock for %s: %w", key, err)
	}

	if !released {
		p.logger.Warn().
			Str("lock_key", key).
			Int64("lock_id", lockID).
			Str("action", "lock_not_held").
			Msg("Attempted to release lock that was not held")
	}

	return nil
}
