package models

import (
	"encoding/json"
	"time"
)

// ScheduleType distinguishes the two kinds of externally triggered tasks.
type ScheduleType string

const (
	// ScheduleTypeScoresAndStandings is a one-shot trigger fired shortly
	// after a match is expected to end.
	ScheduleTypeScoresAndStandings ScheduleType = "scores_and_standings"
	// ScheduleTypeKnockoutsUpdate is a recurring trigger discovering new
	// knockout rounds for a tracked tournament.
	ScheduleTypeKnockoutsUpdate ScheduleType = "knockouts_update"
)

// JobStatus is the lifecycle state of a scheduled job. Transitions are
// forward-only: pending -> scheduled -> triggered -> executing -> completed,
// with failed and cancelled reachable from any non-terminal state.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusTriggered JobStatus = "triggered"
	JobStatusExecuting JobStatus = "executing"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// ExecutionError captures structured failure detail on a job row.
type ExecutionError struct {
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ScheduledJob is the authoritative lifecycle record for one externally
// scheduled trigger. ScheduleID is globally unique and doubles as the
// idempotency key for creation.
type ScheduledJob struct {
	ID              int64
	ScheduleID      string
	ExternalHandle  *string
	ScheduleType    ScheduleType
	Expression      *string
	TargetInput     json.RawMessage
	TournamentID    int64
	MatchID         *int64
	MatchExternalID *string
	MatchProvider   *string
	RoundSlug       *string
	Status          JobStatus
	ScheduledAt     *time.Time
	TriggeredAt     *time.Time
	ExecutedAt      *time.Time
	CompletedAt     *time.Time
	ExecutionID     *string
	ExecutionStatus *string
	ExecutionError  *ExecutionError
	RetryCount      int32
	LastRetryAt     *time.Time
	Environment     string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// JobStatsFilter narrows job statistics to one schedule type or tournament.
type JobStatsFilter struct {
	ScheduleType *ScheduleType
	TournamentID *int64
}

// JobStats aggregates job rows by lifecycle state.
type JobStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Scheduled int64 `json:"scheduled"`
	Triggered int64 `json:"triggered"`
	Executing int64 `json:"executing"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}
