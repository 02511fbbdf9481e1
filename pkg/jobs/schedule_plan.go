package jobs

import (
	"context"
	"fmt"

	"github.com/matchpulse/core/pkg/models"
)

// SchedulePlanRunner plans external triggers for upcoming matches and for
// tournaments tracking knockout rounds.
type SchedulePlanRunner interface {
	PlanMatchEndSchedules(ctx context.Context) (models.PlanSummary, error)
	PlanKnockoutSchedules(ctx context.Context) (models.PlanSummary, error)
}

// SchedulePlanJob creates the day's end-of-match triggers ahead of time.
type SchedulePlanJob struct {
	planner SchedulePlanRunner
}

func NewSchedulePlanJob(planner SchedulePlanRunner) Job {
	return &SchedulePlanJob{planner: planner}
}

func (j *SchedulePlanJob) Name() string {
	return "schedule_plan"
}

func (j *SchedulePlanJob) Execute(ctx context.Context) error {
	if _, err := j.planner.PlanMatchEndSchedules(ctx); err != nil {
		return fmt.Errorf("failed to plan match end schedules: %w", err)
	}
	return nil
}

// Schedule returns the cron schedule for this job. Early morning, before the
// day's fixtures kick off.
func (j *SchedulePlanJob) Schedule() string {
	return "0 6 * * *"
}

// KnockoutsPlanJob keeps the recurring knockout discovery triggers in place
// for every tracked tournament.
type KnockoutsPlanJob struct {
	planner SchedulePlanRunner
}

func NewKnockoutsPlanJob(planner SchedulePlanRunner) Job {
	return &KnockoutsPlanJob{planner: planner}
}

func (j *KnockoutsPlanJob) Name() string {
	return "knockouts_plan"
}

func (j *KnockoutsPlanJob) Execute(ctx context.Context) error {
	if _, err := j.planner.PlanKnockoutSchedules(ctx); err != nil {
		return fmt.Errorf("failed to plan knockout schedules: %w", err)
	}
	return nil
}

func (j *KnockoutsPlanJob) Schedule() string {
	return "0 4 * * *"
}
