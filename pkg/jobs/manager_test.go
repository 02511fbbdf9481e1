package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockJob struct {
	name        string
	schedule    string
	executeFunc func(ctx context.Context) error
	executions  atomic.Int32
}

func (m *mockJob) Execute(ctx context.Context) error {
	m.executions.Add(1)
	if m.executeFunc != nil {
		return m.executeFunc(ctx)
	}
	return nil
}

func (m *mockJob) Name() string {
	return m.name
}

func (m *mockJob) Schedule() string {
	return m.schedule
}

func TestJobManager_RegisterJob(t *testing.T) {
	manager := NewJobManager()

	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{
			name: "valid job",
			job: &mockJob{
				name:     "test-job",
				schedule: "@every 1s",
			},
			wantErr: false,
		},
		{
			name:    "nil job",
			job:     nil,
			wantErr: true,
		},
		{
			name: "invalid schedule",
			job: &mockJob{
				name:     "invalid-job",
				schedule: "not-a-cron",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.RegisterJob(tt.job)
			if (err != nil) != tt.wantErr {
				t.Errorf("RegisterJob() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJobManager_GetJobs(t *testing.T) {
	manager := NewJobManager()

	if jobs := manager.GetJobs(); len(jobs) != 0 {
		t.Errorf("Expected 0 jobs initially, got %d", len(jobs))
	}

	testJob := &mockJob{
		name:     "match_refresh",
		schedule: "*/10 * * * *",
	}
	if err := manager.RegisterJob(testJob); err != nil {
		t.Fatalf("Failed to register job: %v", err)
	}

	jobs := manager.GetJobs()
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Name() != "match_refresh" {
		t.Errorf("Expected job name 'match_refresh', got '%s'", jobs[0].Name())
	}
}

func TestJobManager_StartStop(t *testing.T) {
	manager := NewJobManager()

	manager.Start()
	time.Sleep(10 * time.Millisecond)

	done := make(chan bool, 1)
	go func() {
		manager.Stop()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() took too long")
	}
}

func TestJobExecution(t *testing.T) {
	manager := NewJobManager()

	testJob := &mockJob{
		name:     "test-execution",
		schedule: "@every 100ms",
	}
	if err := manager.RegisterJob(testJob); err != nil {
		t.Fatalf("Failed to register job: %v", err)
	}

	manager.Start()
	defer manager.Stop()

	time.Sleep(250 * time.Millisecond)

	if testJob.executions.Load() == 0 {
		t.Error("Job was not executed")
	}
}

func TestJobExecutionErrorDoesNotStopManager(t *testing.T) {
	manager := NewJobManager()

	failingJob := &mockJob{
		name:     "failing-job",
		schedule: "@every 100ms",
		executeFunc: func(ctx context.Context) error {
			return errors.New("provider unavailable")
		},
	}
	if err := manager.RegisterJob(failingJob); err != nil {
		t.Fatalf("Failed to register job: %v", err)
	}

	manager.Start()
	defer manager.Stop()

	time.Sleep(250 * time.Millisecond)

	// The error is logged, not propagated, and the schedule keeps firing.
	if failingJob.executions.Load() < 2 {
		t.Errorf("Expected the failing job to keep firing, got %d executions", failingJob.executions.Load())
	}
}
