package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/models"
)

// memStore is an in-memory stand-in for the pgx-backed Queries, implementing
// the same eligibility and identity semantics as the SQL.
type memStore struct {
	matches     map[int64]models.Match
	tournaments map[int64]models.Tournament
	jobs        map[string]models.ScheduledJob
	standings   map[string]database.UpsertStandingParams

	nextMatchID int64
	nextJobID   int64

	markCheckedErr error
	upsertMatchErr error
	now            func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		matches:     make(map[int64]models.Match),
		tournaments: make(map[int64]models.Tournament),
		jobs:        make(map[string]models.ScheduledJob),
		standings:   make(map[string]database.UpsertStandingParams),
		now:         time.Now,
	}
}

func (s *memStore) addTournament(t models.Tournament) models.Tournament {
	s.tournaments[t.ID] = t
	return t
}

func (s *memStore) addMatch(m models.Match) models.Match {
	if m.ID == 0 {
		s.nextMatchID++
		m.ID = s.nextMatchID
	} else if m.ID > s.nextMatchID {
		s.nextMatchID = m.ID
	}
	s.matches[m.ID] = m
	return m
}

func (s *memStore) ListDueMatches(_ context.Context, arg database.ListDueMatchesParams) ([]models.Match, error) {
	var due []models.Match
	for _, m := range s.matches {
		if m.Status != models.MatchStatusOpen || m.Date == nil {
			continue
		}
		if m.Date.After(arg.StartedBefore) {
			continue
		}
		if m.LastCheckedAt != nil && m.LastCheckedAt.After(arg.CheckedBefore) {
			continue
		}
		due = append(due, m)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Date.Before(*due[j].Date) })
	if len(due) > int(arg.Limit) {
		due = due[:arg.Limit]
	}
	return due, nil
}

func (s *memStore) MarkMatchChecked(_ context.Context, matchID int64) error {
	if s.markCheckedErr != nil {
		return s.markCheckedErr
	}
	m, ok := s.matches[matchID]
	if !ok {
		return fmt.Errorf("match %d: %w", matchID, database.ErrNotFound)
	}
	now := s.now()
	m.LastCheckedAt = &now
	s.matches[matchID] = m
	return nil
}

func (s *memStore) CountMatchCheckStates(_ context.Context, arg database.CountMatchCheckStatesParams) (models.PollerStats, error) {
	var stats models.PollerStats
	for _, m := range s.matches {
		if m.Status != models.MatchStatusOpen {
			continue
		}
		stats.TotalOpen++
		if m.Date != nil && !m.Date.After(arg.StartedBefore) &&
			(m.LastCheckedAt == nil || !m.LastCheckedAt.After(arg.CheckedBefore)) {
			stats.DueNow++
		}
		if m.LastCheckedAt != nil && m.LastCheckedAt.After(arg.CheckedBefore) {
			stats.RecentlyChecked++
		}
	}
	return stats, nil
}

func (s *memStore) GetTournament(_ context.Context, tournamentID int64) (models.Tournament, error) {
	t, ok := s.tournaments[tournamentID]
	if !ok {
		return models.Tournament{}, fmt.Errorf("tournament %d: %w", tournamentID, database.ErrNotFound)
	}
	return t, nil
}

func (s *memStore) ListKnockoutTournaments(_ context.Context) ([]models.Tournament, error) {
	var tournaments []models.Tournament
	for _, t := range s.tournaments {
		if t.TrackKnockouts {
			tournaments = append(tournaments, t)
		}
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].ID < tournaments[j].ID })
	return tournaments, nil
}

func (s *memStore) UpsertMatch(_ context.Context, arg database.UpsertMatchParams) (models.Match, error) {
	if s.upsertMatchErr != nil {
		return models.Match{}, s.upsertMatchErr
	}
	for id, m := range s.matches {
		if m.ExternalID == arg.ExternalID && m.Provider == arg.Provider {
			m.TournamentID = arg.TournamentID
			m.RoundSlug = arg.RoundSlug
			m.HomeTeamID = arg.HomeTeamID
			m.AwayTeamID = arg.AwayTeamID
			m.HomeScore = arg.HomeScore
			m.AwayScore = arg.AwayScore
			m.Date = arg.Date
			m.Status = arg.Status
			s.matches[id] = m
			return m, nil
		}
	}
	s.nextMatchID++
	m := models.Match{
		ID:           s.nextMatchID,
		ExternalID:   arg.ExternalID,
		Provider:     arg.Provider,
		TournamentID: arg.TournamentID,
		RoundSlug:    arg.RoundSlug,
		HomeTeamID:   arg.HomeTeamID,
		AwayTeamID:   arg.AwayTeamID,
		HomeScore:    arg.HomeScore,
		AwayScore:    arg.AwayScore,
		Date:         arg.Date,
		Status:       arg.Status,
	}
	s.matches[m.ID] = m
	return m, nil
}

func (s *memStore) ListUpcomingOpenMatches(_ context.Context, arg database.ListUpcomingOpenMatchesParams) ([]models.Match, error) {
	var upcoming []models.Match
	for _, m := range s.matches {
		if m.Status != models.MatchStatusOpen || m.Date == nil {
			continue
		}
		if m.Date.Before(arg.From) || m.Date.After(arg.To) {
			continue
		}
		upcoming = append(upcoming, m)
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].Date.Before(*upcoming[j].Date) })
	return upcoming, nil
}

func (s *memStore) UpsertStanding(_ context.Context, arg database.UpsertStandingParams) error {
	key := fmt.Sprintf("%d/%s", arg.TournamentID, arg.TeamExternalID)
	s.standings[key] = arg
	return nil
}

func (s *memStore) GetScheduledJob(_ context.Context, scheduleID string) (models.ScheduledJob, error) {
	j, ok := s.jobs[scheduleID]
	if !ok {
		return models.ScheduledJob{}, fmt.Errorf("scheduled job %s: %w", scheduleID, database.ErrNotFound)
	}
	return j, nil
}

func (s *memStore) InsertScheduledJob(_ context.Context, arg models.ScheduleRequest) (models.ScheduledJob, error) {
	if _, exists := s.jobs[arg.ScheduleID]; exists {
		return models.ScheduledJob{}, fmt.Errorf("duplicate schedule_id %s", arg.ScheduleID)
	}
	s.nextJobID++
	expression := arg.Expression
	j := models.ScheduledJob{
		ID:              s.nextJobID,
		ScheduleID:      arg.ScheduleID,
		ScheduleType:    arg.ScheduleType,
		Expression:      &expression,
		TargetInput:     arg.TargetInput,
		TournamentID:    arg.TournamentID,
		MatchID:         arg.MatchID,
		MatchExternalID: arg.MatchExternalID,
		MatchProvider:   arg.MatchProvider,
		RoundSlug:       arg.RoundSlug,
		Status:          models.JobStatusPending,
		Environment:     arg.Environment,
		CreatedBy:       arg.CreatedBy,
		CreatedAt:       s.now(),
		UpdatedAt:       s.now(),
	}
	s.jobs[arg.ScheduleID] = j
	return j, nil
}

func (s *memStore) UpdateScheduledJob(_ context.Context, job models.ScheduledJob) (models.ScheduledJob, error) {
	if _, ok := s.jobs[job.ScheduleID]; !ok {
		return models.ScheduledJob{}, fmt.Errorf("scheduled job %s: %w", job.ScheduleID, database.ErrNotFound)
	}
	job.UpdatedAt = s.now()
	s.jobs[job.ScheduleID] = job
	return job, nil
}

func (s *memStore) ListRetryableJobs(_ context.Context, maxRetries int32) ([]models.ScheduledJob, error) {
	var retryable []models.ScheduledJob
	for _, j := range s.jobs {
		if j.Status == models.JobStatusFailed && j.RetryCount < maxRetries {
			retryable = append(retryable, j)
		}
	}
	sort.Slice(retryable, func(i, j int) bool { return retryable[i].ID < retryable[j].ID })
	return retryable, nil
}

func (s *memStore) CountJobsByStatus(_ context.Context, filter models.JobStatsFilter) (models.JobStats, error) {
	var stats models.JobStats
	for _, j := range s.jobs {
		if filter.ScheduleType != nil && j.ScheduleType != *filter.ScheduleType {
			continue
		}
		if filter.TournamentID != nil && j.TournamentID != *filter.TournamentID {
			continue
		}
		stats.Total++
		switch j.Status {
		case models.JobStatusPending:
			stats.Pending++
		case models.JobStatusScheduled:
			stats.Scheduled++
		case models.JobStatusTriggered:
			stats.Triggered++
		case models.JobStatusExecuting:
			stats.Executing++
		case models.JobStatusCompleted:
			stats.Completed++
		case models.JobStatusFailed:
			stats.Failed++
		case models.JobStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// fakeSession scripts the provider session for orchestrator tests.
type fakeSession struct {
	fetchMatch     func(tournament models.Tournament, match models.Match) (*models.ProviderMatch, error)
	fetchStandings func(tournament models.Tournament) (*models.ProviderStandings, error)
	closed         bool
}

func (f *fakeSession) FetchMatch(_ context.Context, tournament models.Tournament, match models.Match) (*models.ProviderMatch, error) {
	return f.fetchMatch(tournament, match)
}

func (f *fakeSession) FetchStandings(_ context.Context, tournament models.Tournament) (*models.ProviderStandings, error) {
	if f.fetchStandings == nil {
		return &models.ProviderStandings{}, nil
	}
	return f.fetchStandings(tournament)
}

func (f *fakeSession) Close() {
	f.closed = true
}

type fakeSessionSource struct {
	session  *fakeSession
	acquired int
	err      error
}

func (f *fakeSessionSource) Acquire(context.Context) (FetchSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return f.session, nil
}

// fakeStandings records refresh fan-out per tournament.
type fakeStandings struct {
	refreshed []int64
	failFor   map[int64]error
}

func (f *fakeStandings) Refresh(_ context.Context, _ FetchSession, tournamentID int64) error {
	if err, ok := f.failFor[tournamentID]; ok {
		return err
	}
	f.refreshed = append(f.refreshed, tournamentID)
	return nil
}

// fakeBackend scripts the scheduling backend for planner tests.
type fakeBackend struct {
	calls   []string
	failFor map[string]error
}

func (f *fakeBackend) CreateTrigger(_ context.Context, name, _ string, _ *time.Time, _ json.RawMessage) (string, error) {
	if err, ok := f.failFor[name]; ok {
		return "", err
	}
	f.calls = append(f.calls, name)
	return "handle-" + name, nil
}
