package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpulse/core/pkg/models"
)

func int32Ptr(v int32) *int32 { return &v }

func endedPayload(match models.Match) *models.ProviderMatch {
	return &models.ProviderMatch{
		ExternalID: match.ExternalID,
		Provider:   match.Provider,
		HomeScore:  int32Ptr(2),
		AwayScore:  int32Ptr(1),
		Status:     "ended",
	}
}

func openPayload(match models.Match) *models.ProviderMatch {
	return &models.ProviderMatch{
		ExternalID: match.ExternalID,
		Provider:   match.Provider,
		HomeScore:  int32Ptr(0),
		AwayScore:  int32Ptr(0),
		Status:     "in-progress",
	}
}

func newOrchestratorFixture(now time.Time) (*memStore, *fakeSession, *fakeSessionSource, *fakeStandings, *Orchestrator) {
	store := newMemStore()
	store.now = func() time.Time { return now }

	session := &fakeSession{}
	source := &fakeSessionSource{session: session}
	standings := &fakeStandings{}

	poller := NewMatchPoller(store, testSyncConfig())
	poller.now = func() time.Time { return now }

	orchestrator := NewOrchestrator(poller, source, store, standings)
	return store, session, source, standings, orchestrator
}

func TestRunRefreshesAllDueMatches(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	store, session, source, _, orchestrator := newOrchestratorFixture(now)

	store.addTournament(models.Tournament{ID: 1, Label: "Premier League"})
	for i := 0; i < 3; i++ {
		store.addMatch(models.Match{
			ExternalID:   string(rune('a' + i)),
			Provider:     "flashscore",
			TournamentID: 1,
			Status:       models.MatchStatusOpen,
			Date:         timePtr(now.Add(-time.Duration(3+i) * time.Hour)),
		})
	}

	session.fetchMatch = func(_ models.Tournament, match models.Match) (*models.ProviderMatch, error) {
		return openPayload(match), nil
	}

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.PassSummary{Processed: 3, Successful: 3}, summary)
	assert.True(t, session.closed, "session must be released after the pass")
	assert.Equal(t, 1, source.acquired)

	for _, m := range store.matches {
		assert.NotNil(t, m.LastCheckedAt, "every processed match must be stamped")
	}
}

func TestRunIsolatesSingleMatchFailure(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	store, session, _, _, orchestrator := newOrchestratorFixture(now)

	store.addTournament(models.Tournament{ID: 1, Label: "Premier League"})
	for _, id := range []string{"ok-1", "broken", "ok-2"} {
		store.addMatch(models.Match{
			ExternalID:   id,
			Provider:     "flashscore",
			TournamentID: 1,
			Status:       models.MatchStatusOpen,
			Date:         timePtr(now.Add(-3 * time.Hour)),
		})
	}

	session.fetchMatch = func(_ models.Tournament, match models.Match) (*models.ProviderMatch, error) {
		if match.ExternalID == "broken" {
			return nil, errors.New("provider timeout")
		}
		return openPayload(match), nil
	}

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err, "a single match failure must not abort the pass")

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)

	// The failed match is stamped too, so it backs off to the cooldown.
	for _, m := range store.matches {
		assert.NotNil(t, m.LastCheckedAt)
	}
	assert.True(t, session.closed)
}

func TestRunRefreshesStandingsOncePerEndedTournament(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	store, session, _, standings, orchestrator := newOrchestratorFixture(now)

	store.addTournament(models.Tournament{ID: 1, Label: "Premier League"})
	store.addTournament(models.Tournament{ID: 2, Label: "La Liga"})

	// Two matches of tournament 1 end this pass, one of tournament 2 stays open.
	store.addMatch(models.Match{
		ExternalID: "t1-a", Provider: "flashscore", TournamentID: 1,
		Status: models.MatchStatusOpen, Date: timePtr(now.Add(-4 * time.Hour)),
	})
	store.addMatch(models.Match{
		ExternalID: "t1-b", Provider: "flashscore", TournamentID: 1,
		Status: models.MatchStatusOpen, Date: timePtr(now.Add(-3 * time.Hour)),
	})
	store.addMatch(models.Match{
		ExternalID: "t2-a", Provider: "flashscore", TournamentID: 2,
		Status: models.MatchStatusOpen, Date: timePtr(now.Add(-3 * time.Hour)),
	})

	session.fetchMatch = func(_ models.Tournament, match models.Match) (*models.ProviderMatch, error) {
		if match.TournamentID == 1 {
			return endedPayload(match), nil
		}
		return openPayload(match), nil
	}

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Successful)
	assert.Equal(t, 1, summary.StandingsRefreshed)
	assert.Equal(t, []int64{1}, standings.refreshed,
		"two ended matches in the same tournament collapse to one refresh")
}

func TestRunSkipsStandingsForMatchesAlreadyEnded(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	store, session, _, standings, orchestrator := newOrchestratorFixture(now)

	store.addTournament(models.Tournament{ID: 1, Label: "Premier League"})
	store.addMatch(models.Match{
		ExternalID: "stuck-open", Provider: "flashscore", TournamentID: 1,
		Status: models.MatchStatusOpen, Date: timePtr(now.Add(-3 * time.Hour)),
	})

	// The provider reports the match still in progress: no transition, no fan-out.
	session.fetchMatch = func(_ models.Tournament, match models.Match) (*models.ProviderMatch, error) {
		return openPayload(match), nil
	}

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.StandingsRefreshed)
	assert.Empty(t, standings.refreshed)
}

func TestRunWithNoDueMatchesSkipsSessionAcquisition(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	_, _, source, _, orchestrator := newOrchestratorFixture(now)

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PassSummary{}, summary)
	assert.Equal(t, 0, source.acquired, "empty pass must not touch the provider")
}

func TestRunToleratesMarkCheckedFailure(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	store, session, _, _, orchestrator := newOrchestratorFixture(now)

	store.addTournament(models.Tournament{ID: 1, Label: "Premier League"})
	store.addMatch(models.Match{
		ExternalID: "m-1", Provider: "flashscore", TournamentID: 1,
		Status: models.MatchStatusOpen, Date: timePtr(now.Add(-3 * time.Hour)),
	})
	store.markCheckedErr = errors.New("connection reset")

	session.fetchMatch = func(_ models.Tournament, match models.Match) (*models.ProviderMatch, error) {
		return openPayload(match), nil
	}

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PassSummary{Processed: 1, Successful: 1}, summary)
	assert.True(t, session.closed)
}

func TestRunIsolatesStandingsRefreshFailure(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	store, session, _, standings, orchestrator := newOrchestratorFixture(now)

	store.addTournament(models.Tournament{ID: 1, Label: "Premier League"})
	store.addTournament(models.Tournament{ID: 2, Label: "La Liga"})
	store.addMatch(models.Match{
		ExternalID: "t1-a", Provider: "flashscore", TournamentID: 1,
		Status: models.MatchStatusOpen, Date: timePtr(now.Add(-4 * time.Hour)),
	})
	store.addMatch(models.Match{
		ExternalID: "t2-a", Provider: "flashscore", TournamentID: 2,
		Status: models.MatchStatusOpen, Date: timePtr(now.Add(-3 * time.Hour)),
	})
	standings.failFor = map[int64]error{1: errors.New("standings page unavailable")}

	session.fetchMatch = func(_ models.Tournament, match models.Match) (*models.ProviderMatch, error) {
		return endedPayload(match), nil
	}

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.StandingsRefreshed,
		"one tournament's refresh failure must not stop the next")
	assert.Equal(t, []int64{2}, standings.refreshed)
}

func TestRunCountsMissingTournamentAsMatchFailure(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	store, session, _, _, orchestrator := newOrchestratorFixture(now)

	// Tournament 99 never registered.
	store.addMatch(models.Match{
		ExternalID: "orphan", Provider: "flashscore", TournamentID: 99,
		Status: models.MatchStatusOpen, Date: timePtr(now.Add(-3 * time.Hour)),
	})

	session.fetchMatch = func(_ models.Tournament, match models.Match) (*models.ProviderMatch, error) {
		return openPayload(match), nil
	}

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PassSummary{Processed: 1, Failed: 1}, summary)
}

func TestRunAppliesProviderResultToStore(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	store, session, _, _, orchestrator := newOrchestratorFixture(now)

	store.addTournament(models.Tournament{ID: 1, Label: "Premier League"})
	match := store.addMatch(models.Match{
		ExternalID: "m-1", Provider: "flashscore", TournamentID: 1,
		Status: models.MatchStatusOpen, Date: timePtr(now.Add(-3 * time.Hour)),
	})

	session.fetchMatch = func(_ models.Tournament, m models.Match) (*models.ProviderMatch, error) {
		return endedPayload(m), nil
	}

	_, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	stored := store.matches[match.ID]
	assert.Equal(t, models.MatchStatusEnded, stored.Status)
	require.NotNil(t, stored.HomeScore)
	require.NotNil(t, stored.AwayScore)
	assert.Equal(t, int32(2), *stored.HomeScore)
	assert.Equal(t, int32(1), *stored.AwayScore)
}
