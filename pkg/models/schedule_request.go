package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matchpulse/core/pkg/utils"
)

// ScheduleRequest is a validated request to create one external trigger.
// Construct it through NewMatchEndSchedule or NewKnockoutSchedule so that
// each schedule type carries exactly the fields it requires.
type ScheduleRequest struct {
	ScheduleID      string
	ScheduleType    ScheduleType
	Expression      string
	StartAt         *time.Time
	TargetInput     json.RawMessage
	TournamentID    int64
	MatchID         *int64
	MatchExternalID *string
	MatchProvider   *string
	RoundSlug       *string
	Environment     string
	CreatedBy       string
}

// matchEndPayload is the input handed to the triggered handler for a
// scores-and-standings run.
type matchEndPayload struct {
	ScheduleType    ScheduleType `json:"schedule_type"`
	TournamentID    int64        `json:"tournament_id"`
	MatchID         int64        `json:"match_id"`
	MatchExternalID string       `json:"match_external_id"`
	Provider        string       `json:"provider"`
	RoundSlug       string       `json:"round_slug"`
}

// knockoutPayload is the input handed to the triggered handler for a
// knockout discovery run.
type knockoutPayload struct {
	ScheduleType ScheduleType `json:"schedule_type"`
	TournamentID int64        `json:"tournament_id"`
}

// NewMatchEndSchedule builds the one-shot trigger request fired once the
// given match should be over. The match must have a kickoff date.
func NewMatchEndSchedule(tournament Tournament, match Match, environment string) (ScheduleRequest, error) {
	if match.Date == nil {
		return ScheduleRequest{}, fmt.Errorf("match %d has no kickoff date", match.ID)
	}
	if match.TournamentID != tournament.ID {
		return ScheduleRequest{}, fmt.Errorf("match %d does not belong to tournament %d", match.ID, tournament.ID)
	}

	endAt := match.Date.Add(utils.MatchEndOffset)
	input, err := json.Marshal(matchEndPayload{
		ScheduleType:    ScheduleTypeScoresAndStandings,
		TournamentID:    tournament.ID,
		MatchID:         match.ID,
		MatchExternalID: match.ExternalID,
		Provider:        match.Provider,
		RoundSlug:       match.RoundSlug,
	})
	if err != nil {
		return ScheduleRequest{}, fmt.Errorf("failed to marshal target input: %w", err)
	}

	matchID := match.ID
	externalID := match.ExternalID
	provider := match.Provider
	roundSlug := match.RoundSlug

	return ScheduleRequest{
		ScheduleID:      utils.DeriveScheduleID(environment, string(ScheduleTypeScoresAndStandings), tournament.Label, &endAt),
		ScheduleType:    ScheduleTypeScoresAndStandings,
		Expression:      utils.DeriveMatchEndCron(*match.Date),
		StartAt:         &endAt,
		TargetInput:     input,
		TournamentID:    tournament.ID,
		MatchID:         &matchID,
		MatchExternalID: &externalID,
		MatchProvider:   &provider,
		RoundSlug:       &roundSlug,
		Environment:     environment,
		CreatedBy:       "system",
	}, nil
}

// NewKnockoutSchedule builds the recurring trigger request that discovers new
// knockout rounds for a tracked tournament.
func NewKnockoutSchedule(tournament Tournament, environment string) (ScheduleRequest, error) {
	if !tournament.TrackKnockouts {
		return ScheduleRequest{}, fmt.Errorf("tournament %d does not track knockout rounds", tournament.ID)
	}

	input, err := json.Marshal(knockoutPayload{
		ScheduleType: ScheduleTypeKnockoutsUpdate,
		TournamentID: tournament.ID,
	})
	if err != nil {
		return ScheduleRequest{}, fmt.Errorf("failed to marshal target input: %w", err)
	}

	return ScheduleRequest{
		ScheduleID:   utils.DeriveScheduleID(environment, string(ScheduleTypeKnockoutsUpdate), tournament.Label, nil),
		ScheduleType: ScheduleTypeKnockoutsUpdate,
		Expression:   utils.DeriveKnockoutRate(),
		TargetInput:  input,
		TournamentID: tournament.ID,
		Environment:  environment,
		CreatedBy:    "system",
	}, nil
}
