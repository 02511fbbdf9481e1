package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// MatchEndOffset is how long after kickoff a match is assumed to be over:
// 45+10+15+45+10 minutes of play, break and stoppage plus a 10 minute buffer.
const MatchEndOffset = 150 * time.Minute

// scheduleIDTimeLayout keeps schedule identifiers human-legible while staying
// inside the character set allowed by the scheduling backend.
const scheduleIDTimeLayout = "20060102_1504"

// DeriveScheduleID builds the deterministic identifier for one logical
// scheduled job. Identical inputs always produce the identical id, which is
// what makes the registry's duplicate check an effective dedup key. The
// optional environment tag prefixes the id; at is nil for jobs that are not
// bound to a specific point in time.
func DeriveScheduleID(environment, kind, tournamentLabel string, at *time.Time) string {
	parts := make([]string, 0, 4)
	if environment != "" {
		parts = append(parts, NormalizeIDPart(environment))
	}
	parts = append(parts, NormalizeIDPart(kind), NormalizeIDPart(tournamentLabel))
	if at != nil {
		parts = append(parts, at.UTC().Format(scheduleIDTimeLayout))
	}
	return strings.Join(parts, "_")
}

// NormalizeIDPart lowercases the input, transliterates non-ASCII characters,
// collapses whitespace and slashes to underscores and strips everything
// outside [a-z0-9_].
func NormalizeIDPart(text string) string {
	if text == "" {
		return ""
	}
	return strings.ReplaceAll(slug.Make(text), "-", "_")
}

// DeriveMatchEndCron returns the one-shot cron expression (UTC) firing once
// the match that kicked off at matchStart should be over. Day-of-week is
// wildcarded because the backend's cron dialect treats it as mutually
// exclusive with day-of-month.
func DeriveMatchEndCron(matchStart time.Time) string {
	t := matchStart.UTC().Add(MatchEndOffset)
	return fmt.Sprintf("cron(%d %d %d %d ? %d)",
		t.Minute(), t.Hour(), t.Day(), int(t.Month()), t.Year())
}

// DeriveKnockoutRate returns the fixed-rate expression for tournament-level
// knockout round discovery. Knockout brackets change slowly, so every two
// days is frequent enough.
func DeriveKnockoutRate() string {
	return "rate(2 days)"
}
