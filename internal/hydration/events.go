// Package hydration holds the daily aggregation and goal engine behind the
// dashboard, reports and exports. Everything here is a pure function of
// already-fetched events except the Assembler, which joins upstream fetches.
package hydration

import (
	"strings"
	"time"
)

// Source identifies where an event was recorded from.
type Source string

const (
	SourceManual Source = "manual"
	SourceVoice  Source = "voice-assistant"
)

// ParseSource maps upstream spellings onto a Source. Unknown values are
// treated as manual entries.
func ParseSource(s string) Source {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "voice-assistant", "voice", "alexa":
		return SourceVoice
	default:
		return SourceManual
	}
}

// WaterEvent is a single logged intake.
type WaterEvent struct {
	ID        string
	AmountMl  int
	Timestamp time.Time
	Notes     string
	Source    Source
}

// UrinationEvent is a single logged elimination. VolumeMl is nil when the
// user did not measure it.
type UrinationEvent struct {
	ID        string
	VolumeMl  *int
	Frequency int
	Timestamp time.Time
	Notes     string
	Source    Source
}

// ActivityLevel drives the goal multiplier.
type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

// ParseActivityLevel normalizes an activity level. Anything unrecognized
// falls back to moderate.
func ParseActivityLevel(s string) ActivityLevel {
	switch ActivityLevel(strings.ToLower(strings.TrimSpace(s))) {
	case ActivityLow:
		return ActivityLow
	case ActivityHigh:
		return ActivityHigh
	default:
		return ActivityModerate
	}
}

// Profile carries the goal inputs plus the display fields used by the
// printable report. All goal inputs are optional.
type Profile struct {
	WeightKg      *float64
	AgeYears      *int
	HeightCm      *float64
	ActivityLevel ActivityLevel

	FirstName string
	LastName  string
	Email     string
}

// DisplayName joins first and last name, or returns "User" when both are empty.
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return "User"
	}
	return name
}
