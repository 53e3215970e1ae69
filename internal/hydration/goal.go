package hydration

import "math"

const (
	defaultBaseMl = 2000.0
	mlPerKg       = 35.0
	seniorAge     = 60
	seniorFactor  = 1.1

	DefaultGoalMl = 2000
	MinCustomGoal = 500
	MaxCustomGoal = 10000
)

func activityMultiplier(level ActivityLevel) float64 {
	switch level {
	case ActivityLow:
		return 1.0
	case ActivityHigh:
		return 1.5
	default:
		return 1.2
	}
}

// ComputeGoal returns the daily hydration goal in milliliters.
// Missing inputs fall back to a 2000 ml base and moderate activity.
func ComputeGoal(weightKg *float64, ageYears *int, level ActivityLevel) int {
	base := defaultBaseMl
	if weightKg != nil && *weightKg > 0 {
		base = *weightKg * mlPerKg
	}
	mult := activityMultiplier(level)
	ageMult := 1.0
	if ageYears != nil && *ageYears > seniorAge {
		ageMult = seniorFactor
	}
	return int(math.Round(base * mult * ageMult))
}

// GoalPolicy is the per-account goal setting.
type GoalPolicy struct {
	CustomMl int
	UseAuto  bool
}

// EffectiveGoal picks the user's custom goal when auto goals are off,
// otherwise the computed one.
func EffectiveGoal(p Profile, policy GoalPolicy) int {
	if !policy.UseAuto && policy.CustomMl > 0 {
		return policy.CustomMl
	}
	return ComputeGoal(p.WeightKg, p.AgeYears, p.ActivityLevel)
}
