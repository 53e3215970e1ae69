package hydration

import (
	"fmt"
	"math"
	"time"
)

const (
	// DisplayProgressCap bounds chart values; predicates use the raw value.
	DisplayProgressCap = 150
	StreakThreshold    = 80
	AchievedThreshold  = 100

	lowIntakeMl        = 2000
	lowAchievementPct  = 70
	consistencyDays    = 7
	lowUrinationPerDay = 4
)

// ProgressDay is one day's goal progress and streak position.
type ProgressDay struct {
	Date     time.Time
	Progress int
	Streak   int
}

// DisplayProgress is Progress capped for charts.
func (p ProgressDay) DisplayProgress() int {
	return min(p.Progress, DisplayProgressCap)
}

// Overview aggregates a whole range.
type Overview struct {
	TotalWater            int `json:"totalWater"`
	AverageDaily          int `json:"averageDaily"`
	GoalAchievement       int `json:"goalAchievement"`
	LongestStreak         int `json:"longestStreak"`
	CurrentStreak         int `json:"currentStreak"`
	TotalUrineRecords     int `json:"totalUrineRecords"`
	AverageUrineFrequency int `json:"averageUrineFrequency"`
}

// Progress returns round(total/goal*100), or 0 for a non-positive goal.
func Progress(totalMl, goalMl int) int {
	if goalMl <= 0 {
		return 0
	}
	return int(math.Round(float64(totalMl) / float64(goalMl) * 100))
}

func roundDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return int(math.Round(float64(a) / float64(b)))
}

// streakFold is the accumulator of the backward streak walk.
// trailing stays true while every day seen so far (newest first) counted.
type streakFold struct {
	counter  int
	longest  int
	current  int
	trailing bool
}

func (s streakFold) step(counts bool) streakFold {
	if counts {
		s.counter++
	} else {
		s.counter = 0
		s.trailing = false
	}
	if s.trailing {
		s.current = s.counter
	}
	s.longest = max(s.longest, s.counter)
	return s
}

// Streaks walks progress values from newest to oldest. It returns the
// per-day counter, the run ending at the last day and the longest run.
func Streaks(progress []int) (perDay []int, current, longest int) {
	perDay = make([]int, len(progress))
	acc := streakFold{trailing: true}
	for i := len(progress) - 1; i >= 0; i-- {
		acc = acc.step(progress[i] >= StreakThreshold)
		perDay[i] = acc.counter
	}
	return perDay, acc.current, acc.longest
}

// Aggregate computes per-day progress against goalMl and the range overview.
func Aggregate(buckets []DayBucket, goalMl int) ([]ProgressDay, Overview) {
	days := make([]ProgressDay, len(buckets))
	raw := make([]int, len(buckets))
	var ov Overview
	achieved := 0
	for i, b := range buckets {
		p := Progress(b.TotalWaterMl, goalMl)
		days[i] = ProgressDay{Date: b.Date, Progress: p}
		raw[i] = p
		if p >= AchievedThreshold {
			achieved++
		}
		ov.TotalWater += b.TotalWaterMl
		ov.TotalUrineRecords += b.UrinationCount
	}

	perDay, current, longest := Streaks(raw)
	for i := range days {
		days[i].Streak = perDay[i]
	}

	n := max(len(buckets), 1)
	ov.AverageDaily = roundDiv(ov.TotalWater, n)
	ov.GoalAchievement = roundDiv(100*achieved, n)
	ov.CurrentStreak = current
	ov.LongestStreak = longest
	ov.AverageUrineFrequency = roundDiv(ov.TotalUrineRecords, n)
	return days, ov
}

// InsightKind identifies an advisory rule.
type InsightKind string

const (
	InsightLowIntake      InsightKind = "insufficient-hydration"
	InsightLowAchievement InsightKind = "low-goal-achievement"
	InsightConsistency    InsightKind = "good-consistency"
	InsightLowUrination   InsightKind = "low-urination-frequency"
)

// Insight is advisory text shown next to a report.
type Insight struct {
	Kind        InsightKind `json:"kind"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
}

// Insights applies the advisory rules to an overview.
func Insights(ov Overview) []Insight {
	out := []Insight{}
	if ov.AverageDaily < lowIntakeMl {
		out = append(out, Insight{
			Kind:        InsightLowIntake,
			Title:       "Insufficient hydration",
			Description: fmt.Sprintf("Your daily average of %dml is below the minimum recommendation.", ov.AverageDaily),
		})
	}
	if ov.GoalAchievement < lowAchievementPct {
		out = append(out, Insight{
			Kind:        InsightLowAchievement,
			Title:       "Focus on your goals",
			Description: fmt.Sprintf("You reached only %d%% of your daily goals.", ov.GoalAchievement),
		})
	}
	if ov.CurrentStreak >= consistencyDays {
		out = append(out, Insight{
			Kind:        InsightConsistency,
			Title:       "Great consistency!",
			Description: fmt.Sprintf("You have kept a streak of %d days.", ov.CurrentStreak),
		})
	}
	if ov.AverageUrineFrequency < lowUrinationPerDay {
		out = append(out, Insight{
			Kind:        InsightLowUrination,
			Title:       "Low frequency",
			Description: "Your elimination frequency looks low, which may indicate dehydration.",
		})
	}
	return out
}
