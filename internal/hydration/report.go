package hydration

import "time"

const dateKey = "2006-01-02"

type WaterPoint struct {
	Date  string `json:"date"`
	Water int    `json:"water"`
	Goal  int    `json:"goal"`
}

type UrinePoint struct {
	Date      string `json:"date"`
	Frequency int    `json:"frequency"`
	Volume    int    `json:"volume"`
}

type ProgressPoint struct {
	Date     string `json:"date"`
	Progress int    `json:"progress"`
	Streak   int    `json:"streak"`
}

// Report is the payload behind the reports view.
type Report struct {
	Period       Period          `json:"period"`
	DailyGoal    int             `json:"dailyGoal"`
	Overview     Overview        `json:"overview"`
	WaterData    []WaterPoint    `json:"waterData"`
	UrineData    []UrinePoint    `json:"urineData"`
	ProgressData []ProgressPoint `json:"progressData"`
	Insights     []Insight       `json:"insights"`
}

// BuildReport assembles a report for the period ending at now. It depends
// on nothing but its arguments, so equal inputs give equal reports.
func BuildReport(water []WaterEvent, urine []UrinationEvent, goalMl int, period Period, now time.Time, loc *time.Location) Report {
	period = ParsePeriod(string(period))
	start, end := period.Window(now, loc)
	buckets := BucketEvents(water, urine, start, end)
	days, ov := Aggregate(buckets, goalMl)

	r := Report{
		Period:       period,
		DailyGoal:    goalMl,
		Overview:     ov,
		WaterData:    make([]WaterPoint, len(buckets)),
		UrineData:    make([]UrinePoint, len(buckets)),
		ProgressData: make([]ProgressPoint, len(buckets)),
		Insights:     Insights(ov),
	}
	for i, b := range buckets {
		key := b.Date.Format(dateKey)
		r.WaterData[i] = WaterPoint{Date: key, Water: b.TotalWaterMl, Goal: goalMl}
		r.UrineData[i] = UrinePoint{Date: key, Frequency: b.UrinationCount, Volume: b.UrinationVolumeMl}
		r.ProgressData[i] = ProgressPoint{Date: key, Progress: days[i].DisplayProgress(), Streak: days[i].Streak}
	}
	return r
}

// dashboardStreakDays bounds how far back the dashboard streak looks.
const dashboardStreakDays = 30

// DashboardSummary is the dashboard header card.
type DashboardSummary struct {
	TodayWater int `json:"todayWater"`
	TodayUrine int `json:"todayUrine"`
	DailyGoal  int `json:"dailyGoal"`
	Progress   int `json:"progress"`
	Streak     int `json:"streak"`
}

// BuildDashboard summarizes today and the streak ending today. Progress is
// not capped here.
func BuildDashboard(water []WaterEvent, urine []UrinationEvent, goalMl int, now time.Time, loc *time.Location) DashboardSummary {
	if loc == nil {
		loc = time.Local
	}
	today := Midnight(now.In(loc))
	start := today.AddDate(0, 0, -(dashboardStreakDays - 1))
	end := today.AddDate(0, 0, 1)

	buckets := BucketEvents(water, urine, start, end)
	_, ov := Aggregate(buckets, goalMl)
	last := buckets[len(buckets)-1]
	return DashboardSummary{
		TodayWater: last.TotalWaterMl,
		TodayUrine: last.UrinationCount,
		DailyGoal:  goalMl,
		Progress:   Progress(last.TotalWaterMl, goalMl),
		Streak:     ov.CurrentStreak,
	}
}
