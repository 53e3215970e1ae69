package hydration

import (
	"reflect"
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	cases := map[string]Period{
		"7days":  Period7Days,
		"30days": Period30Days,
		"90days": Period90Days,
		"":       Period7Days,
		"1year":  Period7Days,
	}
	for in, want := range cases {
		if got := ParsePeriod(in); got != want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPeriodWindow(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 30, 0, 0, brt)
	start, end := Period7Days.Window(now, brt)
	if want := time.Date(2024, 5, 3, 0, 0, 0, 0, brt); !start.Equal(want) {
		t.Errorf("start = %s, want %s", start, want)
	}
	if !end.Equal(now) {
		t.Errorf("end = %s, want %s", end, now)
	}
}

func TestBuildReportThirtyDaysEmpty(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 30, 0, 0, brt)
	r := BuildReport(nil, nil, 2400, "30days", now, brt)

	if r.Period != Period30Days {
		t.Errorf("period = %q", r.Period)
	}
	// 30 full days plus today.
	if len(r.ProgressData) != 31 || len(r.WaterData) != 31 || len(r.UrineData) != 31 {
		t.Fatalf("series lengths = %d/%d/%d, want 31", len(r.WaterData), len(r.UrineData), len(r.ProgressData))
	}
	if r.Overview.TotalWater != 0 || r.Overview.GoalAchievement != 0 {
		t.Errorf("overview = %+v", r.Overview)
	}
	for _, p := range r.ProgressData {
		if p.Progress != 0 || p.Streak != 0 {
			t.Errorf("progress day %s = %+v", p.Date, p)
		}
	}
	got := kinds(r.Insights)
	if len(got) < 2 || got[0] != InsightLowIntake || got[1] != InsightLowAchievement {
		t.Errorf("insights = %v", got)
	}
	if r.WaterData[0].Date != "2024-04-10" || r.WaterData[30].Date != "2024-05-10" {
		t.Errorf("date keys = %s .. %s", r.WaterData[0].Date, r.WaterData[30].Date)
	}
}

func TestBuildReportSeries(t *testing.T) {
	now := time.Date(2024, 5, 10, 20, 0, 0, 0, brt)
	today := Midnight(now)
	water := []WaterEvent{
		{ID: "1", AmountMl: 3000, Timestamp: today.Add(9 * time.Hour)},
		{ID: "2", AmountMl: 1000, Timestamp: today.AddDate(0, 0, -1).Add(9 * time.Hour)},
		{ID: "old", AmountMl: 9999, Timestamp: today.AddDate(0, 0, -30)},
	}
	urine := []UrinationEvent{
		{ID: "u", VolumeMl: ptrI(200), Frequency: 1, Timestamp: today.Add(10 * time.Hour)},
	}

	r := BuildReport(water, urine, 2000, Period7Days, now, brt)
	n := len(r.WaterData)
	if n != 8 {
		t.Fatalf("got %d days, want 8", n)
	}
	last := r.ProgressData[n-1]
	if last.Progress != DisplayProgressCap || last.Streak != 1 {
		t.Errorf("today progress = %+v", last)
	}
	if r.WaterData[n-1] != (WaterPoint{Date: "2024-05-10", Water: 3000, Goal: 2000}) {
		t.Errorf("today water = %+v", r.WaterData[n-1])
	}
	if r.UrineData[n-1] != (UrinePoint{Date: "2024-05-10", Frequency: 1, Volume: 200}) {
		t.Errorf("today urine = %+v", r.UrineData[n-1])
	}
	if r.Overview.TotalWater != 4000 {
		t.Errorf("total water = %d, want 4000 (out-of-range event excluded)", r.Overview.TotalWater)
	}
	if r.Overview.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", r.Overview.CurrentStreak)
	}
}

func TestBuildReportIdempotent(t *testing.T) {
	now := time.Date(2024, 5, 10, 20, 0, 0, 0, brt)
	water := []WaterEvent{{ID: "1", AmountMl: 500, Timestamp: now.Add(-time.Hour)}}

	a := BuildReport(water, nil, 2000, Period90Days, now, brt)
	b := BuildReport(water, nil, 2000, Period90Days, now, brt)
	if !reflect.DeepEqual(a, b) {
		t.Error("BuildReport returned different results for identical inputs")
	}
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2024, 5, 10, 20, 0, 0, 0, brt)
	today := Midnight(now)
	var water []WaterEvent
	// three full days ending today
	for i := 0; i < 3; i++ {
		water = append(water, WaterEvent{AmountMl: 2000, Timestamp: today.AddDate(0, 0, -i).Add(8 * time.Hour)})
	}
	urine := []UrinationEvent{
		{Frequency: 1, Timestamp: today.Add(7 * time.Hour)},
		{Frequency: 1, Timestamp: today.Add(11 * time.Hour)},
		{Frequency: 1, Timestamp: today.AddDate(0, 0, -1)},
	}

	got := BuildDashboard(water, urine, 2400, now, brt)
	want := DashboardSummary{TodayWater: 2000, TodayUrine: 2, DailyGoal: 2400, Progress: 83, Streak: 3}
	if got != want {
		t.Errorf("dashboard = %+v, want %+v", got, want)
	}
}
