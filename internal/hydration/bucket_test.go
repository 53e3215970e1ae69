package hydration

import (
	"testing"
	"time"
)

var brt = time.FixedZone("BRT", -3*60*60)

func TestBucketByDayEmptyRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, brt)
	end := start.AddDate(0, 0, 7)

	got := BucketByDay(nil, start, end)
	if len(got) != 7 {
		t.Fatalf("got %d buckets, want 7", len(got))
	}
	for i, b := range got {
		if b.Sum != 0 || b.Count != 0 {
			t.Errorf("bucket %d not empty: %+v", i, b)
		}
		want := start.AddDate(0, 0, i)
		if !b.Date.Equal(want) {
			t.Errorf("bucket %d date = %s, want %s", i, b.Date, want)
		}
	}
}

func TestBucketByDayInclusiveEndOfDay(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, brt)
	end := time.Date(2024, 3, 7, 23, 59, 59, 999, brt)
	if got := len(BucketByDay(nil, start, end)); got != 7 {
		t.Fatalf("got %d buckets, want 7", got)
	}
}

func TestBucketByDayCollapsedRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, brt)
	got := BucketByDay(nil, start, start)
	if len(got) != 1 {
		t.Fatalf("got %d buckets, want 1", len(got))
	}
}

func TestBucketByDaySumsOnlyInRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, brt)
	end := start.AddDate(0, 0, 3)
	samples := []Sample{
		{Timestamp: start.Add(-time.Minute), Value: 999},
		{Timestamp: start, Value: 100},
		{Timestamp: start.Add(23 * time.Hour), Value: 200},
		{Timestamp: start.AddDate(0, 0, 1), Value: 300},
		{Timestamp: start.AddDate(0, 0, 2).Add(time.Hour), Value: 400},
		// end is exclusive
		{Timestamp: end, Value: 999},
	}

	got := BucketByDay(samples, start, end)
	want := []int{300, 300, 400}
	total := 0
	for i, b := range got {
		if b.Sum != want[i] {
			t.Errorf("day %d sum = %d, want %d", i, b.Sum, want[i])
		}
		total += b.Sum
	}
	if total != 1000 {
		t.Errorf("total = %d, want 1000", total)
	}
	if got[0].Count != 2 {
		t.Errorf("day 0 count = %d, want 2", got[0].Count)
	}
}

func TestBucketByDayUsesStartLocation(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, brt)
	end := start.AddDate(0, 0, 2)
	// 02:00 UTC on March 2nd is still March 1st in BRT.
	ts := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)

	got := BucketByDay([]Sample{{Timestamp: ts, Value: 250}}, start, end)
	if got[0].Sum != 250 || got[1].Sum != 0 {
		t.Errorf("sample landed in the wrong day: %+v", got)
	}
}

func TestDayStartsAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	start := time.Date(2024, 3, 29, 0, 0, 0, 0, loc)
	end := time.Date(2024, 4, 2, 0, 0, 0, 0, loc)

	days := DayStarts(start, end)
	if len(days) != 4 {
		t.Fatalf("got %d days, want 4", len(days))
	}
	for _, d := range days {
		if d.Hour() != 0 {
			t.Errorf("day start %s is not midnight", d)
		}
	}
}

func TestBucketEvents(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, brt)
	end := start.AddDate(0, 0, 2)
	water := []WaterEvent{
		{ID: "w1", AmountMl: 250, Timestamp: start.Add(8 * time.Hour)},
		{ID: "w2", AmountMl: 500, Timestamp: start.Add(30 * time.Hour)},
	}
	urine := []UrinationEvent{
		{ID: "u1", VolumeMl: ptrI(300), Frequency: 1, Timestamp: start.Add(9 * time.Hour)},
		{ID: "u2", Frequency: 2, Timestamp: start.Add(10 * time.Hour)},
	}

	got := BucketEvents(water, urine, start, end)
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2", len(got))
	}
	if got[0].TotalWaterMl != 250 || got[0].UrinationCount != 2 || got[0].UrinationVolumeMl != 300 {
		t.Errorf("day 0 = %+v", got[0])
	}
	if got[1].TotalWaterMl != 500 || got[1].UrinationCount != 0 {
		t.Errorf("day 1 = %+v", got[1])
	}
}
