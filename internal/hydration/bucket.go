package hydration

import (
	"sort"
	"time"
)

// Sample is one timestamped value to be summed into a calendar day.
type Sample struct {
	Timestamp time.Time
	Value     int
}

// DayTotal is the per-day result of BucketByDay.
type DayTotal struct {
	Date  time.Time
	Sum   int
	Count int
}

// DayBucket is one calendar day's totals. Derived per request, never stored.
type DayBucket struct {
	Date              time.Time
	TotalWaterMl      int
	UrinationCount    int
	UrinationVolumeMl int
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayStarts lists the local midnights of every calendar day from start's
// day up to, but not including, end. The result always holds at least one
// day, so a collapsed range still yields a bucket.
func DayStarts(start, end time.Time) []time.Time {
	first := Midnight(start)
	days := []time.Time{first}
	for d := first.AddDate(0, 0, 1); d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// dayIndex returns the bucket index for ts, or -1 when ts is outside
// [days[0], end).
func dayIndex(days []time.Time, end, ts time.Time) int {
	if ts.Before(days[0]) || !ts.Before(end) {
		return -1
	}
	return sort.Search(len(days), func(i int) bool { return days[i].After(ts) }) - 1
}

// BucketByDay sums samples into consecutive calendar-day buckets covering
// [Midnight(start), end). Days are computed in start's location, so callers
// control the timezone by the location they pass. Samples outside the range
// are dropped.
func BucketByDay(samples []Sample, start, end time.Time) []DayTotal {
	days := DayStarts(start, end)
	out := make([]DayTotal, len(days))
	for i, d := range days {
		out[i].Date = d
	}
	for _, s := range samples {
		if i := dayIndex(days, end, s.Timestamp); i >= 0 {
			out[i].Sum += s.Value
			out[i].Count++
		}
	}
	return out
}

// BucketEvents buckets water and urination events over the same range.
// UrinationCount counts records, not their frequency field.
func BucketEvents(water []WaterEvent, urine []UrinationEvent, start, end time.Time) []DayBucket {
	ws := make([]Sample, 0, len(water))
	for _, w := range water {
		ws = append(ws, Sample{Timestamp: w.Timestamp, Value: w.AmountMl})
	}
	us := make([]Sample, 0, len(urine))
	for _, u := range urine {
		v := 0
		if u.VolumeMl != nil {
			v = *u.VolumeMl
		}
		us = append(us, Sample{Timestamp: u.Timestamp, Value: v})
	}

	wt := BucketByDay(ws, start, end)
	ut := BucketByDay(us, start, end)
	out := make([]DayBucket, len(wt))
	for i := range wt {
		out[i] = DayBucket{
			Date:              wt[i].Date,
			TotalWaterMl:      wt[i].Sum,
			UrinationCount:    ut[i].Count,
			UrinationVolumeMl: ut[i].Sum,
		}
	}
	return out
}
