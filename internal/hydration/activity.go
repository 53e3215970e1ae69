package hydration

import (
	"sort"
	"time"
)

// Activity is one row of the recent-activity feed.
type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    *int      `json:"amount,omitempty"`
	Volume    *int      `json:"volume,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes"`
	Source    Source    `json:"source"`
}

// RecentActivities merges both event kinds newest first and keeps at most limit.
func RecentActivities(water []WaterEvent, urine []UrinationEvent, limit int) []Activity {
	out := make([]Activity, 0, len(water)+len(urine))
	for _, w := range water {
		amount := w.AmountMl
		out = append(out, Activity{ID: w.ID, Type: "water", Amount: &amount, Timestamp: w.Timestamp, Notes: w.Notes, Source: w.Source})
	}
	for _, u := range urine {
		out = append(out, Activity{ID: u.ID, Type: "urine", Volume: u.VolumeMl, Timestamp: u.Timestamp, Notes: u.Notes, Source: u.Source})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
