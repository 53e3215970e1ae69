package hydration

import "time"

// Period is a named trailing report window.
type Period string

const (
	Period7Days  Period = "7days"
	Period30Days Period = "30days"
	Period90Days Period = "90days"
)

// ParsePeriod accepts the known period names and silently falls back to
// the 7-day window for anything else.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case Period30Days:
		return Period30Days
	case Period90Days:
		return Period90Days
	default:
		return Period7Days
	}
}

// Days is the number of calendar days the window reaches back.
func (p Period) Days() int {
	switch p {
	case Period30Days:
		return 30
	case Period90Days:
		return 90
	default:
		return 7
	}
}

// Window returns the report range for now: local midnight Days() days ago
// through now itself.
func (p Period) Window(now time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	end = now.In(loc)
	start = Midnight(end).AddDate(0, 0, -p.Days())
	return start, end
}
