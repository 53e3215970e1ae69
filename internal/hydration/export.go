package hydration

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
)

// DisplayLayout holds the Go layouts used for user-facing dates and times.
type DisplayLayout struct {
	Date string
	Time string
}

// DefaultLayout renders 01/01/2024 08:00.
var DefaultLayout = DisplayLayout{Date: "02/01/2006", Time: "15:04"}

func (l DisplayLayout) orDefault() DisplayLayout {
	if l.Date == "" {
		l.Date = DefaultLayout.Date
	}
	if l.Time == "" {
		l.Time = DefaultLayout.Time
	}
	return l
}

var csvHeader = []string{"Date", "Type", "Quantity/Frequency", "Volume", "Notes", "Source"}

// Export is the event set behind a CSV or printable export: only events in
// [Start, End], each list ascending by timestamp.
type Export struct {
	Period  Period
	Start   time.Time
	End     time.Time
	Profile Profile
	Water   []WaterEvent
	Urine   []UrinationEvent
}

func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

// NewExport filters and orders the events for period ending at now.
func NewExport(p Profile, water []WaterEvent, urine []UrinationEvent, period Period, now time.Time, loc *time.Location) Export {
	period = ParsePeriod(string(period))
	start, end := period.Window(now, loc)
	e := Export{Period: period, Start: start, End: end, Profile: p}
	for _, w := range water {
		if inRange(w.Timestamp, start, end) {
			e.Water = append(e.Water, w)
		}
	}
	for _, u := range urine {
		if inRange(u.Timestamp, start, end) {
			e.Urine = append(e.Urine, u)
		}
	}
	sort.SliceStable(e.Water, func(i, j int) bool { return e.Water[i].Timestamp.Before(e.Water[j].Timestamp) })
	sort.SliceStable(e.Urine, func(i, j int) bool { return e.Urine[i].Timestamp.Before(e.Urine[j].Timestamp) })
	return e
}

// WriteCSV renders the export as CSV: water rows first, then urination rows.
func (e Export) WriteCSV(w io.Writer, layout DisplayLayout) error {
	layout = layout.orDefault()
	loc := e.End.Location()
	stamp := func(t time.Time) string {
		return t.In(loc).Format(layout.Date + " " + layout.Time)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, ev := range e.Water {
		row := []string{stamp(ev.Timestamp), "Water", strconv.Itoa(ev.AmountMl) + "ml", "", ev.Notes, string(ev.Source)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	for _, ev := range e.Urine {
		volume := ""
		if ev.VolumeMl != nil {
			volume = strconv.Itoa(*ev.VolumeMl) + "ml"
		}
		row := []string{stamp(ev.Timestamp), "Urination", strconv.Itoa(ev.Frequency) + "x", volume, ev.Notes, string(ev.Source)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type PrintableUser struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type PrintableSummary struct {
	TotalWater        string `json:"totalWater"`
	AverageDaily      string `json:"averageDaily"`
	TotalUrineRecords int    `json:"totalUrineRecords"`
	AverageUrineDaily int    `json:"averageUrineDaily"`
}

type PrintableWater struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Amount string `json:"amount"`
	Notes  string `json:"notes"`
	Source Source `json:"source"`
}

type PrintableUrine struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Frequency int    `json:"frequency"`
	Volume    string `json:"volume"`
	Notes     string `json:"notes"`
	Source    Source `json:"source"`
}

// Printable is the JSON document clients turn into a printed report.
type Printable struct {
	User         PrintableUser    `json:"user"`
	Period       Period           `json:"period"`
	DateRange    DateRange        `json:"dateRange"`
	Summary      PrintableSummary `json:"summary"`
	WaterIntakes []PrintableWater `json:"waterIntakes"`
	UrineRecords []PrintableUrine `json:"urineRecords"`
}

// Printable summarizes the export. Urination totals sum the frequency field.
func (e Export) Printable(layout DisplayLayout) Printable {
	layout = layout.orDefault()
	loc := e.End.Location()
	days := len(DayStarts(e.Start, e.End))

	totalWater := 0
	for _, w := range e.Water {
		totalWater += w.AmountMl
	}
	totalUrine := 0
	for _, u := range e.Urine {
		totalUrine += u.Frequency
	}

	p := Printable{
		User:   PrintableUser{Name: e.Profile.DisplayName(), Email: e.Profile.Email},
		Period: e.Period,
		DateRange: DateRange{
			Start: e.Start.In(loc).Format(layout.Date),
			End:   e.End.In(loc).Format(layout.Date),
		},
		Summary: PrintableSummary{
			TotalWater:        fmt.Sprintf("%dml", totalWater),
			AverageDaily:      fmt.Sprintf("%dml", roundDiv(totalWater, days)),
			TotalUrineRecords: totalUrine,
			AverageUrineDaily: roundDiv(totalUrine, days),
		},
		WaterIntakes: make([]PrintableWater, 0, len(e.Water)),
		UrineRecords: make([]PrintableUrine, 0, len(e.Urine)),
	}
	for _, w := range e.Water {
		t := w.Timestamp.In(loc)
		p.WaterIntakes = append(p.WaterIntakes, PrintableWater{
			Date:   t.Format(layout.Date),
			Time:   t.Format(layout.Time),
			Amount: fmt.Sprintf("%dml", w.AmountMl),
			Notes:  w.Notes,
			Source: w.Source,
		})
	}
	for _, u := range e.Urine {
		t := u.Timestamp.In(loc)
		volume := ""
		if u.VolumeMl != nil {
			volume = fmt.Sprintf("%dml", *u.VolumeMl)
		}
		p.UrineRecords = append(p.UrineRecords, PrintableUrine{
			Date:      t.Format(layout.Date),
			Time:      t.Format(layout.Time),
			Frequency: u.Frequency,
			Volume:    volume,
			Notes:     u.Notes,
			Source:    u.Source,
		})
	}
	return p
}
