package handlers

import (
	"time"

	dbpkg "hydrolog/internal/db"
	"hydrolog/internal/hydration"
)

// timeLayout returns the Go time layout for the given preference.
// timeFormat: "12" or "24". Default "24".
func timeLayout(timeFormat string) string {
	if timeFormat == "12" {
		return "3:04 PM"
	}
	return "15:04"
}

// dateLayout returns the Go date layout for the given preference.
// dateFormat: "dd-mm-yyyy", "mm-dd-yyyy", "yyyy-mm-dd". Default "dd-mm-yyyy".
func dateLayout(dateFormat string) string {
	switch dateFormat {
	case "mm-dd-yyyy":
		return "01/02/2006"
	case "yyyy-mm-dd":
		return "2006-01-02"
	default:
		return "02/01/2006" // dd/mm/yyyy
	}
}

// displayLayout is the account's preferred export layout.
func displayLayout(a *dbpkg.Account) hydration.DisplayLayout {
	return hydration.DisplayLayout{Date: dateLayout(a.DateFormat), Time: timeLayout(a.TimeFormat)}
}

// FormatDateTime formats t for display with the account's preferences.
func FormatDateTime(t time.Time, a *dbpkg.Account) string {
	l := displayLayout(a)
	return t.Format(l.Date + " " + l.Time)
}
