// Package timeutil formats the timestamps Odonto stores.
//
// Patients and chart saves are stamped in Unix nanoseconds (int64). These
// helpers turn them into what the CLI, the report and the TUI status line
// show.
package timeutil

import (
	"fmt"
	"time"
)

// FromNano converts a Unix nanosecond timestamp to local time.
func FromNano(ns int64) time.Time {
	return time.Unix(0, ns)
}

// NowNano returns the current time as Unix nanoseconds.
func NowNano() int64 {
	return time.Now().UnixNano()
}

// FormatStamp formats a stored timestamp as "2006-01-02 15:04". Zero
// renders as "-".
func FormatStamp(ns int64) string {
	if ns == 0 {
		return "-"
	}
	return FromNano(ns).Format("2006-01-02 15:04")
}

// FormatClock formats a time of day for the status line.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// FormatLatency renders a save duration: "850µs", "12ms", "1.4s".
func FormatLatency(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

// RelativeTime returns how long ago ns was, relative to now.
// Examples: "just now", "5s ago", "2m ago", "1h ago", "3d ago".
func RelativeTime(ns int64, now time.Time) string {
	diff := now.Sub(FromNano(ns))

	switch {
	case diff < time.Second:
		return "just now"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}

// Age returns whole years between a YYYY-MM-DD birth date and now, or -1
// when the date does not parse.
func Age(birthDate string, now time.Time) int {
	born, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return -1
	}
	years := now.Year() - born.Year()
	if now.YearDay() < born.YearDay() {
		years--
	}
	return years
}
