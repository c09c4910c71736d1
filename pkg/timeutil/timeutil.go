// Package timeutil provides timezone helpers for India Standard Time
// (UTC+5:30), the timezone the dashboard renders sync timestamps in.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// IST is India Standard Time (UTC+5:30, no DST).
var IST = time.FixedZone("Asia/Kolkata", 5*3600+30*60)

// Now returns the current time in IST.
func Now() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time to IST. Zero-offset times with no location info are
// treated as UTC.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// FormatMillis renders a timestamp in IST as "2006-01-02 15:04:05.000",
// millisecond precision, matching the dashboard's expected format.
func FormatMillis(t time.Time) string {
	ist := ToIST(t)
	ms := ist.Nanosecond() / int(time.Millisecond)
	return fmt.Sprintf("%s.%03d", ist.Format("2006-01-02 15:04:05"), ms)
}

// DateOnly renders a timestamp in UTC as "2006-01-02".
func DateOnly(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// ParseDateOnly parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDateOnly(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// DaysSince returns the number of whole calendar days between the given UTC
// date and today (UTC). Negative when the date is in the future.
func DaysSince(date time.Time, now time.Time) int {
	d := truncateUTC(date)
	n := truncateUTC(now)
	return int(n.Sub(d) / (24 * time.Hour))
}

func truncateUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
