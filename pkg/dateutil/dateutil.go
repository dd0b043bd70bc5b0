package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// ISODate is the wire and storage layout for civil dates
const ISODate = "2006-01-02"

// Civil returns the calendar date of t as 00:00 UTC.
// The clock and the zone of t are dropped; its year, month and day are kept.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a civil date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextDay returns the civil date after date
func NextDay(date time.Time) time.Time {
	return Civil(date).AddDate(0, 0, 1)
}

// PreviousDay returns the civil date before date
func PreviousDay(date time.Time) time.Time {
	return Civil(date).AddDate(0, 0, -1)
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// SameMonthDay compares month and day, ignoring the year.
// Used to match recurring holidays.
func SameMonthDay(a, b time.Time) bool {
	return a.Month() == b.Month() && a.Day() == b.Day()
}

// Before reports whether the civil date of a is strictly before that of b
func Before(a, b time.Time) bool {
	return Civil(a).Before(Civil(b))
}

// After reports whether the civil date of a is strictly after that of b
func After(a, b time.Time) bool {
	return Civil(a).After(Civil(b))
}

// ParseDate parses a civil date in one of the accepted layouts.
// The result is always a civil date (00:00 UTC).
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	formats := []string{
		ISODate,
		"02/01/2006",
		"02.01.2006",
		time.RFC3339,
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return Civil(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", dateStr)
}

// Format renders a civil date as YYYY-MM-DD
func Format(date time.Time) string {
	return date.Format(ISODate)
}

// TodayAt returns the civil date of now as observed in loc
func TodayAt(now time.Time, loc *time.Location) time.Time {
	return Civil(now.In(loc))
}
