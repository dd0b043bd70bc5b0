package calendar

import (
	"time"

	"github.com/username/legal-deadline-engine/internal/holiday"
)

// DayType represents the type of day
type DayType int

const (
	DayTypeWorkday DayType = iota + 1
	DayTypeWeekend
	DayTypeHoliday
)

func (t DayType) String() string {
	switch t {
	case DayTypeWorkday:
		return "workday"
	case DayTypeWeekend:
		return "weekend"
	case DayTypeHoliday:
		return "holiday"
	default:
		return "unknown"
	}
}

// DayInfo represents information about a specific day.
// A weekend that is also a holiday is reported as DayTypeWeekend with its
// holidays still listed.
type DayInfo struct {
	Date      time.Time
	Type      DayType
	IsWorkday bool
	Holidays  []holiday.Holiday
	Note      string
}

// MonthInfo represents calendar information for a month
type MonthInfo struct {
	Year     int
	Month    time.Month
	WorkDays int
	Weekends int
	Holidays int // holidays falling on weekdays
	Days     []DayInfo
}

// Calendar interface for checking working days
type Calendar interface {
	// IsWorkday checks if the given date is a working day
	IsWorkday(date time.Time) bool

	// DayInfo returns detailed info for a specific day
	DayInfo(date time.Time) DayInfo
}
