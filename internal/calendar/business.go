package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// maxIdleDays bounds a walk through consecutive non-working days.
// Only a holiday set covering (almost) every day of the year can reach it.
const maxIdleDays = 3660

// MaxBusinessDays is the largest count AddBusinessDays accepts, about twenty years of working days
const MaxBusinessDays = 5000

var (
	// ErrInvalidInput is the root of every argument error
	ErrInvalidInput = errors.New("invalid input")

	ErrNegativeDays = fmt.Errorf("%w: business-day count must not be negative", ErrInvalidInput)
	ErrInvalidDate  = fmt.Errorf("%w: date is missing or malformed", ErrInvalidInput)
	ErrNoWorkdays   = fmt.Errorf("%w: holiday set leaves no working day", ErrInvalidInput)
	ErrTooManyDays  = fmt.Errorf("%w: business-day count exceeds %d", ErrInvalidInput, MaxBusinessDays)
)

// BusinessCalendar is the working-day calendar of one court:
// weekends and every holiday applicable to that court are non-working.
// It is immutable and safe for concurrent use.
type BusinessCalendar struct {
	holidays *holiday.Set
	court    string
}

// NewBusinessCalendar indexes holidays for court. An empty court sees national holidays only.
func NewBusinessCalendar(holidays []holiday.Holiday, court string) *BusinessCalendar {
	return &BusinessCalendar{
		holidays: holiday.NewSet(holidays),
		court:    court,
	}
}

// Court returns the jurisdiction the calendar was built for
func (bc *BusinessCalendar) Court() string {
	return bc.court
}

// IsWorkday checks if the given date is a working day
func (bc *BusinessCalendar) IsWorkday(date time.Time) bool {
	return !dateutil.IsWeekend(date) && !bc.holidays.IsHoliday(date, bc.court)
}

// DayInfo returns detailed info for a specific day
func (bc *BusinessCalendar) DayInfo(date time.Time) DayInfo {
	date = dateutil.Civil(date)
	matching := bc.holidays.Matching(date, bc.court)

	info := DayInfo{
		Date:     date,
		Holidays: matching,
	}
	switch {
	case dateutil.IsWeekend(date):
		info.Type = DayTypeWeekend
	case len(matching) > 0:
		info.Type = DayTypeHoliday
	default:
		info.Type = DayTypeWorkday
		info.IsWorkday = true
	}

	if len(matching) > 0 {
		names := make([]string, 0, len(matching))
		for _, h := range matching {
			names = append(names, h.Name)
		}
		info.Note = strings.Join(names, "; ")
	}
	return info
}

// AddBusinessDays returns the day on which the n-th working day after start falls.
// start itself is never counted; n == 0 returns start.
func (bc *BusinessCalendar) AddBusinessDays(start time.Time, n int) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, ErrInvalidDate
	}
	if n < 0 {
		return time.Time{}, fmt.Errorf("%w (got %d)", ErrNegativeDays, n)
	}
	if n > MaxBusinessDays {
		return time.Time{}, fmt.Errorf("%w (got %d)", ErrTooManyDays, n)
	}

	day := dateutil.Civil(start)
	idle := 0
	for counted := 0; counted < n; {
		day = dateutil.NextDay(day)
		if bc.IsWorkday(day) {
			counted++
			idle = 0
			continue
		}
		idle++
		if idle > maxIdleDays {
			return time.Time{}, ErrNoWorkdays
		}
	}
	return day, nil
}

// RemainingBusinessDays counts the working days in (today, due].
// It is 0 when due is today or earlier, and for a working-day due date
// AddBusinessDays(today, RemainingBusinessDays(today, due)) == due.
func (bc *BusinessCalendar) RemainingBusinessDays(today, due time.Time) (int, error) {
	if today.IsZero() || due.IsZero() {
		return 0, ErrInvalidDate
	}

	today, due = dateutil.Civil(today), dateutil.Civil(due)
	if !today.Before(due) {
		return 0, nil
	}

	remaining := 0
	for day := dateutil.NextDay(today); !day.After(due); day = dateutil.NextDay(day) {
		if bc.IsWorkday(day) {
			remaining++
		}
	}
	return remaining, nil
}

// MonthInfo summarizes every day of a month
func (bc *BusinessCalendar) MonthInfo(year int, month time.Month) MonthInfo {
	first := dateutil.Date(year, month, 1)
	daysInMonth := dateutil.PreviousDay(first.AddDate(0, 1, 0)).Day()

	info := MonthInfo{
		Year:  year,
		Month: month,
		Days:  make([]DayInfo, 0, daysInMonth),
	}
	for day := first; day.Month() == month; day = dateutil.NextDay(day) {
		di := bc.DayInfo(day)
		switch di.Type {
		case DayTypeWorkday:
			info.WorkDays++
		case DayTypeWeekend:
			info.Weekends++
		case DayTypeHoliday:
			info.Holidays++
		}
		info.Days = append(info.Days, di)
	}
	return info
}

// AddBusinessDays advances start by n working days for court
func AddBusinessDays(start time.Time, n int, holidays []holiday.Holiday, court string) (time.Time, error) {
	return NewBusinessCalendar(holidays, court).AddBusinessDays(start, n)
}

// RemainingBusinessDays counts the working days left until due, as seen on today
func RemainingBusinessDays(today, due time.Time, holidays []holiday.Holiday, court string) (int, error) {
	return NewBusinessCalendar(holidays, court).RemainingBusinessDays(today, due)
}
