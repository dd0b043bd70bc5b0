package deadline

import (
	"time"

	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// AlertLevel is the urgency of a deadline, used for alerts and badges
type AlertLevel string

const (
	AlertOverdue     AlertLevel = "overdue"
	AlertDueToday    AlertLevel = "dueToday"
	AlertThreeDays   AlertLevel = "threeDays"
	AlertSevenDays   AlertLevel = "sevenDays"
	AlertFifteenDays AlertLevel = "fifteenDays"
	AlertOnTrack     AlertLevel = "onTrack"

	// Presentation states, never returned by Classify.
	AlertSuspended AlertLevel = "suspended"
	AlertFulfilled AlertLevel = "fulfilled"
)

// Levels lists the classifier's levels, most severe first
func Levels() []AlertLevel {
	return []AlertLevel{AlertOverdue, AlertDueToday, AlertThreeDays, AlertSevenDays, AlertFifteenDays, AlertOnTrack}
}

// Severity ranks levels: 0 is the most severe. Presentation states sort last.
func (l AlertLevel) Severity() int {
	for i, level := range Levels() {
		if level == l {
			return i
		}
	}
	switch l {
	case AlertSuspended:
		return len(Levels())
	default:
		return len(Levels()) + 1
	}
}

// Urgent reports whether the level calls for an alert (seven business days or less)
func (l AlertLevel) Urgent() bool {
	return l.Severity() <= AlertSevenDays.Severity()
}

// BusinessDays is the business-day arithmetic the engine needs
type BusinessDays interface {
	AddBusinessDays(start time.Time, n int) (time.Time, error)
	RemainingBusinessDays(today, due time.Time) (int, error)
}

// Classify maps a due date to its alert level as seen on today
func Classify(today, due time.Time, cal BusinessDays) (AlertLevel, error) {
	if today.IsZero() || due.IsZero() {
		return "", ErrInvalidDate
	}
	switch {
	case dateutil.Before(due, today):
		return AlertOverdue, nil
	case dateutil.IsSameDay(due, today):
		return AlertDueToday, nil
	}

	remaining, err := cal.RemainingBusinessDays(today, due)
	if err != nil {
		return "", err
	}
	switch {
	case remaining <= 3:
		return AlertThreeDays, nil
	case remaining <= 7:
		return AlertSevenDays, nil
	case remaining <= 15:
		return AlertFifteenDays, nil
	default:
		return AlertOnTrack, nil
	}
}
