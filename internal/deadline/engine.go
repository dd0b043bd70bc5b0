package deadline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/username/legal-deadline-engine/internal/calendar"
	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// Clock returns the current instant
type Clock func() time.Time

// Engine applies business-day arithmetic and the suspension lifecycle to
// caller-supplied records. It keeps no state between calls: holidays are
// passed in on every call and records are returned as new values.
//
// "Today" is the civil date of the clock observed in the engine's reference
// location, so the day cutover happens at local midnight of that zone.
type Engine struct {
	location *time.Location
	clock    Clock
	newID    func() string
}

// NewEngine creates an Engine. loc is required; a nil clock means time.Now.
func NewEngine(loc *time.Location, clock Clock) (*Engine, error) {
	if loc == nil {
		return nil, errors.New("reference time zone is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		location: loc,
		clock:    clock,
		newID:    uuid.NewString,
	}, nil
}

// Location returns the reference time zone
func (e *Engine) Location() *time.Location {
	return e.location
}

// Today returns the current civil date in the reference time zone
func (e *Engine) Today() time.Time {
	return dateutil.TodayAt(e.clock(), e.location)
}

// Now returns the current instant of the engine clock, in UTC
func (e *Engine) Now() time.Time {
	return e.clock().UTC()
}

// Calendar builds the working-day calendar for court
func (e *Engine) Calendar(holidays []holiday.Holiday, court string) *calendar.BusinessCalendar {
	return calendar.NewBusinessCalendar(holidays, court)
}

// AddBusinessDays advances start by n working days for court
func (e *Engine) AddBusinessDays(start time.Time, n int, holidays []holiday.Holiday, court string) (time.Time, error) {
	return e.Calendar(holidays, court).AddBusinessDays(start, n)
}

// RemainingBusinessDays counts the working days left until due, never negative
func (e *Engine) RemainingBusinessDays(due time.Time, holidays []holiday.Holiday, court string) (int, error) {
	return e.Calendar(holidays, court).RemainingBusinessDays(e.Today(), due)
}

// AlertLevel classifies due as of today. It does not know about suspension.
func (e *Engine) AlertLevel(due time.Time, holidays []holiday.Holiday, court string) (AlertLevel, error) {
	return Classify(e.Today(), due, e.Calendar(holidays, court))
}

// NewDeadlineRequest describes a deadline to open
type NewDeadlineRequest struct {
	CaseID       string
	Type         string
	Description  string
	Court        string
	StartDate    time.Time
	BusinessDays int // only read for the custom type
}

// NewDeadline computes the due date of a new pending deadline
func (e *Engine) NewDeadline(req NewDeadlineRequest, holidays []holiday.Holiday) (Deadline, error) {
	if req.StartDate.IsZero() {
		return Deadline{}, fmt.Errorf("%w: start date is required", ErrInvalidDate)
	}
	info, days, err := ResolveDays(req.Type, req.BusinessDays)
	if err != nil {
		return Deadline{}, err
	}

	court := strings.TrimSpace(req.Court)
	start := dateutil.Civil(req.StartDate)
	due, err := e.AddBusinessDays(start, days, holidays, court)
	if err != nil {
		return Deadline{}, err
	}

	now := e.Now()
	return Deadline{
		ID:           e.newID(),
		CaseID:       req.CaseID,
		Type:         info.Key,
		Description:  req.Description,
		Court:        court,
		StartDate:    start,
		BusinessDays: days,
		DueAt:        due,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Suspend pauses dl and snapshots the working days it still has.
// The snapshot is the only input, besides the resume date, to Resume.
func (e *Engine) Suspend(dl Deadline, holidays []holiday.Holiday, reason string) (Deadline, Suspension, error) {
	if dl.Suspended {
		return Deadline{}, Suspension{}, ErrAlreadySuspended
	}
	if dl.Status == StatusFulfilled {
		return Deadline{}, Suspension{}, fmt.Errorf("%w (status %s)", ErrDeadlineClosed, dl.Status)
	}

	remaining, err := e.RemainingBusinessDays(dl.DueAt, holidays, dl.Court)
	if err != nil {
		return Deadline{}, Suspension{}, err
	}

	now := e.Now()
	out := dl.Clone()
	if out.OriginalDueAt == nil {
		original := out.DueAt
		out.OriginalDueAt = &original
	}
	out.Suspended = true
	out.UpdatedAt = now

	s := Suspension{
		ID:            e.newID(),
		DeadlineID:    dl.ID,
		Reason:        reason,
		RemainingDays: remaining,
		SuspendedAt:   now,
	}
	return out, s, nil
}

// Resume restarts the countdown of dl from today with the working days frozen in open
func (e *Engine) Resume(dl Deadline, open Suspension, holidays []holiday.Holiday) (Deadline, Suspension, error) {
	if !dl.Suspended {
		return Deadline{}, Suspension{}, ErrNotSuspended
	}
	if open.DeadlineID != dl.ID {
		return Deadline{}, Suspension{}, ErrSuspensionMismatch
	}
	if !open.Open() {
		return Deadline{}, Suspension{}, ErrNoOpenSuspension
	}

	due, err := e.AddBusinessDays(e.Today(), open.RemainingDays, holidays, dl.Court)
	if err != nil {
		return Deadline{}, Suspension{}, err
	}

	now := e.Now()
	out := dl.Clone()
	out.DueAt = due
	out.Suspended = false
	out.UpdatedAt = now
	// the new due date is today or later, so an overdue deadline runs again
	if out.Status == StatusOverdue {
		out.Status = StatusPending
	}

	closed := open.Clone()
	closed.ResumedAt = &now
	return out, closed, nil
}

// Fulfil marks dl as done. A suspended deadline must be resumed first.
func (e *Engine) Fulfil(dl Deadline) (Deadline, error) {
	if dl.Status == StatusFulfilled {
		return Deadline{}, fmt.Errorf("%w (status %s)", ErrDeadlineClosed, dl.Status)
	}
	if dl.Suspended {
		return Deadline{}, ErrAlreadySuspended
	}

	now := e.Now()
	out := dl.Clone()
	out.Status = StatusFulfilled
	out.FulfilledAt = &now
	out.UpdatedAt = now
	return out, nil
}

// MarkOverdue flips a pending, running deadline whose due date has passed.
// It reports whether anything changed.
func (e *Engine) MarkOverdue(dl Deadline) (Deadline, bool) {
	if dl.Status != StatusPending || dl.Suspended || !dateutil.Before(dl.DueAt, e.Today()) {
		return dl, false
	}
	out := dl.Clone()
	now := e.Now()
	out.Status = StatusOverdue
	out.OverdueAt = &now
	out.UpdatedAt = now
	return out, true
}

// View is what the application displays for a deadline
type View struct {
	Deadline      Deadline    `json:"deadline"`
	Today         time.Time   `json:"today"`
	RemainingDays int         `json:"remaining_days"`
	AlertLevel    AlertLevel  `json:"alert_level"`
	Suspension    *Suspension `json:"suspension,omitempty"`
}

// View computes the presentation state of dl. While suspended the remaining
// days are the frozen snapshot of open and the level is AlertSuspended.
func (e *Engine) View(dl Deadline, open *Suspension, holidays []holiday.Holiday) (View, error) {
	v := View{
		Deadline: dl.Clone(),
		Today:    e.Today(),
	}

	switch {
	case dl.Status == StatusFulfilled:
		v.AlertLevel = AlertFulfilled
		return v, nil
	case dl.Suspended:
		v.AlertLevel = AlertSuspended
		if open != nil {
			s := open.Clone()
			v.Suspension = &s
			v.RemainingDays = s.RemainingDays
		}
		return v, nil
	}

	cal := e.Calendar(holidays, dl.Court)
	remaining, err := cal.RemainingBusinessDays(v.Today, dl.DueAt)
	if err != nil {
		return View{}, err
	}
	level, err := Classify(v.Today, dl.DueAt, cal)
	if err != nil {
		return View{}, err
	}
	v.RemainingDays = remaining
	v.AlertLevel = level
	return v, nil
}
