// Package deadline computes procedural due dates and manages the
// suspend/resume lifecycle of legal deadlines.
package deadline

import (
	"time"
)

// Status is the business status of a deadline, independent of suspension
type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusOverdue   Status = "overdue"
)

// Deadline is a procedural deadline. All dates are civil dates (00:00 UTC);
// CreatedAt, UpdatedAt, FulfilledAt and OverdueAt are instants. OverdueAt
// is when the sweep last marked the deadline overdue.
type Deadline struct {
	ID           string    `json:"id"`
	CaseID       string    `json:"case_id,omitempty"`
	Type         string    `json:"type"`
	Description  string    `json:"description,omitempty"`
	Court        string    `json:"court,omitempty"`
	StartDate    time.Time `json:"start_date"`
	BusinessDays int       `json:"business_days"`

	// DueAt moves on every resume; OriginalDueAt keeps the first computed value.
	DueAt         time.Time  `json:"due_at"`
	OriginalDueAt *time.Time `json:"original_due_at,omitempty"`

	Status      Status     `json:"status"`
	Suspended   bool       `json:"suspended"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	OverdueAt   *time.Time `json:"overdue_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Clone returns a deep copy
func (d Deadline) Clone() Deadline {
	d.OriginalDueAt = cloneTime(d.OriginalDueAt)
	d.FulfilledAt = cloneTime(d.FulfilledAt)
	d.OverdueAt = cloneTime(d.OverdueAt)
	return d
}

// Suspension records one pause of a deadline's countdown.
// RemainingDays is frozen when the suspension opens and never recomputed.
type Suspension struct {
	ID            string     `json:"id"`
	DeadlineID    string     `json:"deadline_id"`
	Reason        string     `json:"reason"`
	RemainingDays int        `json:"remaining_days"`
	SuspendedAt   time.Time  `json:"suspended_at"`
	ResumedAt     *time.Time `json:"resumed_at,omitempty"`
}

// Open reports whether the suspension has not been resumed yet
func (s Suspension) Open() bool {
	return s.ResumedAt == nil
}

// Clone returns a deep copy
func (s Suspension) Clone() Suspension {
	s.ResumedAt = cloneTime(s.ResumedAt)
	return s
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
