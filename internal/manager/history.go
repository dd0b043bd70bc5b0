package manager

import (
	"context"
	"sort"
	"time"

	"github.com/username/legal-deadline-engine/internal/deadline"
)

// EventKind names a lifecycle change of a deadline
type EventKind string

const (
	EventCreated   EventKind = "created"
	EventSuspended EventKind = "suspended"
	EventResumed   EventKind = "resumed"
	EventFulfilled EventKind = "fulfilled"
	EventOverdue   EventKind = "overdue"
)

// Event is one entry of a deadline's audit timeline
type Event struct {
	At            time.Time `json:"at"`
	Kind          EventKind `json:"kind"`
	SuspensionID  string    `json:"suspension_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	RemainingDays *int      `json:"remaining_days,omitempty"`
}

// buildTimeline derives the lifecycle events from the stored records
func buildTimeline(dl deadline.Deadline, suspensions []deadline.Suspension) []Event {
	events := []Event{{At: dl.CreatedAt, Kind: EventCreated}}
	if dl.OverdueAt != nil {
		events = append(events, Event{At: *dl.OverdueAt, Kind: EventOverdue})
	}

	for _, s := range suspensions {
		remaining := s.RemainingDays
		events = append(events, Event{
			At:            s.SuspendedAt,
			Kind:          EventSuspended,
			SuspensionID:  s.ID,
			Reason:        s.Reason,
			RemainingDays: &remaining,
		})
		if s.ResumedAt != nil {
			events = append(events, Event{
				At:           *s.ResumedAt,
				Kind:         EventResumed,
				SuspensionID: s.ID,
			})
		}
	}

	if dl.FulfilledAt != nil {
		events = append(events, Event{At: *dl.FulfilledAt, Kind: EventFulfilled})
	}

	// Sort by timestamp (oldest first)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})
	return events
}

// History returns the audit timeline of a deadline
func (m *Manager) History(ctx context.Context, id string) ([]Event, error) {
	dl, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	suspensions, err := m.repo.Suspensions(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildTimeline(dl, suspensions), nil
}
