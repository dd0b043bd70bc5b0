package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/username/legal-deadline-engine/internal/deadline"
)

// Memory keeps records in process memory. Records are copied on the way in
// and out, so callers never share state with the store.
type Memory struct {
	mu          sync.RWMutex
	deadlines   map[string]deadline.Deadline
	suspensions map[string][]deadline.Suspension // deadline id -> in creation order
}

// NewMemory creates an empty Memory store
func NewMemory() *Memory {
	return &Memory{
		deadlines:   make(map[string]deadline.Deadline),
		suspensions: make(map[string][]deadline.Suspension),
	}
}

func (m *Memory) Create(_ context.Context, dl deadline.Deadline) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.deadlines[dl.ID]; ok {
		return fmt.Errorf("deadline %s: %w", dl.ID, ErrDuplicate)
	}
	m.deadlines[dl.ID] = dl.Clone()
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (deadline.Deadline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dl, ok := m.deadlines[id]
	if !ok {
		return deadline.Deadline{}, fmt.Errorf("deadline %s: %w", id, ErrNotFound)
	}
	return dl.Clone(), nil
}

func (m *Memory) List(_ context.Context, f Filter) ([]deadline.Deadline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]deadline.Deadline, 0, len(m.deadlines))
	for _, dl := range m.deadlines {
		if f.Match(dl) {
			out = append(out, dl.Clone())
		}
	}
	sortDeadlines(out)
	return out, nil
}

func (m *Memory) Suspensions(_ context.Context, deadlineID string) ([]deadline.Suspension, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.deadlines[deadlineID]; !ok {
		return nil, fmt.Errorf("deadline %s: %w", deadlineID, ErrNotFound)
	}
	list := m.suspensions[deadlineID]
	out := make([]deadline.Suspension, 0, len(list))
	for _, s := range list {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (m *Memory) OpenSuspension(_ context.Context, deadlineID string) (*deadline.Suspension, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.deadlines[deadlineID]; !ok {
		return nil, fmt.Errorf("deadline %s: %w", deadlineID, ErrNotFound)
	}
	return m.openLocked(deadlineID), nil
}

func (m *Memory) openLocked(deadlineID string) *deadline.Suspension {
	for _, s := range m.suspensions[deadlineID] {
		if s.Open() {
			c := s.Clone()
			return &c
		}
	}
	return nil
}

func (m *Memory) Transition(_ context.Context, id string, fn TransitionFunc) (deadline.Deadline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.deadlines[id]
	if !ok {
		return deadline.Deadline{}, fmt.Errorf("deadline %s: %w", id, ErrNotFound)
	}

	next, s, err := fn(current.Clone(), m.openLocked(id))
	if err != nil {
		return deadline.Deadline{}, err
	}
	if err := checkTransition(id, next, s); err != nil {
		return deadline.Deadline{}, err
	}

	m.deadlines[id] = next.Clone()
	if s != nil {
		m.upsertSuspensionLocked(s.Clone())
	}
	return next.Clone(), nil
}

func (m *Memory) upsertSuspensionLocked(s deadline.Suspension) {
	list := m.suspensions[s.DeadlineID]
	for i := range list {
		if list[i].ID == s.ID {
			list[i] = s
			return
		}
	}
	m.suspensions[s.DeadlineID] = append(list, s)
}

func (m *Memory) Close() error { return nil }

// snapshot and restore let File roll back a mutation it failed to save
type memorySnapshot struct {
	deadlines   []deadline.Deadline
	suspensions []deadline.Suspension
}

func (m *Memory) snapshot() memorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var snap memorySnapshot
	for _, dl := range m.deadlines {
		snap.deadlines = append(snap.deadlines, dl.Clone())
	}
	sortDeadlines(snap.deadlines)
	for _, dl := range snap.deadlines {
		for _, s := range m.suspensions[dl.ID] {
			snap.suspensions = append(snap.suspensions, s.Clone())
		}
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deadlines = make(map[string]deadline.Deadline, len(snap.deadlines))
	m.suspensions = make(map[string][]deadline.Suspension)
	for _, dl := range snap.deadlines {
		m.deadlines[dl.ID] = dl.Clone()
	}
	for _, s := range snap.suspensions {
		m.suspensions[s.DeadlineID] = append(m.suspensions[s.DeadlineID], s.Clone())
	}
}
