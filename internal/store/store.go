// Package store persists deadlines and their suspensions.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/internal/deadline"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Filter narrows List. Zero fields match everything.
type Filter struct {
	CaseID    string
	Court     string
	Status    deadline.Status
	Suspended *bool
}

// Match reports whether dl passes the filter
func (f Filter) Match(dl deadline.Deadline) bool {
	if f.CaseID != "" && dl.CaseID != f.CaseID {
		return false
	}
	if f.Court != "" && dl.Court != f.Court {
		return false
	}
	if f.Status != "" && dl.Status != f.Status {
		return false
	}
	if f.Suspended != nil && dl.Suspended != *f.Suspended {
		return false
	}
	return true
}

// TransitionFunc computes the next state of a deadline. open is its open
// suspension, nil when there is none. The returned suspension, if any, is
// inserted or updated by ID.
type TransitionFunc func(dl deadline.Deadline, open *deadline.Suspension) (deadline.Deadline, *deadline.Suspension, error)

// Repository is the caller-owned persistence of the engine's records.
// Transition is atomic: the deadline is locked while fn runs and nothing is
// written when fn fails.
type Repository interface {
	Create(ctx context.Context, dl deadline.Deadline) error
	Get(ctx context.Context, id string) (deadline.Deadline, error)
	List(ctx context.Context, f Filter) ([]deadline.Deadline, error)
	Suspensions(ctx context.Context, deadlineID string) ([]deadline.Suspension, error)
	OpenSuspension(ctx context.Context, deadlineID string) (*deadline.Suspension, error)
	Transition(ctx context.Context, id string, fn TransitionFunc) (deadline.Deadline, error)
	Close() error
}

// Kinds of repository
const (
	KindMemory   = "memory"
	KindFile     = "file"
	KindPostgres = "postgres"
)

// Options select and configure a repository
type Options struct {
	Kind string
	File string
	DSN  string
}

// Open builds the repository described by opts
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Repository, error) {
	switch opts.Kind {
	case KindMemory, "":
		return NewMemory(), nil
	case KindFile:
		return OpenFile(opts.File, logger)
	case KindPostgres:
		return OpenPostgres(ctx, opts.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown store type %q", opts.Kind)
	}
}

func checkTransition(id string, next deadline.Deadline, s *deadline.Suspension) error {
	if next.ID != id {
		return fmt.Errorf("transition changed deadline id %q to %q", id, next.ID)
	}
	if s != nil && s.DeadlineID != id {
		return fmt.Errorf("transition produced a suspension for deadline %q", s.DeadlineID)
	}
	return nil
}

func sortDeadlines(list []deadline.Deadline) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].DueAt.Equal(list[j].DueAt) {
			return list[i].DueAt.Before(list[j].DueAt)
		}
		return list[i].ID < list[j].ID
	})
}
