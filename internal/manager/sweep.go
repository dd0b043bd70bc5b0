package manager

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/store"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// SweepSummary is the result of one sweep
type SweepSummary struct {
	Today         time.Time                   `json:"today"`
	Checked       int                         `json:"checked"`
	MarkedOverdue []string                    `json:"marked_overdue"`
	Levels        map[deadline.AlertLevel]int `json:"levels"`
	Urgent        []deadline.View             `json:"urgent"`
	DryRun        bool                        `json:"dry_run"`
	Errors        int                         `json:"errors"`
}

// Sweep reclassifies every open deadline, flips pending deadlines whose due
// date has passed to overdue and reports the urgent ones. With dryRun nothing
// is written.
func (m *Manager) Sweep(ctx context.Context, dryRun bool) (*SweepSummary, error) {
	today := m.Today()
	m.logger.Info("Starting deadline sweep",
		zap.String("today", dateutil.Format(today)),
		zap.Bool("dry_run", dryRun))

	pending, err := m.repo.List(ctx, store.Filter{Status: deadline.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deadlines: %w", err)
	}
	overdue, err := m.repo.List(ctx, store.Filter{Status: deadline.StatusOverdue})
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue deadlines: %w", err)
	}

	summary := &SweepSummary{
		Today:  today,
		Levels: make(map[deadline.AlertLevel]int),
		DryRun: dryRun,
	}

	for i, dl := range pending {
		if _, changed := m.engine.MarkOverdue(dl); !changed {
			continue
		}
		summary.MarkedOverdue = append(summary.MarkedOverdue, dl.ID)
		if dryRun {
			continue
		}
		updated, err := m.markOverdue(ctx, dl.ID)
		if err != nil {
			summary.Errors++
			m.logger.Error("Failed to mark deadline overdue",
				zap.String("id", dl.ID),
				zap.Error(err))
			continue
		}
		pending[i] = updated
	}

	views, err := m.views(ctx, append(pending, overdue...))
	if err != nil {
		return nil, err
	}
	summary.Checked = len(views)

	counts := make(map[string]int, len(deadline.Levels())+1)
	for _, v := range views {
		summary.Levels[v.AlertLevel]++
		counts[string(v.AlertLevel)]++
		if v.AlertLevel.Urgent() {
			summary.Urgent = append(summary.Urgent, v)
			m.logger.Warn("Deadline needs attention",
				zap.String("id", v.Deadline.ID),
				zap.String("case_id", v.Deadline.CaseID),
				zap.String("type", v.Deadline.Type),
				zap.String("due", dateutil.Format(v.Deadline.DueAt)),
				zap.Int("remaining_days", v.RemainingDays),
				zap.String("level", string(v.AlertLevel)))
		}
	}
	if !dryRun {
		m.metrics.SetAlertLevels(counts, m.engine.Now())
	}

	m.logger.Info("Deadline sweep finished",
		zap.Int("checked", summary.Checked),
		zap.Int("marked_overdue", len(summary.MarkedOverdue)),
		zap.Int("urgent", len(summary.Urgent)),
		zap.Int("errors", summary.Errors))

	return summary, nil
}

func (m *Manager) markOverdue(ctx context.Context, id string) (deadline.Deadline, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	dl, err := m.repo.Transition(ctx, id, func(dl deadline.Deadline, _ *deadline.Suspension) (deadline.Deadline, *deadline.Suspension, error) {
		next, changed := m.engine.MarkOverdue(dl)
		if !changed {
			return dl, nil, nil
		}
		return next, nil, nil
	})
	m.metrics.Transition("overdue", err)
	return dl, err
}
