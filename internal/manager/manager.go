package manager

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/internal/calendar"
	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/internal/metrics"
	"github.com/username/legal-deadline-engine/internal/store"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// Manager reads records from the repository, runs them through the engine
// and writes the results back
type Manager struct {
	engine   *deadline.Engine
	repo     store.Repository
	holidays holiday.Source
	metrics  *metrics.Metrics
	logger   *zap.Logger
	locks    *keyedMutex
}

// NewManager creates a new deadline manager. m may be nil.
func NewManager(
	engine *deadline.Engine,
	repo store.Repository,
	holidays holiday.Source,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		engine:   engine,
		repo:     repo,
		holidays: holidays,
		metrics:  m,
		logger:   logger,
		locks:    newKeyedMutex(),
	}
}

// Engine returns the engine (for the CLI and API)
func (m *Manager) Engine() *deadline.Engine {
	return m.engine
}

// Today returns today's civil date in the reference zone
func (m *Manager) Today() time.Time {
	return m.engine.Today()
}

// maxHolidayYears caps how many calendar years one call may read from the holiday source
const maxHolidayYears = 60

func checkSpan(from, to time.Time) error {
	if to.Year()-from.Year() >= maxHolidayYears {
		return fmt.Errorf("%w: %s .. %s spans more than %d years",
			deadline.ErrInvalidInput, dateutil.Format(from), dateutil.Format(to), maxHolidayYears)
	}
	return nil
}

// loadHolidays reads the holidays needed to walk n business days from the
// earliest of dates, with room to spare past the latest one
func (m *Manager) loadHolidays(ctx context.Context, n int, dates ...time.Time) ([]holiday.Holiday, error) {
	if n > calendar.MaxBusinessDays {
		return nil, fmt.Errorf("%w (got %d)", deadline.ErrTooManyDays, n)
	}
	from, to := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}
	from = dateutil.Date(from.Year(), time.January, 1)
	to = dateutil.Date(to.Year()+1+n/200, time.December, 31)
	if err := checkSpan(from, to); err != nil {
		return nil, err
	}

	hs, err := m.holidays.Holidays(ctx, from, to)
	if err != nil {
		m.metrics.HolidaySourceError(m.holidays.Name())
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	return hs, nil
}

// Create opens a new deadline
func (m *Manager) Create(ctx context.Context, req deadline.NewDeadlineRequest) (deadline.View, error) {
	if req.StartDate.IsZero() {
		return deadline.View{}, fmt.Errorf("%w: start date is required", deadline.ErrInvalidDate)
	}
	_, days, err := deadline.ResolveDays(req.Type, req.BusinessDays)
	if err != nil {
		return deadline.View{}, err
	}
	hs, err := m.loadHolidays(ctx, days, req.StartDate, m.Today())
	if err != nil {
		return deadline.View{}, err
	}

	dl, err := m.engine.NewDeadline(req, hs)
	if err != nil {
		return deadline.View{}, err
	}
	if err := m.repo.Create(ctx, dl); err != nil {
		return deadline.View{}, fmt.Errorf("failed to store deadline: %w", err)
	}

	m.metrics.DeadlineCreated(dl.Type)
	m.logger.Info("Deadline created",
		zap.String("id", dl.ID),
		zap.String("case_id", dl.CaseID),
		zap.String("type", dl.Type),
		zap.String("court", dl.Court),
		zap.String("start", dateutil.Format(dl.StartDate)),
		zap.Int("business_days", dl.BusinessDays),
		zap.String("due", dateutil.Format(dl.DueAt)))

	return m.engine.View(dl, nil, hs)
}

// Get returns the current view of one deadline
func (m *Manager) Get(ctx context.Context, id string) (deadline.View, error) {
	dl, err := m.repo.Get(ctx, id)
	if err != nil {
		return deadline.View{}, err
	}
	open, err := m.repo.OpenSuspension(ctx, id)
	if err != nil {
		return deadline.View{}, err
	}
	hs, err := m.loadHolidays(ctx, 0, m.Today(), dl.DueAt)
	if err != nil {
		return deadline.View{}, err
	}
	return m.engine.View(dl, open, hs)
}

// List returns views sorted by urgency, then due date
func (m *Manager) List(ctx context.Context, f store.Filter) ([]deadline.View, error) {
	list, err := m.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return m.views(ctx, list)
}

func (m *Manager) views(ctx context.Context, list []deadline.Deadline) ([]deadline.View, error) {
	views := make([]deadline.View, 0, len(list))
	if len(list) == 0 {
		return views, nil
	}

	dates := []time.Time{m.Today()}
	for _, dl := range list {
		dates = append(dates, dl.DueAt)
	}
	hs, err := m.loadHolidays(ctx, 0, dates...)
	if err != nil {
		return nil, err
	}

	for _, dl := range list {
		var open *deadline.Suspension
		if dl.Suspended {
			if open, err = m.repo.OpenSuspension(ctx, dl.ID); err != nil {
				return nil, err
			}
		}
		v, err := m.engine.View(dl, open, hs)
		if err != nil {
			return nil, fmt.Errorf("deadline %s: %w", dl.ID, err)
		}
		views = append(views, v)
	}
	sortViews(views)
	return views, nil
}

func sortViews(views []deadline.View) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.AlertLevel.Severity() != b.AlertLevel.Severity() {
			return a.AlertLevel.Severity() < b.AlertLevel.Severity()
		}
		if !a.Deadline.DueAt.Equal(b.Deadline.DueAt) {
			return a.Deadline.DueAt.Before(b.Deadline.DueAt)
		}
		return a.Deadline.ID < b.Deadline.ID
	})
}

// Suspend pauses a deadline, freezing its remaining business days
func (m *Manager) Suspend(ctx context.Context, id, reason string) (deadline.View, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	current, err := m.repo.Get(ctx, id)
	if err != nil {
		return deadline.View{}, err
	}
	hs, err := m.loadHolidays(ctx, 0, m.Today(), current.DueAt)
	if err != nil {
		return deadline.View{}, err
	}

	var opened deadline.Suspension
	dl, err := m.repo.Transition(ctx, id, func(dl deadline.Deadline, open *deadline.Suspension) (deadline.Deadline, *deadline.Suspension, error) {
		if open != nil {
			return deadline.Deadline{}, nil, deadline.ErrAlreadySuspended
		}
		next, s, err := m.engine.Suspend(dl, hs, reason)
		if err != nil {
			return deadline.Deadline{}, nil, err
		}
		opened = s
		return next, &s, nil
	})
	m.metrics.Transition("suspend", err)
	if err != nil {
		m.logger.Warn("Suspend rejected", zap.String("id", id), zap.Error(err))
		return deadline.View{}, err
	}

	m.logger.Info("Deadline suspended",
		zap.String("id", id),
		zap.String("reason", reason),
		zap.Int("remaining_days", opened.RemainingDays),
		zap.String("due", dateutil.Format(dl.DueAt)))

	return m.engine.View(dl, &opened, hs)
}

// Resume restarts a suspended deadline from today
func (m *Manager) Resume(ctx context.Context, id string) (deadline.View, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	open, err := m.repo.OpenSuspension(ctx, id)
	if err != nil {
		return deadline.View{}, err
	}
	n := 0
	if open != nil {
		n = open.RemainingDays
	}
	hs, err := m.loadHolidays(ctx, n, m.Today())
	if err != nil {
		return deadline.View{}, err
	}

	var closed deadline.Suspension
	dl, err := m.repo.Transition(ctx, id, func(dl deadline.Deadline, open *deadline.Suspension) (deadline.Deadline, *deadline.Suspension, error) {
		if !dl.Suspended {
			return deadline.Deadline{}, nil, deadline.ErrNotSuspended
		}
		if open == nil {
			return deadline.Deadline{}, nil, deadline.ErrNoOpenSuspension
		}
		next, s, err := m.engine.Resume(dl, *open, hs)
		if err != nil {
			return deadline.Deadline{}, nil, err
		}
		closed = s
		return next, &s, nil
	})
	m.metrics.Transition("resume", err)
	if err != nil {
		m.logger.Warn("Resume rejected", zap.String("id", id), zap.Error(err))
		return deadline.View{}, err
	}

	m.logger.Info("Deadline resumed",
		zap.String("id", id),
		zap.Int("remaining_days", closed.RemainingDays),
		zap.String("new_due", dateutil.Format(dl.DueAt)))

	return m.engine.View(dl, nil, hs)
}

// Fulfil closes a deadline as done
func (m *Manager) Fulfil(ctx context.Context, id string) (deadline.View, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	dl, err := m.repo.Transition(ctx, id, func(dl deadline.Deadline, _ *deadline.Suspension) (deadline.Deadline, *deadline.Suspension, error) {
		next, err := m.engine.Fulfil(dl)
		return next, nil, err
	})
	m.metrics.Transition("fulfil", err)
	if err != nil {
		m.logger.Warn("Fulfil rejected", zap.String("id", id), zap.Error(err))
		return deadline.View{}, err
	}

	m.logger.Info("Deadline fulfilled", zap.String("id", id))
	return m.engine.View(dl, nil, nil)
}

// Suspensions returns the suspension history of a deadline
func (m *Manager) Suspensions(ctx context.Context, id string) ([]deadline.Suspension, error) {
	return m.repo.Suspensions(ctx, id)
}

// Holidays returns the holidays in [from, to], sorted
func (m *Manager) Holidays(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	if dateutil.After(from, to) {
		return nil, fmt.Errorf("%w: from %s is after to %s", deadline.ErrInvalidInput, dateutil.Format(from), dateutil.Format(to))
	}
	if err := checkSpan(from, to); err != nil {
		return nil, err
	}
	hs, err := m.holidays.Holidays(ctx, from, to)
	if err != nil {
		m.metrics.HolidaySourceError(m.holidays.Name())
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	holiday.Sort(hs)
	return hs, nil
}

// Calendar returns the working-day calendar of court covering [from, to]
func (m *Manager) Calendar(ctx context.Context, court string, from, to time.Time) (*calendar.BusinessCalendar, error) {
	hs, err := m.loadHolidays(ctx, 0, from, to)
	if err != nil {
		return nil, err
	}
	return m.engine.Calendar(hs, court), nil
}

// AddBusinessDays advances start by n working days for court
func (m *Manager) AddBusinessDays(ctx context.Context, start time.Time, n int, court string) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, deadline.ErrInvalidDate
	}
	if n < 0 {
		return time.Time{}, fmt.Errorf("%w (got %d)", deadline.ErrNegativeDays, n)
	}
	hs, err := m.loadHolidays(ctx, n, start)
	if err != nil {
		return time.Time{}, err
	}
	return m.engine.AddBusinessDays(start, n, hs, court)
}

// Remaining reports the business days left until due as of today, and its alert level
func (m *Manager) Remaining(ctx context.Context, due time.Time, court string) (int, deadline.AlertLevel, error) {
	if due.IsZero() {
		return 0, "", deadline.ErrInvalidDate
	}
	today := m.Today()
	hs, err := m.loadHolidays(ctx, 0, today, due)
	if err != nil {
		return 0, "", err
	}
	remaining, err := m.engine.RemainingBusinessDays(due, hs, court)
	if err != nil {
		return 0, "", err
	}
	level, err := m.engine.AlertLevel(due, hs, court)
	if err != nil {
		return 0, "", err
	}
	return remaining, level, nil
}
