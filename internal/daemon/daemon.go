package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/internal/manager"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// ErrSweepInProgress is returned when a sweep is requested while another one runs
var ErrSweepInProgress = errors.New("sweep already in progress")

// Sweeper runs one deadline sweep
type Sweeper interface {
	Sweep(ctx context.Context, dryRun bool) (*manager.SweepSummary, error)
}

// Daemon runs the deadline sweep once a day at a fixed local time
type Daemon struct {
	sweeper     Sweeper
	dailyHour   int // Hour to run the daily sweep (0-23)
	dailyMinute int // Minute to run the daily sweep (0-59)
	location    *time.Location
	logger      *zap.Logger
	now         func() time.Time
	tick        time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	lastRunDate string    // Last successful run date, avoids running twice a day
	lastRunTime time.Time // Last successful run time
	lastSummary *manager.SweepSummary
	mu          sync.Mutex // Protect against concurrent runs
	running     bool
}

// NewScheduledDaemon creates a new daemon sweeping daily at hour:minute in loc
func NewScheduledDaemon(sweeper Sweeper, dailyHour, dailyMinute int, loc *time.Location, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		sweeper:     sweeper,
		dailyHour:   dailyHour,
		dailyMinute: dailyMinute,
		location:    loc,
		logger:      logger,
		now:         time.Now,
		tick:        time.Minute,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs the scheduler until Stop, ctx cancellation or SIGINT/SIGTERM
func (d *Daemon) Start(ctx context.Context) error {
	d.logger.Info("Daemon started",
		zap.Int("daily_hour", d.dailyHour),
		zap.Int("daily_minute", d.dailyMinute),
		zap.String("timezone", d.location.String()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	d.run(ctx, sigChan)
	return nil
}

func (d *Daemon) run(ctx context.Context, sigChan <-chan os.Signal) {
	// Run immediately if the scheduled time already passed today
	now := d.now().In(d.location)
	if !now.Before(d.scheduledOn(now)) {
		d.logger.Info("Scheduled time already passed today, sweeping now",
			zap.Time("scheduled_time", d.scheduledOn(now)),
			zap.Time("current_time", now))
		d.runAndLog(ctx)
	}

	nextRun := d.calculateNextRun()
	d.logger.Info("Next sweep scheduled",
		zap.Time("next_run", nextRun),
		zap.Duration("wait_duration", nextRun.Sub(d.now())))

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Daemon stopped")
			return

		case <-d.ctx.Done():
			d.logger.Info("Daemon stopped")
			return

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			d.Stop()
			return

		case <-ticker.C:
			if !d.shouldRunAt(d.now()) {
				continue
			}
			d.runAndLog(ctx)
			nextRun = d.calculateNextRun()
			d.logger.Info("Next sweep scheduled", zap.Time("next_run", nextRun))
		}
	}
}

func (d *Daemon) runAndLog(ctx context.Context) {
	if err := d.runSweep(ctx); err != nil {
		d.logger.Error("Sweep failed", zap.Error(err))
	}
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) scheduledOn(t time.Time) time.Time {
	local := t.In(d.location)
	return time.Date(local.Year(), local.Month(), local.Day(),
		d.dailyHour, d.dailyMinute, 0, 0, d.location)
}

// calculateNextRun calculates the next scheduled run time
func (d *Daemon) calculateNextRun() time.Time {
	now := d.now().In(d.location)
	today := d.scheduledOn(now)

	// If target time already passed today, schedule for tomorrow
	if !now.Before(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}

// shouldRunAt reports whether the sweep is due at t: the scheduled time has
// passed and today's sweep has not completed yet
func (d *Daemon) shouldRunAt(t time.Time) bool {
	local := t.In(d.location)
	if local.Before(d.scheduledOn(local)) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRunDate != local.Format(dateutil.ISODate)
}

// runSweep executes the sweep for today. Concurrent and repeated runs on the
// same day are skipped.
func (d *Daemon) runSweep(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		d.logger.Warn("Sweep already running, skipping concurrent execution")
		return ErrSweepInProgress
	}
	today := d.now().In(d.location).Format(dateutil.ISODate)
	if d.lastRunDate == today {
		d.mu.Unlock()
		d.logger.Info("Already swept today, skipping",
			zap.String("last_run_date", today))
		return nil
	}
	d.running = true
	d.mu.Unlock()

	summary, err := d.sweep(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.lastRunDate = today
	d.mu.Unlock()
	d.logger.Info("Scheduled sweep finished",
		zap.Int("checked", summary.Checked),
		zap.Int("marked_overdue", len(summary.MarkedOverdue)))
	return nil
}

// SweepNow triggers an immediate sweep regardless of the schedule.
// It does not count as the day's scheduled run.
func (d *Daemon) SweepNow(ctx context.Context) (*manager.SweepSummary, error) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil, ErrSweepInProgress
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("Manual sweep triggered")
	return d.sweep(ctx)
}

// sweep runs the sweeper and records the outcome. The caller must have set running.
func (d *Daemon) sweep(ctx context.Context) (*manager.SweepSummary, error) {
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	summary, err := d.sweeper.Sweep(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep deadlines: %w", err)
	}

	d.mu.Lock()
	d.lastRunTime = d.now()
	d.lastSummary = summary
	d.mu.Unlock()
	return summary, nil
}

// Status is a snapshot of the scheduler
type Status struct {
	DailyTime   string                `json:"daily_time"`
	Timezone    string                `json:"timezone"`
	NextRun     time.Time             `json:"next_run"`
	LastRunDate string                `json:"last_run_date,omitempty"`
	LastRunTime time.Time             `json:"last_run_time,omitempty"`
	LastSummary *manager.SweepSummary `json:"last_summary,omitempty"`
	Running     bool                  `json:"running"`
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		DailyTime:   fmt.Sprintf("%02d:%02d", d.dailyHour, d.dailyMinute),
		Timezone:    d.location.String(),
		NextRun:     d.calculateNextRun(),
		LastRunDate: d.lastRunDate,
		LastRunTime: d.lastRunTime,
		LastSummary: d.lastSummary,
		Running:     d.running,
	}
}
