package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

type deadlineRow struct {
	ID            string     `gorm:"primaryKey;size:36"`
	CaseID        string     `gorm:"size:64;index"`
	Type          string     `gorm:"size:64;not null"`
	Description   string     `gorm:"type:text"`
	Court         string     `gorm:"size:64;index"`
	StartDate     time.Time  `gorm:"type:date;not null"`
	BusinessDays  int        `gorm:"not null"`
	DueAt         time.Time  `gorm:"type:date;not null;index"`
	OriginalDueAt *time.Time `gorm:"type:date"`
	Status        string     `gorm:"size:16;not null;index"`
	Suspended     bool       `gorm:"not null;default:false"`
	FulfilledAt   *time.Time
	OverdueAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (deadlineRow) TableName() string { return "deadlines" }

type suspensionRow struct {
	ID            string `gorm:"primaryKey;size:36"`
	DeadlineID    string `gorm:"size:36;not null;index"`
	Reason        string `gorm:"type:text"`
	RemainingDays int    `gorm:"not null"`
	SuspendedAt   time.Time
	ResumedAt     *time.Time
}

func (suspensionRow) TableName() string { return "deadline_suspensions" }

// holidayRow is unique on idx_holidays_key so Import can skip rows it already has
type holidayRow struct {
	gorm.Model
	Name      string    `gorm:"size:128;not null;uniqueIndex:idx_holidays_key"`
	Date      time.Time `gorm:"type:date;not null;index;uniqueIndex:idx_holidays_key"`
	Scope     string    `gorm:"size:16;not null;uniqueIndex:idx_holidays_key"`
	Court     string    `gorm:"size:64;index;uniqueIndex:idx_holidays_key"`
	Recurring bool      `gorm:"not null;default:false;uniqueIndex:idx_holidays_key"`
}

func (holidayRow) TableName() string { return "holidays" }

// At most one open suspension per deadline
const openSuspensionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_deadline_suspensions_open
	ON deadline_suspensions (deadline_id) WHERE resumed_at IS NULL`

// Postgres stores records in PostgreSQL through gorm
type Postgres struct {
	db     *gorm.DB
	logger *zap.Logger
}

// OpenPostgres connects and migrates the schema
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store needs a DSN")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	p := NewPostgres(db, logger)
	if err := p.Migrate(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an open gorm connection
func NewPostgres(db *gorm.DB, logger *zap.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

// Migrate creates or updates the tables
func (p *Postgres) Migrate(ctx context.Context) error {
	db := p.db.WithContext(ctx)
	if err := db.AutoMigrate(&deadlineRow{}, &suspensionRow{}, &holidayRow{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	if err := db.Exec(openSuspensionIndex).Error; err != nil {
		return fmt.Errorf("failed to create open suspension index: %w", err)
	}
	p.logger.Info("Postgres schema migrated")
	return nil
}

// DB exposes the connection for other gorm-backed components
func (p *Postgres) DB() *gorm.DB {
	return p.db
}

func (p *Postgres) Create(ctx context.Context, dl deadline.Deadline) error {
	row := toDeadlineRow(dl)
	err := p.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("deadline %s: %w", dl.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert deadline: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (deadline.Deadline, error) {
	var row deadlineRow
	if err := p.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return deadline.Deadline{}, notFound(id, err)
	}
	return row.toDomain(), nil
}

func (p *Postgres) List(ctx context.Context, f Filter) ([]deadline.Deadline, error) {
	q := p.db.WithContext(ctx).Model(&deadlineRow{})
	if f.CaseID != "" {
		q = q.Where("case_id = ?", f.CaseID)
	}
	if f.Court != "" {
		q = q.Where("court = ?", f.Court)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Suspended != nil {
		q = q.Where("suspended = ?", *f.Suspended)
	}

	var rows []deadlineRow
	if err := q.Order("due_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list deadlines: %w", err)
	}
	out := make([]deadline.Deadline, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (p *Postgres) Suspensions(ctx context.Context, deadlineID string) ([]deadline.Suspension, error) {
	db := p.db.WithContext(ctx)
	if err := db.Select("id").First(&deadlineRow{}, "id = ?", deadlineID).Error; err != nil {
		return nil, notFound(deadlineID, err)
	}

	var rows []suspensionRow
	if err := db.Where("deadline_id = ?", deadlineID).Order("suspended_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list suspensions: %w", err)
	}
	out := make([]deadline.Suspension, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (p *Postgres) OpenSuspension(ctx context.Context, deadlineID string) (*deadline.Suspension, error) {
	db := p.db.WithContext(ctx)
	if err := db.Select("id").First(&deadlineRow{}, "id = ?", deadlineID).Error; err != nil {
		return nil, notFound(deadlineID, err)
	}
	return openSuspension(db, deadlineID)
}

func openSuspension(db *gorm.DB, deadlineID string) (*deadline.Suspension, error) {
	var rows []suspensionRow
	if err := db.Where("deadline_id = ? AND resumed_at IS NULL", deadlineID).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load open suspension: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	s := rows[0].toDomain()
	return &s, nil
}

// Transition locks the deadline row (SELECT ... FOR UPDATE) for the duration of fn
func (p *Postgres) Transition(ctx context.Context, id string, fn TransitionFunc) (deadline.Deadline, error) {
	var out deadline.Deadline
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row deadlineRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error; err != nil {
			return notFound(id, err)
		}
		open, err := openSuspension(tx, id)
		if err != nil {
			return err
		}

		next, s, err := fn(row.toDomain(), open)
		if err != nil {
			return err
		}
		if err := checkTransition(id, next, s); err != nil {
			return err
		}

		nextRow := toDeadlineRow(next)
		if err := tx.Save(&nextRow).Error; err != nil {
			return fmt.Errorf("failed to update deadline: %w", err)
		}
		if s != nil {
			sRow := toSuspensionRow(*s)
			if err := tx.Save(&sRow).Error; err != nil {
				return fmt.Errorf("failed to save suspension: %w", err)
			}
		}
		out = next
		return nil
	})
	if err != nil {
		return deadline.Deadline{}, err
	}
	return out, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("deadline %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("failed to load deadline %s: %w", id, err)
}

func toDeadlineRow(dl deadline.Deadline) deadlineRow {
	return deadlineRow{
		ID:            dl.ID,
		CaseID:        dl.CaseID,
		Type:          dl.Type,
		Description:   dl.Description,
		Court:         dl.Court,
		StartDate:     dl.StartDate,
		BusinessDays:  dl.BusinessDays,
		DueAt:         dl.DueAt,
		OriginalDueAt: dl.OriginalDueAt,
		Status:        string(dl.Status),
		Suspended:     dl.Suspended,
		FulfilledAt:   dl.FulfilledAt,
		OverdueAt:     dl.OverdueAt,
		CreatedAt:     dl.CreatedAt,
		UpdatedAt:     dl.UpdatedAt,
	}
}

func (r deadlineRow) toDomain() deadline.Deadline {
	dl := deadline.Deadline{
		ID:           r.ID,
		CaseID:       r.CaseID,
		Type:         r.Type,
		Description:  r.Description,
		Court:        r.Court,
		StartDate:    dateutil.Civil(r.StartDate),
		BusinessDays: r.BusinessDays,
		DueAt:        dateutil.Civil(r.DueAt),
		Status:       deadline.Status(r.Status),
		Suspended:    r.Suspended,
		FulfilledAt:  utcPtr(r.FulfilledAt),
		OverdueAt:    utcPtr(r.OverdueAt),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.OriginalDueAt != nil {
		original := dateutil.Civil(*r.OriginalDueAt)
		dl.OriginalDueAt = &original
	}
	return dl
}

func toSuspensionRow(s deadline.Suspension) suspensionRow {
	return suspensionRow{
		ID:            s.ID,
		DeadlineID:    s.DeadlineID,
		Reason:        s.Reason,
		RemainingDays: s.RemainingDays,
		SuspendedAt:   s.SuspendedAt,
		ResumedAt:     s.ResumedAt,
	}
}

func (r suspensionRow) toDomain() deadline.Suspension {
	return deadline.Suspension{
		ID:            r.ID,
		DeadlineID:    r.DeadlineID,
		Reason:        r.Reason,
		RemainingDays: r.RemainingDays,
		SuspendedAt:   r.SuspendedAt.UTC(),
		ResumedAt:     utcPtr(r.ResumedAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// PostgresHolidaySource reads tenant holidays from the holidays table
type PostgresHolidaySource struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPostgresHolidaySource creates a holiday source over db
func NewPostgresHolidaySource(db *gorm.DB, logger *zap.Logger) *PostgresHolidaySource {
	return &PostgresHolidaySource{db: db, logger: logger}
}

func (s *PostgresHolidaySource) Name() string { return "postgres" }

// Holidays returns recurring holidays and the one-off holidays within [from, to]
func (s *PostgresHolidaySource) Holidays(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	var rows []holidayRow
	err := s.db.WithContext(ctx).
		Where("recurring = ? OR (date BETWEEN ? AND ?)", true, dateutil.Format(from), dateutil.Format(to)).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}

	out := make([]holiday.Holiday, 0, len(rows))
	for _, row := range rows {
		h := holiday.Holiday{
			Name:      row.Name,
			Date:      dateutil.Civil(row.Date),
			Scope:     holiday.Scope(row.Scope),
			Court:     row.Court,
			Recurring: row.Recurring,
		}
		if err := h.Validate(); err != nil {
			s.logger.Warn("Skipping invalid holiday row",
				zap.Uint("id", row.ID),
				zap.Error(err))
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// Import inserts holidays, validating each first. Rows already in the table
// are skipped; the count is the number of rows actually added.
func (s *PostgresHolidaySource) Import(ctx context.Context, holidays []holiday.Holiday) (int, error) {
	rows := make([]holidayRow, 0, len(holidays))
	for _, h := range holidays {
		if err := h.Validate(); err != nil {
			return 0, err
		}
		rows = append(rows, holidayRow{
			Name:      h.Name,
			Date:      dateutil.Civil(h.Date),
			Scope:     string(h.Scope),
			Court:     h.Court,
			Recurring: h.Recurring,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import holidays: %w", res.Error)
	}
	s.logger.Info("Holidays imported",
		zap.Int("read", len(rows)),
		zap.Int64("added", res.RowsAffected))
	return int(res.RowsAffected), nil
}
