package api

import (
	"time"

	"github.com/username/legal-deadline-engine/internal/calendar"
	"github.com/username/legal-deadline-engine/internal/daemon"
	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/internal/manager"
)

// Civil dates travel as YYYY-MM-DD; instants keep RFC3339.

type createDeadlineRequest struct {
	CaseID       string `json:"case_id"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Court        string `json:"court"`
	StartDate    string `json:"start_date"`
	BusinessDays int    `json:"business_days"`
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

type addDaysRequest struct {
	StartDate string `json:"start_date"`
	Days      int    `json:"days"`
	Court     string `json:"court"`
}

type addDaysResponse struct {
	StartDate string `json:"start_date"`
	Days      int    `json:"days"`
	Court     string `json:"court,omitempty"`
	DueDate   string `json:"due_date"`
}

type remainingResponse struct {
	Today         string              `json:"today"`
	DueDate       string              `json:"due_date"`
	Court         string              `json:"court,omitempty"`
	RemainingDays int                 `json:"remaining_days"`
	AlertLevel    deadline.AlertLevel `json:"alert_level"`
}

type deadlineDTO struct {
	ID           string          `json:"id"`
	CaseID       string          `json:"case_id,omitempty"`
	Type         string          `json:"type"`
	Description  string          `json:"description,omitempty"`
	Court        string          `json:"court,omitempty"`
	StartDate    string          `json:"start_date"`
	BusinessDays int             `json:"business_days"`
	DueDate      string          `json:"due_date"`
	OriginalDue  string          `json:"original_due_date,omitempty"`
	Status       deadline.Status `json:"status"`
	Suspended    bool            `json:"suspended"`
	FulfilledAt  *time.Time      `json:"fulfilled_at,omitempty"`
	OverdueAt    *time.Time      `json:"overdue_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toDeadlineDTO(dl deadline.Deadline) deadlineDTO {
	return deadlineDTO{
		ID:           dl.ID,
		CaseID:       dl.CaseID,
		Type:         dl.Type,
		Description:  dl.Description,
		Court:        dl.Court,
		StartDate:    formatDate(dl.StartDate),
		BusinessDays: dl.BusinessDays,
		DueDate:      formatDate(dl.DueAt),
		OriginalDue:  formatDatePtr(dl.OriginalDueAt),
		Status:       dl.Status,
		Suspended:    dl.Suspended,
		FulfilledAt:  dl.FulfilledAt,
		OverdueAt:    dl.OverdueAt,
		CreatedAt:    dl.CreatedAt,
		UpdatedAt:    dl.UpdatedAt,
	}
}

type suspensionDTO struct {
	ID            string     `json:"id"`
	DeadlineID    string     `json:"deadline_id"`
	Reason        string     `json:"reason"`
	RemainingDays int        `json:"remaining_days"`
	SuspendedAt   time.Time  `json:"suspended_at"`
	ResumedAt     *time.Time `json:"resumed_at,omitempty"`
}

func toSuspensionDTO(s deadline.Suspension) suspensionDTO {
	return suspensionDTO{
		ID:            s.ID,
		DeadlineID:    s.DeadlineID,
		Reason:        s.Reason,
		RemainingDays: s.RemainingDays,
		SuspendedAt:   s.SuspendedAt,
		ResumedAt:     s.ResumedAt,
	}
}

func toSuspensionDTOs(list []deadline.Suspension) []suspensionDTO {
	out := make([]suspensionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, toSuspensionDTO(s))
	}
	return out
}

type viewDTO struct {
	Deadline      deadlineDTO         `json:"deadline"`
	Today         string              `json:"today"`
	RemainingDays int                 `json:"remaining_days"`
	AlertLevel    deadline.AlertLevel `json:"alert_level"`
	Suspension    *suspensionDTO      `json:"suspension,omitempty"`
}

func toViewDTO(v deadline.View) viewDTO {
	out := viewDTO{
		Deadline:      toDeadlineDTO(v.Deadline),
		Today:         formatDate(v.Today),
		RemainingDays: v.RemainingDays,
		AlertLevel:    v.AlertLevel,
	}
	if v.Suspension != nil {
		s := toSuspensionDTO(*v.Suspension)
		out.Suspension = &s
	}
	return out
}

func toViewDTOs(views []deadline.View) []viewDTO {
	out := make([]viewDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toViewDTO(v))
	}
	return out
}

type holidayDTO struct {
	Name      string        `json:"name"`
	Date      string        `json:"date"`
	Scope     holiday.Scope `json:"scope"`
	Court     string        `json:"court,omitempty"`
	Recurring bool          `json:"recurring"`
}

func toHolidayDTOs(hs []holiday.Holiday) []holidayDTO {
	out := make([]holidayDTO, 0, len(hs))
	for _, h := range hs {
		out = append(out, holidayDTO{
			Name:      h.Name,
			Date:      formatDate(h.Date),
			Scope:     h.Scope,
			Court:     h.Court,
			Recurring: h.Recurring,
		})
	}
	return out
}

type dayDTO struct {
	Date      string   `json:"date"`
	Type      string   `json:"type"`
	IsWorkday bool     `json:"is_workday"`
	Holidays  []string `json:"holidays,omitempty"`
	Note      string   `json:"note,omitempty"`
}

type monthDTO struct {
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	Court    string   `json:"court,omitempty"`
	WorkDays int      `json:"work_days"`
	Weekends int      `json:"weekends"`
	Holidays int      `json:"holidays"`
	Days     []dayDTO `json:"days"`
}

func toMonthDTO(info calendar.MonthInfo, court string) monthDTO {
	out := monthDTO{
		Year:     info.Year,
		Month:    int(info.Month),
		Court:    court,
		WorkDays: info.WorkDays,
		Weekends: info.Weekends,
		Holidays: info.Holidays,
		Days:     make([]dayDTO, 0, len(info.Days)),
	}
	for _, d := range info.Days {
		day := dayDTO{
			Date:      formatDate(d.Date),
			Type:      d.Type.String(),
			IsWorkday: d.IsWorkday,
			Note:      d.Note,
		}
		for _, h := range d.Holidays {
			day.Holidays = append(day.Holidays, h.Name)
		}
		out.Days = append(out.Days, day)
	}
	return out
}

type healthDTO struct {
	Status string         `json:"status"`
	Today  string         `json:"today"`
	Daemon *daemon.Status `json:"daemon,omitempty"`
}

type sweepDTO struct {
	Today         string         `json:"today"`
	Checked       int            `json:"checked"`
	MarkedOverdue []string       `json:"marked_overdue"`
	Levels        map[string]int `json:"levels"`
	Urgent        []viewDTO      `json:"urgent"`
	DryRun        bool           `json:"dry_run"`
	Errors        int            `json:"errors"`
}

func toSweepDTO(s *manager.SweepSummary) sweepDTO {
	levels := make(map[string]int, len(s.Levels))
	for level, n := range s.Levels {
		levels[string(level)] = n
	}
	marked := s.MarkedOverdue
	if marked == nil {
		marked = []string{}
	}
	return sweepDTO{
		Today:         formatDate(s.Today),
		Checked:       s.Checked,
		MarkedOverdue: marked,
		Levels:        levels,
		Urgent:        toViewDTOs(s.Urgent),
		DryRun:        s.DryRun,
		Errors:        s.Errors,
	}
}
