package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/internal/manager"
	"github.com/username/legal-deadline-engine/internal/store"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// GET /healthz
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthDTO{
		Status: "ok",
		Today:  formatDate(s.mgr.Today()),
	}
	if s.scheduler != nil {
		status := s.scheduler.GetStatus()
		resp.Daemon = &status
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /deadline-types
func (s *Server) listTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, deadline.Catalog())
}

// POST /deadlines
func (s *Server) createDeadline(w http.ResponseWriter, r *http.Request) {
	var body createDeadlineRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	start, err := parseDate("start_date", body.StartDate, true)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	v, err := s.mgr.Create(r.Context(), deadline.NewDeadlineRequest{
		CaseID:       body.CaseID,
		Type:         body.Type,
		Description:  body.Description,
		Court:        body.Court,
		StartDate:    start,
		BusinessDays: body.BusinessDays,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toViewDTO(v))
}

// GET /deadlines?case_id=&court=&status=&suspended=
func (s *Server) listDeadlines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	suspended, err := queryBool(r, "suspended")
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	filter := store.Filter{
		CaseID:    q.Get("case_id"),
		Court:     q.Get("court"),
		Status:    deadline.Status(q.Get("status")),
		Suspended: suspended,
	}
	switch filter.Status {
	case "", deadline.StatusPending, deadline.StatusFulfilled, deadline.StatusOverdue:
	default:
		s.writeAppError(w, r, fmt.Errorf("%w: unknown status %q", errBadRequest, filter.Status))
		return
	}

	views, err := s.mgr.List(r.Context(), filter)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewDTOs(views))
}

// GET /deadlines/{id}
func (s *Server) getDeadline(w http.ResponseWriter, r *http.Request) {
	v, err := s.mgr.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewDTO(v))
}

// POST /deadlines/{id}/suspend
func (s *Server) suspendDeadline(w http.ResponseWriter, r *http.Request) {
	var body suspendRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			s.writeAppError(w, r, err)
			return
		}
	}
	v, err := s.mgr.Suspend(r.Context(), mux.Vars(r)["id"], body.Reason)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewDTO(v))
}

// POST /deadlines/{id}/resume
func (s *Server) resumeDeadline(w http.ResponseWriter, r *http.Request) {
	v, err := s.mgr.Resume(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewDTO(v))
}

// POST /deadlines/{id}/fulfil
func (s *Server) fulfilDeadline(w http.ResponseWriter, r *http.Request) {
	v, err := s.mgr.Fulfil(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewDTO(v))
}

// GET /deadlines/{id}/suspensions
func (s *Server) listSuspensions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	// 404 for unknown deadlines rather than an empty list
	if _, err := s.mgr.Get(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	list, err := s.mgr.Suspensions(r.Context(), id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSuspensionDTOs(list))
}

// GET /deadlines/{id}/history
func (s *Server) deadlineHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.mgr.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// POST /sweep?dry_run=true
func (s *Server) sweep(w http.ResponseWriter, r *http.Request) {
	dryRun, err := queryBool(r, "dry_run")
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	var summary *manager.SweepSummary
	if s.scheduler != nil && (dryRun == nil || !*dryRun) {
		summary, err = s.scheduler.SweepNow(r.Context())
	} else {
		summary, err = s.mgr.Sweep(r.Context(), dryRun != nil && *dryRun)
	}
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSweepDTO(summary))
}

// POST /business-days/add
func (s *Server) addBusinessDays(w http.ResponseWriter, r *http.Request) {
	var body addDaysRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	start, err := parseDate("start_date", body.StartDate, true)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	due, err := s.mgr.AddBusinessDays(r.Context(), start, body.Days, body.Court)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addDaysResponse{
		StartDate: formatDate(start),
		Days:      body.Days,
		Court:     body.Court,
		DueDate:   formatDate(due),
	})
}

// GET /business-days/remaining?due_date=&court=
func (s *Server) remainingBusinessDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	due, err := parseDate("due_date", q.Get("due_date"), true)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	court := q.Get("court")
	remaining, level, err := s.mgr.Remaining(r.Context(), due, court)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, remainingResponse{
		Today:         formatDate(s.mgr.Today()),
		DueDate:       formatDate(due),
		Court:         court,
		RemainingDays: remaining,
		AlertLevel:    level,
	})
}

// GET /holidays?from=&to=&court=
// Without from/to the current year is listed. With court only the holidays
// applicable to that court are returned.
func (s *Server) listHolidays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := s.mgr.Today().Year()

	from, err := parseDate("from", q.Get("from"), false)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	to, err := parseDate("to", q.Get("to"), false)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if from.IsZero() {
		from = dateutil.Date(year, time.January, 1)
	}
	if to.IsZero() {
		to = dateutil.Date(from.Year(), time.December, 31)
	}

	hs, err := s.mgr.Holidays(r.Context(), from, to)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if court := q.Get("court"); court != "" {
		filtered := make([]holiday.Holiday, 0, len(hs))
		for _, h := range hs {
			if h.Applies(court) {
				filtered = append(filtered, h)
			}
		}
		hs = filtered
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(hs))
}

// GET /calendar/{year}/{month}?court=
func (s *Server) monthCalendar(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, _ := strconv.Atoi(vars["year"])
	month, _ := strconv.Atoi(vars["month"])
	if month < 1 || month > 12 {
		s.writeAppError(w, r, fmt.Errorf("%w: month must be 1-12", errBadRequest))
		return
	}
	court := r.URL.Query().Get("court")

	first := dateutil.Date(year, time.Month(month), 1)
	last := first.AddDate(0, 1, -1)
	cal, err := s.mgr.Calendar(r.Context(), court, first, last)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthDTO(cal.MonthInfo(year, time.Month(month)), court))
}
