package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/internal/daemon"
	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/internal/manager"
	"github.com/username/legal-deadline-engine/internal/metrics"
	"github.com/username/legal-deadline-engine/internal/store"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type brokenSource struct{}

func (brokenSource) Name() string { return "broken" }

func (brokenSource) Holidays(context.Context, time.Time, time.Time) ([]holiday.Holiday, error) {
	return nil, errors.New("connection refused")
}

var testHolidays = []holiday.Holiday{
	{Name: "Feriado", Date: dateutil.Date(2000, 1, 8), Scope: holiday.ScopeNational, Recurring: true},
	{Name: "Recesso", Date: dateutil.Date(2025, 1, 9), Scope: holiday.ScopeCourt, Court: "TJSP"},
}

func newTestServer(t *testing.T, src holiday.Source, origins ...string) (*Server, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC)}
	engine, err := deadline.NewEngine(time.FixedZone("BRT", -3*60*60), clk.Now)
	require.NoError(t, err)
	if src == nil {
		src = holiday.NewStaticSource("test", testHolidays)
	}
	m := metrics.New(false)
	mgr := manager.NewManager(engine, store.NewMemory(), src, m, zap.NewNop())
	return NewServer(mgr, m, zap.NewNop(), origins), clk
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestDeadlineLifecycle(t *testing.T) {
	srv, clk := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/deadlines",
		`{"case_id":"0001234-56.2025.8.26.0100","type":"contestacao","start_date":"2025-01-03"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created viewDTO
	decode(t, rec, &created)
	assert.Equal(t, "2025-01-27", created.Deadline.DueDate)
	assert.Equal(t, "2025-01-03", created.Deadline.StartDate)
	assert.Equal(t, 15, created.RemainingDays)
	assert.Equal(t, deadline.AlertFifteenDays, created.AlertLevel)
	id := created.Deadline.ID

	rec = do(t, srv, http.MethodGet, "/deadlines/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	clk.mu.Lock()
	clk.now = time.Date(2025, 1, 13, 12, 0, 0, 0, time.UTC)
	clk.mu.Unlock()

	rec = do(t, srv, http.MethodPost, "/deadlines/"+id+"/suspend", `{"reason":"recesso"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var suspended viewDTO
	decode(t, rec, &suspended)
	assert.Equal(t, deadline.AlertSuspended, suspended.AlertLevel)
	require.NotNil(t, suspended.Suspension)
	assert.Equal(t, 10, suspended.Suspension.RemainingDays)

	rec = do(t, srv, http.MethodPost, "/deadlines/"+id+"/suspend", `{"reason":"again"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPost, "/deadlines/"+id+"/resume", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resumed viewDTO
	decode(t, rec, &resumed)
	assert.Equal(t, "2025-01-27", resumed.Deadline.DueDate, "resumed on the day it was suspended")
	assert.Equal(t, "2025-01-27", resumed.Deadline.OriginalDue)

	rec = do(t, srv, http.MethodGet, "/deadlines/"+id+"/suspensions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []suspensionDTO
	decode(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "recesso", history[0].Reason)
	assert.NotNil(t, history[0].ResumedAt)

	rec = do(t, srv, http.MethodGet, "/deadlines/"+id+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []manager.Event
	decode(t, rec, &events)
	assert.Len(t, events, 3)

	rec = do(t, srv, http.MethodPost, "/deadlines/"+id+"/fulfil", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodPost, "/deadlines/"+id+"/fulfil", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodGet, "/deadlines?status=fulfilled", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []viewDTO
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, deadline.AlertFulfilled, list[0].AlertLevel)
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown type", http.MethodPost, "/deadlines", `{"type":"nope","start_date":"2025-01-03"}`, http.StatusBadRequest},
		{"custom without days", http.MethodPost, "/deadlines", `{"type":"custom","start_date":"2025-01-03"}`, http.StatusBadRequest},
		{"missing start", http.MethodPost, "/deadlines", `{"type":"apelacao"}`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/deadlines", `{"type":"apelacao","start_date":"2025-02-30"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/deadlines", `{"type":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/deadlines", `{"kind":"apelacao"}`, http.StatusBadRequest},
		{"not found", http.MethodGet, "/deadlines/missing", "", http.StatusNotFound},
		{"resume missing", http.MethodPost, "/deadlines/missing/resume", "", http.StatusNotFound},
		{"suspensions missing", http.MethodGet, "/deadlines/missing/suspensions", "", http.StatusNotFound},
		{"bad status filter", http.MethodGet, "/deadlines?status=lost", "", http.StatusBadRequest},
		{"bad suspended filter", http.MethodGet, "/deadlines?suspended=maybe", "", http.StatusBadRequest},
		{"negative days", http.MethodPost, "/business-days/add", `{"start_date":"2025-01-03","days":-1}`, http.StatusBadRequest},
		{"remaining without due", http.MethodGet, "/business-days/remaining", "", http.StatusBadRequest},
		{"holidays reversed", http.MethodGet, "/holidays?from=2025-12-31&to=2025-01-01", "", http.StatusBadRequest},
		{"month 13", http.MethodGet, "/calendar/2025/13", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			var body ErrorResponse
			decode(t, rec, &body)
			assert.Equal(t, http.StatusText(tt.want), body.Code)
		})
	}
}

func TestResumeActiveDeadlineConflicts(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/deadlines", `{"type":"apelacao","start_date":"2025-01-03"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var v viewDTO
	decode(t, rec, &v)

	rec = do(t, srv, http.MethodPost, "/deadlines/"+v.Deadline.ID+"/resume", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not suspended")
}

func TestInternalErrorsAreMasked(t *testing.T) {
	srv, _ := newTestServer(t, brokenSource{})

	rec := do(t, srv, http.MethodPost, "/deadlines", `{"type":"apelacao","start_date":"2025-01-03"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestBusinessDays(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/business-days/add", `{"start_date":"2025-01-03","days":15}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var added addDaysResponse
	decode(t, rec, &added)
	assert.Equal(t, "2025-01-27", added.DueDate)

	rec = do(t, srv, http.MethodPost, "/business-days/add", `{"start_date":"03/01/2025","days":15,"court":"TJSP"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &added)
	assert.Equal(t, "2025-01-28", added.DueDate)

	rec = do(t, srv, http.MethodGet, "/business-days/remaining?due_date=2025-01-07", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var remaining remainingResponse
	decode(t, rec, &remaining)
	assert.Equal(t, "2025-01-03", remaining.Today)
	assert.Equal(t, 2, remaining.RemainingDays)
	assert.Equal(t, deadline.AlertThreeDays, remaining.AlertLevel)
}

func TestHolidaysAndCalendar(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/holidays", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []holidayDTO
	decode(t, rec, &all)
	assert.Len(t, all, 2)

	rec = do(t, srv, http.MethodGet, "/holidays?court=TJRJ", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rj []holidayDTO
	decode(t, rec, &rj)
	require.Len(t, rj, 1)
	assert.Equal(t, "Feriado", rj[0].Name)

	rec = do(t, srv, http.MethodGet, "/calendar/2025/1?court=TJSP", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var month monthDTO
	decode(t, rec, &month)
	assert.Equal(t, 2, month.Holidays)
	assert.Len(t, month.Days, 31)
	assert.Equal(t, "holiday", month.Days[8].Type)
	assert.Equal(t, []string{"Recesso"}, month.Days[8].Holidays)
}

func TestTypesHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/deadline-types", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var types []deadline.TypeInfo
	decode(t, rec, &types)
	assert.Equal(t, deadline.Catalog(), types)

	rec = do(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"today":"2025-01-03"`)

	rec = do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/deadline-types"`)
}

func TestSweepEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/deadlines", `{"type":"custom","business_days":2,"start_date":"2025-01-02"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/sweep?dry_run=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary sweepDTO
	decode(t, rec, &summary)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Levels["threeDays"])
	assert.Empty(t, summary.MarkedOverdue)
}

type busyScheduler struct{}

func (busyScheduler) SweepNow(context.Context) (*manager.SweepSummary, error) {
	return nil, daemon.ErrSweepInProgress
}

func (busyScheduler) GetStatus() daemon.Status { return daemon.Status{Running: true} }

func TestSweepThroughScheduler(t *testing.T) {
	srv, clk := newTestServer(t, nil)
	d := daemon.NewScheduledDaemon(srv.mgr, 7, 0, time.FixedZone("BRT", -3*60*60), zap.NewNop())
	srv.WithScheduler(d)

	rec := do(t, srv, http.MethodPost, "/deadlines", `{"type":"custom","business_days":2,"start_date":"2025-01-02"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var health struct {
		Daemon map[string]interface{} `json:"daemon"`
	}
	rec = do(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &health)
	require.NotNil(t, health.Daemon)
	assert.Equal(t, "07:00", health.Daemon["daily_time"])
	assert.Equal(t, false, health.Daemon["running"])
	assert.NotContains(t, health.Daemon, "last_summary")

	clk.mu.Lock()
	clk.now = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	clk.mu.Unlock()

	// dry runs bypass the scheduler
	rec = do(t, srv, http.MethodPost, "/sweep?dry_run=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodGet, "/healthz", "")
	health.Daemon = nil
	decode(t, rec, &health)
	assert.NotContains(t, health.Daemon, "last_summary")

	rec = do(t, srv, http.MethodPost, "/sweep", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary sweepDTO
	decode(t, rec, &summary)
	assert.False(t, summary.DryRun)
	assert.Len(t, summary.MarkedOverdue, 1)

	rec = do(t, srv, http.MethodGet, "/healthz", "")
	health.Daemon = nil
	decode(t, rec, &health)
	last, ok := health.Daemon["last_summary"].(map[string]interface{})
	require.True(t, ok, rec.Body.String())
	assert.Len(t, last["marked_overdue"], 1)

	srv.WithScheduler(busyScheduler{})
	rec = do(t, srv, http.MethodPost, "/sweep", "")
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, nil, "https://app.example.com")

	req := httptest.NewRequest(http.MethodOptions, "/deadlines", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
