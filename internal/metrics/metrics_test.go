package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetrics_Counters(t *testing.T) {
	m := New(false)

	m.DeadlineCreated("contestacao")
	m.DeadlineCreated("contestacao")
	m.Transition("suspend", nil)
	m.Transition("resume", errors.New("nope"))
	m.HolidaySourceError("brasilapi")

	out := scrape(t, m)
	assert.Contains(t, out, `deadline_engine_deadlines_created_total{type="contestacao"} 2`)
	assert.Contains(t, out, `deadline_engine_transitions_total{action="suspend",result="ok"} 1`)
	assert.Contains(t, out, `deadline_engine_transitions_total{action="resume",result="error"} 1`)
	assert.Contains(t, out, `deadline_engine_holiday_source_errors_total{source="brasilapi"} 1`)
}

func TestMetrics_SetAlertLevelsResets(t *testing.T) {
	m := New(false)

	m.SetAlertLevels(map[string]int{"overdue": 2, "threeDays": 1}, time.Unix(100, 0))
	m.SetAlertLevels(map[string]int{"onTrack": 4}, time.Unix(200, 0))

	out := scrape(t, m)
	assert.Contains(t, out, `deadline_engine_alert_level_deadlines{level="onTrack"} 4`)
	assert.NotContains(t, out, `level="overdue"`)
	assert.Contains(t, out, "deadline_engine_last_sweep_timestamp_seconds 200")
}

func TestMetrics_HTTPHistogram(t *testing.T) {
	m := New(false)
	m.ObserveHTTP(http.MethodGet, "/deadlines", 200, 15*time.Millisecond)

	out := scrape(t, m)
	assert.Contains(t, out, `deadline_engine_http_request_duration_seconds_count{method="GET",route="/deadlines",status="200"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DeadlineCreated("x")
		m.Transition("suspend", nil)
		m.HolidaySourceError("file")
		m.SetAlertLevels(map[string]int{"overdue": 1}, time.Now())
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_RuntimeCollectors(t *testing.T) {
	out := scrape(t, New(true))
	assert.Contains(t, out, "go_goroutines")
}
