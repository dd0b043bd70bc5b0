package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

func d(y int, m time.Month, day int) time.Time { return dateutil.Date(y, m, day) }

// A holiday mix used by the property tests: recurring national, one-off
// national, a recurring municipal holiday and a court recess.
var sampleHolidays = []holiday.Holiday{
	{Name: "Natal", Date: d(2000, 12, 25), Scope: holiday.ScopeNational, Recurring: true},
	{Name: "Confraternização", Date: d(2000, 1, 1), Scope: holiday.ScopeNational, Recurring: true},
	{Name: "Tiradentes", Date: d(2000, 4, 21), Scope: holiday.ScopeNational, Recurring: true},
	{Name: "Carnaval", Date: d(2025, 3, 4), Scope: holiday.ScopeNational},
	{Name: "Aniversário de SP", Date: d(2000, 1, 25), Scope: holiday.ScopeMunicipal, Court: "TJSP", Recurring: true},
	{Name: "Recesso", Date: d(2025, 12, 22), Scope: holiday.ScopeCourt, Court: "TJSP"},
	{Name: "Recesso", Date: d(2025, 12, 23), Scope: holiday.ScopeCourt, Court: "TJSP"},
}

var courts = []string{"", "TJSP", "TRF3"}

func TestAddBusinessDays(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		n        int
		holidays []holiday.Holiday
		court    string
		want     time.Time
	}{
		{"zero days is a no-op", d(2025, 1, 4), 0, nil, "", d(2025, 1, 4)},
		{"one day from Monday", d(2025, 1, 6), 1, nil, "", d(2025, 1, 7)},
		{"one day from Friday skips the weekend", d(2025, 1, 10), 1, nil, "", d(2025, 1, 13)},
		{"one day from Saturday", d(2025, 1, 11), 1, nil, "", d(2025, 1, 13)},
		{"five days is one week", d(2025, 1, 6), 5, nil, "", d(2025, 1, 13)},
		{
			// Fri 3 Jan; Wed 8 Jan is a holiday. Working days: 6,7,9,10,13,...,24,27.
			"fifteen days from Friday over a Wednesday holiday",
			d(2025, 1, 3), 15,
			[]holiday.Holiday{{Name: "Feriado", Date: d(2000, 1, 8), Scope: holiday.ScopeNational, Recurring: true}},
			"", d(2025, 1, 27),
		},
		{"court holiday applies to its court", d(2025, 12, 19), 1, sampleHolidays, "TJSP", d(2025, 12, 24)},
		{"court holiday ignored for other court", d(2025, 12, 19), 1, sampleHolidays, "TRF3", d(2025, 12, 22)},
		{"court holiday ignored without court", d(2025, 12, 19), 1, sampleHolidays, "", d(2025, 12, 22)},
		{"year boundary", d(2025, 12, 31), 1, sampleHolidays, "", d(2026, 1, 2)},
		{"clock is dropped", time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC), 1, nil, "", d(2025, 1, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddBusinessDays(tt.start, tt.n, tt.holidays, tt.court)
			require.NoError(t, err)
			assert.Equal(t, dateutil.Format(tt.want), dateutil.Format(got))
		})
	}
}

func TestAddBusinessDays_InvalidInput(t *testing.T) {
	_, err := AddBusinessDays(d(2025, 1, 6), -1, nil, "")
	assert.ErrorIs(t, err, ErrNegativeDays)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AddBusinessDays(time.Time{}, 1, nil, "")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = AddBusinessDays(d(2025, 1, 6), MaxBusinessDays+1, nil, "")
	assert.ErrorIs(t, err, ErrTooManyDays)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AddBusinessDays(d(2025, 1, 6), MaxBusinessDays, nil, "")
	assert.NoError(t, err)
}

func TestAddBusinessDays_NoWorkdays(t *testing.T) {
	var every []holiday.Holiday
	for day := d(2000, 1, 1); day.Year() == 2000; day = dateutil.NextDay(day) {
		every = append(every, holiday.Holiday{Name: "x", Date: day, Scope: holiday.ScopeNational, Recurring: true})
	}
	_, err := AddBusinessDays(d(2025, 1, 6), 1, every, "")
	assert.ErrorIs(t, err, ErrNoWorkdays)
}

func TestRemainingBusinessDays(t *testing.T) {
	monday := d(2025, 1, 6)
	tests := []struct {
		name  string
		today time.Time
		due   time.Time
		want  int
	}{
		{"due today", monday, monday, 0},
		{"due yesterday", monday, d(2025, 1, 5), 0},
		{"due long ago", monday, d(2024, 6, 1), 0},
		{"due tomorrow", monday, d(2025, 1, 7), 1},
		{"due Thursday", monday, d(2025, 1, 9), 3},
		{"due Friday", monday, d(2025, 1, 10), 4},
		{"due next Monday", monday, d(2025, 1, 13), 5},
		{"due on Saturday counts through Friday", monday, d(2025, 1, 11), 4},
		{"today on weekend", d(2025, 1, 4), monday, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RemainingBusinessDays(tt.today, tt.due, nil, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemainingBusinessDays_InvalidInput(t *testing.T) {
	_, err := RemainingBusinessDays(time.Time{}, d(2025, 1, 6), nil, "")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestProperty_ZeroIsIdentity(t *testing.T) {
	for _, court := range courts {
		cal := NewBusinessCalendar(sampleHolidays, court)
		for day := d(2025, 1, 1); day.Year() == 2025; day = dateutil.NextDay(day) {
			got, err := cal.AddBusinessDays(day, 0)
			require.NoError(t, err)
			require.Equal(t, day, got)
		}
	}
}

func TestProperty_RoundTrip(t *testing.T) {
	for _, court := range courts {
		cal := NewBusinessCalendar(sampleHolidays, court)
		for _, today := range []time.Time{d(2025, 1, 3), d(2025, 3, 1), d(2025, 12, 19)} {
			for n := 0; n <= 40; n++ {
				due, err := cal.AddBusinessDays(today, n)
				require.NoError(t, err)

				remaining, err := cal.RemainingBusinessDays(today, due)
				require.NoError(t, err)
				require.Equal(t, n, remaining, "court=%q today=%s n=%d", court, dateutil.Format(today), n)

				back, err := cal.AddBusinessDays(today, remaining)
				require.NoError(t, err)
				require.Equal(t, due, back)
			}
		}
	}
}

func TestProperty_MonotonicAndNeverOnNonWorkday(t *testing.T) {
	for _, court := range courts {
		cal := NewBusinessCalendar(sampleHolidays, court)
		start := d(2025, 12, 19)
		prev := start
		for n := 1; n <= 30; n++ {
			got, err := cal.AddBusinessDays(start, n)
			require.NoError(t, err)
			require.True(t, got.After(prev), "n=%d must land after n=%d", n, n-1)
			require.False(t, dateutil.IsWeekend(got), "landed on weekend %s", dateutil.Format(got))
			require.True(t, cal.IsWorkday(got), "landed on holiday %s", dateutil.Format(got))
			prev = got
		}
	}
}

func TestProperty_RecurringNationalExcludedEveryYear(t *testing.T) {
	holidays := []holiday.Holiday{{Name: "Tiradentes", Date: d(2000, 4, 21), Scope: holiday.ScopeNational, Recurring: true}}
	for year := 2020; year <= 2035; year++ {
		for _, court := range courts {
			cal := NewBusinessCalendar(holidays, court)
			assert.False(t, cal.IsWorkday(d(year, 4, 21)), "year %d court %q", year, court)
		}
	}
}

func TestBusinessCalendar_DayInfo(t *testing.T) {
	cal := NewBusinessCalendar(sampleHolidays, "TJSP")

	info := cal.DayInfo(d(2025, 12, 22))
	assert.Equal(t, DayTypeHoliday, info.Type)
	assert.False(t, info.IsWorkday)
	assert.Equal(t, "Recesso", info.Note)

	// 2027-12-25 is a Saturday
	info = cal.DayInfo(d(2027, 12, 25))
	assert.Equal(t, DayTypeWeekend, info.Type)
	assert.Len(t, info.Holidays, 1)

	info = cal.DayInfo(d(2025, 12, 26))
	assert.Equal(t, DayTypeWorkday, info.Type)
	assert.True(t, info.IsWorkday)
	assert.Empty(t, info.Note)
}

func TestBusinessCalendar_MonthInfo(t *testing.T) {
	// December 2025: 23 weekdays, 8 weekend days; Natal (Thu 25) and two recess days for TJSP
	tests := []struct {
		court    string
		workDays int
		holidays int
	}{
		{"", 22, 1},
		{"TJSP", 20, 3},
	}

	for _, tt := range tests {
		t.Run("court="+tt.court, func(t *testing.T) {
			info := NewBusinessCalendar(sampleHolidays, tt.court).MonthInfo(2025, time.December)
			assert.Len(t, info.Days, 31)
			assert.Equal(t, 8, info.Weekends)
			assert.Equal(t, tt.workDays, info.WorkDays)
			assert.Equal(t, tt.holidays, info.Holidays)
		})
	}

	cal := NewBusinessCalendar(nil, "")
	assert.Len(t, cal.MonthInfo(2024, time.February).Days, 29)
	assert.Len(t, cal.MonthInfo(2025, time.February).Days, 28)
}
