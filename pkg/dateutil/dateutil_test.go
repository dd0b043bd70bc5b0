package dateutil

import (
	"testing"
	"time"
)

func TestCivil(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	input := time.Date(2025, 1, 15, 23, 30, 0, 0, saoPaulo) // 02:30 UTC on the 16th
	expected := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	result := Civil(input)

	if !result.Equal(expected) {
		t.Errorf("Civil(%v) = %v, want %v", input, result, expected)
	}
	if result.Location() != time.UTC {
		t.Errorf("Civil(%v) location = %v, want UTC", input, result.Location())
	}
}

func TestNextAndPreviousDay(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		next     time.Time
		previous time.Time
	}{
		{
			name:     "Mid month",
			input:    Date(2025, 1, 15),
			next:     Date(2025, 1, 16),
			previous: Date(2025, 1, 14),
		},
		{
			name:     "Year boundary",
			input:    Date(2024, 12, 31),
			next:     Date(2025, 1, 1),
			previous: Date(2024, 12, 30),
		},
		{
			name:     "Leap day",
			input:    Date(2024, 2, 29),
			next:     Date(2024, 3, 1),
			previous: Date(2024, 2, 28),
		},
		{
			name:     "Clock is dropped",
			input:    time.Date(2025, 3, 1, 18, 45, 0, 0, time.UTC),
			next:     Date(2025, 3, 2),
			previous: Date(2025, 2, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDay(tt.input); !got.Equal(tt.next) {
				t.Errorf("NextDay(%v) = %v, want %v", Format(tt.input), Format(got), Format(tt.next))
			}
			if got := PreviousDay(tt.input); !got.Equal(tt.previous) {
				t.Errorf("PreviousDay(%v) = %v, want %v", Format(tt.input), Format(got), Format(tt.previous))
			}
		})
	}
}

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  bool
	}{
		{"Saturday is weekend", time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC), true},
		{"Sunday is weekend", time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), true},
		{"Monday is not weekend", time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), false},
		{"Friday is not weekend", time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsWeekend(tt.input)

			if result != tt.want {
				t.Errorf("IsWeekend(%v) = %v, want %v",
					tt.input.Format("2006-01-02 Mon"), result, tt.want)
			}
		})
	}
}

func TestIsSameDay(t *testing.T) {
	tests := []struct {
		name  string
		date1 time.Time
		date2 time.Time
		want  bool
	}{
		{
			"Same date different time",
			time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC),
			true,
		},
		{
			"Different date",
			time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 16, 10, 0, 0, 0, time.UTC),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsSameDay(tt.date1, tt.date2)

			if result != tt.want {
				t.Errorf("IsSameDay(%v, %v) = %v, want %v",
					tt.date1, tt.date2, result, tt.want)
			}
		})
	}
}

func TestSameMonthDay(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want bool
	}{
		{"Same month/day different year", Date(2020, 12, 25), Date(2031, 12, 25), true},
		{"Same day different month", Date(2025, 11, 25), Date(2025, 12, 25), false},
		{"Leap day vs March 1st", Date(2024, 2, 29), Date(2025, 3, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameMonthDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameMonthDay(%v, %v) = %v, want %v", Format(tt.a), Format(tt.b), got, tt.want)
			}
		})
	}
}

func TestBeforeAfter(t *testing.T) {
	morning := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 1, 15, 22, 0, 0, 0, time.UTC)

	if Before(morning, evening) || After(evening, morning) {
		t.Errorf("same civil day must not compare as before/after")
	}
	if !Before(morning, Date(2025, 1, 16)) {
		t.Errorf("Before(15th, 16th) = false, want true")
	}
	if !After(Date(2025, 2, 2), evening) {
		t.Errorf("After(Feb 2nd, 15th) = false, want true")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			"ISO format YYYY-MM-DD",
			"2025-01-15",
			time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"Brazilian format DD/MM/YYYY",
			"15/01/2025",
			time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"Dotted format DD.MM.YYYY",
			"15.01.2025",
			time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"RFC3339 keeps the local calendar date",
			"2025-01-15T23:30:00-03:00",
			time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"ISO with time drops the clock",
			"2025-01-15T10:30:00",
			time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"Garbage",
			"next tuesday",
			time.Time{},
			true,
		},
		{
			"Impossible date",
			"2025-02-30",
			time.Time{},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDate(tt.input)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}

			if !tt.wantErr && !result.Equal(tt.want) {
				t.Errorf("ParseDate(%v) = %v, want %v", tt.input, result, tt.want)
			}
		})
	}
}

func TestTodayAt(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	// 01:00 UTC on the 16th is still the 15th in Sao Paulo
	now := time.Date(2025, 1, 16, 1, 0, 0, 0, time.UTC)

	if got := TodayAt(now, saoPaulo); !got.Equal(Date(2025, 1, 15)) {
		t.Errorf("TodayAt(BRT) = %v, want 2025-01-15", Format(got))
	}
	if got := TodayAt(now, time.UTC); !got.Equal(Date(2025, 1, 16)) {
		t.Errorf("TodayAt(UTC) = %v, want 2025-01-16", Format(got))
	}
}
