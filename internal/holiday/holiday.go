package holiday

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// Scope is the jurisdictional breadth of a holiday
type Scope string

const (
	ScopeNational  Scope = "national"
	ScopeState     Scope = "state"
	ScopeMunicipal Scope = "municipal"
	ScopeCourt     Scope = "court"
)

// ErrInvalidHoliday is returned by Validate and by the parsers
var ErrInvalidHoliday = errors.New("invalid holiday")

// ParseScope accepts the lowercase scope names
func ParseScope(s string) (Scope, error) {
	switch scope := Scope(strings.ToLower(strings.TrimSpace(s))); scope {
	case ScopeNational, ScopeState, ScopeMunicipal, ScopeCourt:
		return scope, nil
	default:
		return "", fmt.Errorf("%w: unknown scope %q", ErrInvalidHoliday, s)
	}
}

// Holiday is a non-working day.
// For recurring holidays only the month and day of Date are significant.
type Holiday struct {
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Scope     Scope     `json:"scope"`
	Court     string    `json:"court,omitempty"`
	Recurring bool      `json:"recurring"`
}

// Validate checks the holiday is usable by the resolver
func (h Holiday) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidHoliday)
	}
	if h.Date.IsZero() {
		return fmt.Errorf("%w: %q has no date", ErrInvalidHoliday, h.Name)
	}
	if _, err := ParseScope(string(h.Scope)); err != nil {
		return err
	}
	if h.Scope != ScopeNational && strings.TrimSpace(h.Court) == "" {
		return fmt.Errorf("%w: %q has scope %s but no court", ErrInvalidHoliday, h.Name, h.Scope)
	}
	return nil
}

// Applies reports whether the holiday is in force for deadlines of court.
// National holidays apply everywhere; narrower scopes need an exact court match,
// so an empty court only ever sees national holidays.
func (h Holiday) Applies(court string) bool {
	if h.Scope == ScopeNational {
		return true
	}
	return court != "" && h.Court == court
}

// FallsOn reports whether the holiday's date matches date, ignoring scope
func (h Holiday) FallsOn(date time.Time) bool {
	if h.Recurring {
		return dateutil.SameMonthDay(date, h.Date)
	}
	return dateutil.IsSameDay(date, h.Date)
}

// OccursOn combines Applies and FallsOn
func (h Holiday) OccursOn(date time.Time, court string) bool {
	return h.Applies(court) && h.FallsOn(date)
}

// IsHoliday reports whether any applicable holiday falls on date.
// All applicable holidays are unioned; there is no priority between scopes.
func IsHoliday(date time.Time, holidays []Holiday, court string) bool {
	for _, h := range holidays {
		if h.OccursOn(date, court) {
			return true
		}
	}
	return false
}

// InRange keeps recurring holidays and the one-off holidays dated within [from, to]
func InRange(holidays []Holiday, from, to time.Time) []Holiday {
	out := make([]Holiday, 0, len(holidays))
	for _, h := range holidays {
		if h.Recurring || (!dateutil.Before(h.Date, from) && !dateutil.After(h.Date, to)) {
			out = append(out, h)
		}
	}
	return out
}

// Sort orders holidays by month/day for recurring ones and by full date otherwise
func Sort(holidays []Holiday) {
	sort.SliceStable(holidays, func(i, j int) bool {
		a, b := holidays[i].Date, holidays[j].Date
		if a.Month() != b.Month() {
			return a.Month() < b.Month()
		}
		if a.Day() != b.Day() {
			return a.Day() < b.Day()
		}
		return a.Year() < b.Year()
	})
}

type monthDay struct {
	month time.Month
	day   int
}

// Set is an indexed holiday list with the same matching rules as IsHoliday
type Set struct {
	recurring map[monthDay][]Holiday
	once      map[string][]Holiday // key: YYYY-MM-DD
}

// NewSet indexes holidays. Dates are normalized to civil dates.
func NewSet(holidays []Holiday) *Set {
	s := &Set{
		recurring: make(map[monthDay][]Holiday),
		once:      make(map[string][]Holiday),
	}
	for _, h := range holidays {
		h.Date = dateutil.Civil(h.Date)
		if h.Recurring {
			key := monthDay{h.Date.Month(), h.Date.Day()}
			s.recurring[key] = append(s.recurring[key], h)
		} else {
			key := dateutil.Format(h.Date)
			s.once[key] = append(s.once[key], h)
		}
	}
	return s
}

// IsHoliday reports whether any applicable holiday falls on date
func (s *Set) IsHoliday(date time.Time, court string) bool {
	for _, h := range s.candidates(date) {
		if h.Applies(court) {
			return true
		}
	}
	return false
}

// Matching returns every applicable holiday falling on date
func (s *Set) Matching(date time.Time, court string) []Holiday {
	var out []Holiday
	for _, h := range s.candidates(date) {
		if h.Applies(court) {
			out = append(out, h)
		}
	}
	return out
}

func (s *Set) candidates(date time.Time) []Holiday {
	recurring := s.recurring[monthDay{date.Month(), date.Day()}]
	once := s.once[dateutil.Format(date)]
	if len(once) == 0 {
		return recurring
	}
	if len(recurring) == 0 {
		return once
	}
	out := make([]Holiday, 0, len(recurring)+len(once))
	out = append(out, recurring...)
	return append(out, once...)
}
