package holiday

import (
	"context"
	"time"

	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// blackConsciousnessYear is the first year Nov 20 is a national holiday (Lei 14.759/2023)
const blackConsciousnessYear = 2024

var fixedNational = []struct {
	month time.Month
	day   int
	name  string
}{
	{time.January, 1, "Confraternização Universal"},
	{time.April, 21, "Tiradentes"},
	{time.May, 1, "Dia do Trabalho"},
	{time.September, 7, "Independência do Brasil"},
	{time.October, 12, "Nossa Senhora Aparecida"},
	{time.November, 2, "Finados"},
	{time.November, 15, "Proclamação da República"},
	{time.December, 25, "Natal"},
}

// NationalBR computes Brazilian national holidays without any I/O
type NationalBR struct{}

func (NationalBR) Name() string { return "national-br" }

// Holidays returns the fixed holidays as recurring entries plus the
// Easter-derived ones for every year in range
func (NationalBR) Holidays(_ context.Context, from, to time.Time) ([]Holiday, error) {
	out := make([]Holiday, 0, len(fixedNational))
	for _, f := range fixedNational {
		out = append(out, Holiday{
			Name:      f.name,
			Date:      dateutil.Date(2000, f.month, f.day),
			Scope:     ScopeNational,
			Recurring: true,
		})
	}
	for year := from.Year(); year <= to.Year(); year++ {
		out = append(out, movableNational(year)...)
	}
	return InRange(out, from, to), nil
}

func movableNational(year int) []Holiday {
	easter := EasterSunday(year)
	out := []Holiday{
		{Name: "Carnaval", Date: easter.AddDate(0, 0, -48), Scope: ScopeNational},
		{Name: "Carnaval", Date: easter.AddDate(0, 0, -47), Scope: ScopeNational},
		{Name: "Sexta-feira Santa", Date: easter.AddDate(0, 0, -2), Scope: ScopeNational},
		{Name: "Corpus Christi", Date: easter.AddDate(0, 0, 60), Scope: ScopeNational},
	}
	if year >= blackConsciousnessYear {
		out = append(out, Holiday{
			Name:  "Dia Nacional de Zumbi e da Consciência Negra",
			Date:  dateutil.Date(year, time.November, 20),
			Scope: ScopeNational,
		})
	}
	return out
}

// EasterSunday returns the Gregorian Easter Sunday of year
// (Meeus/Jones/Butcher algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return dateutil.Date(year, time.Month(month), day)
}
