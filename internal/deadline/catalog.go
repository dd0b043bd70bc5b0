package deadline

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/username/legal-deadline-engine/internal/calendar"
)

// TypeCustom is the sentinel type whose day count is supplied by the caller
const TypeCustom = "custom"

// TypeInfo is one entry of the deadline type catalog
type TypeInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	DefaultDays int    `json:"default_days"`
}

// Day counts follow the Código de Processo Civil (Lei 13.105/2015).
var catalog = []TypeInfo{
	{Key: "contestacao", Label: "Contestação", DefaultDays: 15},
	{Key: "replica", Label: "Réplica", DefaultDays: 15},
	{Key: "apelacao", Label: "Apelação", DefaultDays: 15},
	{Key: "contrarrazoes", Label: "Contrarrazões", DefaultDays: 15},
	{Key: "embargos_declaracao", Label: "Embargos de Declaração", DefaultDays: 5},
	{Key: "agravo_instrumento", Label: "Agravo de Instrumento", DefaultDays: 15},
	{Key: "agravo_interno", Label: "Agravo Interno", DefaultDays: 15},
	{Key: "recurso_especial", Label: "Recurso Especial", DefaultDays: 15},
	{Key: "recurso_extraordinario", Label: "Recurso Extraordinário", DefaultDays: 15},
	{Key: "impugnacao_cumprimento", Label: "Impugnação ao Cumprimento de Sentença", DefaultDays: 15},
	{Key: "manifestacao", Label: "Manifestação", DefaultDays: 5},
	{Key: TypeCustom, Label: "Personalizado", DefaultDays: 0},
}

// Catalog returns the deadline types in display order
func Catalog() []TypeInfo {
	out := make([]TypeInfo, len(catalog))
	copy(out, catalog)
	return out
}

// LookupType finds a catalog entry by key. Case, accents and word
// separators are ignored, so "Contestação" and "embargos de declaração" match.
func LookupType(key string) (TypeInfo, bool) {
	key = foldKey(key)
	for _, t := range catalog {
		if t.Key == key {
			return t, true
		}
	}
	return TypeInfo{}, false
}

// ResolveDays returns the business-day count for a new deadline of type key.
// Custom deadlines take days, which must be positive; other types use the
// catalog default and ignore days.
func ResolveDays(key string, days int) (TypeInfo, int, error) {
	info, ok := LookupType(key)
	if !ok {
		return TypeInfo{}, 0, fmt.Errorf("%w: %q", ErrUnknownType, key)
	}
	if info.Key != TypeCustom {
		return info, info.DefaultDays, nil
	}
	if days <= 0 {
		return TypeInfo{}, 0, fmt.Errorf("%w: custom deadline needs a count, got %d", ErrInvalidDays, days)
	}
	if days > calendar.MaxBusinessDays {
		return TypeInfo{}, 0, fmt.Errorf("%w (got %d)", ErrTooManyDays, days)
	}
	return info, days, nil
}

// foldKey lowercases key, strips diacritics and joins words with underscores
func foldKey(key string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(key)))
	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
		case r == ' ' || r == '-':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
