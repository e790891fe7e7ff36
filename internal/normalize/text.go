package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// weekdayTypos maps the variants of "Miércoles" produced by the export's
// codepage mix-ups to the folded spelling. Keys are matched after
// StripAccents has run, so the accented form is listed only for completeness.
var weekdayTypos = []struct{ bad, good string }{
	{"Miércoles", "Miercoles"},
	{"Mierc©rcoles", "Miercoles"},
	{"Mia©rcoles", "Miercoles"},
	{"Mie©rcoles", "Miercoles"},
}

// StripAccents decomposes s (NFD), drops nonspacing marks and recomposes (NFC).
// StripAccents(StripAccents(s)) == StripAccents(s).
func StripAccents(s string) string {
	// Transformers carry state, so the chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FixWeekdayTypos strips accents and then repairs the known corrupted
// spellings of the Wednesday name. Order matters: the table is keyed on
// folded text.
func FixWeekdayTypos(s string) string {
	s = StripAccents(s)
	for _, fix := range weekdayTypos {
		s = strings.ReplaceAll(s, fix.bad, fix.good)
	}
	return s
}

// TitleName title-cases a patient or doctor name using Spanish casing rules.
func TitleName(s string) string {
	return cases.Title(language.Spanish).String(strings.TrimSpace(s))
}

// capitalize upper-cases the first letter of s and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := cases.Lower(language.Spanish).String(s)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}
