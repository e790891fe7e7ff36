package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"national", "612345678", "+34612345678", true},
		{"national float cell", "612345678.0", "+34612345678", true},
		{"with country code", "34612345678", "+34612345678", true},
		{"with plus", "+34612345678", "+34612345678", true},
		{"separators", "(612) 345-678", "+34612345678", true},
		{"padded", "  612 34 56 78 ", "+34612345678", true},
		{"eleven digits wrong prefix", "44612345678", "", false},
		{"too short", "61234567", "", false},
		{"too long", "3461234567890", "", false},
		{"letters", "61234567a", "", false},
		{"dots", "612.345.678", "", false},
		{"empty", "", "", false},
		{"only plus", "+", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Phone(tt.raw, DefaultCountryCode)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhone_EveryNineDigitInputGetsCountryCode(t *testing.T) {
	for _, national := range []string{"600000000", "912345678", "123456789", "000000000"} {
		got, ok := Phone(national, "34")
		assert.True(t, ok)
		assert.Equal(t, "+34"+national, got)
	}
}

func TestPhone_EmptyCountryCodeFallsBack(t *testing.T) {
	got, ok := Phone("612345678", "")
	assert.True(t, ok)
	assert.Equal(t, "+34612345678", got)
}

func TestStripAccents(t *testing.T) {
	assert.Equal(t, "Jose Maria Nunez", StripAccents("José María Núñez"))
	assert.Equal(t, "C/ Sabino Arana, 12", StripAccents("C/ Sabino Arana, 12"))
	assert.Equal(t, "Miercoles", StripAccents("Miércoles"))
	assert.Equal(t, "", StripAccents(""))
}

func TestStripAccents_Idempotent(t *testing.T) {
	inputs := []string{
		"", "plain ascii", "José María", "Ça va, Zoë?", "Mie©rcoles",
		"é́", "ñandú pingüino", "Ångström", "日本語", "Dvořák",
	}
	for _, s := range inputs {
		once := StripAccents(s)
		assert.Equal(t, once, StripAccents(once), "input %q", s)
	}
}

func TestFixWeekdayTypos(t *testing.T) {
	tests := map[string]string{
		"Miércoles, 7 de enero de 2026":    "Miercoles, 7 de enero de 2026",
		"Mierc©rcoles, 7 de enero de 2026": "Miercoles, 7 de enero de 2026",
		"Mia©rcoles, 7 de enero de 2026":   "Miercoles, 7 de enero de 2026",
		"Mie©rcoles, 7 de enero de 2026":   "Miercoles, 7 de enero de 2026",
		"Jueves, 8 de enero de 2026":       "Jueves, 8 de enero de 2026",
	}
	for in, want := range tests {
		assert.Equal(t, want, FixWeekdayTypos(in), "input %q", in)
	}
}

func TestTitleName(t *testing.T) {
	assert.Equal(t, "María López", TitleName("MARÍA LÓPEZ"))
	assert.Equal(t, "Ana", TitleName("  ana "))
}

func TestRenderDate(t *testing.T) {
	tests := []struct {
		raw  string
		want RenderedDate
	}{
		{"2026-01-05 09:30:00", RenderedDate{"01/05/26", "Lunes, 5 de enero de 2026", "09:30"}},
		{"2026-01-07 16:05", RenderedDate{"01/07/26", "Miercoles, 7 de enero de 2026", "16:05"}},
		{"2026-01-10T08:00:00", RenderedDate{"01/10/26", "Sabado, 10 de enero de 2026", "08:00"}},
		{"12/01/2026 10:15", RenderedDate{"12/01/26", "Martes, 1 de diciembre de 2026", "10:15"}},
		{"2026-03-01", RenderedDate{"03/01/26", "Domingo, 1 de marzo de 2026", "00:00"}},
		{"", RenderedDate{}},
		{"not a date", RenderedDate{}},
		{"2026-13-40 10:00", RenderedDate{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderDate(tt.raw))
		})
	}
}

func TestRenderDate_LongFormIsASCII(t *testing.T) {
	for day := 1; day <= 14; day++ {
		raw := time.Date(2026, time.January, day, 10, 0, 0, 0, time.Local).Format("2006-01-02 15:04")
		long := RenderDate(raw).Long
		for _, r := range long {
			assert.Less(t, r, rune(128), "non-ASCII rune in %q", long)
		}
		assert.False(t, strings.Contains(long, "©"))
	}
}

func TestISODate(t *testing.T) {
	assert.Equal(t, "2026-01-05", ISODate("01/05/26"))
	assert.Equal(t, "", ISODate(""))
	assert.Equal(t, "", ISODate("2026-01-05"))
}

func TestNameTables(t *testing.T) {
	assert.Equal(t, "lunes", WeekdayName(time.Monday))
	assert.Equal(t, "domingo", WeekdayName(time.Sunday))
	assert.Equal(t, "enero", MonthName(time.January))
	assert.Equal(t, "diciembre", MonthName(time.December))
	assert.Equal(t, "Ago", MonthAbbrev(time.August))
}
