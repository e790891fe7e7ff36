package normalize

import (
	"fmt"
	"strings"
	"time"
)

// Name tables are fixed so rendering never depends on host locales.
// weekdayNames is indexed by ISO weekday minus one (Monday = 0).
var weekdayNames = [7]string{"lunes", "martes", "miércoles", "jueves", "viernes", "sábado", "domingo"}

var monthNames = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var monthAbbrevs = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// Layouts accepted for the scheduled start column, tried in order.
// Slash dates are month-first, matching the export's spreadsheet dialect.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02",
	"01/02/2006",
}

const (
	numericLayout = "01/02/06"
	isoLayout     = "2006-01-02"
	clockLayout   = "15:04"
)

// RenderedDate holds the three renderings of an appointment start.
type RenderedDate struct {
	Numeric string // "01/05/26"
	Long    string // "Lunes, 5 de enero de 2026"
	Clock   string // "09:30"
}

// ParseTimestamp parses a scheduled start cell as local wall-clock time.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RenderDate renders a scheduled start cell. Unparsable input yields the zero
// RenderedDate (three empty strings), not an error.
func RenderDate(raw string) RenderedDate {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return RenderedDate{}
	}

	long := fmt.Sprintf("%s, %d de %s de %d", WeekdayName(t.Weekday()), t.Day(), MonthName(t.Month()), t.Year())

	return RenderedDate{
		Numeric: t.Format(numericLayout),
		Long:    FixWeekdayTypos(capitalize(long)),
		Clock:   t.Format(clockLayout),
	}
}

// ISODate converts a compact numeric date ("01/05/26") to "2026-01-05".
// Empty or unparsable input yields "".
func ISODate(numeric string) string {
	numeric = strings.TrimSpace(numeric)
	if numeric == "" {
		return ""
	}
	t, err := time.Parse(numericLayout, numeric)
	if err != nil {
		return ""
	}
	return t.Format(isoLayout)
}

// WeekdayName returns the lower-case Spanish name of d.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[(int(d)+6)%7]
}

// MonthName returns the lower-case Spanish name of m.
func MonthName(m time.Month) string {
	return monthNames[m-1]
}

// MonthAbbrev returns the three-letter Spanish abbreviation of m ("Ene").
func MonthAbbrev(m time.Month) string {
	return monthAbbrevs[m-1]
}
