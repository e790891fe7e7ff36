package testutil

import (
	"time"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/eligibility"
)

// ReferenceYAML is a small reference tables document covering both
// destination sites.
const ReferenceYAML = `
status:
  - {code: PROG, send: Si}
  - {code: ANUL, send: "No"}
procedure:
  - {id: "100", send: Si}
  - {id: "300", send: "No"}
site:
  - {site: SAB, send: Si}
  - {site: BOR, send: Si}
  - {site: OFF, send: "No"}
address:
  - {site: SAB, address: "C/ Sabino Arana, 12 - Bilbao"}
  - {site: BOR, address: "Carrer Bori i Fontestà, 20 - Barcelona"}
  - {site: OFF, address: "Oficina central"}
doctor:
  - {code: D1, name: "Dra. Lucía Núñez"}
  - {code: D2, name: "Dr. Íñigo Ruiz"}
`

// ReferenceTables parses ReferenceYAML, panicking on error.
func ReferenceTables() *eligibility.ReferenceTables {
	refs, err := eligibility.ParseReferenceTables([]byte(ReferenceYAML))
	if err != nil {
		panic(err)
	}
	return refs
}

// Appointment returns an export row at the Sabino site, eligible for every
// check when the target date is the day of start.
func Appointment(index int, phone string, start time.Time) domain.AppointmentRow {
	return domain.AppointmentRow{
		Index:          index,
		PatientName:    "MARTA GÓMEZ",
		Phone:          phone,
		StatusCode:     "PROG",
		ProcedureID:    "100",
		SiteID:         "SAB",
		DoctorCode:     "D1",
		ScheduledStart: start.Format("2006-01-02 15:04"),
	}
}

// At returns local wall-clock time on the given date.
func At(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}
