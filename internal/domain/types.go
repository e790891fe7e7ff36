package domain

// AppointmentRow is one scheduled visit as exported by the clinic system.
//
// All fields are kept as the raw strings found in the export. Normalization
// happens later so the original values remain available for auditing.
type AppointmentRow struct {
	// Index is the zero-based position of the row in the export.
	Index int

	PatientName    string
	Phone          string
	StatusCode     string
	ProcedureID    string
	SiteID         string
	DoctorCode     string
	ScheduledStart string
}

// ReminderContact is the normalized record pushed to the remote contact API.
// Identity is the Phone field.
type ReminderContact struct {
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`

	// DateNumeric is the compact month/day/2-digit-year form ("01/05/26").
	DateNumeric string `json:"date_numeric"`
	// DateISO is DateNumeric converted to YYYY-MM-DD, or "" when unparsable.
	DateISO string `json:"date_iso"`
	// DateLong is the localized long form ("Lunes, 5 de enero de 2026").
	DateLong string `json:"date_long"`
	// Time is the 24-hour HH:MM start time.
	Time string `json:"time"`

	Doctor   string `json:"doctor"`
	Location string `json:"location"`
}

// Partition is the ordered set of contacts routed to one destination workspace.
type Partition struct {
	Name     string
	Contacts []ReminderContact
}

// Phones returns the phone numbers of the partition's contacts in order.
func (p Partition) Phones() []string {
	phones := make([]string, len(p.Contacts))
	for i, c := range p.Contacts {
		phones[i] = c.Phone
	}
	return phones
}

// OutcomeStatus is the result class of one sync attempt.
type OutcomeStatus string

const (
	OutcomeOK    OutcomeStatus = "ok"
	OutcomeError OutcomeStatus = "error"
)

// SyncOutcome is the result of one remote operation for one contact.
type SyncOutcome struct {
	Phone  string        `json:"phone"`
	Status OutcomeStatus `json:"status"`

	// Detail is the opaque error descriptor (remote status code and body, or
	// transport error text). Empty on success.
	Detail string `json:"detail,omitempty"`
}
