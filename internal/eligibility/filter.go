package eligibility

import (
	"strings"
	"time"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/normalize"
)

// Verdict is the outcome of the five eligibility checks for one row.
// Use is true iff every check is true.
type Verdict struct {
	StatusEligible    bool `json:"status_eligible"`
	ProcedureEligible bool `json:"procedure_eligible"`
	SiteEligible      bool `json:"site_eligible"`
	NotDuplicate      bool `json:"not_duplicate"`
	TargetDateMatch   bool `json:"target_date_match"`
	Use               bool `json:"use"`
}

func (v Verdict) all() bool {
	return v.StatusEligible && v.ProcedureEligible && v.SiteEligible && v.NotDuplicate && v.TargetDateMatch
}

// Evaluation is one surviving export row joined with its reference data.
type Evaluation struct {
	Row domain.AppointmentRow

	// Phone is the canonical phone, empty when PhoneValid is false.
	Phone      string
	PhoneValid bool

	// DoctorName is the joined display name; DoctorKnown is false when the
	// doctor code has no (or an empty) mapping.
	DoctorName  string
	DoctorKnown bool

	// SiteAddress is the joined postal address, empty when unmapped.
	SiteAddress string

	Verdict Verdict
}

// Filter evaluates export rows against the reference tables.
type Filter struct {
	refs        *ReferenceTables
	countryCode string
}

// NewFilter creates a Filter. refs must not be mutated while the filter is in use.
func NewFilter(refs *ReferenceTables, countryCode string) *Filter {
	if countryCode == "" {
		countryCode = normalize.DefaultCountryCode
	}
	return &Filter{refs: refs, countryCode: countryCode}
}

// Evaluate runs the five checks over the whole batch for the given target date.
//
// Rows sharing a canonical phone are collapsed to the first occurrence in
// export order before the date check; the dropped duplicates do not appear in
// the result at all. Rows whose phone cannot be canonicalized are compared on
// their trimmed raw value instead.
//
// Missing reference entries default as follows: status and site mean "do not
// send", procedure means "send".
func (f *Filter) Evaluate(rows []domain.AppointmentRow, target time.Time) []Evaluation {
	seen := make(map[string]struct{}, len(rows))
	evals := make([]Evaluation, 0, len(rows))

	for _, row := range rows {
		phone, valid := normalize.Phone(row.Phone, f.countryCode)
		key := phone
		if !valid {
			key = "raw:" + strings.TrimSpace(row.Phone)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		eval := Evaluation{
			Row:        row,
			Phone:      phone,
			PhoneValid: valid,
		}
		eval.DoctorName, eval.DoctorKnown = f.lookupDoctor(row.DoctorCode)
		eval.SiteAddress = f.refs.Address[strings.TrimSpace(row.SiteID)]

		v := Verdict{NotDuplicate: true}
		v.StatusEligible = lookupFlag(f.refs.Status, row.StatusCode, false)
		v.ProcedureEligible = lookupFlag(f.refs.Procedure, row.ProcedureID, true)
		v.SiteEligible = lookupFlag(f.refs.Site, row.SiteID, false)
		if start, ok := normalize.ParseTimestamp(row.ScheduledStart); ok {
			v.TargetDateMatch = sameDay(start, target)
		}
		v.Use = v.all()
		eval.Verdict = v

		evals = append(evals, eval)
	}

	return evals
}

func (f *Filter) lookupDoctor(code string) (string, bool) {
	name, ok := f.refs.Doctor[strings.TrimSpace(code)]
	if !ok || strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}

func lookupFlag(table map[string]bool, key string, missing bool) bool {
	send, ok := table[strings.TrimSpace(key)]
	if !ok {
		return missing
	}
	return send
}

// Selected returns the evaluations whose verdict is Use, in order.
func Selected(evals []Evaluation) []Evaluation {
	var out []Evaluation
	for _, e := range evals {
		if e.Verdict.Use {
			out = append(out, e)
		}
	}
	return out
}
