// Package projector turns selected eligibility evaluations into normalized
// reminder contacts and routes them to destination partitions.
package projector

import (
	"strings"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/eligibility"
	"github.com/roach88/remindsync/internal/normalize"
)

// Route sends contacts whose folded location contains Match (case-insensitive)
// to the partition Name.
type Route struct {
	Name  string
	Match string
}

// Projector builds ReminderContacts. It is safe for concurrent use.
type Projector struct {
	routes        []Route
	doctorAliases map[string]string
}

// New creates a Projector. Routes are tried in order; doctorAliases maps a
// folded doctor name to its corrected spelling.
func New(routes []Route, doctorAliases map[string]string) *Projector {
	aliases := make(map[string]string, len(doctorAliases))
	for from, to := range doctorAliases {
		aliases[normalize.StripAccents(strings.TrimSpace(from))] = to
	}
	return &Projector{routes: routes, doctorAliases: aliases}
}

// Result is the outcome of a projection.
type Result struct {
	// Partitions has one entry per route, in route order, possibly empty.
	Partitions []domain.Partition

	// InvalidPhone counts selected rows dropped for an unusable phone.
	InvalidPhone int
	// Unrouted counts contacts whose location matched no route.
	Unrouted int
}

// Contacts returns the total number of routed contacts.
func (r Result) Contacts() int {
	n := 0
	for _, p := range r.Partitions {
		n += len(p.Contacts)
	}
	return n
}

// Project builds one contact per selected evaluation with a valid phone and
// routes it to the first matching partition. Evaluations whose verdict is not
// Use are ignored. Input order is preserved inside each partition.
func (p *Projector) Project(evals []eligibility.Evaluation) Result {
	res := Result{Partitions: make([]domain.Partition, len(p.routes))}
	for i, r := range p.routes {
		res.Partitions[i].Name = r.Name
	}

	seen := make(map[string]struct{})
	for _, e := range evals {
		if !e.Verdict.Use {
			continue
		}
		if !e.PhoneValid {
			res.InvalidPhone++
			continue
		}
		if _, dup := seen[e.Phone]; dup {
			continue
		}
		seen[e.Phone] = struct{}{}

		contact := p.contact(e)
		idx := p.route(contact.Location)
		if idx < 0 {
			res.Unrouted++
			continue
		}
		res.Partitions[idx].Contacts = append(res.Partitions[idx].Contacts, contact)
	}

	return res
}

func (p *Projector) contact(e eligibility.Evaluation) domain.ReminderContact {
	date := normalize.RenderDate(e.Row.ScheduledStart)
	return domain.ReminderContact{
		FirstName:   normalize.TitleName(e.Row.PatientName),
		Phone:       e.Phone,
		DateNumeric: date.Numeric,
		DateISO:     normalize.ISODate(date.Numeric),
		DateLong:    date.Long,
		Time:        date.Clock,
		Doctor:      p.doctor(e.DoctorName),
		Location:    normalize.StripAccents(strings.TrimSpace(e.SiteAddress)),
	}
}

func (p *Projector) doctor(name string) string {
	folded := normalize.StripAccents(strings.TrimSpace(name))
	if fixed, ok := p.doctorAliases[folded]; ok {
		return fixed
	}
	return folded
}

func (p *Projector) route(location string) int {
	loc := strings.ToLower(location)
	for i, r := range p.routes {
		match := strings.ToLower(normalize.StripAccents(r.Match))
		if match != "" && strings.Contains(loc, match) {
			return i
		}
	}
	return -1
}
