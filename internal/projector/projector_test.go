package projector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/eligibility"
)

var routes = []Route{
	{Name: "sabino", Match: "Sabino Arana"},
	{Name: "bori", Match: "Bori i Fontestà"},
}

func selected(index int, phone, address string) eligibility.Evaluation {
	return eligibility.Evaluation{
		Row: domain.AppointmentRow{
			Index:          index,
			PatientName:    "josé GARCÍA",
			Phone:          phone,
			ScheduledStart: "2026-01-07 16:05:00",
		},
		Phone:       phone,
		PhoneValid:  phone != "",
		DoctorName:  "Dra. María Núñez",
		DoctorKnown: true,
		SiteAddress: address,
		Verdict:     eligibility.Verdict{Use: true},
	}
}

func TestProject_BuildsNormalizedContact(t *testing.T) {
	p := New(routes, nil)
	res := p.Project([]eligibility.Evaluation{selected(0, "+34612345678", "C/ Sabino Arana, 12 (Bilbao)")})

	require.Len(t, res.Partitions, 2)
	require.Len(t, res.Partitions[0].Contacts, 1)
	assert.Empty(t, res.Partitions[1].Contacts)

	assert.Equal(t, domain.ReminderContact{
		FirstName:   "José García",
		Phone:       "+34612345678",
		DateNumeric: "01/07/26",
		DateISO:     "2026-01-07",
		DateLong:    "Miercoles, 7 de enero de 2026",
		Time:        "16:05",
		Doctor:      "Dra. Maria Nunez",
		Location:    "C/ Sabino Arana, 12 (Bilbao)",
	}, res.Partitions[0].Contacts[0])
}

func TestProject_RoutesOnFoldedCaseInsensitiveMatch(t *testing.T) {
	p := New(routes, nil)
	res := p.Project([]eligibility.Evaluation{
		selected(0, "+34600000001", "Carrer de BORI I FONTESTÀ 20"),
		selected(1, "+34600000002", "sabino arana 3"),
		selected(2, "+34600000003", "Gran Via 1"),
		selected(3, "+34600000004", ""),
	})

	assert.Equal(t, []string{"+34600000002"}, res.Partitions[0].Phones())
	assert.Equal(t, []string{"+34600000001"}, res.Partitions[1].Phones())
	assert.Equal(t, "Carrer de BORI I FONTESTA 20", res.Partitions[1].Contacts[0].Location)
	assert.Equal(t, 2, res.Unrouted)
	assert.Equal(t, 2, res.Contacts())
}

func TestProject_SkipsUnselectedAndInvalidPhones(t *testing.T) {
	p := New(routes, nil)
	notUsed := selected(0, "+34600000001", "Sabino Arana")
	notUsed.Verdict.Use = false
	invalid := selected(1, "", "Sabino Arana")

	res := p.Project([]eligibility.Evaluation{notUsed, invalid, selected(2, "+34600000003", "Sabino Arana")})

	assert.Equal(t, []string{"+34600000003"}, res.Partitions[0].Phones())
	assert.Equal(t, 1, res.InvalidPhone)
}

func TestProject_KeepsFirstContactPerPhone(t *testing.T) {
	p := New(routes, nil)
	first := selected(0, "+34600000001", "Sabino Arana")
	second := selected(1, "+34600000001", "Bori i Fontesta")

	res := p.Project([]eligibility.Evaluation{first, second})

	assert.Equal(t, 1, res.Contacts())
	assert.Len(t, res.Partitions[0].Contacts, 1)
}

func TestProject_PreservesOrderWithinPartition(t *testing.T) {
	p := New(routes, nil)
	var evals []eligibility.Evaluation
	phones := []string{"+34600000005", "+34600000001", "+34600000003"}
	for i, ph := range phones {
		evals = append(evals, selected(i, ph, "Sabino Arana"))
	}
	assert.Equal(t, phones, p.Project(evals).Partitions[0].Phones())
}

func TestProject_DoctorAlias(t *testing.T) {
	p := New(routes, map[string]string{"Dra. María Núñez": "Dra. Maria Nunez Ibarra"})
	res := p.Project([]eligibility.Evaluation{selected(0, "+34600000001", "Sabino Arana")})
	assert.Equal(t, "Dra. Maria Nunez Ibarra", res.Partitions[0].Contacts[0].Doctor)
}

func TestProject_UnparsableStartKeepsEmptyDates(t *testing.T) {
	p := New(routes, nil)
	e := selected(0, "+34600000001", "Sabino Arana")
	e.Row.ScheduledStart = "??"
	c := p.Project([]eligibility.Evaluation{e}).Partitions[0].Contacts[0]
	assert.Empty(t, c.DateNumeric)
	assert.Empty(t, c.DateISO)
	assert.Empty(t, c.DateLong)
	assert.Empty(t, c.Time)
}
