package eligibility

import "time"

// TargetDate returns the appointment date reminders are sent for when the run
// happens on today: the next business day. Monday to Thursday target the
// following day; Friday, Saturday and Sunday target the next Monday.
//
// The result is midnight of the target day in today's location.
func TargetDate(today time.Time) time.Time {
	days := 1
	switch today.Weekday() {
	case time.Friday:
		days = 3
	case time.Saturday:
		days = 2
	}
	y, m, d := today.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, today.Location())
}

// sameDay reports whether a and b fall on the same calendar day, comparing
// wall-clock fields only.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
