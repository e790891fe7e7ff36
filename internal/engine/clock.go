package engine

import "time"

// Clock supplies "today" for the target date rule.
//
// The engine never reads the wall clock directly, so a run can be replayed for
// any day by injecting a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host's local time.
//
// Thread-safety: SystemClock is stateless and safe for concurrent use.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
