package engine

import (
	"sync"

	"github.com/roach88/remindsync/internal/domain"
)

// resultSet collects per-contact outcomes appended by concurrent tasks.
//
// Appends are serialized by the mutex; order is first-come first-appended and
// does not follow dispatch order.
type resultSet struct {
	mu     sync.Mutex
	ok     []string
	failed []domain.SyncOutcome
}

func newResultSet(capacity int) *resultSet {
	return &resultSet{ok: make([]string, 0, capacity)}
}

// record appends the outcome of one task. A nil err is a success.
func (r *resultSet) record(phone string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		r.ok = append(r.ok, phone)
		return
	}
	r.failed = append(r.failed, domain.SyncOutcome{
		Phone:  phone,
		Status: domain.OutcomeError,
		Detail: err.Error(),
	})
}

// pass snapshots the collected outcomes into a PassReport.
func (r *resultSet) pass(total int) PassReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok := make([]string, len(r.ok))
	copy(ok, r.ok)
	failed := make([]domain.SyncOutcome, len(r.failed))
	copy(failed, r.failed)

	return PassReport{Total: total, OK: ok, Failed: failed}
}
