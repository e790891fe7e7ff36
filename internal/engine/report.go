package engine

import (
	"time"

	"github.com/roach88/remindsync/internal/domain"
)

// PassReport aggregates one fan-out wave (upsert or tag) over a partition.
type PassReport struct {
	Total  int                  `json:"total"`
	OK     []string             `json:"ok"`
	Failed []domain.SyncOutcome `json:"failed"`
}

// Outcomes returns every outcome of the pass, successes first.
func (p PassReport) Outcomes() []domain.SyncOutcome {
	out := make([]domain.SyncOutcome, 0, len(p.OK)+len(p.Failed))
	for _, phone := range p.OK {
		out = append(out, domain.SyncOutcome{Phone: phone, Status: domain.OutcomeOK})
	}
	return append(out, p.Failed...)
}

// PartitionReport is the result of synchronizing one partition.
type PartitionReport struct {
	Partition string `json:"partition"`

	Upsert  PassReport `json:"upsert"`
	Created int        `json:"created"`
	Updated int        `json:"updated"`

	// Tag is nil when the tagging pass did not run (disabled, or no upsert
	// succeeded).
	Tag *PassReport `json:"tag,omitempty"`
}

// RunReport is the structured end-of-run summary.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	TargetDate time.Time `json:"target_date"`
	DryRun     bool      `json:"dry_run"`

	// Rows is the number of export rows read.
	Rows int `json:"rows"`
	// Evaluated is the number of rows left after duplicate removal.
	Evaluated int `json:"evaluated"`
	// Selected is the number of rows whose verdict is Use.
	Selected int `json:"selected"`
	// InvalidPhone and Unrouted count selected rows that never reached a partition.
	InvalidPhone int `json:"invalid_phone"`
	Unrouted     int `json:"unrouted"`

	Partitions []PartitionReport `json:"partitions"`
}

// Totals returns the upsert counts over every partition.
func (r *RunReport) Totals() (total, ok, failed int) {
	for _, p := range r.Partitions {
		total += p.Upsert.Total
		ok += len(p.Upsert.OK)
		failed += len(p.Upsert.Failed)
	}
	return total, ok, failed
}

// HasFailures reports whether any upsert or tag failed.
func (r *RunReport) HasFailures() bool {
	for _, p := range r.Partitions {
		if len(p.Upsert.Failed) > 0 {
			return true
		}
		if p.Tag != nil && len(p.Tag.Failed) > 0 {
			return true
		}
	}
	return false
}
