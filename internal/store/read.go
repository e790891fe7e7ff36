package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/engine"
)

// ErrRunNotFound is returned by ReadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one ledger line as listed by `history`.
type RunSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	TargetDate string    `json:"target_date"`
	DryRun     bool      `json:"dry_run"`
	Rows       int       `json:"rows"`
	Selected   int       `json:"selected"`

	// Upsert and tag totals over every partition.
	Total     int `json:"total"`
	OK        int `json:"ok"`
	Failed    int `json:"failed"`
	TagFailed int `json:"tag_failed"`
}

// OutcomeRecord is a stored contact outcome with its run context.
type OutcomeRecord struct {
	RunID     string               `json:"run_id"`
	StartedAt time.Time            `json:"started_at"`
	Partition string               `json:"partition"`
	Pass      string               `json:"pass"`
	Phone     string               `json:"phone"`
	Status    domain.OutcomeStatus `json:"status"`
	Detail    string               `json:"detail,omitempty"`
}

// ListRuns returns the most recent runs, newest first.
// Ties on started_at are broken by id for a stable order.
//
// Returns an empty slice (not nil) when the ledger is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.finished_at, r.target_date, r.dry_run, r.rows_read, r.selected,
		       COALESCE(SUM(p.total), 0), COALESCE(SUM(p.ok), 0),
		       COALESCE(SUM(p.failed), 0), COALESCE(SUM(p.tag_failed), 0)
		FROM runs r
		LEFT JOIN partition_results p ON p.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			r                 RunSummary
			started, finished string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.TargetDate, &r.DryRun, &r.Rows, &r.Selected,
			&r.Total, &r.OK, &r.Failed, &r.TagFailed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s: started_at: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("run %s: finished_at: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ReadRun returns the full report stored for id.
func (s *Store) ReadRun(ctx context.Context, id string) (*engine.RunReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	var report engine.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("read run %s: decode report: %w", id, err)
	}
	return &report, nil
}

// PhoneHistory returns every stored outcome for phone, newest run first and
// the upsert pass before the tag pass within a run.
func (s *Store) PhoneHistory(ctx context.Context, phone string) ([]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.run_id, r.started_at, o.partition, o.pass, o.phone, o.status, o.detail
		FROM outcomes o
		JOIN runs r ON r.id = o.run_id
		WHERE o.phone = ?
		ORDER BY r.started_at DESC, o.run_id DESC, CASE o.pass WHEN 'upsert' THEN 0 ELSE 1 END
	`, phone)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	records := []OutcomeRecord{}
	for rows.Next() {
		var (
			rec     OutcomeRecord
			started string
			status  string
		)
		if err := rows.Scan(&rec.RunID, &started, &rec.Partition, &rec.Pass, &rec.Phone, &status, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("outcome %s: started_at: %w", rec.RunID, err)
		}
		rec.Status = domain.OutcomeStatus(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	return records, nil
}
