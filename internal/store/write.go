package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/engine"
)

// Timestamps are stored in UTC with fixed-width fractions so they sort as text.
const (
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout = "2006-01-02"
)

// Pass names stored in outcomes.pass.
const (
	PassUpsert = "upsert"
	PassTag    = "tag"
)

// WriteRun appends a finished run to the ledger in one transaction.
// Uses ON CONFLICT(id) DO NOTHING - writing the same run twice is a no-op
// and reports inserted=false.
func (s *Store) WriteRun(ctx context.Context, report *engine.RunReport) (inserted bool, err error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return false, fmt.Errorf("write run: encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, finished_at, target_date, dry_run, rows_read, evaluated, selected, invalid_phone, unrouted, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		report.RunID,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		report.TargetDate.Format(dateLayout),
		report.DryRun,
		report.Rows,
		report.Evaluated,
		report.Selected,
		report.InvalidPhone,
		report.Unrouted,
		string(reportJSON),
	)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	for _, p := range report.Partitions {
		if err := writePartition(ctx, tx, report.RunID, p); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

func writePartition(ctx context.Context, tx *sql.Tx, runID string, p engine.PartitionReport) error {
	var tagged, tagFailed int
	if p.Tag != nil {
		tagged, tagFailed = len(p.Tag.OK), len(p.Tag.Failed)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO partition_results
		(run_id, partition, total, ok, failed, created, updated, tagged, tag_failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		p.Partition,
		p.Upsert.Total,
		len(p.Upsert.OK),
		len(p.Upsert.Failed),
		p.Created,
		p.Updated,
		tagged,
		tagFailed,
	)
	if err != nil {
		return fmt.Errorf("write partition %s: %w", p.Partition, err)
	}

	if err := writeOutcomes(ctx, tx, runID, p.Partition, PassUpsert, p.Upsert.Outcomes()); err != nil {
		return err
	}
	if p.Tag != nil {
		if err := writeOutcomes(ctx, tx, runID, p.Partition, PassTag, p.Tag.Outcomes()); err != nil {
			return err
		}
	}
	return nil
}

func writeOutcomes(ctx context.Context, tx *sql.Tx, runID, partition, pass string, outcomes []domain.SyncOutcome) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes (run_id, partition, pass, phone, status, detail, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write outcomes: prepare: %w", err)
	}
	defer stmt.Close()

	for i, o := range outcomes {
		if _, err := stmt.ExecContext(ctx, runID, partition, pass, o.Phone, string(o.Status), o.Detail, i); err != nil {
			return fmt.Errorf("write outcome %s/%s/%s: %w", partition, pass, o.Phone, err)
		}
	}
	return nil
}
