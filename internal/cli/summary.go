package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/engine"
)

// printRunSummary prints the human readable end-of-run summary. At most
// detailLimit failures are listed per pass.
func printRunSummary(w io.Writer, r *engine.RunReport, detailLimit int) {
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Target date: %s\n", r.TargetDate.Format("2006-01-02"))
	if r.DryRun {
		fmt.Fprintln(w, "Mode: dry run (nothing sent)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Selection ===")
	fmt.Fprintf(w, "  Rows read:     %d\n", r.Rows)
	fmt.Fprintf(w, "  After dedup:   %d\n", r.Evaluated)
	fmt.Fprintf(w, "  Selected:      %d\n", r.Selected)
	fmt.Fprintf(w, "  Invalid phone: %d\n", r.InvalidPhone)
	fmt.Fprintf(w, "  Unrouted:      %d\n", r.Unrouted)
	fmt.Fprintln(w)

	if len(r.Partitions) == 0 {
		fmt.Fprintln(w, "No contacts to synchronize.")
		return
	}

	for _, p := range r.Partitions {
		fmt.Fprintf(w, "=== %s ===\n", p.Partition)
		if r.DryRun {
			fmt.Fprintf(w, "  Contacts: %d\n\n", p.Upsert.Total)
			continue
		}
		fmt.Fprintf(w, "  Upsert: total=%d ok=%d err=%d (created %d, updated %d)\n",
			p.Upsert.Total, len(p.Upsert.OK), len(p.Upsert.Failed), p.Created, p.Updated)
		printFailures(w, p.Upsert, detailLimit)
		if p.Tag == nil {
			fmt.Fprintln(w, "  Tag:    skipped")
		} else {
			fmt.Fprintf(w, "  Tag:    total=%d ok=%d err=%d\n", p.Tag.Total, len(p.Tag.OK), len(p.Tag.Failed))
			printFailures(w, *p.Tag, detailLimit)
		}
		fmt.Fprintln(w)
	}

	if r.DryRun {
		return
	}
	total, ok, failed := r.Totals()
	status := "✓"
	if r.HasFailures() {
		status = "✗"
	}
	fmt.Fprintf(w, "%s total=%d ok=%d err=%d\n", status, total, ok, failed)
}

// printFailures lists failures ordered by phone, since completion order
// varies between runs.
func printFailures(w io.Writer, p engine.PassReport, limit int) {
	failed := slices.Clone(p.Failed)
	slices.SortFunc(failed, func(a, b domain.SyncOutcome) int {
		return strings.Compare(a.Phone, b.Phone)
	})
	for i, f := range failed {
		if i >= limit {
			fmt.Fprintf(w, "    ... %d more\n", len(failed)-i)
			return
		}
		fmt.Fprintf(w, "    %s: %s\n", f.Phone, f.Detail)
	}
}
