package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/remindsync/internal/config"
	"github.com/roach88/remindsync/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	RunID    string // optional - show one stored run
	Phone    string // optional - show every outcome for a phone
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the run ledger",
		Long: `Query the SQLite run ledger written by "run --db".

Without filters the most recent runs are listed. --run prints the stored
summary of one run; --phone lists every recorded outcome for a contact.

Examples:
  remindsync history --db ./ledger.db
  remindsync history --db ./ledger.db --run 01945c3e-8f1a-7b2c-9d4e-5f6a7b8c9d0e
  remindsync history --db ./ledger.db --phone +34612345678 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run ledger (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the stored summary of one run")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "show recorded outcomes for one phone number")
	cmd.MarkFlagsMutuallyExclusive("run", "phone")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to open run ledger", err)
	}
	defer st.Close()

	switch {
	case opts.RunID != "":
		return showRun(ctx, st, formatter, opts.RunID)
	case opts.Phone != "":
		return showPhone(ctx, st, formatter, opts.Phone)
	default:
		return listRuns(ctx, st, formatter, opts.Limit)
	}
}

func showRun(ctx context.Context, st *store.Store, f *OutputFormatter, id string) error {
	report, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run %s not found", id), nil)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, "failed to read run", err)
	}
	return f.Render("ok", report.RunID, report, func(w io.Writer) {
		printRunSummary(w, report, config.Default().Sync.ErrorDetailLimit)
	})
}

func showPhone(ctx context.Context, st *store.Store, f *OutputFormatter, phone string) error {
	records, err := st.PhoneHistory(ctx, phone)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, "failed to read phone history", err)
	}
	return f.Render("ok", "", records, func(w io.Writer) {
		if len(records) == 0 {
			fmt.Fprintf(w, "No outcomes recorded for %s\n", phone)
			return
		}
		fmt.Fprintf(w, "Outcomes for %s:\n", phone)
		for _, r := range records {
			line := fmt.Sprintf("  %s  %-8s %-6s %-5s %s",
				r.StartedAt.Local().Format("2006-01-02 15:04"), r.Partition, r.Pass, r.Status, r.RunID)
			if r.Detail != "" {
				line += "  " + r.Detail
			}
			fmt.Fprintln(w, line)
		}
	})
}

func listRuns(ctx context.Context, st *store.Store, f *OutputFormatter, limit int) error {
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, "failed to list runs", err)
	}
	return f.Render("ok", "", runs, func(w io.Writer) {
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return
		}
		for _, r := range runs {
			mode := ""
			if r.DryRun {
				mode = " (dry run)"
			}
			fmt.Fprintf(w, "%s  %s  target %s  selected=%d total=%d ok=%d err=%d tag_err=%d%s\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.TargetDate,
				r.Selected, r.Total, r.OK, r.Failed, r.TagFailed, mode)
		}
	})
}
