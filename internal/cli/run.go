package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/remindsync/internal/engine"
	"github.com/roach88/remindsync/internal/store"
	"github.com/roach88/remindsync/internal/tabular"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	PipelineOptions
	Database string
	OutDir   string
	Audit    string
	DryRun   bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{PipelineOptions: PipelineOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Select tomorrow's reminders and synchronize them",
		Long: `Read the appointment export, select the appointments of the next working
day that should get a reminder, and upsert them as contacts into each
partition's workspace. Successfully synchronized contacts are then tagged.

Contacts that fail are reported and the rest carry on; the exit code is 1
when any contact failed. A selected appointment whose doctor is missing
from the reference tables aborts the run before anything is sent.

Examples:
  remindsync run --references refs.yaml --export "Recordatorios 6 de Ene.xls"
  remindsync run -c remindsync.cue --references refs.yaml --export agenda.csv --db ledger.db
  remindsync run --references refs.yaml --export agenda.csv --dry-run --out-dir ./csv --audit audit.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	opts.bindFlags(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run ledger (no ledger when empty)")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "write one CSV per partition into this directory")
	cmd.Flags().StringVar(&opts.Audit, "audit", "", "write every evaluated row with its checks to this CSV file")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "evaluate and write files but send nothing")

	return cmd
}

func runSync(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	p, err := loadPipeline(&opts.PipelineOptions, formatter, logger, !opts.DryRun)
	if err != nil {
		return err
	}

	eng, err := p.newEngine(&opts.PipelineOptions, logger)
	if err != nil {
		return failRun(formatter, err)
	}

	plan, err := eng.Plan(p.export.Rows)
	if err != nil {
		return failRun(formatter, err)
	}

	if opts.Audit != "" {
		if err := tabular.WriteAuditFile(opts.Audit, plan.Evaluations, p.cfg.Export.Columns); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeOutput, "failed to write audit file", err)
		}
		logger.Info("audit written", "path", opts.Audit, "rows", len(plan.Evaluations))
	}
	if opts.OutDir != "" {
		paths, err := tabular.WritePartitionFiles(opts.OutDir, plan.Projection.Partitions, plan.TargetDate)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeOutput, "failed to write partition files", err)
		}
		for _, path := range paths {
			logger.Info("partition file written", "path", path)
		}
	}

	var report *engine.RunReport
	if opts.DryRun {
		report = eng.DryRun(plan)
	} else {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err = eng.Sync(ctx, plan)
		if err != nil {
			return failRun(formatter, err)
		}
	}

	if opts.Database != "" {
		recordRun(opts.Database, report, logger)
	}

	status := "ok"
	if report.HasFailures() {
		status = "error"
	}
	if err := formatter.Render(status, report.RunID, report, func(w io.Writer) {
		printRunSummary(w, report, p.cfg.Sync.ErrorDetailLimit)
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if report.HasFailures() {
		return NewExitError(ExitFailure, "synchronization finished with failures")
	}
	return nil
}

// recordRun appends report to the ledger at path. The ledger is audit only,
// so a failure is logged and does not change the outcome of the run.
func recordRun(path string, report *engine.RunReport, logger *slog.Logger) {
	st, err := store.Open(path)
	if err != nil {
		logger.Error("failed to open run ledger", "path", path, "error", err)
		return
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing run ledger", "error", closeErr)
		}
	}()

	if _, err := st.WriteRun(context.Background(), report); err != nil {
		logger.Error("failed to record run", "run_id", report.RunID, "error", err)
		return
	}
	logger.Info("run recorded", "run_id", report.RunID, "db", path)
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
