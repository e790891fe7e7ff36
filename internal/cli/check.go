package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// CheckResult is the outcome of a readiness check.
type CheckResult struct {
	Ready      bool           `json:"ready"`
	TargetDate string         `json:"target_date"`
	Rows       int            `json:"rows"`
	Evaluated  int            `json:"evaluated"`
	Selected   int            `json:"selected"`
	Partitions map[string]int `json:"partitions"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PipelineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify inputs and credentials without sending anything",
		Long: `Load the configuration, partition credentials, reference tables and the
export, then evaluate and project every row exactly as run would.

Nothing is sent. The exit code is 1 when a selected appointment cannot be
resolved against the reference tables, and 2 when an input is unusable.

Examples:
  remindsync check --references refs.yaml --export agenda.csv
  remindsync check -c remindsync.cue --references refs.yaml --export agenda.html --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	opts.bindFlags(cmd)
	return cmd
}

func runCheck(opts *PipelineOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	p, err := loadPipeline(opts, formatter, logger, true)
	if err != nil {
		return err
	}

	eng, err := p.newEngine(opts, logger)
	if err != nil {
		return failRun(formatter, err)
	}
	plan, err := eng.Plan(p.export.Rows)
	if err != nil {
		return failRun(formatter, err)
	}

	result := CheckResult{
		Ready:      true,
		TargetDate: plan.TargetDate.Format("2006-01-02"),
		Rows:       plan.Rows,
		Evaluated:  len(plan.Evaluations),
		Selected:   plan.Selected(),
		Partitions: make(map[string]int, len(plan.Projection.Partitions)),
		Warnings:   p.export.Warnings,
	}
	for _, part := range plan.Projection.Partitions {
		result.Partitions[part.Name] = len(part.Contacts)
	}

	return formatter.Render("ok", plan.RunID, result, func(w io.Writer) {
		fmt.Fprintf(w, "Target date: %s\n", result.TargetDate)
		fmt.Fprintf(w, "Rows: %d read, %d after dedup, %d selected\n",
			result.Rows, result.Evaluated, result.Selected)
		if n := plan.Projection.InvalidPhone; n > 0 {
			fmt.Fprintf(w, "Invalid phone: %d\n", n)
		}
		if n := plan.Projection.Unrouted; n > 0 {
			fmt.Fprintf(w, "Unrouted: %d\n", n)
		}
		for _, part := range plan.Projection.Partitions {
			fmt.Fprintf(w, "  %-12s %d contact(s)\n", part.Name, len(part.Contacts))
		}
		fmt.Fprintln(w, "✓ ready to synchronize")
	})
}
