package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/remindsync/internal/config"
	"github.com/roach88/remindsync/internal/eligibility"
	"github.com/roach88/remindsync/internal/engine"
	"github.com/roach88/remindsync/internal/respondio"
	"github.com/roach88/remindsync/internal/tabular"
)

// PipelineOptions holds the input flags shared by run and check.
type PipelineOptions struct {
	*RootOptions
	Config     string
	References string
	Export     string
	EnvFile    string

	// Lookup overrides environment lookups (for testing).
	// If nil, defaults to os.LookupEnv.
	Lookup config.LookupFunc
	// Clock overrides "today" (for testing). If nil, defaults to SystemClock.
	Clock engine.Clock
	// RunIDs overrides run id generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

func (o *PipelineOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Config, "config", "c", "", "path to CUE config file (defaults apply when empty)")
	cmd.Flags().StringVar(&o.References, "references", "", "path to reference tables YAML (required)")
	_ = cmd.MarkFlagRequired("references")
	cmd.Flags().StringVar(&o.Export, "export", "", "path to appointment export, CSV or HTML table (required)")
	_ = cmd.MarkFlagRequired("export")
	cmd.Flags().StringVar(&o.EnvFile, "env", ".env", "dotenv file with partition tokens (ignored when missing)")
}

// pipeline is everything loaded before planning.
type pipeline struct {
	cfg    *config.Config
	refs   *eligibility.ReferenceTables
	export *tabular.Export
	tokens map[string]string
}

// loadPipeline loads, in order: dotenv, config and env overrides, tokens
// (when needTokens), reference tables and the export. Any failure is
// reported through f and returned as an ExitCommandError; no row is read
// before credentials are known to be complete.
func loadPipeline(o *PipelineOptions, f *OutputFormatter, logger *slog.Logger, needTokens bool) (*pipeline, error) {
	if err := config.LoadDotEnv(o.EnvFile); err != nil {
		return nil, f.Fail(ExitCommandError, string(engine.ErrCodeConfig), "failed to load env file", err)
	}

	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, f.Fail(ExitCommandError, string(engine.ErrCodeConfig), "invalid configuration", err)
	}
	if o.Config == "" {
		f.VerboseLog("No config file given, using defaults")
	} else {
		f.VerboseLog("Loaded config from %s", o.Config)
	}
	if err := cfg.ApplyEnv(o.Lookup); err != nil {
		return nil, f.Fail(ExitCommandError, string(engine.ErrCodeConfig), "invalid environment override", err)
	}

	p := &pipeline{cfg: cfg}

	if needTokens {
		tokens, err := cfg.Tokens(o.Lookup)
		if err != nil {
			return nil, f.Fail(ExitCommandError, string(engine.ErrCodeConfig), "missing partition credentials", err)
		}
		p.tokens = tokens
	}

	p.refs, err = eligibility.LoadReferenceTables(o.References)
	if err != nil {
		return nil, f.Fail(ExitCommandError, string(engine.ErrCodeConfig), "failed to load reference tables", err)
	}
	f.VerboseLog("Loaded reference tables from %s", o.References)

	p.export, err = tabular.ReadExportFile(o.Export, cfg.Export.Columns)
	if err != nil {
		return nil, f.Fail(ExitCommandError, string(engine.ErrCodeInput), "failed to read export", err)
	}
	logger.Info("export loaded",
		"path", o.Export,
		"format", p.export.Format,
		"charset", p.export.Charset,
		"rows", len(p.export.Rows))
	for _, w := range p.export.Warnings {
		logger.Warn("export row", "warning", w)
	}

	return p, nil
}

// syncers builds one contact API client per partition token.
func (p *pipeline) syncers(logger *slog.Logger) map[string]engine.ContactSyncer {
	out := make(map[string]engine.ContactSyncer, len(p.tokens))
	for name, token := range p.tokens {
		out[name] = respondio.NewClient(p.cfg.API.BaseURL, token,
			respondio.WithTimeout(p.cfg.API.Timeout()),
			respondio.WithRateLimit(p.cfg.API.RequestsPerSecond),
			respondio.WithLogger(logger.With("partition", name)),
		)
	}
	return out
}

// newEngine wires an engine from the loaded pipeline.
func (p *pipeline) newEngine(o *PipelineOptions, logger *slog.Logger) (*engine.Engine, error) {
	return engine.New(engine.Config{
		References:    p.refs,
		CountryCode:   p.cfg.Phone.CountryCode,
		Routes:        p.cfg.Routes(),
		DoctorAliases: p.cfg.DoctorAliases,
		Options:       p.cfg.EngineOptions(),
		Syncers:       p.syncers(logger),
		Clock:         o.Clock,
		RunIDs:        o.RunIDs,
		Logger:        logger,
	})
}

// failRun reports a run-level error with the exit code its category maps to.
func failRun(f *OutputFormatter, err error) error {
	var runErr *engine.RunError
	if !errors.As(err, &runErr) {
		return f.Fail(ExitFailure, "RUN_FAILED", "synchronization did not run", err)
	}
	exitCode := ExitCommandError
	if runErr.Code == engine.ErrCodeIntegrity {
		exitCode = ExitFailure
	}
	return f.Fail(exitCode, string(runErr.Code), "synchronization did not run: "+runErr.Message, err)
}
