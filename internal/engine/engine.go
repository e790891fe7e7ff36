package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/eligibility"
	"github.com/roach88/remindsync/internal/projector"
)

// Config wires an Engine.
type Config struct {
	References    *eligibility.ReferenceTables
	CountryCode   string
	Routes        []projector.Route
	DoctorAliases map[string]string
	Options       Options

	// Syncers maps a route name to its remote. Only partitions that end up
	// with contacts need one, and only when syncing for real.
	Syncers map[string]ContactSyncer

	Clock  Clock
	RunIDs RunIDGenerator
	Logger *slog.Logger
}

// Engine runs the reminder pipeline: evaluate, check integrity, project,
// then synchronize every non-empty partition.
//
// Thread-safety: an Engine holds no per-run state; Plan and Sync may be
// called from several goroutines.
type Engine struct {
	filter       *eligibility.Filter
	projector    *projector.Projector
	orchestrator *Orchestrator
	syncers      map[string]ContactSyncer
	clock        Clock
	runIDs       RunIDGenerator
	logger       *slog.Logger
}

// New validates cfg and creates an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.References == nil {
		return nil, NewConfigError("reference tables are required")
	}
	if len(cfg.Routes) == 0 {
		return nil, NewConfigError("at least one route is required")
	}
	names := make(map[string]struct{}, len(cfg.Routes))
	for _, r := range cfg.Routes {
		if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Match) == "" {
			return nil, NewConfigError(fmt.Sprintf("route %q needs a name and a match", r.Name))
		}
		if _, dup := names[r.Name]; dup {
			return nil, NewConfigError(fmt.Sprintf("duplicate route %q", r.Name))
		}
		names[r.Name] = struct{}{}
	}
	for name := range cfg.Syncers {
		if _, ok := names[name]; !ok {
			return nil, NewConfigError(fmt.Sprintf("syncer for unknown route %q", name))
		}
	}

	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.RunIDs == nil {
		cfg.RunIDs = UUIDv7Generator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		filter:       eligibility.NewFilter(cfg.References, cfg.CountryCode),
		projector:    projector.New(cfg.Routes, cfg.DoctorAliases),
		orchestrator: NewOrchestrator(cfg.Options, cfg.Logger),
		syncers:      cfg.Syncers,
		clock:        cfg.Clock,
		runIDs:       cfg.RunIDs,
		logger:       cfg.Logger,
	}, nil
}

// Plan is everything decided before the first remote call.
type Plan struct {
	RunID      string
	StartedAt  time.Time
	TargetDate time.Time
	Rows       int

	Evaluations []eligibility.Evaluation
	Projection  projector.Result
}

// Selected returns the number of evaluations whose verdict is Use.
func (p *Plan) Selected() int {
	return len(eligibility.Selected(p.Evaluations))
}

// Report returns a RunReport for the plan with no partition synchronized.
func (p *Plan) Report() *RunReport {
	return &RunReport{
		RunID:        p.RunID,
		StartedAt:    p.StartedAt,
		TargetDate:   p.TargetDate,
		Rows:         p.Rows,
		Evaluated:    len(p.Evaluations),
		Selected:     p.Selected(),
		InvalidPhone: p.Projection.InvalidPhone,
		Unrouted:     p.Projection.Unrouted,
	}
}

// Plan evaluates rows against the target date for today and projects the
// selected ones into partitions.
//
// A selected row whose doctor has no mapping fails the whole plan with an
// integrity RunError; nothing may be sent in that case.
func (e *Engine) Plan(rows []domain.AppointmentRow) (*Plan, error) {
	now := e.clock.Now()
	plan := &Plan{
		RunID:      e.runIDs.Generate(),
		StartedAt:  now,
		TargetDate: eligibility.TargetDate(now),
		Rows:       len(rows),
	}

	plan.Evaluations = e.filter.Evaluate(rows, plan.TargetDate)
	if err := eligibility.CheckIntegrity(plan.Evaluations); err != nil {
		e.logger.Error("reference integrity check failed", "run_id", plan.RunID, "error", err)
		return nil, NewIntegrityError(err)
	}
	plan.Projection = e.projector.Project(plan.Evaluations)

	e.logger.Info("plan ready",
		"run_id", plan.RunID,
		"target_date", plan.TargetDate.Format("2006-01-02"),
		"rows", plan.Rows,
		"evaluated", len(plan.Evaluations),
		"selected", plan.Selected(),
		"contacts", plan.Projection.Contacts(),
		"invalid_phone", plan.Projection.InvalidPhone,
		"unrouted", plan.Projection.Unrouted)

	return plan, nil
}

// Sync synchronizes every non-empty partition of plan. Partitions run
// concurrently, each under its own concurrency limit.
//
// Every non-empty partition must have a syncer; otherwise a config RunError
// is returned before any remote call. Per-contact failures are reported, not
// returned.
func (e *Engine) Sync(ctx context.Context, plan *Plan) (*RunReport, error) {
	var work []domain.Partition
	for _, p := range plan.Projection.Partitions {
		if len(p.Contacts) == 0 {
			e.logger.Info("partition has no contacts", "run_id", plan.RunID, "partition", p.Name)
			continue
		}
		if e.syncers[p.Name] == nil {
			return nil, NewConfigError(fmt.Sprintf("no credential for partition %q", p.Name))
		}
		work = append(work, p)
	}

	report := plan.Report()
	report.Partitions = make([]PartitionReport, len(work))

	var g errgroup.Group
	for i, p := range work {
		i, p := i, p
		g.Go(func() error {
			report.Partitions[i] = e.orchestrator.SyncPartition(ctx, p, e.syncers[p.Name])
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = e.clock.Now()
	total, ok, failed := report.Totals()
	e.logger.Info("run finished",
		"run_id", report.RunID,
		"partitions", len(report.Partitions),
		"total", total,
		"ok", ok,
		"err", failed)

	return report, nil
}

// DryRun returns the report of plan without contacting any remote.
func (e *Engine) DryRun(plan *Plan) *RunReport {
	report := plan.Report()
	report.DryRun = true
	for _, p := range plan.Projection.Partitions {
		if len(p.Contacts) == 0 {
			continue
		}
		report.Partitions = append(report.Partitions, PartitionReport{
			Partition: p.Name,
			Upsert:    PassReport{Total: len(p.Contacts)},
		})
	}
	report.FinishedAt = e.clock.Now()
	e.logger.Info("dry run, nothing sent", "run_id", report.RunID, "contacts", plan.Projection.Contacts())
	return report
}

// Run plans rows and synchronizes the result.
func (e *Engine) Run(ctx context.Context, rows []domain.AppointmentRow) (*RunReport, error) {
	plan, err := e.Plan(rows)
	if err != nil {
		return nil, err
	}
	return e.Sync(ctx, plan)
}
