package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/respondio"
)

// Default orchestrator settings.
const (
	DefaultConcurrency      = 5
	DefaultErrorDetailLimit = 10
	DefaultTagField         = "id_pac"
	DefaultTagValue         = 77
)

// ContactSyncer is the remote side of one partition. *respondio.Client
// implements it.
type ContactSyncer interface {
	Upsert(ctx context.Context, contact domain.ReminderContact) (respondio.UpsertAction, error)
	Tag(ctx context.Context, phone, field string, value any) error
}

// TagOptions configures the tagging pass.
type TagOptions struct {
	Enabled bool
	Field   string
	Value   any
}

// Options configures an Orchestrator.
type Options struct {
	// Concurrency is the number of in-flight tasks per wave.
	Concurrency int
	// ErrorDetailLimit caps the error details logged per pass.
	ErrorDetailLimit int
	Tag              TagOptions
}

// DefaultOptions returns the stock settings: 5 in flight, tagging id_pac=77.
func DefaultOptions() Options {
	return Options{
		Concurrency:      DefaultConcurrency,
		ErrorDetailLimit: DefaultErrorDetailLimit,
		Tag: TagOptions{
			Enabled: true,
			Field:   DefaultTagField,
			Value:   DefaultTagValue,
		},
	}
}

// Orchestrator drives the contact sync of one partition at a time: a bounded
// fan-out of upserts, then a bounded fan-out tagging every contact that
// upserted successfully.
//
// Failures are isolated per contact: a failing task never cancels its
// siblings, and there is no retry.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// NewOrchestrator creates an Orchestrator. Zero values in opts fall back to
// the defaults; logger may be nil.
func NewOrchestrator(opts Options, logger *slog.Logger) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ErrorDetailLimit <= 0 {
		opts.ErrorDetailLimit = DefaultErrorDetailLimit
	}
	if opts.Tag.Field == "" {
		opts.Tag.Field = DefaultTagField
	}
	if opts.Tag.Value == nil {
		opts.Tag.Value = DefaultTagValue
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{opts: opts, logger: logger}
}

// SyncPartition upserts every contact of p through syncer and, when enabled
// and at least one upsert succeeded, tags the successful phones.
func (o *Orchestrator) SyncPartition(ctx context.Context, p domain.Partition, syncer ContactSyncer) PartitionReport {
	log := o.logger.With("partition", p.Name)
	report := PartitionReport{Partition: p.Name}

	var created, updated atomic.Int64
	report.Upsert = fanOut(ctx, o.opts.Concurrency, p.Contacts,
		func(c domain.ReminderContact) string { return c.Phone },
		func(ctx context.Context, c domain.ReminderContact) error {
			action, err := syncer.Upsert(ctx, c)
			if err != nil {
				return err
			}
			if action == respondio.ActionCreated {
				created.Add(1)
			} else {
				updated.Add(1)
			}
			return nil
		})
	report.Created = int(created.Load())
	report.Updated = int(updated.Load())

	log.Info("upsert finished",
		"total", report.Upsert.Total,
		"ok", len(report.Upsert.OK),
		"err", len(report.Upsert.Failed),
		"created", report.Created,
		"updated", report.Updated)
	o.logFailures(log, "upsert", report.Upsert)

	if !o.opts.Tag.Enabled || len(report.Upsert.OK) == 0 {
		return report
	}

	log.Info("tagging synced contacts",
		"field", o.opts.Tag.Field,
		"value", o.opts.Tag.Value,
		"contacts", len(report.Upsert.OK))

	tag := o.TagBatch(ctx, report.Upsert.OK, syncer)
	report.Tag = &tag

	log.Info("tagging finished", "total", tag.Total, "ok", len(tag.OK), "err", len(tag.Failed))
	o.logFailures(log, "tag", tag)

	return report
}

// TagBatch sets the configured marker field on every phone. Each phone is
// independent and written without a prior read.
func (o *Orchestrator) TagBatch(ctx context.Context, phones []string, syncer ContactSyncer) PassReport {
	field, value := o.opts.Tag.Field, o.opts.Tag.Value
	return fanOut(ctx, o.opts.Concurrency, phones,
		func(phone string) string { return phone },
		func(ctx context.Context, phone string) error {
			return syncer.Tag(ctx, phone, field, value)
		})
}

func (o *Orchestrator) logFailures(log *slog.Logger, pass string, r PassReport) {
	for i, f := range r.Failed {
		if i >= o.opts.ErrorDetailLimit {
			log.Warn("more failures omitted", "pass", pass, "omitted", len(r.Failed)-i)
			return
		}
		log.Error("contact failed", "pass", pass, "phone", f.Phone, "detail", f.Detail)
	}
}

// fanOut runs task for every item with at most limit tasks in flight. Extra
// items wait for a free slot. Every item runs to completion; errors are
// recorded, never propagated.
func fanOut[T any](ctx context.Context, limit int, items []T, key func(T) string, task func(context.Context, T) error) PassReport {
	results := newResultSet(len(items))

	var g errgroup.Group
	g.SetLimit(limit)
	for _, item := range items {
		item := item
		g.Go(func() error {
			results.record(key(item), task(ctx, item))
			return nil
		})
	}
	_ = g.Wait()

	return results.pass(len(items))
}
