package contentsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dendrascience/contentsync/util"
	"github.com/google/uuid"
)

// Observer receives every finished run report, e.g. to persist or export it.
type Observer interface {
	Observe(ctx context.Context, report *Report) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, report *Report) error

func (f ObserverFunc) Observe(ctx context.Context, report *Report) error {
	return f(ctx, report)
}

// Runner executes the distribute and retain phases in order.
type Runner struct {
	opts        Options
	distributor *Distributor
	retainer    *Retainer
	observers   []Observer
	logger      *slog.Logger
	now         func() time.Time
}

// NewRunner creates a Runner. Observers are notified after each run.
func NewRunner(opts Options, observers ...Observer) *Runner {
	opts = opts.withDefaults()
	return &Runner{
		opts:        opts,
		distributor: NewDistributor(opts),
		retainer:    NewRetainer(opts),
		observers:   observers,
		logger:      opts.Logger.With("component", "contentsync.runner"),
		now:         time.Now,
	}
}

// Retainer returns the runner's Retainer, for planning without a run.
func (r *Runner) Retainer() *Retainer {
	return r.retainer
}

// Run executes the given phases, or both when none are given. Distribution
// always completes before retention starts, so files copied in this run are
// evaluated for retention in the same run.
//
// Per-file failures are reported through Report.Err; the error return is set
// when the run could not start (no categories, lock held) or ctx was
// cancelled. A partial report is returned alongside a cancellation error.
func (r *Runner) Run(ctx context.Context, phases ...Phase) (*Report, error) {
	if len(r.opts.Categories) == 0 {
		return nil, ErrNoCategories
	}
	distribute, retain := len(phases) == 0, len(phases) == 0
	for _, p := range phases {
		switch p {
		case PhaseDistribute:
			distribute = true
		case PhaseRetain:
			retain = true
		default:
			return nil, fmt.Errorf("unknown phase %q", p)
		}
	}

	if !r.opts.DryRun && !r.opts.DisableLock {
		release, err := util.AcquireLock(r.opts.DestRoot)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(); err != nil {
				r.logger.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	report := &Report{
		RunID:   uuid.NewString(),
		DryRun:  r.opts.DryRun,
		Started: r.now(),
	}
	logger := r.logger.With("run_id", report.RunID)
	logger.Info("run started", "categories", len(r.opts.Categories), "dry_run", r.opts.DryRun)

	var err error
	if distribute {
		report.Distribute, err = r.distributor.Distribute(ctx)
	}
	if err == nil && retain {
		report.Retain, err = r.retainer.retain(ctx, pendingCopies(report.Distribute))
	}
	report.Finished = r.now()

	copied, deleted, failed := report.Totals()
	if err != nil {
		logger.Warn("run interrupted", "error", err, "copied", copied, "deleted", deleted, "errors", failed)
		return report, err
	}
	logger.Info("run finished",
		"copied", copied,
		"deleted", deleted,
		"errors", failed,
		"duration", report.Duration(),
	)

	for _, o := range r.observers {
		if err := o.Observe(ctx, report); err != nil {
			logger.Warn("run observer failed", "error", err)
		}
	}
	return report, nil
}

// pendingCopies collects, per category, the copies a dry-run distribute phase
// reported, so dry-run retention ranks them like a real run would.
func pendingCopies(reports []CategoryReport) map[string][]util.FileEntry {
	pending := make(map[string][]util.FileEntry)
	for _, cr := range reports {
		if len(cr.pending) > 0 {
			pending[cr.Category] = cr.pending
		}
	}
	return pending
}
