package watch

import (
	"context"
	"log/slog"
	"sync"
)

// RunFunc performs one run. reason describes what fired it ("schedule",
// "watch", "startup").
type RunFunc func(ctx context.Context, reason string) error

// Trigger serializes runs. At most one run executes at a time and at most one
// more is queued behind it; further requests fold into the queued one.
type Trigger struct {
	run    RunFunc
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	pending string // reason of the queued run, empty when none
	wg      sync.WaitGroup
}

// NewTrigger creates a Trigger for run.
func NewTrigger(run RunFunc, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		run:    run,
		logger: logger.With("component", "watch.trigger"),
	}
}

// Fire requests a run and returns immediately. The run starts now when idle,
// otherwise right after the current one finishes. Requests after Close or
// after ctx is done are dropped.
func (t *Trigger) Fire(ctx context.Context, reason string) {
	if reason == "" {
		reason = "manual"
	}
	t.mu.Lock()
	if t.closed || ctx.Err() != nil {
		t.mu.Unlock()
		t.logger.Debug("trigger closed, request dropped", "reason", reason)
		return
	}
	if t.running {
		if t.pending == "" {
			t.pending = reason
		}
		t.mu.Unlock()
		t.logger.Debug("run in progress, request coalesced", "reason", reason)
		return
	}
	t.running = true
	t.wg.Add(1)
	t.mu.Unlock()

	go t.loop(ctx, reason)
}

func (t *Trigger) loop(ctx context.Context, reason string) {
	defer t.wg.Done()
	for {
		if ctx.Err() == nil {
			t.logger.Info("run triggered", "reason", reason)
			if err := t.run(ctx, reason); err != nil {
				t.logger.Error("triggered run failed", "reason", reason, "error", err)
			}
		}

		t.mu.Lock()
		if t.pending == "" || ctx.Err() != nil {
			t.running = false
			t.pending = ""
			t.mu.Unlock()
			return
		}
		reason, t.pending = t.pending, ""
		t.mu.Unlock()
	}
}

// Busy reports whether a run is executing.
func (t *Trigger) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Wait blocks until no run is executing or queued. It must not race with
// Fire; use Close when other goroutines may still fire.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

// Close stops accepting requests, then waits for the current and queued
// runs to finish.
func (t *Trigger) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.wg.Wait()
}
