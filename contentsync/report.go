package contentsync

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dendrascience/contentsync/util"
)

// Phase names one half of a run.
type Phase string

const (
	PhaseDistribute Phase = "distribute"
	PhaseRetain     Phase = "retain"
)

// Op identifies the filesystem operation behind an Action or Failure.
type Op string

const (
	OpList         Op = "list"
	OpStat         Op = "stat"
	OpCopy         Op = "copy"
	OpRemoveDest   Op = "remove-destination"
	OpRemoveSource Op = "remove-source"
)

// Failure is a per-item error recorded during a run. Failures never stop the
// run; they are collected in the Report.
type Failure struct {
	Category string
	Op       Op
	Path     string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s %s [%s]: %v", f.Op, f.Path, f.Category, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Action is one successful (or, in a dry run, planned) file operation.
type Action struct {
	Category string
	Op       Op
	Name     string
	Hash     string // SHA-256 of copied content, copies only
	DryRun   bool
}

// CategoryReport holds the outcome of one phase for one category.
type CategoryReport struct {
	Category string
	Phase    Phase
	Matched  int // files matching the category token
	Copied   int
	Skipped  int // already present at the destination
	Deleted  int
	Kept     int // retention set size after the phase
	Actions  []Action
	Failures []*Failure

	pending []util.FileEntry // dry-run copies, seen by retention planning
}

func (c *CategoryReport) fail(op Op, path string, err error) {
	c.Failures = append(c.Failures, &Failure{Category: c.Category, Op: op, Path: path, Err: err})
}

// Report is the outcome of a full run.
type Report struct {
	RunID      string
	DryRun     bool
	Started    time.Time
	Finished   time.Time
	Distribute []CategoryReport
	Retain     []CategoryReport
}

// Categories returns all category reports, distribution first.
func (r *Report) Categories() []CategoryReport {
	all := make([]CategoryReport, 0, len(r.Distribute)+len(r.Retain))
	all = append(all, r.Distribute...)
	return append(all, r.Retain...)
}

// Failures returns every recorded failure in run order.
func (r *Report) Failures() []*Failure {
	var failures []*Failure
	for _, c := range r.Categories() {
		failures = append(failures, c.Failures...)
	}
	return failures
}

// Failed returns the number of recorded failures.
func (r *Report) Failed() int {
	return len(r.Failures())
}

// Err joins all failures, or returns nil for a clean run.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Totals sums copies, deletions and failures over all categories.
func (r *Report) Totals() (copied, deleted, failed int) {
	for _, c := range r.Categories() {
		copied += c.Copied
		deleted += c.Deleted
		failed += len(c.Failures)
	}
	return copied, deleted, failed
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Summary writes a plain text summary, one line per category and phase.
// label formats category names and may be nil.
func (r *Report) Summary(w io.Writer, label func(string) string) error {
	if label == nil {
		label = func(s string) string { return s }
	}
	prefix := ""
	if r.DryRun {
		prefix = "[dry-run] "
	}
	for _, c := range r.Distribute {
		if _, err := fmt.Fprintf(w, "%sdistribute %s: matched=%d copied=%d skipped=%d errors=%d\n",
			prefix, label(c.Category), c.Matched, c.Copied, c.Skipped, len(c.Failures)); err != nil {
			return err
		}
	}
	for _, c := range r.Retain {
		if _, err := fmt.Fprintf(w, "%sretain %s: matched=%d deleted=%d kept=%d errors=%d\n",
			prefix, label(c.Category), c.Matched, c.Deleted, c.Kept, len(c.Failures)); err != nil {
			return err
		}
	}
	copied, deleted, failed := r.Totals()
	_, err := fmt.Fprintf(w, "%srun %s: copied=%d deleted=%d errors=%d in %s\n",
		prefix, r.RunID, copied, deleted, failed, r.Duration().Round(time.Millisecond))
	return err
}
