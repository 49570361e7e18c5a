package contentsync

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dendrascience/contentsync/util"
)

// Retainer enforces the per-category retention count.
type Retainer struct {
	opts   Options
	logger *slog.Logger
}

// NewRetainer creates a Retainer.
func NewRetainer(opts Options) *Retainer {
	opts = opts.withDefaults()
	return &Retainer{
		opts:   opts,
		logger: opts.Logger.With("component", "contentsync.retainer"),
	}
}

// SortByAge orders entries oldest first. Equal modification times are
// ordered by name so deletion order is reproducible.
func SortByAge(entries []util.FileEntry) {
	slices.SortFunc(entries, func(a, b util.FileEntry) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// Plan lists the files of category c in its destination directory and splits
// them into the retention set (keep, oldest first) and the files that age out
// (expire, oldest first).
func (r *Retainer) Plan(c Category) (keep, expire []util.FileEntry, err error) {
	return r.plan(c, nil)
}

// plan is Plan with pending entries that a dry run would have copied into
// the category directory.
func (r *Retainer) plan(c Category, pending []util.FileEntry) (keep, expire []util.FileEntry, err error) {
	entries, err := r.opts.FS.ReadDir(r.opts.CategoryDir(c))
	if err != nil {
		return nil, nil, err
	}
	var matched []util.FileEntry
	for _, e := range slices.Concat(entries, pending) {
		if c.Matches(e.Name) {
			matched = append(matched, e)
		}
	}
	SortByAge(matched)

	excess := len(matched) - c.Retention
	if excess <= 0 {
		return matched, nil, nil
	}
	return matched[excess:], matched[:excess], nil
}

// Retain deletes, for every category, all matching files except the newest
// Retention ones from the destination directory and the staging directory.
// Per-file errors are recorded in the returned reports; the error return is
// only set when ctx is cancelled.
func (r *Retainer) Retain(ctx context.Context) ([]CategoryReport, error) {
	return r.retain(ctx, nil)
}

// retain runs retention with pending dry-run copies keyed by category name.
func (r *Retainer) retain(ctx context.Context, pending map[string][]util.FileEntry) ([]CategoryReport, error) {
	r.logger.Info("cleaning up", "source", r.opts.SourceDir, "destination_root", r.opts.DestRoot)

	reports := make([]CategoryReport, 0, len(r.opts.Categories))
	for _, c := range r.opts.Categories {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report := CategoryReport{Category: c.Name, Phase: PhaseRetain}
		err := r.retainCategory(ctx, c, pending[c.Name], &report)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (r *Retainer) retainCategory(ctx context.Context, c Category, pending []util.FileEntry, report *CategoryReport) error {
	destDir := r.opts.CategoryDir(c)
	r.logger.Info("cleaning up category",
		"category", c.Name,
		"destination", destDir,
		"source", r.opts.SourceDir,
		"retention", c.Retention,
	)

	keep, expire, err := r.plan(c, pending)
	if err != nil {
		report.fail(OpList, destDir, err)
		r.logger.Warn("failed to list category directory", "category", c.Name, "path", destDir, "error", err)
		return nil
	}
	report.Matched = len(keep) + len(expire)
	report.Kept = len(keep)

	for _, e := range expire {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.opts.DryRun {
			report.Deleted++
			report.Actions = append(report.Actions, Action{Category: c.Name, Op: OpRemoveDest, Name: e.Name, DryRun: true})
			r.logger.Debug("would delete files", "category", c.Name, "destination", e.Path,
				"source", filepath.Join(r.opts.SourceDir, e.Name))
			continue
		}
		r.expire(c, e, report)
	}
	return nil
}

// expire removes one aged-out file from the category directory and the
// same-named staging file. A file that is already gone counts as removed.
func (r *Retainer) expire(c Category, e util.FileEntry, report *CategoryReport) {
	srcPath := filepath.Join(r.opts.SourceDir, e.Name)
	r.logger.Debug("deleting files", "category", c.Name, "destination", e.Path, "source", srcPath)

	err := r.opts.FS.Remove(e.Path)
	switch {
	case err == nil:
		report.Deleted++
		report.Actions = append(report.Actions, Action{Category: c.Name, Op: OpRemoveDest, Name: e.Name})
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Debug("file already removed from destination", "category", c.Name, "path", e.Path)
	default:
		// keep the staging copy while the destination still holds the file
		report.fail(OpRemoveDest, e.Path, err)
		report.Kept++
		r.logger.Warn("failed to delete file", "category", c.Name, "path", e.Path, "error", err)
		return
	}

	err = r.opts.FS.Remove(srcPath)
	switch {
	case err == nil:
		report.Actions = append(report.Actions, Action{Category: c.Name, Op: OpRemoveSource, Name: e.Name})
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Debug("file not present in source", "category", c.Name, "path", srcPath)
	default:
		report.fail(OpRemoveSource, srcPath, err)
		r.logger.Warn("failed to delete source file", "category", c.Name, "path", srcPath, "error", err)
	}
}
