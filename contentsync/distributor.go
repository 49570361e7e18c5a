package contentsync

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dendrascience/contentsync/util"
)

// Distributor copies staging files into their category directories.
type Distributor struct {
	opts   Options
	logger *slog.Logger
}

// NewDistributor creates a Distributor.
func NewDistributor(opts Options) *Distributor {
	opts = opts.withDefaults()
	return &Distributor{
		opts:   opts,
		logger: opts.Logger.With("component", "contentsync.distributor"),
	}
}

// Distribute copies every source file into each category directory whose
// token occurs in its name, skipping names already present there.
// Per-file errors are recorded in the returned reports; the error return is
// only set when ctx is cancelled.
func (d *Distributor) Distribute(ctx context.Context) ([]CategoryReport, error) {
	d.logger.Info("copying files", "source", d.opts.SourceDir, "destination_root", d.opts.DestRoot)

	entries, listErr := d.opts.FS.ReadDir(d.opts.SourceDir)
	if listErr != nil {
		d.logger.Warn("failed to list source directory", "source", d.opts.SourceDir, "error", listErr)
	}

	reports := make([]CategoryReport, 0, len(d.opts.Categories))
	for _, c := range d.opts.Categories {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report := CategoryReport{Category: c.Name, Phase: PhaseDistribute}
		if listErr != nil {
			report.fail(OpList, d.opts.SourceDir, listErr)
			reports = append(reports, report)
			continue
		}
		if err := d.distributeCategory(ctx, c, entries, &report); err != nil {
			reports = append(reports, report)
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (d *Distributor) distributeCategory(ctx context.Context, c Category, entries []util.FileEntry, report *CategoryReport) error {
	destDir := d.opts.CategoryDir(c)
	d.logger.Info("copying files for category", "category", c.Name, "source", d.opts.SourceDir, "destination", destDir)

	for _, e := range entries {
		if !c.Matches(e.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Matched++
		dst := filepath.Join(destDir, e.Name)

		_, err := d.opts.FS.Stat(dst)
		switch {
		case err == nil, errors.Is(err, util.ErrExpectedFile), errors.Is(err, util.ErrUnexpectedSymlink):
			// any entry holding the name counts as present
			report.Skipped++
			d.logger.Debug("file already present, skipping", "category", c.Name, "file", e.Name)
			continue
		case !errors.Is(err, fs.ErrNotExist):
			report.fail(OpStat, dst, err)
			d.logger.Warn("failed to check destination", "category", c.Name, "path", dst, "error", err)
			continue
		}

		if d.opts.DryRun {
			report.Copied++
			report.Actions = append(report.Actions, Action{Category: c.Name, Op: OpCopy, Name: e.Name, DryRun: true})
			report.pending = append(report.pending, d.wouldCopy(e, dst))
			d.logger.Debug("would copy file", "category", c.Name, "from", e.Path, "to", dst)
			continue
		}

		hash, err := d.opts.FS.Copy(e.Path, dst)
		if err != nil {
			report.fail(OpCopy, e.Path, err)
			d.logger.Warn("failed to copy file", "category", c.Name, "from", e.Path, "to", dst, "error", err)
			continue
		}
		report.Copied++
		report.Actions = append(report.Actions, Action{Category: c.Name, Op: OpCopy, Name: e.Name, Hash: hash})
		d.logger.Debug("copied file", "category", c.Name, "from", e.Path, "to", dst, "sha256", hash)
	}
	return nil
}

// wouldCopy is the destination entry a real copy of e to dst would produce.
func (d *Distributor) wouldCopy(e util.FileEntry, dst string) util.FileEntry {
	mod := e.ModTime
	if p, ok := d.opts.FS.(interface{ PreservesModTime() bool }); ok && !p.PreservesModTime() {
		mod = time.Now()
	}
	return util.FileEntry{Name: e.Name, Path: dst, ModTime: mod, Size: e.Size}
}
