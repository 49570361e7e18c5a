package contentsync

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dendrascience/contentsync/util"
)

func TestRunDistributesThenRetains(t *testing.T) {
	src, dest := diskLayout(t, "wildfire")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a_wildfire_1", "a_wildfire_2", "a_wildfire_3"} {
		writeFile(t, filepath.Join(src, name), name, base.Add(time.Duration(i+1)*time.Hour))
	}

	var observed *Report
	runner := NewRunner(Options{
		SourceDir: src, DestRoot: dest, Categories: mustCategories(t, 2, "wildfire"), Logger: testLogger,
	}, ObserverFunc(func(_ context.Context, r *Report) error {
		observed = r
		return nil
	}))

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.RunID == "" || report.Finished.Before(report.Started) {
		t.Errorf("bad run metadata: %+v", report)
	}
	if observed != report {
		t.Error("observer did not receive the report")
	}
	copied, deleted, failed := report.Totals()
	if copied != 3 || deleted != 1 || failed != 0 {
		t.Errorf("totals = %d/%d/%d, want 3 copied, 1 deleted, 0 failed", copied, deleted, failed)
	}
	if report.Err() != nil {
		t.Errorf("Err() = %v, want nil", report.Err())
	}

	// newly copied files were eligible for retention in the same run
	if exists(filepath.Join(dest, "wildfire", "a_wildfire_1")) || exists(filepath.Join(src, "a_wildfire_1")) {
		t.Error("a_wildfire_1 should have aged out")
	}

	// a second run converges without copying the aged-out file back
	report, err = runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	copied, deleted, failed = report.Totals()
	if copied != 0 || deleted != 0 || failed != 0 {
		t.Errorf("second run totals = %d/%d/%d, want all zero", copied, deleted, failed)
	}
	release, err := util.AcquireLock(dest)
	if err != nil {
		t.Fatalf("run lock not released: %v", err)
	}
	release()
}

func TestRunDryRunMatchesRealTotals(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stage := func(t *testing.T) (src, dest string) {
		src, dest = diskLayout(t, "wildfire")
		for i, name := range []string{"a_wildfire_1", "a_wildfire_2", "a_wildfire_3"} {
			writeFile(t, filepath.Join(src, name), name, base.Add(time.Duration(i+1)*time.Hour))
		}
		return src, dest
	}
	run := func(t *testing.T, dryRun bool) (*Report, string) {
		src, dest := stage(t)
		report, err := NewRunner(Options{
			SourceDir: src, DestRoot: dest, Categories: mustCategories(t, 2, "wildfire"),
			DryRun: dryRun, Logger: testLogger,
		}).Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return report, src
	}

	applied, _ := run(t, false)
	dry, src := run(t, true)

	rc, rd, rf := applied.Totals()
	dc, dd, df := dry.Totals()
	if rc != dc || rd != dd || rf != df {
		t.Errorf("dry run totals = %d/%d/%d, real run totals = %d/%d/%d", dc, dd, df, rc, rd, rf)
	}
	if dd != 1 || dry.Retain[0].Actions[0].Name != "a_wildfire_1" {
		t.Errorf("dry run should expire a_wildfire_1, got %+v", dry.Retain[0])
	}
	if !exists(filepath.Join(src, "a_wildfire_1")) {
		t.Error("dry run deleted a staged file")
	}
}

func TestRunSinglePhase(t *testing.T) {
	m := newMemFS("/src", "/dest/apps")
	now := time.Now()
	m.add("/src", "x_apps", now)
	m.add("/dest/apps", "old_apps", now.Add(-time.Hour))

	runner := NewRunner(Options{
		SourceDir: "/src", DestRoot: "/dest", Categories: mustCategories(t, 0, "apps"),
		FS: m, Logger: testLogger, DisableLock: true,
	})
	report, err := runner.Run(context.Background(), PhaseRetain)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Distribute) != 0 || len(report.Retain) != 1 {
		t.Fatalf("phases = %d/%d, want only retain", len(report.Distribute), len(report.Retain))
	}
	if m.copies != 0 {
		t.Error("retain-only run copied files")
	}

	if _, err := runner.Run(context.Background(), Phase("bogus")); err == nil {
		t.Error("unknown phase should be rejected")
	}
}

func TestRunReportsFailures(t *testing.T) {
	m := newMemFS("/src", "/dest/apps")
	m.add("/src", "x_apps", time.Now())
	m.copyErr["/src/x_apps"] = os.ErrPermission

	report, err := NewRunner(Options{
		SourceDir: "/src", DestRoot: "/dest", Categories: mustCategories(t, 2, "apps"),
		FS: m, Logger: testLogger, DisableLock: true,
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("per-file failures must not fail the run: %v", err)
	}
	if report.Failed() != 1 || !errors.Is(report.Err(), os.ErrPermission) {
		t.Errorf("Failed() = %d, Err() = %v", report.Failed(), report.Err())
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	src, dest := diskLayout(t, "apps")
	release, err := util.AcquireLock(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	_, err = NewRunner(Options{
		SourceDir: src, DestRoot: dest, Categories: mustCategories(t, 2, "apps"), Logger: testLogger,
	}).Run(context.Background())
	if !errors.Is(err, util.ErrLocked) {
		t.Errorf("Run() error = %v, want ErrLocked", err)
	}
}

func TestRunWithoutCategories(t *testing.T) {
	_, err := NewRunner(Options{SourceDir: "/src", DestRoot: "/dest", Logger: testLogger}).Run(context.Background())
	if !errors.Is(err, ErrNoCategories) {
		t.Errorf("Run() error = %v, want ErrNoCategories", err)
	}
}

func TestReportSummary(t *testing.T) {
	report := &Report{
		RunID:    "run-1",
		Started:  time.Unix(0, 0),
		Finished: time.Unix(2, 0),
		Distribute: []CategoryReport{
			{Category: "apps", Phase: PhaseDistribute, Matched: 3, Copied: 2, Skipped: 1},
		},
		Retain: []CategoryReport{
			{Category: "apps", Phase: PhaseRetain, Matched: 4, Deleted: 2, Kept: 2,
				Failures: []*Failure{{Category: "apps", Op: OpRemoveSource, Path: "/src/x", Err: os.ErrPermission}}},
		},
	}

	var buf bytes.Buffer
	if err := report.Summary(&buf, strings.ToUpper); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"distribute APPS: matched=3 copied=2 skipped=1 errors=0",
		"retain APPS: matched=4 deleted=2 kept=2 errors=1",
		"run run-1: copied=2 deleted=2 errors=1 in 2s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
