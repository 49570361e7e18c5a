package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dendrascience/contentsync/config"
	"github.com/dendrascience/contentsync/contentsync"
	"github.com/dendrascience/contentsync/history"
	"github.com/dendrascience/contentsync/metrics"
	"github.com/spf13/cobra"
)

// DefaultConfigPath is read when neither --config nor CONTENTSYNC_CONFIG is
// set and the file exists.
const DefaultConfigPath = "/etc/contentsync/config.yaml"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	verbose    int
	dryRun     bool
}

// app is the wiring shared by the commands: validated configuration, logger,
// sync options and the run observers.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	opts    contentsync.Options
	history *history.Store
	metrics *metrics.Collector
}

func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv(config.EnvConfigPath); env != "" {
		return env
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

// loadApp loads and validates the configuration and checks the directory
// layout. Nothing on disk is modified before it returns successfully.
func loadApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg, err := config.Load(resolveConfigPath(flags.configPath))
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging, flags.verbose)
	slog.SetDefault(logger)

	if err := config.Preflight(cfg); err != nil {
		return nil, err
	}

	opts, err := cfg.SyncOptions()
	if err != nil {
		return nil, err
	}
	opts.DryRun = flags.dryRun
	opts.Logger = logger

	for _, pair := range opts.Categories.Overlaps() {
		logger.Warn("overlapping category tokens, files matching the first also go to the second",
			"category", pair[0], "contained", pair[1])
	}

	return &app{cfg: cfg, logger: logger, opts: opts}, nil
}

// observers opens the history store and metrics collector enabled by the
// configuration. Dry runs are never recorded in the history.
func (a *app) observers() ([]contentsync.Observer, error) {
	var obs []contentsync.Observer
	if a.cfg.History.Enabled && !a.opts.DryRun {
		store, err := history.Open(a.cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.history = store
		obs = append(obs, store)
	}
	if a.cfg.Metrics.Textfile != "" || a.cfg.Metrics.ListenAddress != "" {
		a.metrics = metrics.NewCollector(a.cfg.Metrics.Textfile, a.logger)
		obs = append(obs, a.metrics)
	}
	return obs, nil
}

func (a *app) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

// runOnce executes one run and writes its summary to the command output.
// A run with per-file failures returns an error after the summary so the
// process exits non-zero.
func runOnce(ctx context.Context, cmd *cobra.Command, runner *contentsync.Runner, phases ...contentsync.Phase) error {
	report, err := runner.Run(ctx, phases...)
	if report != nil {
		if serr := report.Summary(cmd.OutOrStdout(), categoryLabel); serr != nil {
			return serr
		}
	}
	if err != nil {
		return err
	}
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d file operations failed: %w", n, report.Err())
	}
	return nil
}
