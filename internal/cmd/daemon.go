package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dendrascience/contentsync/contentsync"
	"github.com/dendrascience/contentsync/version"
	"github.com/dendrascience/contentsync/watch"
	"github.com/spf13/cobra"
)

// NewDaemonCmd creates the daemon subcommand.
func NewDaemonCmd(flags *globalFlags) *cobra.Command {
	var noInitialRun bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run continuously on a schedule and on source changes",
		Long: `Stay in the foreground and trigger runs from the configured cron schedule
(daemon.schedule) and, with daemon.watch, whenever new files settle in the
staging directory. Runs never overlap; triggers arriving during a run are
folded into one follow-up run.

With metrics.listen_address set, Prometheus metrics are served on /metrics.
SIGINT or SIGTERM stops the daemon after the current run finishes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, flags, !noInitialRun)
		},
	}
	cmd.Flags().BoolVar(&noInitialRun, "no-initial-run", false, "Wait for the first trigger instead of running at startup")
	return cmd
}

func runDaemon(cmd *cobra.Command, flags *globalFlags, initialRun bool) error {
	a, err := loadApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Daemon.Schedule == "" && !a.cfg.Daemon.Watch {
		return errors.New("daemon needs daemon.schedule or daemon.watch to be configured")
	}

	observers, err := a.observers()
	if err != nil {
		return err
	}
	runner := contentsync.NewRunner(a.opts, observers...)
	logger := a.logger.With("component", "daemon")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trigger := watch.NewTrigger(func(ctx context.Context, reason string) error {
		return runOnce(ctx, cmd, runner)
	}, a.logger)

	if a.metrics != nil && a.cfg.Metrics.ListenAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv := &http.Server{
			Addr:              a.cfg.Metrics.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		logger.Info("metrics server listening", "address", a.cfg.Metrics.ListenAddress)
	}

	scheduler := watch.NewScheduler(a.cfg.Daemon.Schedule, trigger, a.logger)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()
	if next := scheduler.NextRun(); next != nil {
		logger.Info("next scheduled run", "at", next.Format(time.RFC3339))
	}

	watchErr := make(chan error, 1)
	if a.cfg.Daemon.Watch {
		sw, err := watch.NewSourceWatcher(a.cfg.SourceDirectory, a.cfg.Daemon.Debounce, trigger, a.logger)
		if err != nil {
			return err
		}
		go func() { watchErr <- sw.Watch(ctx) }()
	}

	logger.Info("daemon started", "version", version.GetVersion(), "source", a.cfg.SourceDirectory, "destination_root", a.cfg.DestinationRoot)
	if initialRun {
		trigger.Fire(ctx, "startup")
	}

	select {
	case <-ctx.Done():
	case err := <-watchErr:
		if err != nil {
			stop()
			trigger.Close()
			return fmt.Errorf("source watcher stopped: %w", err)
		}
		<-ctx.Done()
	}

	logger.Info("shutting down, waiting for the current run")
	trigger.Close()
	return nil
}
