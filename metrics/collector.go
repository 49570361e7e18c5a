package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dendrascience/contentsync/contentsync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contentsync"

// Collector holds the contentsync Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry
	textfile string
	logger   *slog.Logger

	runsTotal     *prometheus.CounterVec
	copiedTotal   *prometheus.CounterVec
	skippedTotal  *prometheus.CounterVec
	deletedTotal  *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	retained      *prometheus.GaugeVec
	lastRun       prometheus.Gauge
	lastDuration  prometheus.Gauge
	lastFailures  prometheus.Gauge
}

// NewCollector creates a Collector with a fresh registry. When textfile is
// not empty, every observed run rewrites it in the Prometheus text format.
func NewCollector(textfile string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		logger:   logger.With("component", "metrics"),

		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by result.",
		}, []string{"result"}),
		copiedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_copied_total",
			Help:      "Files copied into a category directory.",
		}, []string{"category"}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Matching files already present at the destination.",
		}, []string{"category"}),
		deletedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_deleted_total",
			Help:      "Files expired from a category directory.",
		}, []string{"category"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Per-file failures by category and operation.",
		}, []string{"category", "op"}),
		retained: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retained_files",
			Help:      "Files kept in each category directory after the last retain phase.",
		}, []string{"category"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_failures",
			Help:      "Per-file failures recorded in the last run.",
		}),
	}

	c.registry.MustRegister(
		c.runsTotal, c.copiedTotal, c.skippedTotal, c.deletedTotal, c.failuresTotal,
		c.retained, c.lastRun, c.lastDuration, c.lastFailures,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records a finished run. It implements contentsync.Observer.
// Dry runs are not recorded.
func (c *Collector) Observe(_ context.Context, report *contentsync.Report) error {
	if report.DryRun {
		return nil
	}

	for _, cr := range report.Distribute {
		c.copiedTotal.WithLabelValues(cr.Category).Add(float64(cr.Copied))
		c.skippedTotal.WithLabelValues(cr.Category).Add(float64(cr.Skipped))
	}
	for _, cr := range report.Retain {
		c.deletedTotal.WithLabelValues(cr.Category).Add(float64(cr.Deleted))
		c.retained.WithLabelValues(cr.Category).Set(float64(cr.Kept))
	}
	for _, f := range report.Failures() {
		c.failuresTotal.WithLabelValues(f.Category, string(f.Op)).Inc()
	}

	result := "success"
	if report.Failed() > 0 {
		result = "partial"
	}
	c.runsTotal.WithLabelValues(result).Inc()
	c.lastRun.Set(float64(report.Finished.Unix()))
	c.lastDuration.Set(report.Duration().Seconds())
	c.lastFailures.Set(float64(report.Failed()))

	return c.WriteTextfile()
}

// WriteTextfile writes the registry to the configured textfile. It is a
// no-op when no textfile is configured.
func (c *Collector) WriteTextfile() error {
	if c.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(c.textfile, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", c.textfile, err)
	}
	c.logger.Debug("metrics textfile written", "path", c.textfile)
	return nil
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
