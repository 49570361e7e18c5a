// Package metrics exports contentsync run results to Prometheus.
//
// A Collector owns its own registry and implements contentsync.Observer.
// After each run it updates per-category counters and gauges and, when a
// textfile path is configured, rewrites the node_exporter textfile so that
// one-shot cron invocations are scraped too. In daemon mode Handler serves
// the same registry over HTTP.
package metrics
