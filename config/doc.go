// Package config loads and validates contentsync configuration.
//
// Configuration is read from a YAML file, completed with defaults, overridden
// by CONTENTSYNC_* environment variables and validated:
//
//	cfg, err := config.Load("/etc/contentsync/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.Preflight(cfg); err != nil {
//	    log.Fatal(err) // e.g. a category directory is missing
//	}
//
// Validate only inspects values. Preflight additionally checks the
// filesystem layout contract: the source directory and one subdirectory per
// category under the destination root must already exist. Both run before
// any file is touched.
//
// # Environment Variables
//
//   - CONTENTSYNC_SOURCE_DIRECTORY
//   - CONTENTSYNC_DESTINATION_ROOT
//   - CONTENTSYNC_RETENTION
//   - CONTENTSYNC_CATEGORIES (comma separated)
//   - CONTENTSYNC_PRESERVE_MTIME
//   - CONTENTSYNC_STRICT_CATEGORIES
//   - CONTENTSYNC_LOG_LEVEL, CONTENTSYNC_LOG_FORMAT
//   - CONTENTSYNC_HISTORY_ENABLED, CONTENTSYNC_HISTORY_PATH
//   - CONTENTSYNC_METRICS_TEXTFILE, CONTENTSYNC_METRICS_LISTEN_ADDRESS
//   - CONTENTSYNC_DAEMON_SCHEDULE, CONTENTSYNC_DAEMON_WATCH, CONTENTSYNC_DAEMON_DEBOUNCE
package config
