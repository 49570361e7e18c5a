package config

import "time"

// Default values for configuration fields.
const (
	DefaultRetention      = 2
	DefaultPreserveMtime  = true

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"

	DefaultHistoryPath = "/var/lib/contentsync/history.db"

	DefaultDaemonDebounce = 2 * time.Second
)

// ApplyDefaults fills unset fields with their default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Retention == nil {
		r := DefaultRetention
		cfg.Retention = &r
	}
	if cfg.PreserveMtime == nil {
		p := DefaultPreserveMtime
		cfg.PreserveMtime = &p
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.Daemon.Debounce == 0 {
		cfg.Daemon.Debounce = DefaultDaemonDebounce
	}
}
