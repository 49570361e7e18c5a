package config

import (
	"time"

	"github.com/dendrascience/contentsync/contentsync"
	"github.com/dendrascience/contentsync/util"
)

// Config is the root configuration structure for contentsync.
type Config struct {
	// SourceDirectory is the flat staging directory files are copied from
	// and purged from.
	SourceDirectory string `yaml:"source_directory"`

	// DestinationRoot contains one subdirectory per category.
	DestinationRoot string `yaml:"destination_root"`

	// Retention is the number of files kept per category.
	// Default: 2
	Retention *int `yaml:"retention"`

	// Categories are the subdirectory names and filename match tokens.
	Categories []string `yaml:"categories"`

	// CategoryRetention overrides Retention for individual categories.
	CategoryRetention map[string]int `yaml:"category_retention"`

	// PreserveMtime copies the source modification time onto copies so
	// retention ranks files by production time.
	// Default: true
	PreserveMtime *bool `yaml:"preserve_mtime"`

	// StrictCategories rejects category tokens that contain one another.
	StrictCategories bool `yaml:"strict_categories"`

	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error". Default: "warn"
	Level string `yaml:"level"`

	// Format is "text" or "json". Default: "text"
	Format string `yaml:"format"`
}

// HistoryConfig controls the SQLite run ledger.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig controls Prometheus export.
type MetricsConfig struct {
	// Textfile is written after every run, for the node_exporter textfile
	// collector. Empty disables it.
	Textfile string `yaml:"textfile"`

	// ListenAddress serves /metrics in daemon mode. Empty disables it.
	ListenAddress string `yaml:"listen_address"`
}

// DaemonConfig controls when the daemon triggers runs.
type DaemonConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule string `yaml:"schedule"`

	// Watch triggers a run when the source directory changes.
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period after the last change before a watch
	// triggered run starts. Default: 2s
	Debounce time.Duration `yaml:"debounce"`
}

// RetentionCount returns the configured default retention.
func (c *Config) RetentionCount() int {
	if c.Retention == nil {
		return DefaultRetention
	}
	return *c.Retention
}

// CategorySet builds the validated category set, applying per-category
// retention overrides.
func (c *Config) CategorySet() (contentsync.CategorySet, error) {
	cats := make([]contentsync.Category, len(c.Categories))
	for i, name := range c.Categories {
		retention := c.RetentionCount()
		if n, ok := c.CategoryRetention[name]; ok {
			retention = n
		}
		cats[i] = contentsync.Category{Name: name, Retention: retention}
	}
	return contentsync.NewCategorySet(cats)
}

// SyncOptions converts the configuration into contentsync options.
func (c *Config) SyncOptions() (contentsync.Options, error) {
	set, err := c.CategorySet()
	if err != nil {
		return contentsync.Options{}, err
	}
	preserve := DefaultPreserveMtime
	if c.PreserveMtime != nil {
		preserve = *c.PreserveMtime
	}
	return contentsync.Options{
		SourceDir:  c.SourceDirectory,
		DestRoot:   c.DestinationRoot,
		Categories: set,
		FS:         util.OSFS{PreserveModTime: preserve},
	}, nil
}
