package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted when no config
// path is given on the command line.
const EnvConfigPath = "CONTENTSYNC_CONFIG"

// Load reads the YAML file at path (skipped when path is empty), applies
// defaults and CONTENTSYNC_* environment overrides, and validates the result.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = readFile(path); err != nil {
			return nil, err
		}
	}
	ApplyDefaults(cfg)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies CONTENTSYNC_* environment variables.
// Malformed numeric, boolean and duration values are reported as errors
// rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError
	bad := func(env string, err error) {
		errs = append(errs, FieldError{Field: env, Message: err.Error()})
	}

	if val := os.Getenv("CONTENTSYNC_SOURCE_DIRECTORY"); val != "" {
		cfg.SourceDirectory = val
	}
	if val := os.Getenv("CONTENTSYNC_DESTINATION_ROOT"); val != "" {
		cfg.DestinationRoot = val
	}
	if val := os.Getenv("CONTENTSYNC_RETENTION"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retention = &i
		} else {
			bad("CONTENTSYNC_RETENTION", err)
		}
	}
	if val := os.Getenv("CONTENTSYNC_CATEGORIES"); val != "" {
		cfg.Categories = nil
		for _, c := range strings.Split(val, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.Categories = append(cfg.Categories, c)
			}
		}
	}
	if val := os.Getenv("CONTENTSYNC_PRESERVE_MTIME"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.PreserveMtime = &b
		} else {
			bad("CONTENTSYNC_PRESERVE_MTIME", err)
		}
	}
	if val := os.Getenv("CONTENTSYNC_STRICT_CATEGORIES"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.StrictCategories = b
		} else {
			bad("CONTENTSYNC_STRICT_CATEGORIES", err)
		}
	}

	// Logging overrides
	if val := os.Getenv("CONTENTSYNC_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("CONTENTSYNC_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// History overrides
	if val := os.Getenv("CONTENTSYNC_HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Enabled = b
		} else {
			bad("CONTENTSYNC_HISTORY_ENABLED", err)
		}
	}
	if val := os.Getenv("CONTENTSYNC_HISTORY_PATH"); val != "" {
		cfg.History.Path = val
	}

	// Metrics overrides
	if val := os.Getenv("CONTENTSYNC_METRICS_TEXTFILE"); val != "" {
		cfg.Metrics.Textfile = val
	}
	if val := os.Getenv("CONTENTSYNC_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Metrics.ListenAddress = val
	}

	// Daemon overrides
	if val := os.Getenv("CONTENTSYNC_DAEMON_SCHEDULE"); val != "" {
		cfg.Daemon.Schedule = val
	}
	if val := os.Getenv("CONTENTSYNC_DAEMON_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Daemon.Watch = b
		} else {
			bad("CONTENTSYNC_DAEMON_WATCH", err)
		}
	}
	if val := os.Getenv("CONTENTSYNC_DAEMON_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Daemon.Debounce = d
		} else {
			bad("CONTENTSYNC_DAEMON_DEBOUNCE", err)
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
