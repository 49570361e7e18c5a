package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dendrascience/contentsync/contentsync"
	"github.com/dendrascience/contentsync/util"
	"github.com/robfig/cron/v3"
)

// Sentinel errors wrapped by FieldError.
var (
	ErrMissingSourceDir   = errors.New("source directory does not exist")
	ErrMissingCategoryDir = errors.New("category directory does not exist")
	ErrOverlappingPaths   = errors.New("source directory overlaps a destination directory")
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "daemon.schedule").
	Field string

	// Message is a human-readable error message.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Unwrap exposes the field errors to errors.Is and errors.As.
func (e ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		errs[i] = fe
	}
	return errs
}

// Validate validates the configuration values without touching the
// filesystem. All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.SourceDirectory == "" {
		errs = append(errs, FieldError{Field: "source_directory", Message: "is required"})
	}
	if cfg.DestinationRoot == "" {
		errs = append(errs, FieldError{Field: "destination_root", Message: "is required"})
	}
	if cfg.RetentionCount() < 0 {
		errs = append(errs, FieldError{
			Field:   "retention",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.RetentionCount()),
			Err:     contentsync.ErrInvalidRetention,
		})
	}

	errs = append(errs, validateCategories(cfg)...)
	errs = append(errs, validatePaths(cfg)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if cfg.History.Enabled && cfg.History.Path == "" {
		errs = append(errs, FieldError{Field: "history.path", Message: "is required when history is enabled"})
	}
	if cfg.Daemon.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Daemon.Schedule); err != nil {
			errs = append(errs, FieldError{Field: "daemon.schedule", Message: fmt.Sprintf("invalid cron expression: %v", err), Err: err})
		}
	}
	if cfg.Daemon.Debounce < 0 {
		errs = append(errs, FieldError{Field: "daemon.debounce", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateCategories(cfg *Config) []FieldError {
	var errs []FieldError
	if len(cfg.Categories) == 0 {
		return []FieldError{{Field: "categories", Message: "at least one category is required", Err: contentsync.ErrNoCategories}}
	}

	known := make(map[string]bool, len(cfg.Categories))
	for _, c := range cfg.Categories {
		known[c] = true
	}
	for name, n := range cfg.CategoryRetention {
		field := "category_retention." + name
		if !known[name] {
			errs = append(errs, FieldError{Field: field, Message: "is not a configured category"})
		}
		if n < 0 {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("must be >= 0, got %d", n), Err: contentsync.ErrInvalidRetention})
		}
	}
	if len(errs) > 0 || cfg.RetentionCount() < 0 {
		return errs
	}

	set, err := cfg.CategorySet()
	if err != nil {
		return []FieldError{{Field: "categories", Message: err.Error(), Err: err}}
	}
	if cfg.StrictCategories {
		if err := set.Disjoint(); err != nil {
			errs = append(errs, FieldError{Field: "categories", Message: err.Error(), Err: err})
		}
	}
	return errs
}

func validatePaths(cfg *Config) []FieldError {
	if cfg.SourceDirectory == "" || cfg.DestinationRoot == "" {
		return nil
	}
	src := filepath.Clean(cfg.SourceDirectory)
	if src == filepath.Clean(cfg.DestinationRoot) {
		return []FieldError{{Field: "source_directory", Message: "must differ from destination_root", Err: ErrOverlappingPaths}}
	}
	for _, c := range cfg.Categories {
		if src == filepath.Join(cfg.DestinationRoot, c) {
			return []FieldError{{
				Field:   "source_directory",
				Message: fmt.Sprintf("must not be the %q category directory", c),
				Err:     ErrOverlappingPaths,
			}}
		}
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", cfg.Level)})
	}
	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		errs = append(errs, FieldError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", cfg.Format)})
	}
	return errs
}

// Preflight checks the filesystem layout contract before any mutation: the
// source directory exists, and every category has an existing directory under
// the destination root. Missing directories are never created.
func Preflight(cfg *Config) error {
	var errs []FieldError

	if err := checkDir(cfg.SourceDirectory); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrMissingSourceDir, cfg.SourceDirectory)
		}
		errs = append(errs, FieldError{Field: "source_directory", Message: err.Error(), Err: err})
	}
	for _, c := range cfg.Categories {
		dir := filepath.Join(cfg.DestinationRoot, c)
		if err := checkDir(dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = fmt.Errorf("%w: %s", ErrMissingCategoryDir, dir)
			}
			errs = append(errs, FieldError{Field: "categories." + c, Message: err.Error(), Err: err})
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", util.ErrExpectedDirectory, path)
	}
	return nil
}
