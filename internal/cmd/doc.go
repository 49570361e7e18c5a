// Package cmd provides the command-line interface implementation for contentsync.
//
// It uses the Cobra library for command structure and Fang for styling.
// Every command loads configuration through the config package, builds a
// slog logger from the logging section and the -v count, and checks the
// directory layout before anything on disk changes.
//
// Commands:
//   - root, run: full pipeline
//   - distribute, retain: one phase
//   - daemon: scheduled and watch-triggered runs
//   - plan: retention preview
//   - validate: configuration and layout check
//   - history: SQLite run ledger
//   - view: FUSE retention view
//   - version: build metadata
package cmd
