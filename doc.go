// Package main provides the contentsync command-line interface.
//
// contentsync distributes files from a flat staging directory into
// per-category destination directories and keeps only the newest files of
// each category, deleting older copies from both places.
//
// The binary supports these subcommands:
//   - run: distribute, then enforce retention (also the default)
//   - distribute, retain: a single phase
//   - daemon: cron and file-watch triggered runs with a /metrics endpoint
//   - plan: show what retention would keep and delete
//   - validate: check the configuration and directory layout
//   - history: list recorded runs
//   - view: mount a read-only view of the retention sets
//   - version: print build information
package main
