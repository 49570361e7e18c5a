// Package contentsync implements staging-to-category distribution and
// per-category retention.
//
// A run has two phases that always execute in this order:
//
//   - Distribute: every file in the source (staging) directory is copied into
//     each category directory whose name occurs in the filename. A file whose
//     name already exists at the destination is skipped, so distribution can be
//     repeated safely.
//   - Retain: for every category the matching files in its destination
//     directory are ranked by modification time (ties broken by name) and all
//     but the newest Retention files are deleted from the destination and,
//     best effort, from the source directory.
//
// Both phases are fail-soft. A failing copy or removal is recorded as a
// Failure in the run's Report and processing continues; missing files at
// removal time count as already removed.
//
// Category matching is a case-sensitive substring test, so one filename may
// belong to several categories and is then evaluated independently by each.
// Use CategorySet.Overlaps to detect tokens that contain each other.
package contentsync
