// Package watch triggers contentsync runs in daemon mode.
//
// A Trigger serializes runs inside the process: a request arriving while a
// run is in progress is coalesced into a single follow-up run. Scheduler
// fires the Trigger on a cron schedule and SourceWatcher fires it when new
// files settle in the source directory.
package watch
