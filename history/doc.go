// Package history keeps a SQLite ledger of contentsync runs.
//
// Every finished run is stored as one row in the runs table, with one row
// per copy, deletion or failure in the actions table. Store implements
// contentsync.Observer so it can be handed straight to a Runner.
//
//	store, err := history.Open("/var/lib/contentsync/history.db")
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//	runner := contentsync.NewRunner(opts, store)
//
// The database uses the pure Go modernc.org/sqlite driver in WAL mode.
package history
