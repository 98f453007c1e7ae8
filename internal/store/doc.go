// Package store manages the single-file SQLite record store shared by all
// worker processes.
//
// The store is opened in WAL mode with immediate write transactions: a
// transaction takes the write lock when it begins, so a check inside a
// transaction can never be invalidated by another writer before the commit.
// Writers waiting on the lock are bounded by the configured busy timeout;
// exhausting it surfaces ErrConflict rather than hanging. Cross-process
// coordination happens exclusively through this file; in-memory locks would
// not cover multiple processes.
//
// Schema changes are versioned SQL files under migrations/ applied inside a
// file lock so that concurrently starting workers initialize the database
// exactly once.
package store
