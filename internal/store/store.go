package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"teatrack/internal/config"
)

// Store manages tracker persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the tracker database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	// Pragmas ride on the DSN so every pooled connection gets them, and
	// _txlock=immediate makes BeginTx take the write lock up front.
	dsn := fmt.Sprintf(
		"file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)",
		dbPath,
		cfg.Store.BusyTimeoutMillis,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}

	// Several workers may start against a fresh data directory at once;
	// the file lock makes schema application a single-process affair.
	initLock := flock.New(dbPath + ".init.lock")
	if err := initLock.Lock(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire init lock: %w", err)
	}
	migrateErr := store.applyMigrations(context.Background())
	if unlockErr := initLock.Unlock(); unlockErr != nil && migrateErr == nil {
		migrateErr = fmt.Errorf("release init lock: %w", unlockErr)
	}
	if migrateErr != nil {
		_ = db.Close()
		return nil, migrateErr
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for read-only queries. Mutations must go
// through WithTx.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the location of the store file.
func (s *Store) Path() string {
	return s.path
}
