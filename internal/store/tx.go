package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrConflict marks a detected concurrent write collision. The operation did
// not commit; callers may retry the whole logical operation.
var ErrConflict = errors.New("write conflict")

const sqliteBusyCode = 5

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Classify converts driver-level lock contention into ErrConflict and leaves
// every other error untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if isSQLiteBusy(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// WithTx runs fn inside one immediate transaction. The transaction commits
// only when fn returns nil; any error rolls everything back. Lock-wait
// exhaustion at begin, inside fn, or at commit surfaces as ErrConflict.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Classify(fmt.Errorf("begin transaction: %w", err))
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return Classify(err)
	}
	if err := tx.Commit(); err != nil {
		return Classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
