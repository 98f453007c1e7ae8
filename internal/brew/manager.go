package brew

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"teatrack/internal/inventory"
	"teatrack/internal/store"
)

// ErrInvalidState marks an operation attempted on a session already in a terminal state.
var ErrInvalidState = errors.New("session is not active")

// ErrUnknownSession marks a reference to a session id that does not exist.
var ErrUnknownSession = errors.New("unknown session")

// ErrInvalidQuantity marks a session requested with a non-positive quantity.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// ErrBrewAborted marks a completion that found the stock gone: the session
// was force-cancelled and no consumption was recorded.
var ErrBrewAborted = errors.New("brew aborted, stock changed out from under the session")

const sessionColumns = "id, tea_id, quantity, status, tasting_note, started_at, expected_seconds, completed_at"

// Manager drives brew sessions. It never mutates stock directly; consumption
// goes through the Ledger inside the manager's transaction.
type Manager struct {
	store  *store.Store
	ledger *inventory.Ledger
}

// NewManager constructs a Manager over the shared store and ledger.
func NewManager(st *store.Store, ledger *inventory.Ledger) *Manager {
	return &Manager{store: st, ledger: ledger}
}

// Start reserves quantity for a new active session. The availability check
// and the insert share one transaction, so two racing starts for the last
// unit serialize on the store's write lock and the loser sees the reduced
// availability.
func (m *Manager) Start(ctx context.Context, teaID, quantity int64, expected time.Duration) (*Session, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %d requested", ErrInvalidQuantity, quantity)
	}

	var session *Session
	err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
		var (
			onHand   int64
			disabled int64
		)
		row := tx.QueryRowContext(ctx, `SELECT quantity, disabled FROM teas WHERE id = ?`, teaID)
		if err := row.Scan(&onHand, &disabled); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: tea %d", inventory.ErrUnknownTea, teaID)
			}
			return fmt.Errorf("read balance: %w", err)
		}
		if disabled != 0 {
			return fmt.Errorf("%w: tea %d", inventory.ErrTeaDisabled, teaID)
		}

		var reserved int64
		row = tx.QueryRowContext(
			ctx,
			`SELECT COALESCE(SUM(quantity), 0) FROM brew_sessions WHERE tea_id = ? AND status = ?`,
			teaID,
			StatusActive,
		)
		if err := row.Scan(&reserved); err != nil {
			return fmt.Errorf("sum reservations: %w", err)
		}

		if available := onHand - reserved; available < quantity {
			return fmt.Errorf("%w: tea %d has %d available, %d requested", inventory.ErrInsufficientStock, teaID, available, quantity)
		}

		now := time.Now().UTC()
		session = &Session{
			ID:               uuid.NewString(),
			TeaID:            teaID,
			Quantity:         quantity,
			Status:           StatusActive,
			StartedAt:        now,
			ExpectedDuration: expected,
		}
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO brew_sessions (id, tea_id, quantity, status, tasting_note, started_at, expected_seconds, completed_at)
             VALUES (?, ?, ?, ?, '', ?, ?, NULL)`,
			session.ID,
			session.TeaID,
			session.Quantity,
			session.Status,
			store.FormatTime(now),
			int64(expected/time.Second),
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Complete consumes the session's reservation and marks it completed, both in
// one transaction. If the stock moved out-of-band and can no longer cover the
// reservation, the session is force-cancelled (that cancellation commits) and
// the call reports ErrBrewAborted.
func (m *Manager) Complete(ctx context.Context, sessionID, tastingNote string) (*Session, error) {
	var (
		session *Session
		aborted bool
	)
	err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		session, err = getSessionTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != StatusActive {
			return fmt.Errorf("%w: session %s is %s", ErrInvalidState, session.ID, session.Status)
		}

		now := time.Now().UTC()
		_, err = m.ledger.ApplyAdjustment(ctx, tx, session.TeaID, -session.Quantity, inventory.ReasonBrew)
		if errors.Is(err, inventory.ErrInsufficientStock) {
			aborted = true
			return finalizeSession(ctx, tx, session, StatusCancelled, tastingNote, now)
		}
		if err != nil {
			return err
		}
		return finalizeSession(ctx, tx, session, StatusCompleted, tastingNote, now)
	})
	if err != nil {
		return nil, err
	}
	if aborted {
		return session, fmt.Errorf("%w: session %s", ErrBrewAborted, session.ID)
	}
	return session, nil
}

// Cancel releases an active session's reservation without touching stock.
// Terminal sessions report ErrInvalidState and are never mutated.
func (m *Manager) Cancel(ctx context.Context, sessionID string) (*Session, error) {
	var session *Session
	err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		session, err = getSessionTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != StatusActive {
			return fmt.Errorf("%w: session %s is %s", ErrInvalidState, session.ID, session.Status)
		}
		return finalizeSession(ctx, tx, session, StatusCancelled, "", time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Get fetches a session by identifier.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	row := m.store.DB().QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM brew_sessions WHERE id = ?`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// Active returns every active session ordered by start time.
func (m *Manager) Active(ctx context.Context) ([]*Session, error) {
	rows, err := m.store.DB().QueryContext(
		ctx,
		`SELECT `+sessionColumns+` FROM brew_sessions WHERE status = ? ORDER BY started_at, id`,
		StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// ReclaimExpired cancels active sessions whose expected duration plus grace
// has elapsed, releasing reservations abandoned by crashed or forgotten
// workers. Returns the number of sessions reclaimed.
func (m *Manager) ReclaimExpired(ctx context.Context, grace time.Duration) (int64, error) {
	var reclaimed int64
	err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(
			ctx,
			`SELECT `+sessionColumns+` FROM brew_sessions WHERE status = ?`,
			StatusActive,
		)
		if err != nil {
			return fmt.Errorf("list active sessions: %w", err)
		}
		var expired []*Session
		now := time.Now().UTC()
		for rows.Next() {
			session, err := scanSession(rows)
			if err != nil {
				rows.Close()
				return err
			}
			deadline := session.StartedAt.Add(session.ExpectedDuration + grace)
			if now.After(deadline) {
				expired = append(expired, session)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, session := range expired {
			if err := finalizeSession(ctx, tx, session, StatusCancelled, "", now); err != nil {
				return err
			}
			reclaimed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reclaimed, nil
}

func finalizeSession(ctx context.Context, tx *sql.Tx, session *Session, status Status, tastingNote string, at time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE brew_sessions SET status = ?, tasting_note = ?, completed_at = ? WHERE id = ?`,
		status,
		tastingNote,
		store.FormatTime(at),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	session.Status = status
	session.TastingNote = tastingNote
	completed := at
	session.CompletedAt = &completed
	return nil
}

func getSessionTx(ctx context.Context, tx *sql.Tx, sessionID string) (*Session, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM brew_sessions WHERE id = ?`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		session         Session
		statusStr       string
		startedRaw      string
		expectedSeconds int64
		completedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&session.ID,
		&session.TeaID,
		&session.Quantity,
		&statusStr,
		&session.TastingNote,
		&startedRaw,
		&expectedSeconds,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	session.Status = Status(statusStr)
	session.ExpectedDuration = time.Duration(expectedSeconds) * time.Second
	if started, err := store.ParseTime(startedRaw); err == nil {
		session.StartedAt = started
	}
	if completedRaw.Valid {
		if completed, err := store.ParseTime(completedRaw.String); err == nil {
			session.CompletedAt = &completed
		}
	}
	return &session, nil
}
