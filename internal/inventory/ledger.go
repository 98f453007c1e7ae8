package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"teatrack/internal/store"
)

// ErrInsufficientStock marks an adjustment that would take a balance below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrUnknownTea marks a reference to a tea id that does not exist.
var ErrUnknownTea = errors.New("unknown tea")

// ErrTeaDisabled marks stock movement attempted against a disabled tea.
var ErrTeaDisabled = errors.New("tea is disabled")

// ErrHistoryExists marks a hard delete refused because audit rows reference the tea.
var ErrHistoryExists = errors.New("tea has recorded history")

// Ledger enforces stock invariants and writes the audit trail.
type Ledger struct {
	store *store.Store
}

// NewLedger constructs a Ledger over the shared store.
func NewLedger(st *store.Store) *Ledger {
	return &Ledger{store: st}
}

// AdjustStock applies one signed delta inside its own transaction. It makes a
// single attempt; retry-on-conflict policy belongs to the facade.
func (l *Ledger) AdjustStock(ctx context.Context, teaID, delta int64, reason AdjustmentReason) (*StockAdjustment, error) {
	var adj *StockAdjustment
	err := l.store.WithTx(ctx, func(tx *sql.Tx) error {
		var applyErr error
		adj, applyErr = l.ApplyAdjustment(ctx, tx, teaID, delta, reason)
		return applyErr
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// ApplyAdjustment re-reads the balance, applies the delta, and appends the
// audit row, all within the caller's transaction. The brew manager uses this
// to consume stock and finalize a session as one unit.
func (l *Ledger) ApplyAdjustment(ctx context.Context, tx *sql.Tx, teaID, delta int64, reason AdjustmentReason) (*StockAdjustment, error) {
	if _, ok := reasonSet[reason]; !ok {
		return nil, fmt.Errorf("unknown adjustment reason %q", reason)
	}

	var (
		quantity int64
		disabled int64
	)
	row := tx.QueryRowContext(ctx, `SELECT quantity, disabled FROM teas WHERE id = ?`, teaID)
	if err := row.Scan(&quantity, &disabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: tea %d", ErrUnknownTea, teaID)
		}
		return nil, fmt.Errorf("read balance: %w", err)
	}
	if disabled != 0 && reason != ReasonCorrection {
		return nil, fmt.Errorf("%w: tea %d", ErrTeaDisabled, teaID)
	}

	balance := quantity + delta
	if balance < 0 {
		return nil, fmt.Errorf("%w: tea %d has %d, adjustment of %d refused", ErrInsufficientStock, teaID, quantity, delta)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE teas SET quantity = ? WHERE id = ?`, balance, teaID); err != nil {
		return nil, fmt.Errorf("write balance: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO stock_adjustments (tea_id, delta, reason, balance, created_at) VALUES (?, ?, ?, ?, ?)`,
		teaID,
		delta,
		string(reason),
		balance,
		store.FormatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("append adjustment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &StockAdjustment{
		ID:        id,
		TeaID:     teaID,
		Delta:     delta,
		Reason:    reason,
		Balance:   balance,
		CreatedAt: now,
	}, nil
}

// CurrentStock returns a point-in-time balance. Display only: any decision
// based on it must be re-validated inside the mutating transaction.
func (l *Ledger) CurrentStock(ctx context.Context, teaID int64) (int64, error) {
	var quantity int64
	row := l.store.DB().QueryRowContext(ctx, `SELECT quantity FROM teas WHERE id = ?`, teaID)
	if err := row.Scan(&quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: tea %d", ErrUnknownTea, teaID)
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return quantity, nil
}

// History returns a tea's adjustments in commit order.
func (l *Ledger) History(ctx context.Context, teaID int64) ([]*StockAdjustment, error) {
	if _, err := l.GetTea(ctx, teaID); err != nil {
		return nil, err
	}

	rows, err := l.store.DB().QueryContext(
		ctx,
		`SELECT id, tea_id, delta, reason, balance, created_at FROM stock_adjustments WHERE tea_id = ? ORDER BY id`,
		teaID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var adjustments []*StockAdjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

func scanAdjustment(scanner interface{ Scan(dest ...any) error }) (*StockAdjustment, error) {
	var (
		adj        StockAdjustment
		reasonStr  string
		createdRaw string
	)
	if err := scanner.Scan(&adj.ID, &adj.TeaID, &adj.Delta, &reasonStr, &adj.Balance, &createdRaw); err != nil {
		return nil, fmt.Errorf("scan adjustment: %w", err)
	}
	adj.Reason = AdjustmentReason(reasonStr)
	if created, err := store.ParseTime(createdRaw); err == nil {
		adj.CreatedAt = created
	}
	return &adj, nil
}
