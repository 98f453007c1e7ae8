package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"teatrack/internal/store"
)

const teaColumns = "id, name, blend, unit, quantity, reorder_threshold, default_dose, seller, price_per_unit_cents, notes, disabled, created_at"

// CreateTea inserts a new tea with its opening balance. The opening quantity
// is not an adjustment; the audit trail starts with the first stock movement.
func (l *Ledger) CreateTea(ctx context.Context, attrs NewTea) (*Tea, error) {
	attrs.Name = strings.TrimSpace(attrs.Name)
	attrs.Unit = strings.TrimSpace(attrs.Unit)
	if attrs.Unit == "" {
		attrs.Unit = "g"
	}
	if attrs.DefaultDose <= 0 {
		attrs.DefaultDose = 4
	}

	now := time.Now().UTC()
	var id int64
	err := l.store.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO teas (
                name, blend, unit, quantity, reorder_threshold, default_dose,
                seller, price_per_unit_cents, notes, disabled, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
			attrs.Name,
			strings.TrimSpace(attrs.Blend),
			attrs.Unit,
			attrs.Quantity,
			nullableInt64(attrs.ReorderThreshold),
			attrs.DefaultDose,
			strings.TrimSpace(attrs.Seller),
			attrs.PricePerUnitCents,
			strings.TrimSpace(attrs.Notes),
			store.FormatTime(now),
		)
		if err != nil {
			return fmt.Errorf("insert tea: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.GetTea(ctx, id)
}

// GetTea fetches a tea by identifier.
func (l *Ledger) GetTea(ctx context.Context, id int64) (*Tea, error) {
	row := l.store.DB().QueryRowContext(ctx, `SELECT `+teaColumns+` FROM teas WHERE id = ?`, id)
	tea, err := scanTea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tea %d", ErrUnknownTea, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get tea: %w", err)
	}
	return tea, nil
}

// ListTeas returns every tea ordered by name; disabled teas are included so
// their history remains reachable.
func (l *Ledger) ListTeas(ctx context.Context) ([]*Tea, error) {
	rows, err := l.store.DB().QueryContext(ctx, `SELECT `+teaColumns+` FROM teas ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list teas: %w", err)
	}
	defer rows.Close()
	return collectTeas(rows)
}

// LowStock returns enabled teas whose balance is at or below their reorder threshold.
func (l *Ledger) LowStock(ctx context.Context) ([]*Tea, error) {
	rows, err := l.store.DB().QueryContext(
		ctx,
		`SELECT `+teaColumns+` FROM teas
         WHERE disabled = 0 AND reorder_threshold IS NOT NULL AND quantity <= reorder_threshold
         ORDER BY quantity, name COLLATE NOCASE`,
	)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	return collectTeas(rows)
}

// FullestTea returns the enabled tea with the largest balance, or nil when
// nothing is in stock.
func (l *Ledger) FullestTea(ctx context.Context) (*Tea, error) {
	row := l.store.DB().QueryRowContext(
		ctx,
		`SELECT `+teaColumns+` FROM teas
         WHERE disabled = 0 AND quantity > 0
         ORDER BY quantity DESC, name COLLATE NOCASE LIMIT 1`,
	)
	tea, err := scanTea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pick fullest tea: %w", err)
	}
	return tea, nil
}

// DisableTea soft-disables a tea so it stops accepting restocks and brews
// while its history stays intact.
func (l *Ledger) DisableTea(ctx context.Context, id int64) error {
	return l.store.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE teas SET disabled = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("disable tea: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: tea %d", ErrUnknownTea, id)
		}
		return nil
	})
}

// RemoveTea hard-deletes a tea only when no adjustments or sessions reference
// it; otherwise it fails with ErrHistoryExists and the caller should disable instead.
func (l *Ledger) RemoveTea(ctx context.Context, id int64) error {
	return l.store.WithTx(ctx, func(tx *sql.Tx) error {
		var references int
		row := tx.QueryRowContext(
			ctx,
			`SELECT (SELECT COUNT(1) FROM stock_adjustments WHERE tea_id = ?)
                  + (SELECT COUNT(1) FROM brew_sessions WHERE tea_id = ?)`,
			id, id,
		)
		if err := row.Scan(&references); err != nil {
			return fmt.Errorf("count references: %w", err)
		}
		if references > 0 {
			return fmt.Errorf("%w: tea %d", ErrHistoryExists, id)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM teas WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete tea: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: tea %d", ErrUnknownTea, id)
		}
		return nil
	})
}

func collectTeas(rows *sql.Rows) ([]*Tea, error) {
	var teas []*Tea
	for rows.Next() {
		tea, err := scanTea(rows)
		if err != nil {
			return nil, err
		}
		teas = append(teas, tea)
	}
	return teas, rows.Err()
}

func scanTea(scanner interface{ Scan(dest ...any) error }) (*Tea, error) {
	var (
		tea        Tea
		threshold  sql.NullInt64
		disabled   int64
		createdRaw string
	)
	if err := scanner.Scan(
		&tea.ID,
		&tea.Name,
		&tea.Blend,
		&tea.Unit,
		&tea.Quantity,
		&threshold,
		&tea.DefaultDose,
		&tea.Seller,
		&tea.PricePerUnitCents,
		&tea.Notes,
		&disabled,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	if threshold.Valid {
		value := threshold.Int64
		tea.ReorderThreshold = &value
	}
	tea.Disabled = disabled != 0
	if created, err := store.ParseTime(createdRaw); err == nil {
		tea.CreatedAt = created
	}
	return &tea, nil
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}
