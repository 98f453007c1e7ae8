package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"teatrack/internal/brew"
	"teatrack/internal/config"
	"teatrack/internal/inventory"
	"teatrack/internal/logging"
	"teatrack/internal/store"
)

// ErrInvalidInput marks a request rejected before any transaction opened.
var ErrInvalidInput = errors.New("invalid input")

const (
	maxNameLength = 100
	maxNoteLength = 500
)

// Tracker composes the Ledger and the brew Manager behind one facade.
type Tracker struct {
	store           *store.Store
	ledger          *inventory.Ledger
	sessions        *brew.Manager
	logger          *slog.Logger
	retries         int
	defaultExpected time.Duration
	reclaimGrace    time.Duration
}

// New constructs a Tracker over an open store.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	ledger := inventory.NewLedger(st)
	return &Tracker{
		store:           st,
		ledger:          ledger,
		sessions:        brew.NewManager(st, ledger),
		logger:          logger.With(slog.String(logging.FieldComponent, "tracker")),
		retries:         cfg.Store.ConflictRetries,
		defaultExpected: time.Duration(cfg.Brew.DefaultExpectedSeconds) * time.Second,
		reclaimGrace:    time.Duration(cfg.Brew.ReclaimGraceSeconds) * time.Second,
	}
}

// withRetry re-runs fn on conflict up to the configured attempt count. There
// is no sleep between attempts: the store's busy timeout already bounds how
// long each attempt waited for the write lock.
func (t *Tracker) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < t.retries; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, store.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		t.logger.Debug("retrying after write conflict", slog.Int("attempt", attempt+1))
	}
	return err
}

// CreateTea registers a new tea with its opening balance.
func (t *Tracker) CreateTea(ctx context.Context, attrs inventory.NewTea) (*inventory.Tea, error) {
	name := strings.TrimSpace(attrs.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tea name cannot be empty", ErrInvalidInput)
	}
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: tea name exceeds %d characters", ErrInvalidInput, maxNameLength)
	}
	if attrs.Quantity < 0 {
		return nil, fmt.Errorf("%w: opening quantity cannot be negative", ErrInvalidInput)
	}
	if attrs.DefaultDose < 0 {
		return nil, fmt.Errorf("%w: default dose cannot be negative", ErrInvalidInput)
	}
	if attrs.ReorderThreshold != nil && *attrs.ReorderThreshold < 0 {
		return nil, fmt.Errorf("%w: reorder threshold cannot be negative", ErrInvalidInput)
	}
	attrs.Name = name

	var tea *inventory.Tea
	err := t.withRetry(ctx, func() error {
		var createErr error
		tea, createErr = t.ledger.CreateTea(ctx, attrs)
		return createErr
	})
	if err != nil {
		return nil, err
	}
	t.logger.Info("tea created", slog.Int64(logging.FieldTeaID, tea.ID), slog.String("name", tea.Name))
	return tea, nil
}

// Restock adds quantity to a tea and appends a restock adjustment.
func (t *Tracker) Restock(ctx context.Context, teaID, quantity int64) (*inventory.StockAdjustment, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive", ErrInvalidInput)
	}
	return t.adjust(ctx, teaID, quantity, inventory.ReasonRestock)
}

// CorrectStock records a manual correction. The delta may be negative but the
// resulting balance may not.
func (t *Tracker) CorrectStock(ctx context.Context, teaID, delta int64) (*inventory.StockAdjustment, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: correction delta cannot be zero", ErrInvalidInput)
	}
	return t.adjust(ctx, teaID, delta, inventory.ReasonCorrection)
}

func (t *Tracker) adjust(ctx context.Context, teaID, delta int64, reason inventory.AdjustmentReason) (*inventory.StockAdjustment, error) {
	var adj *inventory.StockAdjustment
	err := t.withRetry(ctx, func() error {
		var adjErr error
		adj, adjErr = t.ledger.AdjustStock(ctx, teaID, delta, reason)
		return adjErr
	})
	if err != nil {
		return nil, err
	}
	t.logger.Info("stock adjusted",
		slog.Int64(logging.FieldTeaID, teaID),
		slog.Int64(logging.FieldDelta, delta),
		slog.String(logging.FieldReason, string(reason)),
		slog.Int64("balance", adj.Balance),
	)
	return adj, nil
}

// StartBrew reserves stock for a new session. A zero quantity means "use the
// tea's default dose"; a zero duration means the configured default steep.
func (t *Tracker) StartBrew(ctx context.Context, teaID, quantity int64, expected time.Duration) (*brew.Session, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: brew quantity cannot be negative", ErrInvalidInput)
	}
	if quantity == 0 {
		tea, err := t.ledger.GetTea(ctx, teaID)
		if err != nil {
			return nil, err
		}
		quantity = tea.DefaultDose
	}
	if expected <= 0 {
		expected = t.defaultExpected
	}

	var session *brew.Session
	err := t.withRetry(ctx, func() error {
		var startErr error
		session, startErr = t.sessions.Start(ctx, teaID, quantity, expected)
		return startErr
	})
	if err != nil {
		return nil, err
	}
	t.logger.Info("brew started",
		slog.Int64(logging.FieldTeaID, teaID),
		slog.String(logging.FieldSessionID, session.ID),
		slog.Int64("quantity", quantity),
	)
	return session, nil
}

// FinishBrew completes a session, consuming its reservation. The tasting note
// is optional and trimmed to a bounded length.
func (t *Tracker) FinishBrew(ctx context.Context, sessionID, tastingNote string) (*brew.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id cannot be empty", ErrInvalidInput)
	}
	tastingNote = strings.TrimSpace(tastingNote)
	if len(tastingNote) > maxNoteLength {
		tastingNote = tastingNote[:maxNoteLength]
	}

	var session *brew.Session
	err := t.withRetry(ctx, func() error {
		var finishErr error
		session, finishErr = t.sessions.Complete(ctx, sessionID, tastingNote)
		return finishErr
	})
	if err != nil {
		if errors.Is(err, brew.ErrBrewAborted) && session != nil {
			t.logger.Warn("brew aborted",
				slog.String(logging.FieldSessionID, session.ID),
				slog.Int64(logging.FieldTeaID, session.TeaID),
			)
		}
		return session, err
	}
	t.logger.Info("brew finished",
		slog.String(logging.FieldSessionID, session.ID),
		slog.Int64(logging.FieldTeaID, session.TeaID),
	)
	return session, nil
}

// CancelBrew releases a session's reservation without consuming stock.
func (t *Tracker) CancelBrew(ctx context.Context, sessionID string) (*brew.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id cannot be empty", ErrInvalidInput)
	}

	var session *brew.Session
	err := t.withRetry(ctx, func() error {
		var cancelErr error
		session, cancelErr = t.sessions.Cancel(ctx, sessionID)
		return cancelErr
	})
	if err != nil {
		return nil, err
	}
	t.logger.Info("brew cancelled",
		slog.String(logging.FieldSessionID, session.ID),
		slog.Int64(logging.FieldTeaID, session.TeaID),
	)
	return session, nil
}

// ListTeas returns every tea.
func (t *Tracker) ListTeas(ctx context.Context) ([]*inventory.Tea, error) {
	return t.ledger.ListTeas(ctx)
}

// Tea returns one tea by id.
func (t *Tracker) Tea(ctx context.Context, teaID int64) (*inventory.Tea, error) {
	return t.ledger.GetTea(ctx, teaID)
}

// History returns a tea's adjustments in commit order.
func (t *Tracker) History(ctx context.Context, teaID int64) ([]*inventory.StockAdjustment, error) {
	return t.ledger.History(ctx, teaID)
}

// CurrentStock returns a display-only balance.
func (t *Tracker) CurrentStock(ctx context.Context, teaID int64) (int64, error) {
	return t.ledger.CurrentStock(ctx, teaID)
}

// ActiveBrews returns every active session.
func (t *Tracker) ActiveBrews(ctx context.Context) ([]*brew.Session, error) {
	return t.sessions.Active(ctx)
}

// Brew returns one session by id.
func (t *Tracker) Brew(ctx context.Context, sessionID string) (*brew.Session, error) {
	return t.sessions.Get(ctx, sessionID)
}

// SuggestTea picks the enabled tea with the most stock on hand, or nil when
// everything is empty.
func (t *Tracker) SuggestTea(ctx context.Context) (*inventory.Tea, error) {
	return t.ledger.FullestTea(ctx)
}

// LowStock returns enabled teas at or below their reorder threshold.
func (t *Tracker) LowStock(ctx context.Context) ([]*inventory.Tea, error) {
	return t.ledger.LowStock(ctx)
}

// DisableTea soft-disables a tea.
func (t *Tracker) DisableTea(ctx context.Context, teaID int64) error {
	err := t.withRetry(ctx, func() error {
		return t.ledger.DisableTea(ctx, teaID)
	})
	if err != nil {
		return err
	}
	t.logger.Info("tea disabled", slog.Int64(logging.FieldTeaID, teaID))
	return nil
}

// RemoveTea hard-deletes a tea with no recorded history.
func (t *Tracker) RemoveTea(ctx context.Context, teaID int64) error {
	err := t.withRetry(ctx, func() error {
		return t.ledger.RemoveTea(ctx, teaID)
	})
	if err != nil {
		return err
	}
	t.logger.Info("tea removed", slog.Int64(logging.FieldTeaID, teaID))
	return nil
}

// ReclaimExpiredBrews cancels overdue active sessions using the configured grace.
func (t *Tracker) ReclaimExpiredBrews(ctx context.Context) (int64, error) {
	var reclaimed int64
	err := t.withRetry(ctx, func() error {
		var reclaimErr error
		reclaimed, reclaimErr = t.sessions.ReclaimExpired(ctx, t.reclaimGrace)
		return reclaimErr
	})
	if err != nil {
		return 0, err
	}
	if reclaimed > 0 {
		t.logger.Info("expired brews reclaimed", slog.Int64("count", reclaimed))
	}
	return reclaimed, nil
}

// Health reports store diagnostics.
func (t *Tracker) Health(ctx context.Context) (store.DatabaseHealth, error) {
	return t.store.CheckHealth(ctx)
}
