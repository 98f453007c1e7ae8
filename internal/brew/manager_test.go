package brew_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"teatrack/internal/brew"
	"teatrack/internal/inventory"
	"teatrack/internal/testsupport"
)

func newManager(t *testing.T) (*brew.Manager, *inventory.Ledger) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ledger := inventory.NewLedger(st)
	return brew.NewManager(st, ledger), ledger
}

func mustCreateTea(t *testing.T, ledger *inventory.Ledger, name string, quantity int64) *inventory.Tea {
	t.Helper()
	tea, err := ledger.CreateTea(context.Background(), inventory.NewTea{Name: name, Quantity: quantity})
	if err != nil {
		t.Fatalf("CreateTea failed: %v", err)
	}
	return tea
}

func TestStartThenCompleteConsumesStock(t *testing.T) {
	manager, ledger := newManager(t)
	ctx := context.Background()
	tea := mustCreateTea(t, ledger, "Oolong", 10)

	session, err := manager.Start(ctx, tea.ID, 4, 3*time.Minute)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if session.Status != brew.StatusActive {
		t.Fatalf("expected active session, got %s", session.Status)
	}
	if session.ID == "" {
		t.Fatal("expected session id to be assigned")
	}

	// The reservation holds stock but has not consumed it yet.
	stock, err := ledger.CurrentStock(ctx, tea.ID)
	if err != nil {
		t.Fatalf("CurrentStock failed: %v", err)
	}
	if stock != 10 {
		t.Fatalf("reservation mutated stock: %d", stock)
	}

	done, err := manager.Complete(ctx, session.ID, "grassy, long finish")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Status != brew.StatusCompleted || done.CompletedAt == nil {
		t.Fatalf("unexpected completed session: %+v", done)
	}
	if done.TastingNote != "grassy, long finish" {
		t.Fatalf("tasting note lost: %q", done.TastingNote)
	}

	stock, err = ledger.CurrentStock(ctx, tea.ID)
	if err != nil {
		t.Fatalf("CurrentStock failed: %v", err)
	}
	if stock != 6 {
		t.Fatalf("expected 6 after consumption, got %d", stock)
	}

	history, err := ledger.History(ctx, tea.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].Reason != inventory.ReasonBrew || history[0].Delta != -4 {
		t.Fatalf("expected one brew-consumption row of -4, got %+v", history)
	}
}

func TestStartChecksAvailabilityAgainstReservations(t *testing.T) {
	manager, ledger := newManager(t)
	ctx := context.Background()
	tea := mustCreateTea(t, ledger, "Pu-erh", 10)

	first, err := manager.Start(ctx, tea.ID, 8, time.Minute)
	if err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	// 10 on hand minus 8 reserved leaves 2 available.
	if _, err := manager.Start(ctx, tea.ID, 5, time.Minute); !errors.Is(err, inventory.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if _, err := manager.Start(ctx, tea.ID, 2, time.Minute); err != nil {
		t.Fatalf("Start within availability failed: %v", err)
	}

	if _, err := manager.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	// Cancellation released the 8-unit reservation without touching stock.
	if _, err := manager.Start(ctx, tea.ID, 8, time.Minute); err != nil {
		t.Fatalf("Start after cancel failed: %v", err)
	}
	stock, err := ledger.CurrentStock(ctx, tea.ID)
	if err != nil {
		t.Fatalf("CurrentStock failed: %v", err)
	}
	if stock != 10 {
		t.Fatalf("cancel mutated stock: %d", stock)
	}
}

func TestTerminalSessionsRejectTransitions(t *testing.T) {
	manager, ledger := newManager(t)
	ctx := context.Background()
	tea := mustCreateTea(t, ledger, "Darjeeling", 10)

	session, err := manager.Start(ctx, tea.ID, 3, time.Minute)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := manager.Complete(ctx, session.ID, ""); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if _, err := manager.Complete(ctx, session.ID, ""); !errors.Is(err, brew.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double complete, got %v", err)
	}
	if _, err := manager.Cancel(ctx, session.ID); !errors.Is(err, brew.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState cancelling completed session, got %v", err)
	}

	stock, err := ledger.CurrentStock(ctx, tea.ID)
	if err != nil {
		t.Fatalf("CurrentStock failed: %v", err)
	}
	if stock != 7 {
		t.Fatalf("terminal transitions mutated stock: %d", stock)
	}

	cancelled, err := manager.Start(ctx, tea.ID, 2, time.Minute)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := manager.Cancel(ctx, cancelled.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if _, err := manager.Cancel(ctx, cancelled.ID); !errors.Is(err, brew.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double cancel, got %v", err)
	}
}

func TestCompleteAbortsWhenStockMovedOutOfBand(t *testing.T) {
	manager, ledger := newManager(t)
	ctx := context.Background()
	tea := mustCreateTea(t, ledger, "Shifted", 10)

	session, err := manager.Start(ctx, tea.ID, 8, time.Minute)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Manual correction removes stock the reservation was counting on.
	if _, err := ledger.AdjustStock(ctx, tea.ID, -5, inventory.ReasonCorrection); err != nil {
		t.Fatalf("correction failed: %v", err)
	}

	aborted, err := manager.Complete(ctx, session.ID, "")
	if !errors.Is(err, brew.ErrBrewAborted) {
		t.Fatalf("expected ErrBrewAborted, got %v", err)
	}
	if aborted == nil || aborted.Status != brew.StatusCancelled {
		t.Fatalf("expected session force-cancelled, got %+v", aborted)
	}

	// The abort is distinct from a plain shortage and consumed no stock.
	if errors.Is(err, inventory.ErrInsufficientStock) {
		t.Fatal("abort must not be reported as a plain stock shortage")
	}
	stock, err := ledger.CurrentStock(ctx, tea.ID)
	if err != nil {
		t.Fatalf("CurrentStock failed: %v", err)
	}
	if stock != 5 {
		t.Fatalf("abort mutated stock: %d", stock)
	}
	history, err := ledger.History(ctx, tea.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	for _, adj := range history {
		if adj.Reason == inventory.ReasonBrew {
			t.Fatalf("aborted brew wrote a consumption row: %+v", adj)
		}
	}
}

func TestStartRejectsNonPositiveQuantity(t *testing.T) {
	manager, ledger := newManager(t)
	ctx := context.Background()
	tea := mustCreateTea(t, ledger, "Measured", 10)

	for _, quantity := range []int64{0, -3} {
		if _, err := manager.Start(ctx, tea.ID, quantity, time.Minute); !errors.Is(err, brew.ErrInvalidQuantity) {
			t.Fatalf("Start(%d): expected ErrInvalidQuantity, got %v", quantity, err)
		}
	}

	active, err := manager.Active(ctx)
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("rejected starts created sessions: %+v", active)
	}
}

func TestUnknownSessionAndTea(t *testing.T) {
	manager, ledger := newManager(t)
	ctx := context.Background()

	if _, err := manager.Start(ctx, 404, 1, time.Minute); !errors.Is(err, inventory.ErrUnknownTea) {
		t.Fatalf("expected ErrUnknownTea, got %v", err)
	}
	if _, err := manager.Complete(ctx, "no-such-session", ""); !errors.Is(err, brew.ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
	if _, err := manager.Cancel(ctx, "no-such-session"); !errors.Is(err, brew.ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}

	tea := mustCreateTea(t, ledger, "Shelved", 10)
	if err := ledger.DisableTea(ctx, tea.ID); err != nil {
		t.Fatalf("DisableTea failed: %v", err)
	}
	if _, err := manager.Start(ctx, tea.ID, 1, time.Minute); !errors.Is(err, inventory.ErrTeaDisabled) {
		t.Fatalf("expected ErrTeaDisabled, got %v", err)
	}
}

func TestReclaimExpiredCancelsOverdueSessions(t *testing.T) {
	manager, ledger := newManager(t)
	ctx := context.Background()
	tea := mustCreateTea(t, ledger, "Forgotten", 10)

	overdue, err := manager.Start(ctx, tea.ID, 2, time.Nanosecond)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	fresh, err := manager.Start(ctx, tea.ID, 2, time.Hour)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	reclaimed, err := manager.ReclaimExpired(ctx, 0)
	if err != nil {
		t.Fatalf("ReclaimExpired failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed session, got %d", reclaimed)
	}

	got, err := manager.Get(ctx, overdue.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != brew.StatusCancelled {
		t.Fatalf("overdue session not cancelled: %s", got.Status)
	}
	got, err = manager.Get(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != brew.StatusActive {
		t.Fatalf("fresh session should stay active: %s", got.Status)
	}

	active, err := manager.Active(ctx)
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != fresh.ID {
		t.Fatalf("unexpected active set: %+v", active)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  brew.Status
		ok    bool
	}{
		{"active", brew.StatusActive, true},
		{" Completed ", brew.StatusCompleted, true},
		{"CANCELLED", brew.StatusCancelled, true},
		{"pending", brew.StatusPending, true},
		{"steeping", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := brew.ParseStatus(tc.input)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("ParseStatus(%q) = %q/%v, want %q/%v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
	if !brew.StatusCompleted.IsTerminal() || !brew.StatusCancelled.IsTerminal() || brew.StatusActive.IsTerminal() {
		t.Fatal("terminal classification wrong")
	}
}
