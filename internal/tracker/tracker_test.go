package tracker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"teatrack/internal/brew"
	"teatrack/internal/inventory"
	"teatrack/internal/store"
	"teatrack/internal/testsupport"
	"teatrack/internal/tracker"
)

// The concrete round trip from the design notes: start at 10, restock to 15,
// consume 12 across two brews, and verify the third brew is refused.
func TestRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := testsupport.MustOpenTracker(t, cfg)
	ctx := context.Background()

	tea := testsupport.CreateTea(t, tr, "Earl Grey", 10)

	if _, err := tr.Restock(ctx, tea.ID, 5); err != nil {
		t.Fatalf("Restock failed: %v", err)
	}
	if stock, _ := tr.CurrentStock(ctx, tea.ID); stock != 15 {
		t.Fatalf("expected 15 after restock, got %d", stock)
	}

	for _, quantity := range []int64{8, 4} {
		session, err := tr.StartBrew(ctx, tea.ID, quantity, time.Minute)
		if err != nil {
			t.Fatalf("StartBrew(%d) failed: %v", quantity, err)
		}
		if _, err := tr.FinishBrew(ctx, session.ID, ""); err != nil {
			t.Fatalf("FinishBrew(%d) failed: %v", quantity, err)
		}
	}
	if stock, _ := tr.CurrentStock(ctx, tea.ID); stock != 3 {
		t.Fatalf("expected 3 after two brews, got %d", stock)
	}

	_, err := tr.StartBrew(ctx, tea.ID, 5, time.Minute)
	if !errors.Is(err, inventory.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock for third brew, got %v", err)
	}
	if tracker.CodeFor(err) != tracker.CodeInsufficientStock {
		t.Fatalf("wrong code for shortage: %s", tracker.CodeFor(err))
	}

	history, err := tr.History(ctx, tea.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected exactly 3 adjustments, got %d", len(history))
	}
	var net int64
	for _, adj := range history {
		net += adj.Delta
	}
	if net != -7 {
		t.Fatalf("expected net delta -7, got %d", net)
	}
}

// Two workers racing for all remaining stock: exactly one brews, the other is
// told the stock is gone. Never both.
func TestRacingStartsNeverOversell(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := testsupport.MustOpenTracker(t, cfg)
	ctx := context.Background()

	tea := testsupport.CreateTea(t, tr, "Last Pot", 10)

	type outcome struct {
		session *brew.Session
		err     error
	}
	results := make([]outcome, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			session, err := tr.StartBrew(ctx, tea.ID, 10, time.Minute)
			results[slot] = outcome{session: session, err: err}
		}(i)
	}
	wg.Wait()

	var winners, losers int
	for _, res := range results {
		switch {
		case res.err == nil:
			winners++
		case errors.Is(res.err, inventory.ErrInsufficientStock), errors.Is(res.err, store.ErrConflict):
			losers++
		default:
			t.Fatalf("unexpected race outcome: %v", res.err)
		}
	}
	if winners != 1 || losers != 1 {
		t.Fatalf("expected exactly one winner, got %d winners / %d losers", winners, losers)
	}

	for _, res := range results {
		if res.err == nil {
			if _, err := tr.FinishBrew(ctx, res.session.ID, ""); err != nil {
				t.Fatalf("FinishBrew failed: %v", err)
			}
		}
	}
	if stock, _ := tr.CurrentStock(ctx, tea.ID); stock != 0 {
		t.Fatalf("expected 0 after winning brew, got %d", stock)
	}
}

func TestCancelCompletedSessionIsSafeNoOp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := testsupport.MustOpenTracker(t, cfg)
	ctx := context.Background()

	tea := testsupport.CreateTea(t, tr, "Done Deal", 10)
	session, err := tr.StartBrew(ctx, tea.ID, 4, time.Minute)
	if err != nil {
		t.Fatalf("StartBrew failed: %v", err)
	}
	if _, err := tr.FinishBrew(ctx, session.ID, ""); err != nil {
		t.Fatalf("FinishBrew failed: %v", err)
	}

	_, err = tr.CancelBrew(ctx, session.ID)
	if !errors.Is(err, brew.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if tracker.CodeFor(err) != tracker.CodeInvalidState {
		t.Fatalf("wrong code: %s", tracker.CodeFor(err))
	}
	if stock, _ := tr.CurrentStock(ctx, tea.ID); stock != 6 {
		t.Fatalf("late cancel mutated stock: %d", stock)
	}
}

func TestAbortedFinishReportsDistinctly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := testsupport.MustOpenTracker(t, cfg)
	ctx := context.Background()

	tea := testsupport.CreateTea(t, tr, "Undercut", 10)
	session, err := tr.StartBrew(ctx, tea.ID, 8, time.Minute)
	if err != nil {
		t.Fatalf("StartBrew failed: %v", err)
	}
	if _, err := tr.CorrectStock(ctx, tea.ID, -5); err != nil {
		t.Fatalf("CorrectStock failed: %v", err)
	}

	_, err = tr.FinishBrew(ctx, session.ID, "")
	if !errors.Is(err, brew.ErrBrewAborted) {
		t.Fatalf("expected ErrBrewAborted, got %v", err)
	}
	if tracker.CodeFor(err) != tracker.CodeBrewAborted {
		t.Fatalf("abort must map to its own code, got %s", tracker.CodeFor(err))
	}

	got, err := tr.Brew(ctx, session.ID)
	if err != nil {
		t.Fatalf("Brew lookup failed: %v", err)
	}
	if got.Status != brew.StatusCancelled {
		t.Fatalf("aborted session not cancelled: %s", got.Status)
	}
}

func TestInvalidInputRejectedBeforeAnyTransaction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := testsupport.MustOpenTracker(t, cfg)
	ctx := context.Background()
	tea := testsupport.CreateTea(t, tr, "Valid", 10)

	cases := []struct {
		name string
		call func() error
	}{
		{"empty tea name", func() error {
			_, err := tr.CreateTea(ctx, inventory.NewTea{Name: "   "})
			return err
		}},
		{"negative opening quantity", func() error {
			_, err := tr.CreateTea(ctx, inventory.NewTea{Name: "X", Quantity: -1})
			return err
		}},
		{"zero restock", func() error {
			_, err := tr.Restock(ctx, tea.ID, 0)
			return err
		}},
		{"negative restock", func() error {
			_, err := tr.Restock(ctx, tea.ID, -5)
			return err
		}},
		{"zero correction", func() error {
			_, err := tr.CorrectStock(ctx, tea.ID, 0)
			return err
		}},
		{"negative brew quantity", func() error {
			_, err := tr.StartBrew(ctx, tea.ID, -1, 0)
			return err
		}},
		{"empty session id", func() error {
			_, err := tr.FinishBrew(ctx, "  ", "")
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if !errors.Is(err, tracker.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if tracker.CodeFor(err) != tracker.CodeInvalidInput {
				t.Fatalf("wrong code: %s", tracker.CodeFor(err))
			}
		})
	}

	// Unknown ids surface as invalid input too.
	if _, err := tr.Restock(ctx, 404, 5); tracker.CodeFor(err) != tracker.CodeInvalidInput {
		t.Fatalf("unknown tea should map to invalid_input, got %s", tracker.CodeFor(err))
	}
	if _, err := tr.CancelBrew(ctx, "missing"); tracker.CodeFor(err) != tracker.CodeInvalidInput {
		t.Fatalf("unknown session should map to invalid_input, got %s", tracker.CodeFor(err))
	}
}

func TestStartBrewUsesDefaultDose(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := testsupport.MustOpenTracker(t, cfg)
	ctx := context.Background()

	tea, err := tr.CreateTea(ctx, inventory.NewTea{Name: "Dosed", Quantity: 20, DefaultDose: 6})
	if err != nil {
		t.Fatalf("CreateTea failed: %v", err)
	}

	session, err := tr.StartBrew(ctx, tea.ID, 0, 0)
	if err != nil {
		t.Fatalf("StartBrew failed: %v", err)
	}
	if session.Quantity != 6 {
		t.Fatalf("expected default dose 6, got %d", session.Quantity)
	}
	if session.ExpectedDuration != time.Duration(cfg.Brew.DefaultExpectedSeconds)*time.Second {
		t.Fatalf("expected configured default duration, got %v", session.ExpectedDuration)
	}
}

func TestSuggestTeaAndLowStock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := testsupport.MustOpenTracker(t, cfg)
	ctx := context.Background()

	suggestion, err := tr.SuggestTea(ctx)
	if err != nil {
		t.Fatalf("SuggestTea failed: %v", err)
	}
	if suggestion != nil {
		t.Fatalf("expected no suggestion on empty shelf, got %+v", suggestion)
	}

	threshold := int64(5)
	if _, err := tr.CreateTea(ctx, inventory.NewTea{Name: "Scarce", Quantity: 2, ReorderThreshold: &threshold}); err != nil {
		t.Fatalf("CreateTea failed: %v", err)
	}
	full := testsupport.CreateTea(t, tr, "Plentiful", 100)

	suggestion, err = tr.SuggestTea(ctx)
	if err != nil {
		t.Fatalf("SuggestTea failed: %v", err)
	}
	if suggestion == nil || suggestion.ID != full.ID {
		t.Fatalf("expected Plentiful suggested, got %+v", suggestion)
	}

	low, err := tr.LowStock(ctx)
	if err != nil {
		t.Fatalf("LowStock failed: %v", err)
	}
	if len(low) != 1 || low[0].Name != "Scarce" {
		t.Fatalf("unexpected low stock set: %+v", low)
	}
}

func TestReclaimExpiredBrews(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Brew.ReclaimGraceSeconds = 0
	tr := testsupport.MustOpenTracker(t, cfg)
	ctx := context.Background()

	tea := testsupport.CreateTea(t, tr, "Abandoned", 10)
	session, err := tr.StartBrew(ctx, tea.ID, 2, time.Nanosecond)
	if err != nil {
		t.Fatalf("StartBrew failed: %v", err)
	}

	reclaimed, err := tr.ReclaimExpiredBrews(ctx)
	if err != nil {
		t.Fatalf("ReclaimExpiredBrews failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed session, got %d", reclaimed)
	}
	got, err := tr.Brew(ctx, session.ID)
	if err != nil {
		t.Fatalf("Brew lookup failed: %v", err)
	}
	if got.Status != brew.StatusCancelled {
		t.Fatalf("reclaimed session not cancelled: %s", got.Status)
	}
	if stock, _ := tr.CurrentStock(ctx, tea.ID); stock != 10 {
		t.Fatalf("reclaim mutated stock: %d", stock)
	}
}

func TestRemoveAndDisableLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := testsupport.MustOpenTracker(t, cfg)
	ctx := context.Background()

	tea := testsupport.CreateTea(t, tr, "Lifecycle", 10)
	if _, err := tr.Restock(ctx, tea.ID, 1); err != nil {
		t.Fatalf("Restock failed: %v", err)
	}

	err := tr.RemoveTea(ctx, tea.ID)
	if !errors.Is(err, inventory.ErrHistoryExists) {
		t.Fatalf("expected ErrHistoryExists, got %v", err)
	}
	if tracker.CodeFor(err) != tracker.CodeInvalidState {
		t.Fatalf("wrong code for guarded delete: %s", tracker.CodeFor(err))
	}

	if err := tr.DisableTea(ctx, tea.ID); err != nil {
		t.Fatalf("DisableTea failed: %v", err)
	}
	if _, err := tr.StartBrew(ctx, tea.ID, 1, 0); tracker.CodeFor(err) != tracker.CodeInvalidInput {
		t.Fatalf("brew on disabled tea should be invalid input, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := testsupport.MustOpenTracker(t, cfg)

	health, err := tr.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if !health.DatabaseExists || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestCodeForTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want tracker.Code
	}{
		{"nil", nil, tracker.CodeOK},
		{"invalid input", tracker.ErrInvalidInput, tracker.CodeInvalidInput},
		{"unknown tea", inventory.ErrUnknownTea, tracker.CodeInvalidInput},
		{"disabled tea", inventory.ErrTeaDisabled, tracker.CodeInvalidInput},
		{"unknown session", brew.ErrUnknownSession, tracker.CodeInvalidInput},
		{"non-positive quantity", brew.ErrInvalidQuantity, tracker.CodeInvalidInput},
		{"insufficient", inventory.ErrInsufficientStock, tracker.CodeInsufficientStock},
		{"conflict", store.ErrConflict, tracker.CodeConflict},
		{"invalid state", brew.ErrInvalidState, tracker.CodeInvalidState},
		{"history exists", inventory.ErrHistoryExists, tracker.CodeInvalidState},
		{"aborted", brew.ErrBrewAborted, tracker.CodeBrewAborted},
		{"anything else", errors.New("disk on fire"), tracker.CodeInternal},
	}
	for _, tc := range cases {
		if got := tracker.CodeFor(tc.err); got != tc.want {
			t.Fatalf("%s: CodeFor = %s, want %s", tc.name, got, tc.want)
		}
	}
}
