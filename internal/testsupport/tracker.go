package testsupport

import (
	"context"
	"testing"

	"teatrack/internal/config"
	"teatrack/internal/inventory"
	"teatrack/internal/logging"
	"teatrack/internal/tracker"
)

// MustOpenTracker opens a Tracker backed by a fresh store for tests.
func MustOpenTracker(t testing.TB, cfg *config.Config) *tracker.Tracker {
	t.Helper()

	st := MustOpenStore(t, cfg)
	return tracker.New(cfg, st, logging.NewNop())
}

// CreateTea creates a tea for tests using the provided tracker.
func CreateTea(t testing.TB, tr *tracker.Tracker, name string, quantity int64) *inventory.Tea {
	t.Helper()

	tea, err := tr.CreateTea(context.Background(), inventory.NewTea{Name: name, Quantity: quantity})
	if err != nil {
		t.Fatalf("tracker.CreateTea: %v", err)
	}
	return tea
}
