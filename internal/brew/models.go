package brew

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a brew session.
type Status string

const (
	// StatusPending is reserved for queued brews; Start creates sessions active.
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusActive,
	StatusCompleted,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Session is one brewing attempt against a tea. While active its quantity is
// a reservation; completion converts the reservation into consumption.
type Session struct {
	ID               string
	TeaID            int64
	Quantity         int64
	Status           Status
	TastingNote      string
	StartedAt        time.Time
	ExpectedDuration time.Duration
	CompletedAt      *time.Time
}
