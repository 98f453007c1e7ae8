// Package brew tracks brewing sessions as a small per-tea state machine.
//
// A session reserves stock while active: availability for a new session is
// the tea's on-hand balance minus the reservations of other active sessions,
// computed inside the same transaction that inserts the session. Completion
// consumes the reserved quantity through the inventory Ledger and is the
// only path that mutates stock; cancellation merely releases the
// reservation. Terminal sessions (completed, cancelled) are retained for
// history and never transition again.
package brew
