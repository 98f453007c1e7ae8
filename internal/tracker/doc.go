// Package tracker is the single entry point the serving layer calls.
//
// The Tracker composes the inventory Ledger and the brew session Manager.
// It validates input before any transaction opens, owns the bounded
// retry-on-conflict policy (no other layer retries), and maps every failure
// to a stable result code so the presentation layer can render a precise
// message. Each facade call is one store transaction from the caller's
// point of view.
package tracker
