// Package inventory owns tea records, stock balances, and the append-only
// adjustment trail.
//
// The Ledger is the only code allowed to change a tea's quantity. Every
// change happens inside one store transaction that re-reads the balance,
// applies the signed delta, and appends a StockAdjustment carrying the
// resulting balance, so the sum of committed adjustments always equals the
// current balance. Balances are integers in the tea's smallest unit; a
// committed balance is never negative.
//
// Teas are soft-disabled rather than deleted once adjustments reference
// them; RemoveTea refuses while history or sessions exist.
package inventory
