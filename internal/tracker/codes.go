package tracker

import (
	"errors"

	"teatrack/internal/brew"
	"teatrack/internal/inventory"
	"teatrack/internal/store"
)

// Code is a stable, user-visible classification of an operation outcome.
type Code string

const (
	CodeOK                Code = "ok"
	CodeInvalidInput      Code = "invalid_input"
	CodeInsufficientStock Code = "insufficient_stock"
	CodeConflict          Code = "conflict"
	CodeInvalidState      Code = "invalid_state"
	CodeBrewAborted       Code = "brew_aborted"
	CodeInternal          Code = "internal"
)

// CodeFor maps an error returned by any Tracker operation to its result code.
// No failure kind collapses into another: a caller can always distinguish an
// aborted brew from a plain stock shortage.
func CodeFor(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, brew.ErrBrewAborted):
		return CodeBrewAborted
	case errors.Is(err, inventory.ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, store.ErrConflict):
		return CodeConflict
	case errors.Is(err, brew.ErrInvalidState), errors.Is(err, inventory.ErrHistoryExists):
		return CodeInvalidState
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, inventory.ErrUnknownTea),
		errors.Is(err, inventory.ErrTeaDisabled),
		errors.Is(err, brew.ErrUnknownSession),
		errors.Is(err, brew.ErrInvalidQuantity):
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}
