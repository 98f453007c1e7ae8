package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"teatrack/internal/tracker"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(1)
		}
		message, status := renderFailure(err)
		fmt.Fprintln(os.Stderr, message)
		os.Exit(status)
	}
}

// renderFailure appends the stable result code to the error text and maps it
// to an exit status, so scripts can branch on the failure kind without
// parsing messages.
func renderFailure(err error) (string, int) {
	code := tracker.CodeFor(err)
	return fmt.Sprintf("%v (%s)", err, code), exitStatus(code)
}

func exitStatus(code tracker.Code) int {
	switch code {
	case tracker.CodeInvalidInput:
		return 2
	case tracker.CodeInsufficientStock:
		return 3
	case tracker.CodeConflict:
		return 4
	case tracker.CodeInvalidState:
		return 5
	case tracker.CodeBrewAborted:
		return 6
	default:
		return 1
	}
}
