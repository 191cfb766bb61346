// File: cmd/ui-differ/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/ui-differ/cmd"
	"github.com/xkilldash9x/ui-differ/internal/observability"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	// exitDiffs is used with --fail-on-diff so CI can tell a layout
	// regression from a broken run.
	exitDiffs = 2
)

// Allows mocking os.Exit in tests.
var osExit = os.Exit

func main() {
	defer handlePanic()

	// Set up a context that listens for interrupt signals (SIGINT, SIGTERM) for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := exitCode(cmd.Execute(ctx))
	stop()
	osExit(code)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return exitOK
	case errors.Is(err, cmd.ErrDiffsFound):
		return exitDiffs
	}
	// The logger may be writing to a file; make sure the user sees the error.
	fmt.Fprintln(os.Stderr, "Error:", err)
	return exitError
}

// handlePanic flushes logs and prints the stack before exiting.
func handlePanic() {
	if r := recover(); r != nil {
		observability.Sync()
		fmt.Fprintf(os.Stderr, "panic: %v\n\n%s", r, debug.Stack())
		osExit(exitError)
	}
}
