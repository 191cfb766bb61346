// File: cmd/ui-differ/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/ui-differ/cmd"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"interrupted", context.Canceled, exitOK},
		{"wrapped interrupt", fmt.Errorf("capture: %w", context.Canceled), exitOK},
		{"discrepancies", cmd.ErrDiffsFound, exitDiffs},
		{"failure", errors.New("boom"), exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestHandlePanic(t *testing.T) {
	defer func() { osExit = os.Exit }()

	var code int
	exited := false
	osExit = func(c int) {
		code = c
		exited = true
	}

	func() {
		defer handlePanic()
		panic("test panic")
	}()

	assert.True(t, exited)
	assert.Equal(t, exitError, code)
}
