// File: cmd/root_test.go
package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_VersionFlag(t *testing.T) {
	output, err := executeCommand(t, newFakeProvider(), "", "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "ui-differ version dev")
}

func TestVersionCmd_NeedsNoConfig(t *testing.T) {
	// A broken config file must not stop the version command.
	dir := t.TempDir()
	bad := writeFile(t, dir, "config.yaml", "report:\n  format: pdf\n")

	output, err := executeCommand(t, newFakeProvider(), "", "--config", bad, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "ui-differ dev")
}

func TestRootCmd_ConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", `
design:
  unit_base: 1500
  safe_area:
    enabled: false
report:
  format: junit
batch:
  concurrency: 9
`)
	t.Setenv("UIDIFFER_BATCH_CONCURRENCY", "3")
	t.Setenv("UIDIFFER_DATABASE_URL", "postgres://differ@localhost/differ")

	provider := newFakeProvider()
	_, err := executeCommand(t, provider, "", "--config", cfgPath, "-f", "sarif", "--dump-dir", dir, "report", "--list")
	require.NoError(t, err)

	cfg := provider.cfg
	require.NotNil(t, cfg)
	// File over default.
	assert.Equal(t, 1500.0, cfg.Design().UnitBase)
	assert.False(t, cfg.Design().SafeArea.Enabled)
	// Environment over file.
	assert.Equal(t, 3, cfg.Batch().Concurrency)
	assert.Equal(t, "postgres://differ@localhost/differ", cfg.Database().URL)
	// Flag over file.
	assert.Equal(t, "sarif", cfg.Report().Format)
	assert.Equal(t, dir, cfg.Pipeline().DumpDir)
	// Untouched default.
	assert.Equal(t, 0.3, cfg.Matcher().MinScore)
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("validation", func(t *testing.T) {
		cfgPath := writeFile(t, dir, "invalid.yaml", "matcher:\n  min_score: 2\n")
		_, err := executeCommand(t, newFakeProvider(), "", "--config", cfgPath, "report", "--list")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load or validate config")
	})

	t.Run("unreadable", func(t *testing.T) {
		cfgPath := writeFile(t, dir, "broken.yaml", "design: [unterminated\n")
		_, err := executeCommand(t, newFakeProvider(), "", "--config", cfgPath, "report", "--list")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize configuration")
	})
}

func TestGetConfigFromContext(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.ErrorContains(t, err, "configuration not found in context")

	//nolint:staticcheck // exercising the nil guard
	_, err = getConfigFromContext(nil)
	assert.ErrorContains(t, err, "no context available")
}
