// File: cmd/cmd_test.go
package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/store"
	"github.com/xkilldash9x/ui-differ/internal/transport"
)

// -- compare --

func TestCompareCmd_ReportsDiscrepancies(t *testing.T) {
	f := newFixtures(t)
	out := filepath.Join(f.dir, "report.jsonl")

	_, err := executeCommand(t, newFakeProvider(), "",
		"--config", f.config, "-f", "json", "-o", out,
		"compare", "--dom", f.snapshot, "--design", f.shifted, "--name", "home")
	require.NoError(t, err)

	results := readResults(t, out)
	require.Len(t, results, 1)
	assert.Equal(t, "home", results[0].Name)
	assert.NotEmpty(t, results[0].RunID)

	rec, ok := results[0].ByDomID()["b"]
	require.True(t, ok, "b sits 10px higher than designed")
	assert.Equal(t, "d-b", rec.DesignNodeID)
	assert.Equal(t, -10, rec.Diff.MarginTop)
}

func TestCompareCmd_NameDefaultsToURL(t *testing.T) {
	f := newFixtures(t)
	out := filepath.Join(f.dir, "report.jsonl")

	_, err := executeCommand(t, newFakeProvider(), "",
		"--config", f.config, "-f", "json", "-o", out,
		"compare", "--dom", f.snapshot, "--design", f.identical)
	require.NoError(t, err)

	results := readResults(t, out)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com/home", results[0].Name)
	assert.Empty(t, results[0].Records)
}

func TestCompareCmd_FailOnDiff(t *testing.T) {
	f := newFixtures(t)
	out := filepath.Join(f.dir, "report.jsonl")

	_, err := executeCommand(t, newFakeProvider(), "",
		"--config", f.config, "-f", "json", "-o", out,
		"compare", "--dom", f.snapshot, "--design", f.shifted, "--fail-on-diff")
	assert.ErrorIs(t, err, ErrDiffsFound)
	// The report is still written.
	assert.Len(t, readResults(t, out), 1)

	_, err = executeCommand(t, newFakeProvider(), "",
		"--config", f.config, "-f", "json", "-o", out,
		"compare", "--dom", f.snapshot, "--design", f.identical, "--fail-on-diff")
	assert.NoError(t, err)
}

func TestCompareCmd_Persist(t *testing.T) {
	f := newFixtures(t)
	provider := newFakeProvider()

	_, err := executeCommand(t, provider, "",
		"--config", f.config, "-f", "json", "-o", filepath.Join(f.dir, "r.jsonl"),
		"compare", "--dom", f.snapshot, "--design", f.shifted, "--persist")
	require.NoError(t, err)

	require.Len(t, provider.store.saved, 1)
	assert.Equal(t, 1, provider.created)
	assert.Equal(t, 1, provider.cleaned)

	t.Run("store unavailable", func(t *testing.T) {
		provider := newFakeProvider()
		provider.err = errNoDatabase
		_, err := executeCommand(t, provider, "",
			"--config", f.config, "-f", "json", "-o", filepath.Join(f.dir, "r.jsonl"),
			"compare", "--dom", f.snapshot, "--design", f.shifted, "--persist")
		assert.ErrorIs(t, err, errNoDatabase)
	})

	t.Run("save fails", func(t *testing.T) {
		provider := newFakeProvider()
		provider.store.saveErr = errors.New("disk full")
		_, err := executeCommand(t, provider, "",
			"--config", f.config, "-f", "json", "-o", filepath.Join(f.dir, "r.jsonl"),
			"compare", "--dom", f.snapshot, "--design", f.shifted, "--persist")
		assert.ErrorContains(t, err, "disk full")
		assert.Equal(t, 1, provider.cleaned)
	})
}

func TestCompareCmd_LiveCapture(t *testing.T) {
	f := newFixtures(t)
	capturer := &fakeCapturer{snap: page()}
	installCapturer(t, capturer)

	_, err := executeCommand(t, newFakeProvider(), "",
		"--config", f.config, "-f", "json", "-o", filepath.Join(f.dir, "r.jsonl"),
		"compare", "--url", "https://example.com/home", "--selector", "#app",
		"--design", f.identical, "--viewport", "390x844", "--headless=false")
	require.NoError(t, err)

	require.Len(t, capturer.requests, 1)
	assert.Equal(t, "https://example.com/home", capturer.requests[0].URL)
	assert.Equal(t, "#app", capturer.requests[0].Selector)
	assert.Equal(t, int64(390), capturer.cfg.Viewport.Width)
	assert.Equal(t, int64(844), capturer.cfg.Viewport.Height)
	assert.False(t, capturer.cfg.Headless)
	assert.True(t, capturer.closed, "the browser must be shut down after the capture")
}

func TestCompareCmd_CaptureFailure(t *testing.T) {
	f := newFixtures(t)
	capturer := &fakeCapturer{err: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	installCapturer(t, capturer)

	_, err := executeCommand(t, newFakeProvider(), "",
		"--config", f.config, "compare", "--url", "https://nowhere.invalid", "--design", f.identical)
	assert.ErrorContains(t, err, "failed to capture https://nowhere.invalid")
	assert.True(t, capturer.closed)
}

func TestCompareCmd_FlagValidation(t *testing.T) {
	f := newFixtures(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no dom source", []string{"--design", f.identical}, "[dom url]"},
		{"both dom sources", []string{"--dom", f.snapshot, "--url", "https://x", "--design", f.identical}, "[dom url]"},
		{"no design", []string{"--dom", f.snapshot}, `"design" not set`},
		{"bad viewport", []string{"--dom", f.snapshot, "--design", f.identical, "--viewport", "wide"}, "invalid viewport"},
		{"missing design file", []string{"--dom", f.snapshot, "--design", filepath.Join(f.dir, "nope.json")}, "failed to load design"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", f.config, "compare"}, tt.args...)
			_, err := executeCommand(t, newFakeProvider(), "", args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseViewport(t *testing.T) {
	w, h, err := parseViewport("375x812")
	require.NoError(t, err)
	assert.Equal(t, int64(375), w)
	assert.Equal(t, int64(812), h)

	w, h, err = parseViewport(" 1280 X 720 ")
	require.NoError(t, err)
	assert.Equal(t, int64(1280), w)
	assert.Equal(t, int64(720), h)

	for _, bad := range []string{"", "375", "x812", "375x", "0x812", "-1x5", "axb"} {
		_, _, err := parseViewport(bad)
		assert.Error(t, err, bad)
	}
}

// -- capture --

func TestCaptureCmd_WritesSnapshot(t *testing.T) {
	f := newFixtures(t)
	capturer := &fakeCapturer{snap: page()}
	installCapturer(t, capturer)
	out := filepath.Join(f.dir, "captured.json.br")

	_, err := executeCommand(t, newFakeProvider(), "",
		"--config", f.config, "capture", "https://example.com/home", "--out", out)
	require.NoError(t, err)

	snap, err := transport.LoadSnapshot(out)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/home", snap.URL)
	assert.Equal(t, "root", snap.Root.UniqueID)
	assert.True(t, capturer.closed)
}

func TestCaptureCmd_RequiresURL(t *testing.T) {
	f := newFixtures(t)
	_, err := executeCommand(t, newFakeProvider(), "", "--config", f.config, "capture")
	assert.ErrorContains(t, err, "accepts 1 arg(s)")
}

// -- batch --

func TestBatchCmd(t *testing.T) {
	f := newFixtures(t)
	out := filepath.Join(f.dir, "batch.jsonl")
	// The fake capturer would fail any URL case; snapshot cases never use it.
	capturer := &fakeCapturer{err: errors.New("no browser in tests")}
	installCapturer(t, capturer)

	t.Run("all cases pass", func(t *testing.T) {
		manifest := writeFile(t, f.dir, "ok.yaml", `
concurrency: 2
cases:
  - name: home
    dom_snapshot: page.json
    design: identical.json
  - name: home-shifted
    dom_snapshot: page.json
    design: shifted.json
`)
		provider := newFakeProvider()
		_, err := executeCommand(t, provider, "",
			"--config", f.config, "-f", "json", "-o", out, "batch", manifest, "--persist")
		require.NoError(t, err)

		results := readResults(t, out)
		require.Len(t, results, 2)
		assert.Equal(t, "home", results[0].Name)
		assert.Equal(t, "home-shifted", results[1].Name)
		assert.Len(t, provider.store.saved, 2)
		assert.Empty(t, capturer.requests)
	})

	t.Run("fail on diff", func(t *testing.T) {
		manifest := writeFile(t, f.dir, "diff.yaml", `
cases:
  - name: home-shifted
    dom_snapshot: page.json
    design: shifted.json
`)
		_, err := executeCommand(t, newFakeProvider(), "",
			"--config", f.config, "-f", "json", "-o", out, "batch", manifest, "--fail-on-diff")
		assert.ErrorIs(t, err, ErrDiffsFound)
	})

	t.Run("failed case is reported", func(t *testing.T) {
		manifest := writeFile(t, f.dir, "partial.yaml", `
cases:
  - name: home
    dom_snapshot: page.json
    design: identical.json
  - name: missing
    dom_snapshot: page.json
    design: missing.json
`)
		_, err := executeCommand(t, newFakeProvider(), "",
			"--config", f.config, "-f", "json", "-o", out, "batch", manifest)
		assert.ErrorContains(t, err, "1 of 2 cases failed")

		results := readResults(t, out)
		require.Len(t, results, 1, "successful cases are still reported")
		assert.Equal(t, "home", results[0].Name)
	})

	t.Run("invalid manifest", func(t *testing.T) {
		manifest := writeFile(t, f.dir, "bad.yaml", "cases: []\n")
		_, err := executeCommand(t, newFakeProvider(), "", "--config", f.config, "batch", manifest)
		assert.ErrorContains(t, err, "manifest has no cases")
	})

	assert.True(t, capturer.closed)
}

// -- report --

func sampleRun() *schemas.DiffResult {
	return &schemas.DiffResult{
		RunID:     "run-1",
		Name:      "home",
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Records: []schemas.DiffRecord{
			{DomNodeID: "b", DesignNodeID: "d-b", DesignNodeName: "Blue", Diff: schemas.DiffValues{MarginTop: -10}},
		},
		Passed:    []string{"a"},
		Unmatched: []string{},
		Discarded: []string{},
	}
}

func TestReportCmd_RendersStoredRun(t *testing.T) {
	f := newFixtures(t)
	provider := newFakeProvider()
	provider.store.runs["run-1"] = sampleRun()
	out := filepath.Join(f.dir, "run.jsonl")

	_, err := executeCommand(t, provider, "", "--config", f.config, "-f", "json", "-o", out, "report", "--run-id", "run-1")
	require.NoError(t, err)

	results := readResults(t, out)
	require.Len(t, results, 1)
	assert.Equal(t, "run-1", results[0].RunID)
	assert.Equal(t, 1, provider.cleaned)
}

func TestReportCmd_Errors(t *testing.T) {
	f := newFixtures(t)

	t.Run("no selection", func(t *testing.T) {
		_, err := executeCommand(t, newFakeProvider(), "", "--config", f.config, "report")
		assert.ErrorContains(t, err, "one of --run-id or --list is required")
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := executeCommand(t, newFakeProvider(), "", "--config", f.config, "report", "--run-id", "nope")
		assert.ErrorIs(t, err, store.ErrRunNotFound)
	})

	t.Run("store unavailable", func(t *testing.T) {
		provider := newFakeProvider()
		provider.err = errors.New("connection refused")
		_, err := executeCommand(t, provider, "", "--config", f.config, "report", "--run-id", "run-1")
		assert.ErrorContains(t, err, "failed to initialize store: connection refused")
	})
}

func TestReportCmd_ListRuns(t *testing.T) {
	f := newFixtures(t)
	provider := newFakeProvider()
	provider.store.summaries = []store.RunSummary{
		{RunID: "run-2", Name: "checkout", CreatedAt: time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC), Reported: 3, Unmatched: 1},
		{RunID: "run-1", Name: "home", CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}

	output, err := executeCommand(t, provider, "", "--config", f.config, "report", "--list", "--limit", "5")
	require.NoError(t, err)

	assert.Contains(t, output, "RUN ID")
	assert.Contains(t, output, "run-2")
	assert.Contains(t, output, "checkout")
	assert.Contains(t, output, "2024-05-02T09:30:00Z")
	assert.Equal(t, 5, provider.store.limit)

	var row string
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "run-2") {
			row = line
		}
	}
	require.NotEmpty(t, row)
	assert.Regexp(t, `run-2\s*│\s*checkout\s*│\s*2024-05-02T09:30:00Z\s*│\s*3\s*│\s*1`, row)
}

func TestDefaultStoreProvider_RequiresURL(t *testing.T) {
	cfg := config.NewDefaultConfig()
	_, _, err := NewStoreProvider().Create(context.Background(), cfg)
	assert.ErrorIs(t, err, errNoDatabase)
}

// -- clipboard --

func TestClipboardCmd_RoundTrip(t *testing.T) {
	f := newFixtures(t)

	encoded, err := executeCommand(t, newFakeProvider(), "", "--config", f.config, "clipboard", "encode", f.identical)
	require.NoError(t, err)
	assert.True(t, transport.IsClipboard([]byte(encoded)))

	nodes, err := transport.DecodeClipboard(encoded)
	require.NoError(t, err)
	assert.Contains(t, nodes.IDs(), "d-b")

	decoded, err := executeCommand(t, newFakeProvider(), encoded, "--config", f.config, "clipboard", "decode")
	require.NoError(t, err)
	roundTripped, err := transport.DecodeNodeList([]byte(decoded))
	require.NoError(t, err)
	assert.Equal(t, nodes.IDs(), roundTripped.IDs())
}

func TestClipboardCmd_DecodeRejectsPlainJSON(t *testing.T) {
	f := newFixtures(t)
	_, err := executeCommand(t, newFakeProvider(), "", "--config", f.config, "clipboard", "decode", f.identical)
	assert.ErrorIs(t, err, transport.ErrMissingPrefix)
}

// -- serve --

func TestRunServe_WithoutDatabase(t *testing.T) {
	cfg := config.NewDefaultConfig()
	provider := newFakeProvider()
	provider.err = errNoDatabase

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := runServe(ctx, zaptest.NewLogger(t), cfg, "127.0.0.1:0", provider)
	assert.NoError(t, err)
}

func TestRunServe_Errors(t *testing.T) {
	cfg := config.NewDefaultConfig()

	t.Run("store failure", func(t *testing.T) {
		provider := newFakeProvider()
		provider.err = errors.New("authentication failed")
		err := runServe(context.Background(), zaptest.NewLogger(t), cfg, "127.0.0.1:0", provider)
		assert.ErrorContains(t, err, "authentication failed")
	})

	t.Run("bad address", func(t *testing.T) {
		provider := newFakeProvider()
		err := runServe(context.Background(), zaptest.NewLogger(t), cfg, "not-an-address", provider)
		assert.ErrorContains(t, err, "failed to listen")
		assert.Equal(t, 1, provider.cleaned)
	})
}

func TestCompareCmd_RejectsUnknownFormat(t *testing.T) {
	f := newFixtures(t)
	out := filepath.Join(f.dir, "never.txt")
	_, err := executeCommand(t, newFakeProvider(), "", "--config", f.config, "-f", "pdf", "-o", out,
		"compare", "--dom", f.snapshot, "--design", f.identical)
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
