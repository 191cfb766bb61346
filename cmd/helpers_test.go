// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/browser"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/server"
	"github.com/xkilldash9x/ui-differ/internal/store"
	"github.com/xkilldash9x/ui-differ/internal/transport"
)

// -- Store fakes --

type fakeRunStore struct {
	mu        sync.Mutex
	saved     []*schemas.DiffResult
	runs      map[string]*schemas.DiffResult
	summaries []store.RunSummary
	saveErr   error
	limit     int
}

func (s *fakeRunStore) SaveRun(_ context.Context, r *schemas.DiffResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, r)
	return nil
}

func (s *fakeRunStore) GetRun(_ context.Context, runID string) (*schemas.DiffResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, store.ErrRunNotFound
	}
	return r, nil
}

func (s *fakeRunStore) ListRuns(_ context.Context, limit int) ([]store.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = limit
	return s.summaries, nil
}

// fakeStoreProvider hands out a fakeRunStore and records the configuration it
// was called with.
type fakeStoreProvider struct {
	mu      sync.Mutex
	store   *fakeRunStore
	err     error
	cfg     config.Interface
	created int
	cleaned int
}

func newFakeProvider() *fakeStoreProvider {
	return &fakeStoreProvider{store: &fakeRunStore{runs: map[string]*schemas.DiffResult{}}}
}

func (p *fakeStoreProvider) Create(_ context.Context, cfg config.Interface) (server.RunStore, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
	if p.err != nil {
		return nil, nil, p.err
	}
	p.created++
	return p.store, func() {
		p.mu.Lock()
		p.cleaned++
		p.mu.Unlock()
	}, nil
}

// -- Browser fake --

type fakeCapturer struct {
	mu       sync.Mutex
	cfg      config.BrowserConfig
	snap     *schemas.PageSnapshot
	err      error
	requests []browser.Request
	closed   bool
}

func (c *fakeCapturer) Capture(_ context.Context, req browser.Request) (*schemas.PageSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return c.snap, nil
}

func (c *fakeCapturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// installCapturer swaps newCapturer for the duration of the test.
func installCapturer(t *testing.T, c *fakeCapturer) {
	t.Helper()
	original := newCapturer
	newCapturer = func(cfg config.BrowserConfig, _ *zap.Logger) pageCapturer {
		c.mu.Lock()
		c.cfg = cfg
		c.mu.Unlock()
		return c
	}
	t.Cleanup(func() { newCapturer = original })
}

// -- Command execution --

// executeCommand runs a fresh command tree with args and returns what the
// command printed.
func executeCommand(t *testing.T, provider storeProvider, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(provider)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// -- Fixtures --

// testConfigYAML disables the safe area so the small fixtures below keep
// every node.
const testConfigYAML = `
design:
  safe_area:
    enabled: false
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func style(background string) schemas.ComputedStyle {
	return schemas.ComputedStyle{
		BackgroundColor: background,
		BackgroundImage: "none",
		Transform:       "none",
		Float:           "none",
		Position:        "static",
		Display:         "block",
		OverflowX:       "visible",
		OverflowY:       "visible",
		ColumnCount:     "auto",
		ColumnWidth:     "auto",
		FlexGrow:        "0",
		LineHeight:      "20px",
		FontSize:        "16px",
	}
}

func element(id, background string, x, y, w, h float64, children ...*schemas.ElementSnapshot) *schemas.ElementSnapshot {
	return &schemas.ElementSnapshot{
		UniqueID: id,
		Tag:      "div",
		Rect:     schemas.Rect{X: x, Y: y, Width: w, Height: h},
		Style:    style(background),
		Children: children,
	}
}

// page is a 375x200 root holding two stacked 100x50 boxes 20px apart.
func page() *schemas.PageSnapshot {
	return &schemas.PageSnapshot{
		URL:            "https://example.com/home",
		DocumentHeight: 200,
		Root: element("root", "rgba(0, 0, 0, 0)", 0, 0, 375, 200,
			element("a", "rgb(255, 0, 0)", 10, 10, 100, 50),
			element("b", "rgb(0, 0, 255)", 10, 80, 100, 50),
		),
	}
}

func solid(r, g, b float64) []schemas.Paint {
	return []schemas.Paint{{Type: "SOLID", Color: schemas.RGBA{R: r, G: g, B: b, A: 1}}}
}

// mockup is page() in 750-unit design coordinates, with b lowered by bOffset units.
func mockup(bOffset float64) *schemas.SceneNode {
	return &schemas.SceneNode{
		ID: "frame", Name: "Screen", Type: schemas.NodeTypeFrame,
		AbsoluteBoundingBox: schemas.Rect{Width: 750, Height: 400},
		Children: []*schemas.SceneNode{
			{
				ID: "d-a", Name: "Red", Type: schemas.NodeTypeRectangle,
				AbsoluteBoundingBox: schemas.Rect{X: 20, Y: 20, Width: 200, Height: 100},
				Fills:               solid(1, 0, 0),
			},
			{
				ID: "d-b", Name: "Blue", Type: schemas.NodeTypeRectangle,
				AbsoluteBoundingBox: schemas.Rect{X: 20, Y: 160 + bOffset, Width: 200, Height: 100},
				Fills:               solid(0, 0, 1),
			},
		},
	}
}

// fixtures writes a config, a snapshot and two designs into a temp dir.
type fixtures struct {
	dir       string
	config    string
	snapshot  string
	identical string
	shifted   string
}

func newFixtures(t *testing.T) fixtures {
	t.Helper()
	dir := t.TempDir()
	f := fixtures{
		dir:       dir,
		config:    writeFile(t, dir, "config.yaml", testConfigYAML),
		snapshot:  filepath.Join(dir, "page.json"),
		identical: filepath.Join(dir, "identical.json"),
		shifted:   filepath.Join(dir, "shifted.json"),
	}
	require.NoError(t, transport.WriteJSON(f.snapshot, page()))
	require.NoError(t, transport.WriteJSON(f.identical, mockup(0)))
	// 20 design units convert to 10px.
	require.NoError(t, transport.WriteJSON(f.shifted, mockup(20)))
	return f
}

// readResults decodes a JSON lines report.
func readResults(t *testing.T, path string) []*schemas.DiffResult {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out []*schemas.DiffResult
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var r schemas.DiffResult
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		out = append(out, &r)
	}
	return out
}
