package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/recorder"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.DesignCfg.SafeArea.Enabled = false
	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config, logger *zap.Logger) *Pipeline {
	t.Helper()
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}
	return New(cfg, logger,
		WithClock(func() time.Time { return fixedTime }),
		WithRunIDs(func() string { return "run-1" }),
	)
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
		URL:            "https://example.com",
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

func TestCompare_IdenticalLayouts(t *testing.T) {
	p := newTestPipeline(t, testConfig(), nil)

	result, err := p.Compare(context.Background(), Input{Name: "home", DOM: page(), Design: mockup(0)})
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, "home", result.Name)
	assert.Equal(t, fixedTime, result.CreatedAt)
	assert.Empty(t, result.Records, "identical layouts have nothing to report")
	assert.Contains(t, result.Passed, "a")
	assert.Contains(t, result.Passed, "b")
	assert.Empty(t, result.Unmatched)
	assert.Empty(t, result.Discarded)
	assert.Empty(t, result.Flagged)
}

func TestCompare_ReportsClampedGeometry(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := newTestPipeline(t, testConfig(), zap.New(core))

	dom := page()
	dom.Root.Style.PaddingBottom = "300px"

	result, err := p.Compare(context.Background(), Input{DOM: dom, Design: mockup(0)})
	require.NoError(t, err)

	assert.Contains(t, result.Flagged, "root", "padding taller than the root drives its height negative")
	assert.NotContains(t, result.Flagged, "a")
	clamped := logs.FilterMessage("Geometry was clamped during normalization.").All()
	require.Len(t, clamped, 1)
	assert.Equal(t, zapcore.WarnLevel, clamped[0].Level)
}

func TestCompare_ReportsShiftedNode(t *testing.T) {
	p := newTestPipeline(t, testConfig(), nil)

	// 20 design units convert to 10px.
	result, err := p.Compare(context.Background(), Input{DOM: page(), Design: mockup(20)})
	require.NoError(t, err)

	rec, ok := result.ByDomID()["b"]
	require.True(t, ok, "b sits 10px higher than designed and must be reported")
	assert.Equal(t, "d-b", rec.DesignNodeID)
	assert.Equal(t, "Blue", rec.DesignNodeName)
	assert.Equal(t, -10, rec.Diff.MarginTop)
	assert.Zero(t, rec.Diff.Width)
	assert.Zero(t, rec.Diff.Height)
	assert.NotContains(t, result.Passed, "b")
}

func TestCompare_PreRecordedDesignMatchesScene(t *testing.T) {
	p := newTestPipeline(t, testConfig(), nil)
	ctx := context.Background()

	fromScene, err := p.Compare(ctx, Input{DOM: page(), Design: mockup(20)})
	require.NoError(t, err)

	normalized, err := p.DesignTree(ctx, "run-1", Input{Design: mockup(20)})
	require.NoError(t, err)
	fromNodes, err := p.Compare(ctx, Input{DOM: page(), DesignNodes: normalized, DesignNormalized: true})
	require.NoError(t, err)

	if d := cmp.Diff(fromScene, fromNodes, cmpopts.EquateEmpty()); d != "" {
		t.Errorf("pre-normalized design produced a different result (-scene +nodes):\n%s", d)
	}

	// A raw recorded list is normalized again before matching.
	raw := recorder.NewDesignRecorder(recorder.DefaultConverter(), recorder.SafeArea{}).Record(mockup(20))
	fromRaw, err := p.Compare(ctx, Input{DOM: page(), DesignNodes: raw})
	require.NoError(t, err)
	if d := cmp.Diff(fromScene.Records, fromRaw.Records, cmpopts.EquateEmpty()); d != "" {
		t.Errorf("raw design list produced different records (-scene +raw):\n%s", d)
	}
}

func TestCompare_DoesNotMutateDesignNodes(t *testing.T) {
	p := newTestPipeline(t, testConfig(), nil)
	raw := recorder.NewDesignRecorder(recorder.DefaultConverter(), recorder.SafeArea{}).Record(mockup(0))
	before := raw.Clone()

	_, err := p.Compare(context.Background(), Input{DOM: page(), DesignNodes: raw})
	require.NoError(t, err)

	if d := cmp.Diff(before.Nodes(), raw.Nodes()); d != "" {
		t.Errorf("input map was mutated:\n%s", d)
	}
}

func TestCompare_Errors(t *testing.T) {
	p := newTestPipeline(t, testConfig(), nil)
	ctx := context.Background()

	t.Run("missing dom", func(t *testing.T) {
		_, err := p.Compare(ctx, Input{Design: mockup(0)})
		assert.ErrorContains(t, err, "dom: no page snapshot")
	})

	t.Run("dom without geometry", func(t *testing.T) {
		snap := page()
		snap.Root.Rect.Width = 0
		_, err := p.Compare(ctx, Input{DOM: snap, Design: mockup(0)})
		assert.True(t, errors.Is(err, recorder.ErrNoGeometry))
	})

	t.Run("missing design", func(t *testing.T) {
		_, err := p.Compare(ctx, Input{DOM: page()})
		assert.ErrorContains(t, err, "design: no scene graph or node list")
	})

	t.Run("design without geometry", func(t *testing.T) {
		scene := mockup(0)
		scene.AbsoluteBoundingBox.Height = 0
		_, err := p.Compare(ctx, Input{DOM: page(), Design: scene})
		assert.True(t, errors.Is(err, recorder.ErrNoGeometry))
	})

	t.Run("dangling design reference", func(t *testing.T) {
		nodes := schemas.NewNodeMapFrom([]*schemas.NodeInfo{
			{UniqueID: "r", BoundingRect: schemas.Rect{Width: 10, Height: 10}, Children: []string{"ghost"}},
		})
		_, err := p.Compare(ctx, Input{DOM: page(), DesignNodes: nodes, DesignNormalized: true})
		assert.ErrorContains(t, err, `references missing child "ghost"`)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		result, err := p.Compare(cctx, Input{DOM: page(), Design: mockup(0)})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, result)
	})
}

func TestCompare_LogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := newTestPipeline(t, testConfig(), zap.New(core))

	_, err := p.Compare(context.Background(), Input{Name: "home", DOM: page(), Design: mockup(20)})
	require.NoError(t, err)

	finished := logs.FilterMessage("Comparison finished.").All()
	require.Len(t, finished, 1)
	fields := finished[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "home", fields["name"])
	assert.Contains(t, fields, "duration_ms")
	assert.Equal(t, "pipeline", finished[0].LoggerName)

	stages := logs.FilterMessage("Stage finished.").All()
	assert.Len(t, stages, len(DOMStages)+len(DesignStages))
}

func TestCompare_DumpsStages(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.SetPipelineDumpDir(dir)
	p := newTestPipeline(t, cfg, nil)

	_, err := p.Compare(context.Background(), Input{DOM: page(), Design: mockup(0)})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "run-1"))
	require.NoError(t, err)
	// record + stages per chain, plus the match snapshot.
	assert.Len(t, entries, len(DOMStages)+1+len(DesignStages)+1+1)

	m, err := LoadDump(filepath.Join(dir, "run-1", "dom-00-record.msgpack"))
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "a", "b"}, m.IDs())

	matched, err := LoadDump(filepath.Join(dir, "run-1", "dom-08-match.msgpack"))
	require.NoError(t, err)
	a, ok := matched.Get("a")
	require.True(t, ok)
	assert.Equal(t, "d-a", a.MatchedDesignNodeID)
	require.NotNil(t, a.MatchResult)
}

func TestDumper_Nil(t *testing.T) {
	var d *Dumper
	path, err := d.Dump("run", ChainDOM, 0, "record", schemas.NewNodeMap(0))
	assert.NoError(t, err)
	assert.Empty(t, path)
	assert.Nil(t, NewDumper(""))
}

func TestLoadDump_Missing(t *testing.T) {
	_, err := LoadDump(filepath.Join(t.TempDir(), "nope.msgpack"))
	assert.Error(t, err)
}
