// Package pipeline composes the recorders, normalization stages, matcher and
// diff engine into a single comparison run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/diff"
	"github.com/xkilldash9x/ui-differ/internal/matcher"
	"github.com/xkilldash9x/ui-differ/internal/recorder"
)

// Chain names used in logs and dump file names.
const (
	ChainDOM    = "dom"
	ChainDesign = "design"
)

// Input is one comparison request. The DOM side is always a live capture;
// the design side is either a raw scene graph or an already recorded node list.
type Input struct {
	Name string
	DOM  *schemas.PageSnapshot

	Design *schemas.SceneNode
	// DesignNodes is used when Design is nil. DesignNormalized reports whether
	// the list already went through DesignStages (clipboard exports do).
	DesignNodes      *schemas.NodeMap
	DesignNormalized bool
}

// Pipeline runs comparisons. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	logger   *zap.Logger
	design   *recorder.DesignRecorder
	matcher  *matcher.Matcher
	engine   *diff.Engine
	dumper   *Dumper
	now      func() time.Time
	newRunID func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRunIDs overrides run id generation.
func WithRunIDs(next func() string) Option {
	return func(p *Pipeline) { p.newRunID = next }
}

// WithDiffEngine replaces the default diff engine.
func WithDiffEngine(e *diff.Engine) Option {
	return func(p *Pipeline) { p.engine = e }
}

// New builds a pipeline from configuration.
func New(cfg config.Interface, logger *zap.Logger, opts ...Option) *Pipeline {
	design := cfg.Design()
	match := cfg.Matcher()

	p := &Pipeline{
		logger: logger.Named("pipeline"),
		design: recorder.NewDesignRecorder(
			recorder.Converter{UnitBase: design.UnitBase, RemBase: design.RemBase},
			recorder.SafeArea{
				Enabled:      design.SafeArea.Enabled,
				HeaderHeight: design.SafeArea.HeaderHeight,
				FooterHeight: design.SafeArea.FooterHeight,
				ScreenHeight: design.SafeArea.ScreenHeight,
			},
		),
		matcher: matcher.New(matcher.Options{
			CenterDistanceScale: match.CenterDistanceScale,
			MinScore:            match.MinScore,
		}),
		engine:   diff.New(),
		dumper:   NewDumper(cfg.Pipeline().DumpDir),
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compare records and normalizes both trees, matches them and returns the
// reportable discrepancies. ctx is checked between stages; a cancelled run
// returns ctx.Err() and no partial result.
func (p *Pipeline) Compare(ctx context.Context, in Input) (*schemas.DiffResult, error) {
	runID := p.newRunID()
	logger := p.logger.With(zap.String("run_id", runID), zap.String("name", in.Name))
	start := time.Now()

	domTree, err := p.DOMTree(ctx, runID, in.DOM)
	if err != nil {
		return nil, err
	}
	designTree, err := p.DesignTree(ctx, runID, in)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched, unmatched := p.matcher.Match(domTree, designTree)
	p.dump(logger, runID, ChainDOM, len(DOMStages)+1, "match", matched)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outcome := p.engine.Diff(matched, designTree)

	result := &schemas.DiffResult{
		RunID:           runID,
		Name:            in.Name,
		CreatedAt:       p.now().UTC(),
		DomNodeCount:    matched.Len(),
		DesignNodeCount: designTree.Len(),
		Records:         []schemas.DiffRecord{},
		Passed:          []string{},
		Unmatched:       nonNil(unmatched),
		Discarded:       nonNil(outcome.Discarded),
		Flagged:         flagged(matched, designTree),
	}
	for _, rec := range outcome.Records {
		if diff.Reportable(rec) {
			result.Records = append(result.Records, rec)
		} else {
			result.Passed = append(result.Passed, rec.DomNodeID)
		}
	}

	if len(result.Flagged) > 0 {
		logger.Warn("Geometry was clamped during normalization.", zap.Strings("nodes", result.Flagged))
	}
	logger.Info("Comparison finished.",
		zap.Int("dom_nodes", result.DomNodeCount),
		zap.Int("design_nodes", result.DesignNodeCount),
		zap.Int("reported", len(result.Records)),
		zap.Int("passed", len(result.Passed)),
		zap.Int("unmatched", len(result.Unmatched)),
		zap.Int("discarded", len(result.Discarded)),
		zap.Duration("duration_ms", time.Since(start)),
	)
	return result, nil
}

// DOMTree records and normalizes a DOM capture.
func (p *Pipeline) DOMTree(ctx context.Context, runID string, snap *schemas.PageSnapshot) (*schemas.NodeMap, error) {
	if snap == nil {
		return nil, fmt.Errorf("dom: no page snapshot")
	}
	m := recorder.RecordDOM(snap)
	if m.Len() == 0 {
		return nil, fmt.Errorf("dom: %w", recorder.ErrNoGeometry)
	}
	return p.run(ctx, runID, ChainDOM, DOMStages, m)
}

// DesignTree records (when needed) and normalizes the design side of in.
func (p *Pipeline) DesignTree(ctx context.Context, runID string, in Input) (*schemas.NodeMap, error) {
	var m *schemas.NodeMap
	switch {
	case in.Design != nil:
		m = p.design.Record(recorder.Preprocess(in.Design))
	case in.DesignNodes != nil:
		m = in.DesignNodes.Clone()
	default:
		return nil, fmt.Errorf("design: no scene graph or node list")
	}
	if m.Len() == 0 {
		return nil, fmt.Errorf("design: %w", recorder.ErrNoGeometry)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("design: %w", err)
	}
	if in.Design == nil && in.DesignNormalized {
		return m, nil
	}
	return p.run(ctx, runID, ChainDesign, DesignStages, m)
}

func (p *Pipeline) run(ctx context.Context, runID, chain string, stages []Stage, m *schemas.NodeMap) (*schemas.NodeMap, error) {
	logger := p.logger.With(zap.String("run_id", runID), zap.String("chain", chain))
	p.dump(logger, runID, chain, 0, "record", m)

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		before := m.Len()
		m = stage.Run(m)
		logger.Debug("Stage finished.",
			zap.String("stage", stage.Name),
			zap.Int("nodes_in", before),
			zap.Int("nodes_out", m.Len()),
			zap.Duration("duration_ms", time.Since(start)),
		)
		p.dump(logger, runID, chain, i+1, stage.Name, m)
	}
	return m, nil
}

// dump never fails a run; a snapshot that cannot be written is logged and skipped.
func (p *Pipeline) dump(logger *zap.Logger, runID, chain string, index int, stage string, m *schemas.NodeMap) {
	path, err := p.dumper.Dump(runID, chain, index, stage, m)
	if err != nil {
		logger.Warn("Failed to write stage snapshot.", zap.String("stage", stage), zap.Error(err))
		return
	}
	if path != "" {
		logger.Debug("Wrote stage snapshot.", zap.String("path", path))
	}
}

func flagged(trees ...*schemas.NodeMap) []string {
	var out []string
	for _, m := range trees {
		for _, n := range m.Nodes() {
			if n.Flagged {
				out = append(out, n.UniqueID)
			}
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
