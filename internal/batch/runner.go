package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/browser"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/pipeline"
	"github.com/xkilldash9x/ui-differ/internal/transport"
)

// Comparer runs one comparison.
type Comparer interface {
	Compare(ctx context.Context, in pipeline.Input) (*schemas.DiffResult, error)
}

// Capturer reads a live page.
type Capturer interface {
	Capture(ctx context.Context, req browser.Request) (*schemas.PageSnapshot, error)
}

// Outcome is the result of one case. Exactly one of Result and Err is set.
type Outcome struct {
	Case   string
	Result *schemas.DiffResult
	Err    error
}

// Runner executes manifests with bounded concurrency. Browser captures are
// paced by a token bucket; snapshot cases are not.
type Runner struct {
	comparer    Comparer
	capturer    Capturer
	limiter     *rate.Limiter
	concurrency int
	logger      *zap.Logger
}

// NewRunner builds a runner. capturer may be nil when no case uses a URL.
func NewRunner(cfg config.BatchConfig, comparer Comparer, capturer Capturer, logger *zap.Logger) *Runner {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Runner{
		comparer:    comparer,
		capturer:    capturer,
		limiter:     rate.NewLimiter(limit, burst),
		concurrency: max(cfg.Concurrency, 1),
		logger:      logger.Named("batch"),
	}
}

// Run executes every case and returns the outcomes in manifest order. A failing
// case does not stop the others; only cancellation of ctx aborts the run.
func (r *Runner) Run(ctx context.Context, m *Manifest) ([]Outcome, error) {
	start := time.Now()
	concurrency := r.concurrency
	if m.Concurrency > 0 {
		concurrency = m.Concurrency
	}

	outcomes := make([]Outcome, len(m.Cases))
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	r.logger.Info("Starting batch.",
		zap.Int("cases", len(m.Cases)),
		zap.Int("concurrency", concurrency),
		zap.Duration("capture_interval", r.interval()),
	)

	for i, c := range m.Cases {
		if groupCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := r.runCase(groupCtx, c)
			outcomes[i] = Outcome{Case: c.Name, Result: res, Err: err}
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				r.logger.Warn("Case failed.", zap.String("case", c.Name), zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}

	r.logger.Info("Batch finished.",
		zap.Int("cases", len(m.Cases)),
		zap.Int("failed", Failed(outcomes)),
		zap.Duration("duration_ms", time.Since(start)),
	)
	return outcomes, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) (*schemas.DiffResult, error) {
	design, err := transport.LoadDesign(c.Design)
	if err != nil {
		return nil, fmt.Errorf("case %q: %w", c.Name, err)
	}

	var snap *schemas.PageSnapshot
	if c.URL != "" {
		if r.capturer == nil {
			return nil, fmt.Errorf("case %q: no browser available to capture %s", c.Name, c.URL)
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		snap, err = r.capturer.Capture(ctx, browser.Request{URL: c.URL, Selector: c.Selector, Viewport: c.Viewport})
	} else {
		snap, err = transport.LoadSnapshot(c.DOMSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("case %q: %w", c.Name, err)
	}

	res, err := r.comparer.Compare(ctx, pipeline.Input{
		Name:             c.Name,
		DOM:              snap,
		Design:           design.Scene,
		DesignNodes:      design.Nodes,
		DesignNormalized: design.Normalized,
	})
	if err != nil {
		return nil, fmt.Errorf("case %q: %w", c.Name, err)
	}
	return res, nil
}

// Failed counts the outcomes that carry an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Reported counts the reportable records across all outcomes.
func Reported(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Result != nil {
			n += len(o.Result.Records)
		}
	}
	return n
}

// interval is the minimum spacing between captures, for logging.
func (r *Runner) interval() time.Duration {
	l := r.limiter.Limit()
	if l == rate.Inf || l <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(time.Second) / float64(l)))
}
