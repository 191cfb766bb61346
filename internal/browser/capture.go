// internal/browser/capture.go
package browser

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	//go:embed scripts/prepare.js
	prepareScript string
	//go:embed scripts/snapshot.js
	snapshotScript string
)

// DefaultSelector is the capture root when a request names none.
const DefaultSelector = "body"

// ErrRootNotFound is returned when the capture selector matches nothing.
var ErrRootNotFound = errors.New("browser: capture root not found")

// ErrClosed is returned by Capture after Close.
var ErrClosed = errors.New("browser: capturer is closed")

// Request describes one page capture.
type Request struct {
	URL string
	// Selector picks the element compared against the design; DefaultSelector when empty.
	Selector string
	// Viewport overrides the configured device when non-nil.
	Viewport *schemas.Viewport
}

// Capturer drives a shared headless Chrome. Each capture opens its own tab,
// so a Capturer is safe for concurrent use.
type Capturer struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	launch   launchFunc
	initOnce sync.Once
	initErr  error

	mu            sync.Mutex
	closed        bool
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

// NewCapturer creates a capturer. The browser is launched on first use.
func NewCapturer(cfg config.BrowserConfig, logger *zap.Logger) *Capturer {
	c := &Capturer{
		cfg:    cfg,
		logger: logger.Named("browser"),
	}
	c.launch = c.launchChrome
	return c
}

// launchFunc starts a browser and returns its root context with the cancel
// functions for the browser and its allocator.
type launchFunc func(ctx context.Context) (context.Context, context.CancelFunc, context.CancelFunc, error)

func (c *Capturer) launchChrome(ctx context.Context) (context.Context, context.CancelFunc, context.CancelFunc, error) {
	c.logger.Info("Launching browser.", zap.Bool("headless", c.cfg.Headless))
	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), DefaultAllocatorOptions(c.cfg)...)
	sugar := c.logger.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(sugar.Debugf),
	)
	// The first Run on a fresh context starts the process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, nil, nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return browserCtx, allocCancel, browserCancel, nil
}

func (c *Capturer) start(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			c.initErr = ErrClosed
			return
		}

		browserCtx, allocCancel, browserCancel, err := c.launch(ctx)
		if err != nil {
			c.initErr = err
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		// Close may have run while the browser was starting.
		if c.closed {
			browserCancel()
			allocCancel()
			c.initErr = ErrClosed
			c.logger.Info("Browser closed during launch.")
			return
		}
		c.browserCtx, c.allocCancel, c.browserCancel = browserCtx, allocCancel, browserCancel
	})
	return c.initErr
}

// Capture loads req.URL in a fresh tab, stamps ids on the capture root and
// returns its layout snapshot.
func (c *Capturer) Capture(ctx context.Context, req Request) (*schemas.PageSnapshot, error) {
	if err := c.start(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	c.mu.Unlock()
	defer tabCancel()

	opCtx, opCancel := CombineContext(tabCtx, ctx)
	defer opCancel()
	if c.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(opCtx, c.cfg.NavigationTimeout)
		defer cancel()
	}

	selector := req.Selector
	if selector == "" {
		selector = DefaultSelector
	}
	viewport := c.viewport(req.Viewport)
	start := time.Now()

	var stamped int
	var raw []byte
	err := chromedp.Run(opCtx,
		emulateDevice(viewport, c.cfg.UserAgent),
		chromedp.Navigate(req.URL),
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Sleep(c.cfg.SettleWait),
		chromedp.Evaluate(call(prepareScript, selector), &stamped),
		// Wrapping text reflows the page.
		chromedp.Sleep(c.cfg.SettleWait),
		chromedp.Evaluate(call(snapshotScript, selector), &raw),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("capturing %s: %w", req.URL, err)
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("capturing %s: %w", req.URL, err)
	}
	snap.Viewport = viewport
	snap.CapturedAt = time.Now().UTC()

	c.logger.Info("Captured page.",
		zap.String("url", req.URL),
		zap.String("selector", selector),
		zap.Int("elements", stamped),
		zap.Duration("duration_ms", time.Since(start)),
	)
	return snap, nil
}

// Close shuts the browser down. Captures in flight fail.
func (c *Capturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.browserCancel != nil {
		c.browserCancel()
		c.allocCancel()
		c.logger.Info("Browser closed.")
	}
	return nil
}

func (c *Capturer) viewport(override *schemas.Viewport) schemas.Viewport {
	if override != nil && override.Width > 0 && override.Height > 0 {
		return *override
	}
	v := c.cfg.Viewport
	return schemas.Viewport{
		Width:             v.Width,
		Height:            v.Height,
		DeviceScaleFactor: v.DeviceScaleFactor,
		Mobile:            v.Mobile,
	}
}

func emulateDevice(v schemas.Viewport, userAgent string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := emulation.SetDeviceMetricsOverride(v.Width, v.Height, v.DeviceScaleFactor, v.Mobile).Do(ctx); err != nil {
			return fmt.Errorf("emulating device metrics: %w", err)
		}
		if err := emulation.SetTouchEmulationEnabled(v.Mobile).Do(ctx); err != nil {
			return fmt.Errorf("emulating touch: %w", err)
		}
		if userAgent != "" {
			if err := emulation.SetUserAgentOverride(userAgent).Do(ctx); err != nil {
				return fmt.Errorf("overriding user agent: %w", err)
			}
		}
		return nil
	})
}

// call renders script (a function expression) applied to the capture arguments.
func call(script, selector string) string {
	args, _ := json.Marshal([]string{selector, schemas.UniqueIDAttribute, schemas.TextWrapperAttribute})
	return fmt.Sprintf("(%s).apply(null, %s)", script, args)
}

func decodeSnapshot(raw []byte) (*schemas.PageSnapshot, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrRootNotFound
	}
	var snap schemas.PageSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Root == nil {
		return nil, ErrRootNotFound
	}
	return &snap, nil
}
