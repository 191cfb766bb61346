// File: cmd/capture.go
package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/browser"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/observability"
	"github.com/xkilldash9x/ui-differ/internal/transport"
)

// pageCapturer is the part of browser.Capturer the commands use.
type pageCapturer interface {
	Capture(ctx context.Context, req browser.Request) (*schemas.PageSnapshot, error)
	Close() error
}

// newCapturer is swapped out in tests.
var newCapturer = func(cfg config.BrowserConfig, logger *zap.Logger) pageCapturer {
	return browser.NewCapturer(cfg, logger)
}

// captureFlags are the browser overrides shared by every command that can
// launch Chrome.
type captureFlags struct {
	headless bool
	viewport string
}

func (f *captureFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.headless, "headless", true, "Run Chrome without a window")
	cmd.Flags().StringVar(&f.viewport, "viewport", "", "Emulated viewport as WIDTHxHEIGHT, e.g. 375x812")
}

// apply writes changed flags into cfg.
func (f *captureFlags) apply(cmd *cobra.Command, cfg config.Interface) error {
	if cmd.Flags().Changed("headless") {
		cfg.SetBrowserHeadless(f.headless)
	}
	if f.viewport != "" {
		w, h, err := parseViewport(f.viewport)
		if err != nil {
			return err
		}
		cfg.SetBrowserViewport(w, h)
	}
	return nil
}

// parseViewport parses WIDTHxHEIGHT.
func parseViewport(s string) (int64, int64, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid viewport %q: want WIDTHxHEIGHT", s)
	}
	w, err := strconv.ParseInt(strings.TrimSpace(ws), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid viewport width %q: %w", ws, err)
	}
	h, err := strconv.ParseInt(strings.TrimSpace(hs), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid viewport height %q: %w", hs, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid viewport %q: dimensions must be positive", s)
	}
	return w, h, nil
}

// captureOnce launches a browser, reads one page and shuts the browser down.
func captureOnce(ctx context.Context, logger *zap.Logger, cfg config.Interface, url, selector string) (*schemas.PageSnapshot, error) {
	c := newCapturer(cfg.Browser(), logger)
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close browser.", zap.Error(err))
		}
	}()

	snap, err := c.Capture(ctx, browser.Request{URL: url, Selector: selector})
	if err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", url, err)
	}
	return snap, nil
}

// newCaptureCmd creates and configures the `capture` command.
func newCaptureCmd() *cobra.Command {
	var selector, out string
	var capture captureFlags

	captureCmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Save a page snapshot for later comparison",
		Long: `Loads the page in headless Chrome, stamps every element with a stable id
and writes the element tree with its geometry and computed style as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if err := capture.apply(cmd, cfg); err != nil {
				return err
			}

			snap, err := captureOnce(ctx, logger, cfg, args[0], selector)
			if err != nil {
				return err
			}
			if err := transport.WriteJSON(out, snap); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
			logger.Info("Snapshot written.", zap.String("path", out), zap.String("url", snap.URL))
			return nil
		},
	}

	captureCmd.Flags().StringVar(&selector, "selector", "", "CSS selector of the captured element (default body)")
	captureCmd.Flags().StringVar(&out, "out", "snapshot.json", "Output path (.br compresses)")
	capture.register(captureCmd)
	return captureCmd
}
