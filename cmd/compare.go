// File: cmd/compare.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/observability"
	"github.com/xkilldash9x/ui-differ/internal/pipeline"
	"github.com/xkilldash9x/ui-differ/internal/transport"
)

// ErrDiffsFound is returned by compare and batch when --fail-on-diff is set
// and at least one discrepancy was reported.
var ErrDiffsFound = errors.New("layout discrepancies found")

type compareOptions struct {
	dom        string
	url        string
	selector   string
	design     string
	name       string
	persist    bool
	failOnDiff bool
}

// newCompareCmd creates and configures the `compare` command.
func newCompareCmd(provider storeProvider) *cobra.Command {
	var opts compareOptions
	var capture captureFlags

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a page's layout against its design mockup",
		Long: `Records the DOM tree (from a saved snapshot or a live capture) and the
design tree, matches their nodes and reports every element whose size or
spacing differs from the mockup.`,
		Example: `  ui-differ compare --dom page.json --design mockup.json
  ui-differ compare --url https://example.com --selector '#app' --design mockup.json -f sarif -o diff.sarif`,
		Args: cobra.NoArgs,
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
			// Delegate to the testable core logic function.
			return runCompare(ctx, logger, cfg, opts, provider)
		},
	}

	flags := compareCmd.Flags()
	flags.StringVar(&opts.dom, "dom", "", "Page snapshot written by the capture command")
	flags.StringVar(&opts.url, "url", "", "Capture this page with headless Chrome")
	flags.StringVar(&opts.selector, "selector", "", "CSS selector of the compared element (default body)")
	flags.StringVar(&opts.design, "design", "", "Design scene graph, node list or clipboard export")
	flags.StringVar(&opts.name, "name", "", "Name recorded with the run")
	flags.BoolVar(&opts.persist, "persist", false, "Save the run to the database")
	flags.BoolVar(&opts.failOnDiff, "fail-on-diff", false, "Exit non-zero when discrepancies are reported")
	capture.register(compareCmd)

	compareCmd.MarkFlagsOneRequired("dom", "url")
	compareCmd.MarkFlagsMutuallyExclusive("dom", "url")
	_ = compareCmd.MarkFlagRequired("design")
	return compareCmd
}

// runCompare contains the core, testable logic for one comparison.
func runCompare(ctx context.Context, logger *zap.Logger, cfg config.Interface, opts compareOptions, provider storeProvider) error {
	design, err := transport.LoadDesign(opts.design)
	if err != nil {
		return fmt.Errorf("failed to load design: %w", err)
	}

	var snap *schemas.PageSnapshot
	if opts.dom != "" {
		snap, err = transport.LoadSnapshot(opts.dom)
	} else {
		snap, err = captureOnce(ctx, logger, cfg, opts.url, opts.selector)
	}
	if err != nil {
		return err
	}

	name := opts.name
	if name == "" {
		name = snap.URL
	}

	p := pipeline.New(cfg, logger)
	result, err := p.Compare(ctx, pipeline.Input{
		Name:             name,
		DOM:              snap,
		Design:           design.Scene,
		DesignNodes:      design.Nodes,
		DesignNormalized: design.Normalized,
	})
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	if opts.persist {
		if err := persistRuns(ctx, cfg, provider, result); err != nil {
			return err
		}
	}

	if err := writeReport(logger, cfg.Report(), result); err != nil {
		return err
	}
	if opts.failOnDiff && len(result.Records) > 0 {
		return ErrDiffsFound
	}
	return nil
}

// persistRuns saves results through a store created for the call.
func persistRuns(ctx context.Context, cfg config.Interface, provider storeProvider, results ...*schemas.DiffResult) error {
	runs, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	for _, r := range results {
		if err := runs.SaveRun(ctx, r); err != nil {
			return fmt.Errorf("failed to save run %s: %w", r.RunID, err)
		}
	}
	return nil
}
