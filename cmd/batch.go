// File: cmd/batch.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/batch"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/observability"
	"github.com/xkilldash9x/ui-differ/internal/pipeline"
)

type batchOptions struct {
	persist    bool
	failOnDiff bool
}

// newBatchCmd creates and configures the `batch` command.
func newBatchCmd(provider storeProvider) *cobra.Command {
	var opts batchOptions
	var capture captureFlags

	batchCmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Run every comparison listed in a manifest",
		Long: `Runs the cases of a YAML manifest concurrently. Live captures are paced by
batch.rate_per_second; a failing case is reported and does not stop the others.`,
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
			return runBatch(ctx, logger, cfg, args[0], opts, provider)
		},
	}

	batchCmd.Flags().BoolVar(&opts.persist, "persist", false, "Save every run to the database")
	batchCmd.Flags().BoolVar(&opts.failOnDiff, "fail-on-diff", false, "Exit non-zero when discrepancies are reported")
	capture.register(batchCmd)
	return batchCmd
}

// runBatch contains the core, testable logic for a manifest run.
func runBatch(ctx context.Context, logger *zap.Logger, cfg config.Interface, manifestPath string, opts batchOptions, provider storeProvider) error {
	m, err := batch.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	// The browser starts on the first URL case, so snapshot-only manifests
	// never launch Chrome.
	capturer := newCapturer(cfg.Browser(), logger)
	defer func() {
		if err := capturer.Close(); err != nil {
			logger.Warn("Failed to close browser.", zap.Error(err))
		}
	}()

	runner := batch.NewRunner(cfg.Batch(), pipeline.New(cfg, logger), capturer, logger)
	outcomes, err := runner.Run(ctx, m)
	if err != nil {
		return err
	}

	results := make([]*schemas.DiffResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Result != nil {
			results = append(results, o.Result)
		}
	}

	if opts.persist && len(results) > 0 {
		if err := persistRuns(ctx, cfg, provider, results...); err != nil {
			return err
		}
	}
	if err := writeReport(logger, cfg.Report(), results...); err != nil {
		return err
	}

	if failed := batch.Failed(outcomes); failed > 0 {
		return fmt.Errorf("%d of %d cases failed", failed, len(outcomes))
	}
	if opts.failOnDiff && batch.Reported(outcomes) > 0 {
		return ErrDiffsFound
	}
	return nil
}
