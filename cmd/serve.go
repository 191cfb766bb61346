// File: cmd/serve.go
package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/observability"
	"github.com/xkilldash9x/ui-differ/internal/pipeline"
	"github.com/xkilldash9x/ui-differ/internal/server"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd(provider storeProvider) *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the comparison API over HTTP",
		Long: `Starts the HTTP API. Runs are persisted and the /api/v1/runs endpoints are
enabled when database.url is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runServe(ctx, logger, cfg, addr, provider)
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return serveCmd
}

func runServe(ctx context.Context, logger *zap.Logger, cfg config.Interface, addr string, provider storeProvider) error {
	var runs server.RunStore
	runStore, cleanup, err := provider.Create(ctx, cfg)
	switch {
	case errors.Is(err, errNoDatabase):
		logger.Info("No database configured; run persistence is disabled.")
	case err != nil:
		return err
	default:
		runs = runStore
		if cleanup != nil {
			defer cleanup()
		}
	}

	sc := cfg.Server()
	if addr != "" {
		sc.Addr = addr
	}
	srv := server.New(sc, pipeline.New(cfg, logger), runs, logger)
	err = srv.ListenAndServe(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
