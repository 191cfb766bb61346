// File: cmd/report.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/observability"
	"github.com/xkilldash9x/ui-differ/internal/reporting"
	"github.com/xkilldash9x/ui-differ/internal/server"
	"github.com/xkilldash9x/ui-differ/internal/store"
)

// errNoDatabase is returned when a command needs the run store but no
// database URL is configured.
var errNoDatabase = errors.New("database URL is not configured (UIDIFFER_DATABASE_URL)")

// storeProvider opens the run store for commands that read or persist runs.
type storeProvider interface {
	// Create returns the store and a cleanup that releases its connections.
	Create(ctx context.Context, cfg config.Interface) (server.RunStore, func(), error)
}

// defaultStoreProvider connects to PostgreSQL using database.url.
type defaultStoreProvider struct{}

// NewStoreProvider returns the PostgreSQL-backed provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

// Create opens a pool, pings it and creates the tables if needed.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (server.RunStore, func(), error) {
	logger := observability.GetLogger()
	if cfg.Database().URL == "" {
		return nil, nil, errNoDatabase
	}

	pool, err := pgxpool.New(ctx, cfg.Database().URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	runStore, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize run store: %w", err)
	}
	if err := runStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed.")
	}
	return runStore, cleanup, nil
}

// newReportCmd creates and configures the `report` command.
func newReportCmd(provider storeProvider) *cobra.Command {
	var runID string
	var list bool
	var limit int

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render a stored comparison run",
		Long: `Loads a comparison run from the database and writes it in the configured
report format. With --list, prints the most recent runs instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if list {
				return runListRuns(ctx, cmd, cfg, limit, provider)
			}
			if runID == "" {
				return errors.New("one of --run-id or --list is required")
			}
			// Delegate to the testable core logic function.
			return runReport(ctx, logger, cfg, runID, provider)
		},
	}

	reportCmd.Flags().StringVar(&runID, "run-id", "", "The ID of the run to render")
	reportCmd.Flags().BoolVar(&list, "list", false, "List recent runs")
	reportCmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to list")
	return reportCmd
}

// runReport contains the core, testable logic for re-rendering a run.
func runReport(ctx context.Context, logger *zap.Logger, cfg config.Interface, runID string, provider storeProvider) error {
	logger.Debug("Loading stored run.", zap.String("run_id", runID))

	runs, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	result, err := runs.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	return writeReport(logger, cfg.Report(), result)
}

func runListRuns(ctx context.Context, cmd *cobra.Command, cfg config.Interface, limit int, provider storeProvider) error {
	runs, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	summaries, err := runs.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	cell := lipgloss.NewStyle().Padding(0, 1)
	header := cell.Bold(true)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers("RUN ID", "NAME", "CREATED", "REPORTED", "UNMATCHED")
	for _, s := range summaries {
		t.Row(s.RunID, s.Name, s.CreatedAt.Format(time.RFC3339), strconv.Itoa(s.Reported), strconv.Itoa(s.Unmatched))
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return err
}

// writeReport renders results with the configured reporter.
func writeReport(logger *zap.Logger, rc config.ReportConfig, results ...*schemas.DiffResult) error {
	reporter, err := reporting.New(rc.Format, rc.Output, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}

	for _, r := range results {
		if err := reporter.Write(r); err != nil {
			reporter.Close()
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}
	if !reporting.IsStdout(rc.Output) {
		logger.Info("Report written.", zap.String("path", rc.Output), zap.String("format", rc.Format))
	}
	return nil
}
