// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

var cfgFile string

// persistentBindings maps root flags to their viper keys.
var persistentBindings = map[string]string{
	"format":   "report.format",
	"output":   "report.output",
	"dump-dir": "pipeline.dump_dir",
}

// newRootCmd builds the command tree. provider creates the run store for the
// commands that persist or read runs.
func newRootCmd(provider storeProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ui-differ",
		Short:         "ui-differ compares a rendered page's layout against its design mockup.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			// 1. Config file, then flag bindings.
			if err := initializeConfig(cmd, v); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// 2. Build and validate the configuration.
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "ui-differ"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			// 3. Logger.
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting ui-differ", zap.String("version", Version))

			// 4. Hand the config to subcommands.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().StringP("format", "f", "", "report format: text, json, sarif or junit")
	cmd.PersistentFlags().StringP("output", "o", "", "report output path (default stdout; .br compresses)")
	cmd.PersistentFlags().String("dump-dir", "", "write every pipeline stage's node map under this directory")
	cmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	cmd.AddCommand(newCompareCmd(provider))
	cmd.AddCommand(newCaptureCmd())
	cmd.AddCommand(newBatchCmd(provider))
	cmd.AddCommand(newReportCmd(provider))
	cmd.AddCommand(newServeCmd(provider))
	cmd.AddCommand(newClipboardCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the command tree with ctx, which main cancels on SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	err := newRootCmd(NewStoreProvider()).ExecuteContext(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, ErrDiffsFound):
		observability.GetLogger().Warn("Layout discrepancies found.")
	default:
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	return err
}

// initializeConfig reads in the config file and binds the persistent flags.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		path, err := config.ExpandPath(cfgFile)
		if err != nil {
			return err
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}

	for flag, key := range persistentBindings {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// getConfigFromContext returns the configuration stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	if ctx == nil {
		return nil, errors.New("no context available")
	}
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}
