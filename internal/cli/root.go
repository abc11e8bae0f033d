package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/log"
)

// app carries state resolved by the root command's pre-run hook.
type app struct {
	cfg    *config.Config
	logger *log.Logger

	configFile string
	backend    string
	logLevel   string
}

// NewRootCmd builds the ledger command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ledger",
		Short: "Personal income and expense ledger",
		Long: `ledger records income and expense transactions against a small category
taxonomy, keeps running totals and serves them over a JSON API.
State is persisted to the configured key-value backend (sqlite or memory).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "TOML config file (overrides LEDGER_CONFIG_FILE)")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "storage backend: memory or sqlite (overrides DATA_BACKEND)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(a),
		newSummaryCmd(a),
		newAddCmd(a),
		newDeleteCmd(a),
		newHistoryCmd(a),
		newCategoryCmd(a),
		newWatchCmd(a),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	LoadEnvFile()
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.configFile != "" {
		if err := os.Setenv("LEDGER_CONFIG_FILE", a.configFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.DataBackend = a.backend
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Only the server logs to stdout; other commands keep it for their output.
	var w io.Writer = cmd.ErrOrStderr()
	if cmd.Name() == "serve" {
		w = cmd.OutOrStdout()
	}
	a.cfg = cfg
	a.logger = SetupLogger(cfg.LogLevel, w).WithComponent(log.ComponentCLI)
	return nil
}

// withRuntime opens the store for the duration of fn.
func (a *app) withRuntime(ctx context.Context, fn func(rt *Runtime) error) error {
	rt, err := OpenStore(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			a.logger.WarnContext(ctx, "Failed to release store resources", log.FieldError, err.Error())
		}
	}()
	return fn(rt)
}

func parseTypeArg(s string) (core.TransactionType, error) {
	t, err := core.ParseType(s)
	if err != nil {
		return "", fmt.Errorf("unknown transaction type %q: use income or expense", s)
	}
	return t, nil
}
