package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/config"
	"github.com/rustyeddy/dealbook/internal/logger"
)

// RootOptions are the global flags.
type RootOptions struct {
	ConfigPath string
	EnvFiles   []string
	Account    string
	LogLevel   string
}

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	opts RootOptions
	cfg  *config.Config
	log  *zap.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "dealbook",
		Short: "Dealbook: profit, position and balance analytics for MT5 deal history",
		Long: `Dealbook replays a terminal's deal history to attribute profit to
magic numbers and user groups, rebuild the open-position timeline and compute
the balance at any instant.

Deals come from a terminal CSV export or a SQLite journal filled by
"dealbook import". Magic descriptions and groups live in a separate store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&a.opts.ConfigPath, "config", "", "Path to config file (YAML or JSON, optional)")
	cmd.PersistentFlags().StringSliceVar(&a.opts.EnvFiles, "env", nil, "Env files to load (default .env)")
	cmd.PersistentFlags().StringVar(&a.opts.Account, "account", "", "Account ID (overrides config)")
	cmd.PersistentFlags().StringVar(&a.opts.LogLevel, "log-level", "", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup()
	}

	cmd.AddCommand(
		newProfitsCmd(a),
		newTimelineCmd(a),
		newBalanceCmd(a),
		newOpenCmd(a),
		newHoursCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newLabelCmd(a),
		newGroupCmd(a),
		newViewCmd(a),
		newAccountCmd(a),
		newServeCmd(a),
		newConfigCmd(),
		newVersionCmd(),
	)

	return cmd
}

func (a *app) setup() error {
	if err := config.LoadEnv(a.opts.EnvFiles...); err != nil {
		return err
	}

	cfg := config.Default()
	if a.opts.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(a.opts.ConfigPath); err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if a.opts.Account != "" {
		cfg.Account.ID = a.opts.Account
	}
	if a.opts.LogLevel != "" {
		cfg.Log.Level = a.opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
