package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/dealbook/config"
	"github.com/rustyeddy/dealbook/internal/api"
	"github.com/rustyeddy/dealbook/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports as JSON over HTTP",
		Long: `Start the read-only HTTP API used by dashboards, plus /metrics for
Prometheus and /healthz.

Example:
  dealbook serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			m := metrics.New(prometheus.DefaultRegisterer)
			reports, done, err := a.reports(m)
			if err != nil {
				return err
			}
			defer done()

			srv, err := api.NewServer(api.Deps{
				Config:   a.cfg,
				Reports:  reports,
				Metrics:  m,
				Gatherer: prometheus.DefaultGatherer,
				Log:      a.log,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  dealbook config init -o dealbook.yaml
  dealbook config validate -f dealbook.yaml`,
		// Config files are handled explicitly here, not through --config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(w, "\nEdit the file and run with:")
			fmt.Fprintf(w, "  dealbook --config %s profits\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "dealbook.yaml", "output config file path")

	var path string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(w, "  Account: %s (%s, start %.2f)\n", cfg.Account.ID, cfg.Account.Currency, cfg.Account.StartBalance)
			fmt.Fprintf(w, "  Timeshift: %+.1fh\n", cfg.Time.LocalTimeshiftHours)
			fmt.Fprintf(w, "  Source: %s\n", cfg.Source.Type)
			fmt.Fprintf(w, "  Store: %s\n", cfg.Store.DBPath)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("file")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dealbook %s\n", version)
		},
	}
}
