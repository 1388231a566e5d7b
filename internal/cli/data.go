package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/config"
	"github.com/rustyeddy/dealbook/deal"
	"github.com/rustyeddy/dealbook/journal"
	"github.com/rustyeddy/dealbook/ledger"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		dealsPath     string
		positionsPath string
		dbPath        string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load terminal CSV exports into the SQLite journal",
		Long: `Upsert deals from a CSV export into the SQLite journal. When a positions
file is given, the stored open positions are replaced by its contents.

Example:
  dealbook import --deals deals.csv --positions positions.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dealsPath == "" && positionsPath == "" {
				return fmt.Errorf("--deals or --positions is required")
			}
			if dbPath == "" {
				dbPath = a.cfg.Source.DBPath
			}

			j, err := journal.NewSQLite(dbPath, a.log)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer j.Close()

			w := cmd.OutOrStdout()
			if dealsPath != "" {
				deals, err := readFile(dealsPath, journal.ReadDeals)
				if err != nil {
					return err
				}
				if err := j.RecordDeals(cmd.Context(), deals); err != nil {
					return fmt.Errorf("record deals: %w", err)
				}
				a.log.Info("deals imported", zap.String("file", dealsPath), zap.Int("count", len(deals)))
				fmt.Fprintf(w, "✓ Imported %d deals into %s\n", len(deals), dbPath)
			}
			if positionsPath != "" {
				ps, err := readFile(positionsPath, journal.ReadPositions)
				if err != nil {
					return err
				}
				if err := j.ReplacePositions(cmd.Context(), ps); err != nil {
					return fmt.Errorf("replace positions: %w", err)
				}
				fmt.Fprintf(w, "✓ Replaced open positions (%d)\n", len(ps))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dealsPath, "deals", "", "Deal CSV export")
	cmd.Flags().StringVar(&positionsPath, "positions", "", "Open positions CSV export")
	cmd.Flags().StringVar(&dbPath, "db", "", "Journal database (default source.db_path)")
	return cmd
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		win windowFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the configured source's deals as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, done, err := a.openSource()
			if err != nil {
				return err
			}
			defer done()

			window, err := config.Window(win.preset, win.from, win.to, "", ledger.Wall(time.Now()))
			if err != nil {
				return err
			}
			clock := a.clock()
			var from, to time.Time
			if !window.From.IsZero() {
				from = clock.ToTerminal(window.From)
			}
			if !window.To.IsZero() {
				// FetchDeals excludes its upper bound.
				to = clock.ToTerminal(window.To).Add(time.Second)
			}

			deals, err := src.FetchDeals(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			deal.SortByTime(deals)

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return journal.WriteDeals(w, deals)
		},
	}

	win.bind(cmd, "")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
