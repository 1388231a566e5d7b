package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/dealbook/config"
	"github.com/rustyeddy/dealbook/internal/service"
	"github.com/rustyeddy/dealbook/ledger"
	"github.com/rustyeddy/dealbook/report"
	"github.com/rustyeddy/dealbook/store"
)

type windowFlags struct {
	preset string
	from   string
	to     string
}

func (w *windowFlags) bind(cmd *cobra.Command, def string) {
	usage := "Named window: " + strings.Join(config.PresetNames(), "|")
	if def != "" {
		usage += " (default " + def + " when no dates are given)"
	}
	cmd.Flags().StringVar(&w.preset, "preset", "", usage)
	cmd.Flags().StringVar(&w.from, "from", "", "Window start, local time (YYYY-MM-DD[ HH:MM:SS])")
	cmd.Flags().StringVar(&w.to, "to", "", "Window end, local time; a bare date covers the whole day")
}

func (w *windowFlags) resolve(r *service.Reports, def string) (config.Range, error) {
	return config.Window(w.preset, w.from, w.to, def, r.Now())
}

// parseKey reads "magic:7", "group:2" or a bare magic number.
func parseKey(s string) (ledger.Key, error) {
	kind, id, found := strings.Cut(s, ":")
	if !found {
		kind, id = "magic", s
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ledger.Key{}, fmt.Errorf("bad key %q: %w", s, err)
	}
	switch kind {
	case "magic":
		return ledger.MagicKey(n), nil
	case "group":
		return ledger.GroupKey(n), nil
	}
	return ledger.Key{}, fmt.Errorf("bad key kind %q (want magic or group)", kind)
}

func newProfitsCmd(a *app) *cobra.Command {
	var (
		win    windowFlags
		symbol string
		view   string
		sortBy string
		note   string
		format string
		out    string
		drill  string
	)

	cmd := &cobra.Command{
		Use:   "profits",
		Short: "Closed profit by magic or group over a window",
		Long: `Sum profit + commission + swap of every trading deal in the window,
attributed to its resolved magic number, or to user groups in grouped view.

Examples:
  dealbook profits --preset this_week --sort -results
  dealbook profits --from 2024-03-01 --to 2024-03-31 --view grouped --format org --out march.org
  dealbook profits --drill magic:1001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := a.reports(nil)
			if err != nil {
				return err
			}
			defer done()

			q := service.ProfitQuery{Account: a.account(), Symbol: symbol, Note: note}
			if q.Window, err = win.resolve(r, "today"); err != nil {
				return err
			}
			if view != "" {
				if q.View, err = store.ParseViewMode(view); err != nil {
					return err
				}
			}
			if q.Sort, err = report.ParseSortOption(sortBy); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if drill != "" {
				k, err := parseKey(drill)
				if err != nil {
					return err
				}
				rows, err := r.Symbols(cmd.Context(), q, k)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SYMBOL\tP/L")
				for _, row := range rows {
					fmt.Fprintf(tw, "%s\t%s\n", row.Symbol, report.Money(row.Value, a.cfg.Account.Currency))
				}
				return tw.Flush()
			}

			rep, err := r.Profits(cmd.Context(), q)
			if err != nil {
				return err
			}

			switch format {
			case "text":
				report.WriteText(w, rep.Summary)
			case "json":
				return writeJSON(w, rep.Summary)
			case "org":
				if out != "" {
					if err := report.SaveOrg(out, rep.Summary); err != nil {
						return err
					}
					fmt.Fprintf(w, "✓ Wrote %s\n", out)
					return nil
				}
				return report.WriteOrg(w, rep.Summary)
			default:
				return fmt.Errorf("unknown format %q (want text, json or org)", format)
			}
			return nil
		},
	}

	win.bind(cmd, "today")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Only count deals on this symbol")
	cmd.Flags().StringVar(&view, "view", "", "individual|grouped (default: stored view mode)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "results|-results|magics|-magics")
	cmd.Flags().StringVar(&note, "note", "", "Free text added to the summary")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text|json|org")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the Org report to this file")
	cmd.Flags().StringVar(&drill, "drill", "", "Per-symbol breakdown of one key (magic:N or group:N)")
	return cmd
}

func newTimelineCmd(a *app) *cobra.Command {
	var (
		win    windowFlags
		magics []int64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Open-position periods over a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := a.reports(nil)
			if err != nil {
				return err
			}
			defer done()

			window, err := win.resolve(r, "today")
			if err != nil {
				return err
			}
			if window.From.IsZero() || window.To.IsZero() {
				return fmt.Errorf("timeline needs both --from and --to, or a --preset")
			}

			periods, err := r.Timeline(cmd.Context(), window, magics)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), periods)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FROM\tTO\tBALANCE\tPOSITIONS")
			for _, p := range periods {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n",
					p.TimeIn.Format(timeLayout), p.TimeOut.Format(timeLayout),
					report.Cents(p.Balance), describePositions(p.Positions))
			}
			return tw.Flush()
		},
	}

	win.bind(cmd, "today")
	cmd.Flags().Int64SliceVar(&magics, "magic", nil, "Only positions of these magics (repeatable or comma separated)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

const timeLayout = "2006-01-02 15:04:05"

func describePositions(ps []ledger.Position) string {
	if len(ps) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, fmt.Sprintf("#%d %s %s %.2f@%.5f m%d",
			p.PositionID, p.Symbol, p.Direction, p.Volume, p.PriceOpen, p.Magic))
	}
	return strings.Join(parts, ", ")
}

func newBalanceCmd(a *app) *cobra.Command {
	var (
		at   string
		mode string
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Account balance at a point in time",
		Example: `  dealbook balance --at 2024-03-01 --mode end_of_day
  dealbook balance`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := a.reports(nil)
			if err != nil {
				return err
			}
			defer done()

			target := r.Now()
			if at != "" {
				if target, err = config.ParseTime(at); err != nil {
					return err
				}
			}
			b, err := ledger.ParseBoundary(mode)
			if err != nil {
				return err
			}

			bal, err := r.Balance(cmd.Context(), target, b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance at %s (%s): %s\n",
				b.Apply(target).Format(timeLayout), b, report.Money(bal, a.cfg.Account.Currency))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Local time (default now)")
	cmd.Flags().StringVar(&mode, "mode", "exact", "start_of_day|end_of_day|exact")
	return cmd
}

func newOpenCmd(a *app) *cobra.Command {
	var (
		sortBy string
		magic  int64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Floating profit of open positions by magic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := a.reports(nil)
			if err != nil {
				return err
			}
			defer done()

			opt, err := report.ParseSortOption(sortBy)
			if err != nil {
				return err
			}
			var pick *int64
			if cmd.Flags().Changed("magic") {
				pick = &magic
			}

			rep, err := r.Floating(cmd.Context(), a.account(), opt, pick)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, rep)
			}

			cur := a.cfg.Account.Currency
			fmt.Fprintf(w, "Floating: %s (%s) of balance %s [%s]\n",
				report.Money(rep.Total, cur), report.Percent(rep.Pct), report.Money(rep.Balance, cur), rep.Color)
			for _, row := range rep.Rows {
				fmt.Fprintln(w, row.Caption(cur))
			}
			if len(rep.Breakdown) > 0 {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\nSYMBOL\tTYPE\tFLOATING")
				for _, b := range rep.Breakdown {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Symbol, b.Direction, report.Money(b.Value, cur))
				}
				return tw.Flush()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "floating", "floating|-floating|magics|-magics")
	cmd.Flags().Int64Var(&magic, "magic", 0, "Show the symbol/direction breakdown of this magic")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newHoursCmd(a *app) *cobra.Command {
	var win windowFlags

	cmd := &cobra.Command{
		Use:   "hours",
		Short: "Trading deals per hour of the terminal clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := a.reports(nil)
			if err != nil {
				return err
			}
			defer done()

			window, err := win.resolve(r, "")
			if err != nil {
				return err
			}
			hours, err := r.Hours(cmd.Context(), window)
			if err != nil {
				return err
			}
			for h, n := range hours {
				fmt.Fprintf(cmd.OutOrStdout(), "%02d:00 %4d %s\n", h, n, strings.Repeat("#", n))
			}
			return nil
		},
	}

	win.bind(cmd, "")
	return cmd
}
