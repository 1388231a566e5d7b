package report

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/dealbook/deal"
	"github.com/rustyeddy/dealbook/ledger"
)

// Row is one bar of a results or floating chart.
type Row struct {
	Kind  string  `json:"kind"` // "magic" or "group"
	ID    int64   `json:"id"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	// Pct is Value as a percentage of the reference balance, floating rows only.
	Pct float64 `json:"pct,omitempty"`
}

func kindName(k ledger.KeyKind) string {
	if k == ledger.KindGroup {
		return "group"
	}
	return "magic"
}

// ResultRows turns an aggregation into rows in key order.
func ResultRows(res ledger.AggregateResult, l Labeler) []Row {
	keys := res.Keys()
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, Row{
			Kind:  kindName(k.Kind),
			ID:    k.ID,
			Label: l.Key(k),
			Value: Cents(res.ByKey[k]),
		})
	}
	return rows
}

// FloatingRows turns floating profit into rows, each with its share of
// balance.
func FloatingRows(res ledger.FloatingResult, l Labeler, balance float64) []Row {
	magics := make([]int64, 0, len(res.ByMagic))
	for m := range res.ByMagic {
		magics = append(magics, m)
	}
	sort.Slice(magics, func(i, j int) bool { return magics[i] < magics[j] })

	rows := make([]Row, 0, len(magics))
	for _, m := range magics {
		v := res.ByMagic[m]
		var pct float64
		if balance != 0 {
			pct = Cents(v / balance * 100)
		}
		rows = append(rows, Row{Kind: "magic", ID: m, Label: l.Magic(m), Value: Cents(v), Pct: pct})
	}
	return rows
}

// Caption renders a row the way the result charts label their bars.
func (r Row) Caption(currency string) string {
	if r.Pct != 0 {
		return fmt.Sprintf("%s (%s) - %s", Money(r.Value, currency), Percent(r.Pct), r.Label)
	}
	return fmt.Sprintf("%s  -  %s", Money(r.Value, currency), r.Label)
}

type SortOption string

const (
	ResultsAsc   SortOption = "Results ↓"
	ResultsDesc  SortOption = "Results ↑"
	MagicsAsc    SortOption = "Magics ↓"
	MagicsDesc   SortOption = "Magics ↑"
	FloatingAsc  SortOption = "Floating ↓"
	FloatingDesc SortOption = "Floating ↑"
)

// ParseSortOption accepts the display names and short aliases such as
// "results", "-results", "magics" and "-floating".
func ParseSortOption(s string) (SortOption, error) {
	switch s {
	case "", "results", string(ResultsAsc):
		return ResultsAsc, nil
	case "-results", string(ResultsDesc):
		return ResultsDesc, nil
	case "magics", string(MagicsAsc):
		return MagicsAsc, nil
	case "-magics", string(MagicsDesc):
		return MagicsDesc, nil
	case "floating", string(FloatingAsc):
		return FloatingAsc, nil
	case "-floating", string(FloatingDesc):
		return FloatingDesc, nil
	}
	return "", fmt.Errorf("unknown sort option %q", s)
}

// SortRows orders rows in place. The arrow names the chart direction: "↓"
// sorts ascending so the largest value ends up on top of a bar chart.
func SortRows(rows []Row, opt SortOption) {
	less := func(i, j int) bool { return rows[i].Value < rows[j].Value }
	switch opt {
	case ResultsDesc, FloatingDesc:
		less = func(i, j int) bool { return rows[i].Value > rows[j].Value }
	case MagicsAsc:
		less = func(i, j int) bool { return rows[i].ID < rows[j].ID }
	case MagicsDesc:
		less = func(i, j int) bool { return rows[i].ID > rows[j].ID }
	}
	sort.SliceStable(rows, less)
}

// Distribution splits rows into winners and losers. Loss values are made
// positive so both halves can feed a pie chart.
type Distribution struct {
	Profits     []Row   `json:"profits"`
	Losses      []Row   `json:"losses"`
	TotalProfit float64 `json:"total_profit"`
	TotalLoss   float64 `json:"total_loss"`
}

func Split(rows []Row) Distribution {
	var d Distribution
	for _, r := range rows {
		switch {
		case r.Value > 0:
			d.Profits = append(d.Profits, r)
			d.TotalProfit += r.Value
		case r.Value < 0:
			r.Value = -r.Value
			d.Losses = append(d.Losses, r)
			d.TotalLoss += r.Value
		}
	}
	d.TotalProfit = Cents(d.TotalProfit)
	d.TotalLoss = Cents(d.TotalLoss)
	return d
}

type SymbolRow struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

// SymbolRows is the per-instrument drill-down for one key, by symbol.
func SymbolRows(res ledger.AggregateResult, k ledger.Key) []SymbolRow {
	bySymbol := res.Symbols(k)
	out := make([]SymbolRow, 0, len(bySymbol))
	for s, v := range bySymbol {
		out = append(out, SymbolRow{Symbol: s, Value: Cents(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

type BreakdownRow struct {
	Symbol    string         `json:"symbol"`
	Direction deal.Direction `json:"type"`
	Value     float64        `json:"floating"`
}

// FloatingBreakdown lists one magic's floating profit by symbol and side.
func FloatingBreakdown(res ledger.FloatingResult, magic int64) []BreakdownRow {
	var out []BreakdownRow
	for sym, dirs := range res.Detailed[magic] {
		for dir, v := range dirs {
			out = append(out, BreakdownRow{Symbol: sym, Direction: dir, Value: Cents(v)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Direction < out[j].Direction
	})
	return out
}
