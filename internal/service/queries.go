package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/config"
	"github.com/rustyeddy/dealbook/deal"
	"github.com/rustyeddy/dealbook/ledger"
	"github.com/rustyeddy/dealbook/report"
	"github.com/rustyeddy/dealbook/store"
)

// ProfitQuery selects a profit report. Window bounds are local wall-clock;
// a zero bound is open. An empty View uses the account's stored mode.
type ProfitQuery struct {
	Account string
	Window  config.Range
	Symbol  string
	View    store.ViewMode
	Sort    report.SortOption
	Note    string
}

type ProfitReport struct {
	Summary report.Summary
	Result  ledger.AggregateResult
	View    store.ViewMode
}

func (r *Reports) Profits(ctx context.Context, q ProfitQuery) (ProfitReport, error) {
	deals, err := r.history(ctx)
	if err != nil {
		return ProfitReport{}, err
	}
	labels, err := r.labeler(ctx, q.Account)
	if err != nil {
		return ProfitReport{}, fmt.Errorf("profits: %w", err)
	}
	view, err := r.viewMode(ctx, q.Account, q.View)
	if err != nil {
		return ProfitReport{}, fmt.Errorf("profits: %w", err)
	}

	req := ledger.AggregateRequest{
		Deals:  deals,
		Symbol: q.Symbol,
		Start:  q.Window.From,
		End:    q.Window.To,
	}
	if view == store.Grouped {
		req.Groups = labels.Groups
	}
	res, err := r.calc.Aggregate(req)
	if err != nil {
		return ProfitReport{}, err
	}

	positions, err := r.openPositions(ctx)
	if err != nil {
		return ProfitReport{}, err
	}
	var floating *ledger.FloatingResult
	if positions != nil {
		f := ledger.FloatingByMagic(positions)
		floating = &f
	}

	now := r.Now()
	sum := report.Build(report.Input{
		Account:        q.Account,
		Currency:       r.cfg.Account.Currency,
		Note:           q.Note,
		Start:          q.Window.From,
		End:            q.Window.To,
		StartBalance:   r.balanceBefore(q.Window.From, deals),
		CurrentBalance: r.calc.BalanceAt(now, deals, r.cfg.Account.StartBalance, ledger.Exact),
		Result:         res,
		Floating:       floating,
		Labels:         labels,
		Sort:           q.Sort,
		Thresholds:     r.thresholds(),
		Now:            r.now(),
	})

	r.log.Info("profit report",
		zap.String("account", q.Account),
		zap.String("view", string(view)),
		zap.Int("deals", res.Counted),
		zap.Float64("total", sum.Total),
	)
	return ProfitReport{Summary: sum, Result: res, View: view}, nil
}

// Symbols drills one key of a profit report down to instruments.
func (r *Reports) Symbols(ctx context.Context, q ProfitQuery, k ledger.Key) ([]report.SymbolRow, error) {
	if k.Kind == ledger.KindGroup {
		q.View = store.Grouped
	} else if q.View == "" {
		q.View = store.Individual
	}
	rep, err := r.Profits(ctx, q)
	if err != nil {
		return nil, err
	}
	return report.SymbolRows(rep.Result, k), nil
}

// Timeline rebuilds the open-position periods of a window. Magics filters
// positions; empty means all.
func (r *Reports) Timeline(ctx context.Context, window config.Range, magics []int64) ([]ledger.Period, error) {
	deals, err := r.history(ctx)
	if err != nil {
		return nil, err
	}
	return r.calc.Reconstruct(ledger.TimelineRequest{
		Deals:          deals,
		Start:          window.From,
		End:            window.To,
		Magics:         magics,
		InitialBalance: r.cfg.Account.StartBalance,
	})
}

// Balance is the account balance at local time at, normalized by mode.
func (r *Reports) Balance(ctx context.Context, at time.Time, mode ledger.Boundary) (float64, error) {
	deals, err := r.history(ctx)
	if err != nil {
		return 0, err
	}
	return r.calc.BalanceAt(at, deals, r.cfg.Account.StartBalance, mode), nil
}

// Hours counts trading deals per terminal hour inside a local window.
func (r *Reports) Hours(ctx context.Context, window config.Range) ([24]int, error) {
	if !window.From.IsZero() && !window.To.IsZero() && window.From.After(window.To) {
		return [24]int{}, fmt.Errorf("hours: %w: %s > %s", ledger.ErrInvalidRange,
			window.From.Format(time.RFC3339), window.To.Format(time.RFC3339))
	}
	deals, err := r.history(ctx)
	if err != nil {
		return [24]int{}, err
	}
	clock := r.calc.Clock()
	in := make([]deal.Deal, 0, len(deals))
	for _, d := range deals {
		local := clock.ToLocal(d.Time)
		if !window.From.IsZero() && local.Before(window.From) {
			continue
		}
		if !window.To.IsZero() && local.After(window.To) {
			continue
		}
		in = append(in, d)
	}
	return ledger.DealsByHour(in), nil
}

// FloatingReport is unrealized profit of live positions as a share of the
// current balance.
type FloatingReport struct {
	Rows      []report.Row          `json:"rows"`
	Total     float64               `json:"total"`
	Pct       float64               `json:"pct"`
	Balance   float64               `json:"balance"`
	Color     report.Color          `json:"color"`
	Breakdown []report.BreakdownRow `json:"breakdown,omitempty"`
}

// Floating reports open-position profit. A non-nil magic adds its
// symbol/direction breakdown.
func (r *Reports) Floating(ctx context.Context, account string, sort report.SortOption, magic *int64) (FloatingReport, error) {
	positions, err := r.openPositions(ctx)
	if err != nil {
		return FloatingReport{}, err
	}
	deals, err := r.history(ctx)
	if err != nil {
		return FloatingReport{}, err
	}
	labels, err := r.labeler(ctx, account)
	if err != nil {
		return FloatingReport{}, fmt.Errorf("floating: %w", err)
	}

	balance := r.calc.BalanceAt(r.Now(), deals, r.cfg.Account.StartBalance, ledger.Exact)
	res := ledger.FloatingByMagic(positions)
	rows := report.FloatingRows(res, labels, balance)
	report.SortRows(rows, sort)

	out := FloatingReport{
		Rows:    rows,
		Total:   report.Cents(res.Total),
		Balance: report.Cents(balance),
	}
	if balance != 0 {
		out.Pct = report.Cents(res.Total / balance * 100)
	}
	out.Color = r.thresholds().Color(out.Pct)
	if magic != nil {
		out.Breakdown = report.FloatingBreakdown(res, *magic)
	}
	return out, nil
}
