// Package service joins deal sources, the label store and the ledger into
// the report queries shared by the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/config"
	"github.com/rustyeddy/dealbook/deal"
	"github.com/rustyeddy/dealbook/journal"
	"github.com/rustyeddy/dealbook/ledger"
	"github.com/rustyeddy/dealbook/report"
	"github.com/rustyeddy/dealbook/store"
)

// Labels is the part of the label store reports read.
type Labels interface {
	Descriptions(ctx context.Context, account string) (map[int64]string, error)
	MagicGroups(ctx context.Context, account string) (ledger.Groups, error)
	ViewMode(ctx context.Context, account string) (store.ViewMode, error)
}

// Reports answers report queries for one configured account. Positions and
// Labels may be nil.
type Reports struct {
	cfg       *config.Config
	deals     journal.Source
	positions journal.PositionSource
	labels    Labels
	calc      *ledger.Calculator
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*Reports)

func WithPositions(p journal.PositionSource) Option {
	return func(r *Reports) { r.positions = p }
}

func WithLabels(l Labels) Option {
	return func(r *Reports) { r.labels = l }
}

func WithCalculator(c *ledger.Calculator) Option {
	return func(r *Reports) { r.calc = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Reports) { r.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reports) { r.now = now }
}

func New(cfg *config.Config, deals journal.Source, opts ...Option) *Reports {
	r := &Reports{cfg: cfg, deals: deals, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.calc == nil {
		r.calc = ledger.New(ledger.WithOffset(cfg.Time.Offset()), ledger.WithLogger(r.log))
	}
	return r
}

// Now is the current local wall-clock time.
func (r *Reports) Now() time.Time {
	return ledger.Wall(r.now())
}

func (r *Reports) Calculator() *ledger.Calculator {
	return r.calc
}

// history loads every deal the source holds. Magic resolution and balances
// need deals outside any report window.
func (r *Reports) history(ctx context.Context) ([]deal.Deal, error) {
	deals, err := r.deals.FetchDeals(ctx, time.Time{}, time.Time{})
	if err != nil {
		if errors.Is(err, journal.ErrFetchFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("history: %w: %v", journal.ErrFetchFailure, err)
	}
	r.log.Debug("history loaded", zap.Int("deals", len(deals)))
	return deals, nil
}

func (r *Reports) openPositions(ctx context.Context) ([]deal.OpenPosition, error) {
	if r.positions == nil {
		return nil, nil
	}
	ps, err := r.positions.FetchPositions(ctx)
	if err != nil {
		if errors.Is(err, journal.ErrFetchFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("positions: %w: %v", journal.ErrFetchFailure, err)
	}
	return ps, nil
}

func (r *Reports) labeler(ctx context.Context, account string) (report.Labeler, error) {
	l := report.Labeler{DescriptionFirst: r.cfg.Report.DescriptionFirst}
	if r.labels == nil {
		return l, nil
	}
	desc, err := r.labels.Descriptions(ctx, account)
	if err != nil {
		return l, err
	}
	groups, err := r.labels.MagicGroups(ctx, account)
	if err != nil {
		return l, err
	}
	l.Descriptions = desc
	l.Groups = groups
	return l, nil
}

func (r *Reports) viewMode(ctx context.Context, account string, override store.ViewMode) (store.ViewMode, error) {
	if override != "" {
		return override, nil
	}
	if r.labels == nil {
		return store.Individual, nil
	}
	return r.labels.ViewMode(ctx, account)
}

func (r *Reports) thresholds() report.Thresholds {
	return report.Thresholds{
		Warning:  r.cfg.Report.WarningPct,
		Critical: r.cfg.Report.CriticalPct,
	}
}

// balanceBefore is the balance just ahead of local time t. Deals stamped
// exactly at t belong to the window that starts there.
func (r *Reports) balanceBefore(t time.Time, deals []deal.Deal) float64 {
	if t.IsZero() {
		return r.cfg.Account.StartBalance
	}
	return r.calc.BalanceAt(t.Add(-time.Second), deals, r.cfg.Account.StartBalance, ledger.Exact)
}
