// Package journal supplies deal history to the ledger: a SQLite cache of
// imported deals and a reader for terminal CSV exports.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/dealbook/deal"
	"github.com/rustyeddy/dealbook/ledger"
)

var (
	// ErrFetchFailure means the source could not produce deals at all. It is
	// never retried.
	ErrFetchFailure = errors.New("deal fetch failed")
	ErrDealNotFound = errors.New("deal not found")
)

// Source returns the deals whose terminal time falls in [from, to). A zero
// bound leaves that side open. The list may be unordered.
type Source interface {
	FetchDeals(ctx context.Context, from, to time.Time) ([]deal.Deal, error)
}

// PositionSource returns the currently open positions.
type PositionSource interface {
	FetchPositions(ctx context.Context) ([]deal.OpenPosition, error)
}

type Journal interface {
	Source
	PositionSource
	RecordDeals(ctx context.Context, deals []deal.Deal) error
	ReplacePositions(ctx context.Context, positions []deal.OpenPosition) error
	Close() error
}

func checkWindow(from, to time.Time) error {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return fmt.Errorf("fetch: %w: %s > %s", ledger.ErrInvalidRange,
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return nil
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func fetchFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrFetchFailure, err)
}
