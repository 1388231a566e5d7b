package ledger

import (
	"time"

	"github.com/rustyeddy/dealbook/deal"
)

// BalanceAt replays deals up to and including target and returns the
// resulting balance. target is normalized by mode and then shifted into the
// terminal clock. Balance changes add their profit only; every other deal
// adds profit + commission + swap.
func (c *Calculator) BalanceAt(target time.Time, deals []deal.Deal, initial float64, mode Boundary) float64 {
	if len(deals) == 0 {
		return initial
	}

	cutoff := c.clock.ToTerminal(mode.Apply(target))
	balance := initial
	for _, d := range sortedDeals(deals) {
		if d.Time.After(cutoff) {
			break
		}
		balance += balanceContribution(d)
	}

	c.rec.ObserveDeals("balance", len(deals))
	return balance
}

func balanceContribution(d deal.Deal) float64 {
	if d.Type == deal.BalanceChange {
		return d.Profit
	}
	return d.Net()
}

// sortedDeals returns a copy ordered by (time, deal id).
func sortedDeals(deals []deal.Deal) []deal.Deal {
	out := make([]deal.Deal, len(deals))
	copy(out, deals)
	deal.SortByTime(out)
	return out
}
