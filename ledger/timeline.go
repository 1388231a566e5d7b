package ledger

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/deal"
)

// Volumes at or below this are treated as closed.
const volumeEpsilon = 1e-9

// Position is one open holding rebuilt from its deals.
type Position struct {
	PositionID int64
	Symbol     string
	Direction  deal.Direction
	Magic      int64
	Volume     float64
	PriceOpen  float64
	OpenedAt   time.Time
}

// Period is a stretch of time with a stable set of open positions.
type Period struct {
	TimeIn    time.Time
	TimeOut   time.Time
	Positions []Position
	Balance   float64
}

// TimelineRequest holds everything Reconstruct needs. Start and End are in
// the caller's wall clock. An empty Magics slice disables filtering.
type TimelineRequest struct {
	Deals          []deal.Deal
	Start          time.Time
	End            time.Time
	Magics         []int64
	InitialBalance float64
}

// Reconstruct replays the deal stream and returns the periods between
// req.Start and req.End. Consecutive periods share their boundary and the
// last one always ends at req.End.
func (c *Calculator) Reconstruct(req TimelineRequest) ([]Period, error) {
	if req.Start.After(req.End) {
		return nil, fmt.Errorf("reconstruct: %w: %s > %s", ErrInvalidRange,
			req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339))
	}
	if len(req.Deals) == 0 {
		return nil, nil
	}

	res := c.resolver("timeline", req.Deals)
	relevant := relevantDeals(req.Deals, res, req.Magics)
	if len(relevant) == 0 {
		return nil, nil
	}
	deal.SortByTime(relevant)

	startT := c.clock.ToTerminal(req.Start)
	endT := c.clock.ToTerminal(req.End)
	b := newBook(res, c.clock)

	i := 0
	for ; i < len(relevant) && relevant[i].Time.Before(startT); i++ {
		b.apply(relevant[i])
	}

	balance := c.BalanceAt(req.Start, req.Deals, req.InitialBalance, Exact)
	periods := []Period{{
		TimeIn:    req.Start,
		Positions: b.snapshot(),
		Balance:   balance,
	}}

	for ; i < len(relevant); i++ {
		d := relevant[i]
		if d.Time.After(endT) {
			break
		}

		changed := b.apply(d)
		// The starting balance already counts deals at exactly startT.
		if d.Time.After(startT) {
			balance += replayContribution(d)
		}

		cur := &periods[len(periods)-1]
		if !changed {
			cur.Balance = balance
			continue
		}

		at := c.clock.ToLocal(d.Time)
		if !at.After(cur.TimeIn) {
			// Same instant as the current period's start: fold into it.
			cur.Positions = b.snapshot()
			cur.Balance = balance
			continue
		}

		cur.TimeOut = at
		periods = append(periods, Period{
			TimeIn:    at,
			Positions: b.snapshot(),
			Balance:   balance,
		})
	}
	periods[len(periods)-1].TimeOut = req.End

	if b.orphans > 0 {
		c.log.Debug("closing deals without an open position",
			zap.Int("count", b.orphans))
	}
	if b.unresolved > 0 {
		c.rec.UnresolvedMagic("timeline", b.unresolved)
		c.log.Info("positions without a resolvable magic kept under magic 0",
			zap.Int("count", b.unresolved))
	}
	c.rec.ObserveDeals("timeline", len(relevant))

	return periods, nil
}

// relevantDeals drops balance changes and applies the magic filter. A
// position that matches the filter on any deal keeps all of its deals, so
// openings before the window are still replayed.
func relevantDeals(deals []deal.Deal, res *Resolver, magics []int64) []deal.Deal {
	var want map[int64]bool
	if len(magics) > 0 {
		want = make(map[int64]bool, len(magics))
		for _, m := range magics {
			want[m] = true
		}
	}

	matched := make(map[int64]bool)
	if want != nil {
		for _, d := range deals {
			if d.IsTrading() && d.PositionID != 0 && want[res.Resolve(d)] {
				matched[d.PositionID] = true
			}
		}
	}

	var out []deal.Deal
	for _, d := range deals {
		if !d.IsTrading() {
			continue
		}
		if want != nil {
			if d.PositionID != 0 && !matched[d.PositionID] {
				continue
			}
			if d.PositionID == 0 && !want[res.Resolve(d)] {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

// replayContribution is the balance effect of a deal inside the window.
// Commission is charged per side but only settled on the close.
func replayContribution(d deal.Deal) float64 {
	if !affectsPosition(d) {
		return d.Net()
	}
	switch {
	case d.Entry == deal.In:
		return d.Swap
	case d.Volume > 0:
		return d.Profit + d.Swap + 2*d.Commission
	default:
		return d.Swap
	}
}

func affectsPosition(d deal.Deal) bool {
	return d.PositionID != 0 && (d.Type == deal.Buy || d.Type == deal.Sell)
}

// book tracks the open positions during a replay.
type book struct {
	res     *Resolver
	clock   Clock
	open    map[int64]*Position
	orphans int
	// positions opened without a resolvable magic
	unresolved int
}

func newBook(res *Resolver, clock Clock) *book {
	return &book{
		res:   res,
		clock: clock,
		open:  make(map[int64]*Position),
	}
}

// apply folds one deal into the book and reports whether the open set
// changed. A position that returns to zero volume is dropped, so a reused
// position ID starts a fresh position.
func (b *book) apply(d deal.Deal) bool {
	if !affectsPosition(d) || d.Volume <= 0 {
		return false
	}

	p, ok := b.open[d.PositionID]
	if d.Entry == deal.In {
		if !ok {
			dir := deal.Long
			if d.Type == deal.Sell {
				dir = deal.Short
			}
			magic := b.res.Resolve(d)
			if magic == 0 {
				b.unresolved++
			}
			b.open[d.PositionID] = &Position{
				PositionID: d.PositionID,
				Symbol:     d.Symbol,
				Direction:  dir,
				Magic:      magic,
				Volume:     d.Volume,
				PriceOpen:  d.Price,
				OpenedAt:   b.clock.ToLocal(d.Time),
			}
			return true
		}
		total := p.Volume + d.Volume
		p.PriceOpen = (p.PriceOpen*p.Volume + d.Price*d.Volume) / total
		p.Volume = total
		return true
	}

	if !ok {
		b.orphans++
		return false
	}
	p.Volume -= d.Volume
	if p.Volume <= volumeEpsilon {
		delete(b.open, d.PositionID)
	}
	return true
}

func (b *book) snapshot() []Position {
	out := make([]Position, 0, len(b.open))
	for _, p := range b.open {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].OpenedAt.Before(out[j].OpenedAt)
		}
		return out[i].PositionID < out[j].PositionID
	})
	return out
}
