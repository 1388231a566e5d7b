package ledger

import (
	"github.com/rustyeddy/dealbook/deal"
)

// FloatingResult is the unrealized profit of live positions.
type FloatingResult struct {
	ByMagic  map[int64]float64
	Detailed map[int64]map[string]map[deal.Direction]float64
	Total    float64
}

// FloatingByMagic sums profit + swap of open Buy/Sell positions by magic,
// and by magic/symbol/direction for drill-down. Commission is not charged
// until the position closes.
func FloatingByMagic(positions []deal.OpenPosition) FloatingResult {
	out := FloatingResult{
		ByMagic:  make(map[int64]float64),
		Detailed: make(map[int64]map[string]map[deal.Direction]float64),
	}

	for _, p := range positions {
		var dir deal.Direction
		switch p.Type {
		case deal.Buy:
			dir = deal.Long
		case deal.Sell:
			dir = deal.Short
		default:
			continue
		}

		bySymbol, ok := out.Detailed[p.Magic]
		if !ok {
			bySymbol = make(map[string]map[deal.Direction]float64)
			out.Detailed[p.Magic] = bySymbol
		}
		if bySymbol[p.Symbol] == nil {
			bySymbol[p.Symbol] = make(map[deal.Direction]float64)
		}

		pl := p.Profit + p.Swap
		bySymbol[p.Symbol][dir] += pl
		out.ByMagic[p.Magic] += pl
		out.Total += pl
	}
	return out
}

// DealsByHour counts trading deals per hour of the terminal clock.
func DealsByHour(deals []deal.Deal) [24]int {
	var hours [24]int
	for _, d := range deals {
		if !d.IsTrading() {
			continue
		}
		hours[d.Time.UTC().Hour()]++
	}
	return hours
}
