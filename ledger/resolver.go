package ledger

import (
	"sort"

	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/deal"
)

// Conflict records a position whose deals carry more than one non-zero magic.
type Conflict struct {
	PositionID int64
	Magics     []int64
}

// Resolver borrows a magic for unassigned deals from their position
// siblings. The map is built once per snapshot; when siblings disagree the
// magic on the lowest deal ID wins.
type Resolver struct {
	byPosition map[int64]int64
	conflicts  []Conflict
}

func NewResolver(deals []deal.Deal) *Resolver {
	type pick struct {
		dealID int64
		magic  int64
	}

	best := make(map[int64]pick)
	seen := make(map[int64]map[int64]struct{})

	for _, d := range deals {
		if d.PositionID == 0 || d.Magic == 0 {
			continue
		}
		if p, ok := best[d.PositionID]; !ok || d.ID < p.dealID {
			best[d.PositionID] = pick{dealID: d.ID, magic: d.Magic}
		}
		if seen[d.PositionID] == nil {
			seen[d.PositionID] = make(map[int64]struct{})
		}
		seen[d.PositionID][d.Magic] = struct{}{}
	}

	r := &Resolver{byPosition: make(map[int64]int64, len(best))}
	for pos, p := range best {
		r.byPosition[pos] = p.magic
	}

	for pos, magics := range seen {
		if len(magics) < 2 {
			continue
		}
		c := Conflict{PositionID: pos}
		for m := range magics {
			c.Magics = append(c.Magics, m)
		}
		sort.Slice(c.Magics, func(i, j int) bool { return c.Magics[i] < c.Magics[j] })
		r.conflicts = append(r.conflicts, c)
	}
	sort.Slice(r.conflicts, func(i, j int) bool {
		return r.conflicts[i].PositionID < r.conflicts[j].PositionID
	})

	return r
}

// Resolve returns the deal's own magic, else its position's magic, else 0.
// Standalone deals (position 0) have no siblings to borrow from.
func (r *Resolver) Resolve(d deal.Deal) int64 {
	if d.Magic != 0 {
		return d.Magic
	}
	if d.PositionID == 0 {
		return 0
	}
	return r.byPosition[d.PositionID]
}

// Conflicts lists positions whose siblings disagree, ordered by position ID.
func (r *Resolver) Conflicts() []Conflict {
	return r.conflicts
}

// Resolve is the one-shot form of Resolver.Resolve. Callers resolving many
// deals from the same snapshot should build a Resolver once instead.
func Resolve(d deal.Deal, all []deal.Deal) int64 {
	if d.Magic != 0 {
		return d.Magic
	}
	return NewResolver(all).Resolve(d)
}

func (c *Calculator) resolver(op string, deals []deal.Deal) *Resolver {
	r := NewResolver(deals)
	for _, conflict := range r.Conflicts() {
		c.rec.MagicConflict(conflict.PositionID)
		c.log.Warn("position siblings disagree on magic",
			zap.String("op", op),
			zap.Int64("position_id", conflict.PositionID),
			zap.Int64s("magics", conflict.Magics),
		)
	}
	return r
}
