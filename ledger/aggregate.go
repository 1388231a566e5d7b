package ledger

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/deal"
)

type KeyKind int

const (
	KindMagic KeyKind = iota
	KindGroup
)

// Key identifies an aggregation bucket. Group IDs and magics share the
// integer space, so the kind is part of the key.
type Key struct {
	Kind KeyKind
	ID   int64
}

func MagicKey(magic int64) Key { return Key{Kind: KindMagic, ID: magic} }
func GroupKey(id int64) Key    { return Key{Kind: KindGroup, ID: id} }

// Unassigned is the bucket for deals whose magic could not be resolved.
var Unassigned = MagicKey(0)

func (k Key) String() string {
	if k.Kind == KindGroup {
		return fmt.Sprintf("group:%d", k.ID)
	}
	return fmt.Sprintf("magic:%d", k.ID)
}

// SymbolKey is the per-instrument drill-down bucket under a Key.
type SymbolKey struct {
	Key    Key
	Symbol string
}

// Group is a user-defined, named set of magics.
type Group struct {
	ID     int64
	Name   string
	Magics []int64
}

// Groups maps group ID to group.
type Groups map[int64]Group

// Overlap reports a magic that belongs to more than one group.
type Overlap struct {
	Magic  int64
	Groups []int64
}

// index maps each magic to the (sorted) groups containing it.
func (g Groups) index() (map[int64][]int64, []Overlap) {
	ids := make([]int64, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	idx := make(map[int64][]int64)
	for _, id := range ids {
		seen := make(map[int64]bool)
		for _, m := range g[id].Magics {
			if seen[m] {
				continue
			}
			seen[m] = true
			idx[m] = append(idx[m], id)
		}
	}

	var overlaps []Overlap
	for m, gs := range idx {
		if len(gs) > 1 {
			overlaps = append(overlaps, Overlap{Magic: m, Groups: gs})
		}
	}
	sort.Slice(overlaps, func(i, j int) bool { return overlaps[i].Magic < overlaps[j].Magic })
	return idx, overlaps
}

// AggregateRequest describes one aggregation. Zero Start or End leaves that
// side of the window open. A non-empty Symbol restricts the deals counted.
type AggregateRequest struct {
	Deals  []deal.Deal
	Symbol string
	Start  time.Time
	End    time.Time
	Groups Groups
}

type AggregateResult struct {
	ByKey    map[Key]float64
	BySymbol map[SymbolKey]float64

	Total                    float64
	TotalExcludingUnassigned float64

	// Counted is the number of deals that contributed.
	Counted int
	// Unresolved counts contributing deals left in the Unassigned bucket.
	Unresolved int
	// Overlaps lists magics found in more than one group. Such magics are
	// added to every group they belong to.
	Overlaps []Overlap
}

// HasUnassigned reports whether any deal landed in the Unassigned bucket.
func (r AggregateResult) HasUnassigned() bool {
	_, ok := r.ByKey[Unassigned]
	return ok
}

// Keys returns the result keys, magics first, each kind in ascending order.
func (r AggregateResult) Keys() []Key {
	keys := make([]Key, 0, len(r.ByKey))
	for k := range r.ByKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].ID < keys[j].ID
	})
	return keys
}

// Symbols returns the per-symbol totals for one key.
func (r AggregateResult) Symbols(k Key) map[string]float64 {
	out := make(map[string]float64)
	for sk, v := range r.BySymbol {
		if sk.Key == k {
			out[sk.Symbol] = v
		}
	}
	return out
}

// Aggregate sums profit + commission + swap of trading deals by resolved
// magic, or by group when req.Groups is set. Window bounds are inclusive and
// compared against the deal's local time.
func (c *Calculator) Aggregate(req AggregateRequest) (AggregateResult, error) {
	if !req.Start.IsZero() && !req.End.IsZero() && req.Start.After(req.End) {
		return AggregateResult{}, fmt.Errorf("aggregate: %w: %s > %s", ErrInvalidRange,
			req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339))
	}

	out := AggregateResult{
		ByKey:    make(map[Key]float64),
		BySymbol: make(map[SymbolKey]float64),
	}

	var byMagic map[int64][]int64
	if len(req.Groups) > 0 {
		byMagic, out.Overlaps = req.Groups.index()
		for _, o := range out.Overlaps {
			c.rec.GroupOverlap(o.Magic)
			c.log.Warn("magic belongs to several groups; totals double-count",
				zap.Int64("magic", o.Magic),
				zap.Int64s("groups", o.Groups),
			)
		}
	}

	res := c.resolver("aggregate", req.Deals)
	for _, d := range req.Deals {
		if !d.IsTrading() {
			continue
		}
		if req.Symbol != "" && d.Symbol != req.Symbol {
			continue
		}
		local := c.clock.ToLocal(d.Time)
		if !req.Start.IsZero() && local.Before(req.Start) {
			continue
		}
		if !req.End.IsZero() && local.After(req.End) {
			continue
		}

		magic := res.Resolve(d)
		if magic == 0 {
			out.Unresolved++
		}

		keys := []Key{MagicKey(magic)}
		if gs, ok := byMagic[magic]; ok {
			keys = keys[:0]
			for _, id := range gs {
				keys = append(keys, GroupKey(id))
			}
		}

		net := d.Net()
		for _, k := range keys {
			out.ByKey[k] += net
			out.BySymbol[SymbolKey{Key: k, Symbol: d.Symbol}] += net
		}
		out.Total += net
		out.Counted++
	}

	out.TotalExcludingUnassigned = out.Total - out.ByKey[Unassigned]

	if out.Unresolved > 0 {
		c.rec.UnresolvedMagic("aggregate", out.Unresolved)
		c.log.Info("deals without a resolvable magic kept under magic 0",
			zap.Int("count", out.Unresolved))
	}
	c.rec.ObserveDeals("aggregate", out.Counted)

	return out, nil
}
