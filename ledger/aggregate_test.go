package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/dealbook/deal"
)

func TestAggregateBorrowedMagic(t *testing.T) {
	t.Parallel()

	open := deal.Deal{
		ID: 1, PositionID: 1, Time: at(100),
		Type: deal.Buy, Entry: deal.In, Symbol: "EURUSD",
		Volume: 1, Price: 1.1, Commission: -2,
	}
	closeD := deal.Deal{
		ID: 2, PositionID: 1, Time: at(200), Magic: 555,
		Type: deal.Sell, Entry: deal.Out, Symbol: "EURUSD",
		Volume: 1, Price: 1.2, Profit: 50, Swap: -0.5, Commission: -2,
	}

	c := New()
	res, err := c.Aggregate(AggregateRequest{Deals: []deal.Deal{open, closeD}})
	require.NoError(t, err)

	assert.Len(t, res.ByKey, 1)
	assert.InDelta(t, 45.5, res.ByKey[MagicKey(555)], 1e-9)
	assert.InDelta(t, 45.5, res.Total, 1e-9)
	assert.InDelta(t, 45.5, res.TotalExcludingUnassigned, 1e-9)
	assert.False(t, res.HasUnassigned())
	assert.Equal(t, 0, res.Unresolved)
	assert.Equal(t, 2, res.Counted)
}

func TestAggregateExcludesUnassigned(t *testing.T) {
	t.Parallel()

	a := buyIn(1, 1, 10, 1, 1)
	a.Magic = 5
	a.Profit = 10
	b := sellOut(2, 2, 20, 1, 1)
	b.Profit = -3

	rec := newFakeRecorder()
	c := New(WithRecorder(rec))
	res, err := c.Aggregate(AggregateRequest{Deals: []deal.Deal{a, b}})
	require.NoError(t, err)

	assert.True(t, res.HasUnassigned())
	assert.InDelta(t, -3.0, res.ByKey[Unassigned], 1e-9)
	assert.InDelta(t, 7.0, res.Total, 1e-9)
	assert.InDelta(t, 10.0, res.TotalExcludingUnassigned, 1e-9)
	assert.InDelta(t, res.Total-res.ByKey[Unassigned], res.TotalExcludingUnassigned, 1e-9)
	assert.Equal(t, 1, res.Unresolved)
	assert.Equal(t, 1, rec.unresolved)
	assert.Equal(t, 2, rec.observed["aggregate"])
}

func TestAggregateSkipsBalanceChanges(t *testing.T) {
	t.Parallel()

	a := buyIn(1, 1, 10, 1, 1)
	a.Magic = 3
	a.Profit = 1

	c := New()
	res, err := c.Aggregate(AggregateRequest{Deals: []deal.Deal{a, deposit(2, 5, 1000)}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Total, 1e-9)
	assert.Equal(t, 1, res.Counted)
}

func TestAggregateWindow(t *testing.T) {
	t.Parallel()

	offset := 3 * time.Hour
	local := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(id int64, terminal time.Time, profit float64) deal.Deal {
		return deal.Deal{ID: id, PositionID: id, Time: terminal, Magic: 1,
			Type: deal.Buy, Entry: deal.Out, Symbol: "EURUSD", Profit: profit}
	}
	deals := []deal.Deal{
		mk(1, local.Add(offset-time.Second), 1),
		mk(2, local.Add(offset), 2),
		mk(3, local.Add(offset+time.Hour), 4),
		mk(4, local.Add(offset+2*time.Hour), 8),
		mk(5, local.Add(offset+2*time.Hour+time.Second), 16),
	}

	c := New(WithOffset(offset))

	tests := []struct {
		name       string
		start, end time.Time
		want       float64
	}{
		{"inclusive both ends", local, local.Add(2 * time.Hour), 14},
		{"open start", time.Time{}, local.Add(time.Hour), 7},
		{"open end", local.Add(time.Hour), time.Time{}, 28},
		{"unbounded", time.Time{}, time.Time{}, 31},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := c.Aggregate(AggregateRequest{Deals: deals, Start: tt.start, End: tt.end})
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Total, 1e-9)
		})
	}
}

func TestAggregateInvalidRange(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Aggregate(AggregateRequest{Start: at(100), End: at(10)})
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestAggregateSymbolFilter(t *testing.T) {
	t.Parallel()

	eur := buyIn(1, 1, 10, 1, 1)
	eur.Magic = 1
	eur.Profit = 5
	gbp := buyIn(2, 2, 10, 1, 1)
	gbp.Magic = 1
	gbp.Symbol = "GBPUSD"
	gbp.Profit = 100

	c := New()
	res, err := c.Aggregate(AggregateRequest{Deals: []deal.Deal{eur, gbp}, Symbol: "EURUSD"})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Total, 1e-9)
	assert.Equal(t, map[string]float64{"EURUSD": 5}, res.Symbols(MagicKey(1)))

	res, err = c.Aggregate(AggregateRequest{Deals: []deal.Deal{eur, gbp}})
	require.NoError(t, err)
	assert.Len(t, res.Symbols(MagicKey(1)), 2)
}

func TestAggregateGroups(t *testing.T) {
	t.Parallel()

	mk := func(id, magic int64, profit float64) deal.Deal {
		d := buyIn(id, id, 10, 1, 1)
		d.Magic = magic
		d.Profit = profit
		return d
	}
	deals := []deal.Deal{mk(1, 5, 10), mk(2, 6, 4), mk(3, 8, 1)}
	groups := Groups{
		1: {ID: 1, Name: "trend", Magics: []int64{5, 6}},
		2: {ID: 2, Name: "scalp", Magics: []int64{6}},
	}

	rec := newFakeRecorder()
	c := New(WithRecorder(rec))
	res, err := c.Aggregate(AggregateRequest{Deals: deals, Groups: groups})
	require.NoError(t, err)

	assert.InDelta(t, 14.0, res.ByKey[GroupKey(1)], 1e-9)
	assert.InDelta(t, 4.0, res.ByKey[GroupKey(2)], 1e-9)
	assert.InDelta(t, 1.0, res.ByKey[MagicKey(8)], 1e-9)
	assert.InDelta(t, 15.0, res.Total, 1e-9)

	require.Len(t, res.Overlaps, 1)
	assert.Equal(t, Overlap{Magic: 6, Groups: []int64{1, 2}}, res.Overlaps[0])
	assert.Equal(t, []int64{6}, rec.overlaps)

	assert.Equal(t, []Key{MagicKey(8), GroupKey(1), GroupKey(2)}, res.Keys())
}

func TestKeyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "magic:12", MagicKey(12).String())
	assert.Equal(t, "group:3", GroupKey(3).String())
	assert.NotEqual(t, MagicKey(3), GroupKey(3))
}
