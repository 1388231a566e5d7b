package ledger

import (
	"sync"
	"time"

	"github.com/rustyeddy/dealbook/deal"
)

func at(sec int64) time.Time {
	return deal.Unix(sec)
}

func buyIn(id, pos, sec int64, vol, price float64) deal.Deal {
	return deal.Deal{
		ID: id, PositionID: pos, Time: at(sec),
		Type: deal.Buy, Entry: deal.In, Symbol: "EURUSD",
		Volume: vol, Price: price,
	}
}

func sellOut(id, pos, sec int64, vol, price float64) deal.Deal {
	return deal.Deal{
		ID: id, PositionID: pos, Time: at(sec),
		Type: deal.Sell, Entry: deal.Out, Symbol: "EURUSD",
		Volume: vol, Price: price,
	}
}

func deposit(id, sec int64, amount float64) deal.Deal {
	return deal.Deal{ID: id, Time: at(sec), Type: deal.BalanceChange, Profit: amount}
}

type fakeRecorder struct {
	mu         sync.Mutex
	observed   map[string]int
	unresolved int
	conflicts  []int64
	overlaps   []int64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{observed: map[string]int{}}
}

func (f *fakeRecorder) ObserveDeals(op string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed[op] += n
}

func (f *fakeRecorder) UnresolvedMagic(op string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unresolved += n
}

func (f *fakeRecorder) MagicConflict(pos int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conflicts = append(f.conflicts, pos)
}

func (f *fakeRecorder) GroupOverlap(magic int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlaps = append(f.overlaps, magic)
}
