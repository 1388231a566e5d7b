package deal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Type mirrors the terminal's deal type codes for the kinds we care about.
type Type int

const (
	Buy           Type = 0
	Sell          Type = 1
	BalanceChange Type = 2
	Other         Type = 3
)

func (t Type) String() string {
	switch t {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	case BalanceChange:
		return "Balance"
	default:
		return "Other"
	}
}

// ParseType accepts either a terminal code ("0", "2") or a name ("buy").
// Unknown codes map to Other.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		switch Type(n) {
		case Buy, Sell, BalanceChange:
			return Type(n), nil
		}
		return Other, nil
	}

	switch strings.ToLower(s) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	case "balance", "balancechange":
		return BalanceChange, nil
	case "other", "":
		return Other, nil
	}
	return Other, fmt.Errorf("unknown deal type %q", s)
}

type Entry int

const (
	In  Entry = 0
	Out Entry = 1
)

func (e Entry) String() string {
	if e == Out {
		return "Out"
	}
	return "In"
}

// ParseEntry accepts "in"/"out" or the terminal codes. The terminal's
// out-by code (3) is folded into Out.
func ParseEntry(s string) (Entry, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "in", "":
		return In, nil
	case "1", "3", "out", "out_by":
		return Out, nil
	}
	return In, fmt.Errorf("unknown deal entry %q", s)
}

// Deal is one immutable line of account history.
type Deal struct {
	ID         int64
	PositionID int64
	Time       time.Time
	Type       Type
	Entry      Entry
	Symbol     string
	Magic      int64
	Volume     float64
	Price      float64
	Profit     float64
	Commission float64
	Swap       float64
}

// Net is profit + commission + swap.
func (d Deal) Net() float64 {
	return d.Profit + d.Commission + d.Swap
}

// IsTrading reports whether the deal carries trading semantics.
func (d Deal) IsTrading() bool {
	return d.Type != BalanceChange
}

// Direction of a position, taken from its first opening deal.
type Direction string

const (
	Long  Direction = "Buy"
	Short Direction = "Sell"
)

// OpenPosition is a live position as reported by the terminal.
type OpenPosition struct {
	Ticket    int64
	Symbol    string
	Type      Type
	Magic     int64
	Volume    float64
	PriceOpen float64
	Profit    float64
	Swap      float64
}

// Unix converts terminal seconds into a UTC time.
func Unix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// SortByTime orders deals by time, then deal ID, in place.
func SortByTime(deals []Deal) {
	sort.SliceStable(deals, func(i, j int) bool {
		if !deals[i].Time.Equal(deals[j].Time) {
			return deals[i].Time.Before(deals[j].Time)
		}
		return deals[i].ID < deals[j].ID
	})
}
