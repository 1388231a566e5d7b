// Package ledger replays a terminal's deal history. It resolves missing
// magic numbers, reconstructs the open-position timeline, attributes profit
// to magics or user groups, and computes balance at any instant.
//
// Every operation works on a caller-supplied snapshot and never mutates it.
// A Calculator only carries configuration (clock offset, logger, recorder),
// so one instance can serve concurrent requests for different snapshots.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrInvalidRange = errors.New("window start is after window end")
)

// Boundary selects how a target time's time-of-day is normalized.
type Boundary int

const (
	StartOfDay Boundary = iota
	EndOfDay
	Exact
)

func (b Boundary) String() string {
	switch b {
	case EndOfDay:
		return "end_of_day"
	case Exact:
		return "exact"
	default:
		return "start_of_day"
	}
}

// ParseBoundary is the inverse of Boundary.String.
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "start_of_day", "start", "":
		return StartOfDay, nil
	case "end_of_day", "end":
		return EndOfDay, nil
	case "exact":
		return Exact, nil
	}
	return StartOfDay, fmt.Errorf("unknown boundary mode %q", s)
}

// Apply normalizes t to the boundary in t's own location.
func (b Boundary) Apply(t time.Time) time.Time {
	switch b {
	case StartOfDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case EndOfDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	default:
		return t
	}
}

// Clock converts between the caller's wall clock and the terminal clock.
// The terminal runs Offset ahead of local time.
type Clock struct {
	Offset time.Duration
}

func (c Clock) ToTerminal(local time.Time) time.Time {
	return local.Add(c.Offset)
}

func (c Clock) ToLocal(terminal time.Time) time.Time {
	return terminal.Add(-c.Offset)
}

// Wall keeps t's wall-clock reading and drops its zone. Local windows are
// carried as UTC values holding the caller's wall-clock time.
func Wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Recorder receives soft diagnostics that do not fail a request.
type Recorder interface {
	ObserveDeals(op string, n int)
	UnresolvedMagic(op string, n int)
	MagicConflict(positionID int64)
	GroupOverlap(magic int64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveDeals(string, int)    {}
func (nopRecorder) UnresolvedMagic(string, int) {}
func (nopRecorder) MagicConflict(int64)         {}
func (nopRecorder) GroupOverlap(int64)          {}

// Calculator runs the ledger operations with an injected clock, logger and
// diagnostics recorder.
type Calculator struct {
	clock Clock
	log   *zap.Logger
	rec   Recorder
}

type Option func(*Calculator)

// WithOffset sets the terminal's fixed offset from local time.
func WithOffset(d time.Duration) Option {
	return func(c *Calculator) { c.clock.Offset = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Calculator) {
		if r != nil {
			c.rec = r
		}
	}
}

func New(opts ...Option) *Calculator {
	c := &Calculator{
		log: zap.NewNop(),
		rec: nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) Clock() Clock {
	return c.clock
}
