package config

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownPreset = errors.New("unknown date preset")

// Range is a reporting window in local wall-clock time.
type Range struct {
	From time.Time
	To   time.Time
}

var presetNames = []string{"today", "this_week", "this_month", "this_year"}

func PresetNames() []string {
	return append([]string(nil), presetNames...)
}

// Preset resolves a named window ending at now. On weekends "today" widens
// to the current week.
func Preset(name string, now time.Time) (Range, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if name == "today" && isWeekend(now) {
		name = "this_week"
	}

	var from time.Time
	switch name {
	case "today":
		from = midnight
	case "this_week":
		// Weeks start on Monday.
		back := (int(now.Weekday()) + 6) % 7
		from = midnight.AddDate(0, 0, -back)
	case "this_month":
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "this_year":
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return Range{From: from, To: now}, nil
}

func isWeekend(t time.Time) bool {
	d := t.Weekday()
	return d == time.Saturday || d == time.Sunday
}

var ErrBadTime = errors.New("unrecognized time")

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006.01.02 15:04:05",
	"2006-01-02",
}

const dateLayout = "2006-01-02"

// ParseTime reads a wall-clock time. A zone in the input is dropped, the
// result holds the same reading in UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTime, s)
}

// Window resolves a preset or explicit bounds. With neither it falls back to
// the def preset, or an open window when def is empty. A bare end date
// covers that whole day.
func Window(preset, from, to, def string, now time.Time) (Range, error) {
	if preset == "" && from == "" && to == "" {
		preset = def
	}
	if preset != "" {
		return Preset(preset, now)
	}

	var rng Range
	var err error
	if from != "" {
		if rng.From, err = ParseTime(from); err != nil {
			return Range{}, err
		}
	}
	if to != "" {
		if rng.To, err = ParseTime(to); err != nil {
			return Range{}, err
		}
		if len(to) == len(dateLayout) {
			rng.To = rng.To.Add(24*time.Hour - time.Second)
		}
	}
	return rng, nil
}
