package report

import (
	"errors"
	"fmt"
	"time"
)

type RangeKind string

const (
	RangeDaily   RangeKind = "daily"
	RangeWeekly  RangeKind = "weekly"
	RangeMonthly RangeKind = "monthly"
	RangeCustom  RangeKind = "custom"
)

const dateLayout = "2006-01-02"

var ErrInvalidRange = errors.New("invalid date range")

// Range is an inclusive [From, To] window in store time.
type Range struct {
	Kind RangeKind `json:"kind"`
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ResolveRange turns a range request into concrete bounds.
//   - daily: today from midnight until now
//   - weekly: the last seven calendar days including today
//   - monthly: from the first of the current month until now
//   - custom: from/to as YYYY-MM-DD, both days inclusive
func ResolveRange(kind, from, to string, now time.Time, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	switch RangeKind(kind) {
	case "", RangeDaily:
		return Range{Kind: RangeDaily, From: startOfDay(now), To: now}, nil
	case RangeWeekly:
		return Range{Kind: RangeWeekly, From: startOfDay(now.AddDate(0, 0, -6)), To: now}, nil
	case RangeMonthly:
		y, m, _ := now.Date()
		return Range{Kind: RangeMonthly, From: time.Date(y, m, 1, 0, 0, 0, 0, loc), To: now}, nil
	case RangeCustom:
		f, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: bad from date %q", ErrInvalidRange, from)
		}
		t, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: bad to date %q", ErrInvalidRange, to)
		}
		if t.Before(f) {
			return Range{}, fmt.Errorf("%w: from is after to", ErrInvalidRange)
		}
		return Range{Kind: RangeCustom, From: f, To: endOfDay(t)}, nil
	default:
		return Range{}, fmt.Errorf("%w: unknown range %q", ErrInvalidRange, kind)
	}
}
