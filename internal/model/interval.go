package model

import (
	"fmt"
	"time"
)

// MaxPoints bounds the length of a single history series.
const MaxPoints = 10_000

// Interval is the spacing between consecutive historical points.
type Interval string

const (
	Interval15m Interval = "15m"
	Interval1d  Interval = "1d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
)

// ParseInterval validates an interval string.
func ParseInterval(s string) (Interval, error) {
	switch iv := Interval(s); iv {
	case Interval15m, Interval1d, Interval1wk, Interval1mo:
		return iv, nil
	default:
		return "", fmt.Errorf("unsupported interval %q", s)
	}
}

// OrDefault maps unknown intervals to daily.
func (iv Interval) OrDefault() Interval {
	if _, err := ParseInterval(string(iv)); err != nil {
		return Interval1d
	}
	return iv
}

// Step returns the n-th boundary after start. Monthly steps keep start's day
// of month, clamped to the last day of shorter months.
func (iv Interval) Step(start time.Time, n int) time.Time {
	switch iv.OrDefault() {
	case Interval15m:
		return start.Add(time.Duration(n) * 15 * time.Minute)
	case Interval1wk:
		return start.AddDate(0, 0, 7*n)
	case Interval1mo:
		return addMonths(start, n)
	default:
		return start.AddDate(0, 0, n)
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Count estimates how many boundaries lie from start through end without
// listing them. Daily and weekly counts ignore DST shifts.
func (iv Interval) Count(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	switch iv.OrDefault() {
	case Interval15m:
		return int(end.Sub(start)/(15*time.Minute)) + 1
	case Interval1wk:
		return int(end.Sub(start)/(7*24*time.Hour)) + 1
	case Interval1mo:
		months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
		if addMonths(start, months).After(end) {
			months--
		}
		return months + 1
	default:
		return int(end.Sub(start)/(24*time.Hour)) + 1
	}
}

// Boundaries lists every interval boundary from start through end inclusive,
// stopping after MaxPoints. start must not be after end.
func (iv Interval) Boundaries(start, end time.Time) []time.Time {
	var out []time.Time
	for n := 0; n < MaxPoints; n++ {
		t := iv.Step(start, n)
		if t.After(end) {
			break
		}
		out = append(out, t)
	}
	return out
}
