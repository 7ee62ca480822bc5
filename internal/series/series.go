// Package series holds the calendar-aligned price and return series types the
// analytics engine works on. A Series is a pair of parallel slices: strictly
// increasing UTC calendar days and their prices.
package series

import (
	"errors"
	"time"
)

// ErrEmpty is returned when a series has no usable observations left after
// filtering out missing and non-positive prices.
var ErrEmpty = errors.New("empty series")

// Series is a date-ordered price series. Dates are UTC midnights.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Daily is a Series resampled to one entry per calendar day, forward-filled,
// starting at the first usable observation.
type Daily struct {
	Series
	FirstValid time.Time
}

// Len reports the number of observations.
func (s Series) Len() int { return len(s.Dates) }

// Empty reports whether the series has no observations.
func (s Series) Empty() bool { return len(s.Dates) == 0 }

// Last returns the final value, or 0 for an empty series.
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Values[len(s.Values)-1]
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// From returns the sub-series starting at the first date on or after day.
func (d Daily) From(day time.Time) Series {
	day = Day(day)
	for i, dt := range d.Dates {
		if !dt.Before(day) {
			return Series{Dates: d.Dates[i:], Values: d.Values[i:]}
		}
	}
	return Series{}
}
