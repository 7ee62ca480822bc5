package series

import (
	"math"
	"sort"
	"time"
)

// Normalize resamples a raw, possibly sparse price series onto a daily
// calendar. Missing and non-positive prices are dropped first (the trend
// fitter takes logs, so they must never survive this step), then every
// calendar day from the first usable observation through the last is
// forward-filled from the most recent close.
func Normalize(raw Series) (Daily, error) {
	n := len(raw.Dates)
	if len(raw.Values) < n {
		n = len(raw.Values)
	}
	type obs struct {
		day   time.Time
		price float64
	}
	cleaned := make([]obs, 0, n)
	for i := 0; i < n; i++ {
		v := raw.Values[i]
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		cleaned = append(cleaned, obs{day: Day(raw.Dates[i]), price: v})
	}
	if len(cleaned) == 0 {
		return Daily{}, ErrEmpty
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].day.Before(cleaned[j].day) })

	first := cleaned[0].day
	last := cleaned[len(cleaned)-1].day
	days := int(last.Sub(first).Hours()/24) + 1

	out := Daily{
		Series: Series{
			Dates:  make([]time.Time, 0, days),
			Values: make([]float64, 0, days),
		},
		FirstValid: first,
	}
	next := 0
	lastPrice := cleaned[0].price
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		// Duplicate dates collapse to the latest observation.
		for next < len(cleaned) && !cleaned[next].day.After(d) {
			lastPrice = cleaned[next].price
			next++
		}
		out.Dates = append(out.Dates, d)
		out.Values = append(out.Values, lastPrice)
	}
	return out, nil
}

// Returns derives the day-over-day fractional change series. The first
// observation has no prior day and is dropped, so the result is one shorter
// than the input and its dates are the days each return realized on.
func Returns(d Daily) Series {
	if d.Len() < 2 {
		return Series{}
	}
	out := Series{
		Dates:  make([]time.Time, d.Len()-1),
		Values: make([]float64, d.Len()-1),
	}
	for i := 1; i < d.Len(); i++ {
		out.Dates[i-1] = d.Dates[i]
		out.Values[i-1] = (d.Values[i] - d.Values[i-1]) / d.Values[i-1]
	}
	return out
}

// AlignInner joins one series per symbol on their shared dates: only days
// present in every series survive. Column order follows symbols; symbols
// absent from the map are skipped and the kept order is returned.
func AlignInner(symbols []string, bySymbol map[string]Series) (kept []string, dates []time.Time, columns [][]float64) {
	present := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if s, ok := bySymbol[sym]; ok && !s.Empty() {
			present = append(present, sym)
		}
	}
	if len(present) == 0 {
		return nil, nil, nil
	}

	counts := make(map[time.Time]int)
	for _, sym := range present {
		for _, d := range bySymbol[sym].Dates {
			counts[d]++
		}
	}
	for d, c := range counts {
		if c == len(present) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if len(dates) == 0 {
		return present, nil, nil
	}

	columns = make([][]float64, len(present))
	for ci, sym := range present {
		s := bySymbol[sym]
		lookup := make(map[time.Time]float64, s.Len())
		for i, d := range s.Dates {
			lookup[d] = s.Values[i]
		}
		col := make([]float64, len(dates))
		for i, d := range dates {
			col[i] = lookup[d]
		}
		columns[ci] = col
	}
	return present, dates, columns
}
