package engine

import (
	"context"
	"fmt"
	"time"

	"assetanalysis/internal/series"
)

// dcaSim is one ticker's simulated contribution schedule, starting at the
// ticker's effective start date (the later of the requested start and its
// first valid trading date).
type dcaSim struct {
	ticker      string
	values      series.Series
	contributed float64
	final       float64
	percent     float64
}

// simulateDCA replays a fixed monthly contribution against a normalized
// daily series. Contribution events are the first day of each calendar month
// in the series (plus the series' own first day), restricted to the
// effective start. Each event buys amount/price shares; the value series is
// the running position marked at each day's price. The first event's value
// on its own date is forced to the contribution amount exactly.
func simulateDCA(d series.Daily, start time.Time, monthly float64) (dcaSim, bool) {
	effStart := series.Day(start)
	if effStart.Before(d.FirstValid) {
		effStart = d.FirstValid
	}

	n := d.Len()
	var events []int
	for i := 0; i < n; i++ {
		monthStart := i == 0 || d.Dates[i].Month() != d.Dates[i-1].Month()
		if monthStart && !d.Dates[i].Before(effStart) {
			events = append(events, i)
		}
	}
	if len(events) == 0 {
		return dcaSim{}, false
	}

	values := make([]float64, n)
	for _, ev := range events {
		shares := monthly / d.Values[ev]
		for j := ev; j < n; j++ {
			values[j] += shares * d.Values[j]
		}
	}
	values[events[0]] = monthly

	contributed := float64(len(events)) * monthly
	final := values[n-1]

	// Trim to the effective start for charting.
	from := 0
	for from < n && d.Dates[from].Before(effStart) {
		from++
	}
	return dcaSim{
		values:      series.Series{Dates: d.Dates[from:], Values: values[from:]},
		contributed: contributed,
		final:       final,
		percent:     (final - contributed) / contributed * 100,
	}, true
}

// DCA simulates investing a fixed monthly amount into each ticker and aligns
// the resulting growth curves onto a shared axis. Tickers without data are
// excluded, not fatal; the request fails only when nothing is usable.
func (e *Engine) DCA(ctx context.Context, tickers []string, start time.Time, monthly float64) (*DCAResult, error) {
	tickers = dedupeUpper(tickers)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers: %w", ErrNoData)
	}
	if monthly <= 0 {
		return nil, fmt.Errorf("invalid monthly investment amount %v", monthly)
	}

	histories, excluded, err := e.fetchNormalized(ctx, tickers, start)
	if err != nil {
		return nil, err
	}

	sims := make([]dcaSim, 0, len(histories))
	for _, t := range tickers {
		d, ok := histories[t]
		if !ok {
			continue
		}
		sim, ok := simulateDCA(d, start, monthly)
		if !ok {
			e.log.Warn().Str("ticker", t).Msg("no contribution events in range, excluding")
			excluded = append(excluded, t)
			continue
		}
		sim.ticker = t
		sims = append(sims, sim)
	}
	if len(sims) == 0 {
		return nil, ErrNoData
	}

	// Shared chart axis: every curve starts at the latest of the per-ticker
	// start dates, so each series has data across the whole span.
	alignStart := sims[0].values.Dates[0]
	for _, s := range sims[1:] {
		if s.values.Dates[0].After(alignStart) {
			alignStart = s.values.Dates[0]
		}
	}

	res := &DCAResult{
		Title:           fmt.Sprintf("Growth of $%.2f Invested Monthly Since %s", monthly, alignStart.Format("2006-01-02")),
		LogScale:        true,
		AlignedStart:    alignStart,
		MonthlyAmount:   monthly,
		ExcludedTickers: excluded,
	}
	for _, s := range sims {
		aligned := trimFrom(s.values, alignStart)
		if aligned.Empty() {
			continue
		}
		vals := make([]float64, len(aligned.Values))
		copy(vals, aligned.Values)
		vals[0] = monthly
		res.Traces = append(res.Traces, Trace{Name: s.ticker, Dates: aligned.Dates, Values: vals})
		res.Summaries = append(res.Summaries, DCASummary{
			Ticker:           s.ticker,
			TotalContributed: s.contributed,
			FinalValue:       s.final,
			PercentChange:    s.percent,
		})
		res.CumulativeInput += s.contributed
		res.CumulativeValue += s.final
	}
	e.log.Info().
		Int("tickers", len(res.Summaries)).
		Int("excluded", len(excluded)).
		Time("aligned_start", alignStart).
		Msg("simulated investment growth")
	return res, nil
}

// trimFrom returns the sub-series on or after day.
func trimFrom(s series.Series, day time.Time) series.Series {
	for i, d := range s.Dates {
		if !d.Before(day) {
			return series.Series{Dates: s.Dates[i:], Values: s.Values[i:]}
		}
	}
	return series.Series{}
}
