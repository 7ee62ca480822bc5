package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Performance is the no-contribution tracker view: each ticker's adjusted
// price plotted from its own effective start, with start/end prices and the
// percent change over the window. Failed tickers are excluded per ticker.
func (e *Engine) Performance(ctx context.Context, tickers []string, start time.Time) (*PerformanceResult, error) {
	tickers = dedupeUpper(tickers)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers: %w", ErrNoData)
	}

	histories, excluded, err := e.fetchNormalized(ctx, tickers, start)
	if err != nil {
		return nil, err
	}

	res := &PerformanceResult{
		LogScale:        true,
		ExcludedTickers: excluded,
	}
	for _, t := range tickers {
		d, ok := histories[t]
		if !ok {
			continue
		}
		s := d.From(start)
		if s.Empty() {
			s = d.Series
		}
		startPrice := s.Values[0]
		endPrice := s.Values[len(s.Values)-1]
		res.Traces = append(res.Traces, Trace{Name: t, Dates: s.Dates, Values: s.Values})
		res.Summaries = append(res.Summaries, PerformanceSummary{
			Ticker:        t,
			StartPrice:    startPrice,
			EndPrice:      endPrice,
			PercentChange: (endPrice - startPrice) / startPrice * 100,
		})
	}
	if len(res.Traces) == 0 {
		return nil, ErrNoData
	}
	names := make([]string, len(res.Summaries))
	for i, s := range res.Summaries {
		names[i] = s.Ticker
	}
	res.Title = fmt.Sprintf("Stock Price Performance for %s", strings.Join(names, ", "))
	e.log.Info().
		Int("tickers", len(res.Summaries)).
		Int("excluded", len(excluded)).
		Msg("built price performance view")
	return res, nil
}
