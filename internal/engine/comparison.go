package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"assetanalysis/internal/series"
)

// allocationTolerance absorbs float noise when validating percent sums.
const allocationTolerance = 1e-9

// Compare replays a user-allocated portfolio against a benchmark ticker,
// both as cumulative growth of $10,000 over their shared return history.
// Allocations are percentages and must sum to 100; that is validated before
// any data is fetched.
func (e *Engine) Compare(ctx context.Context, tickers []string, allocations []float64, benchmark string, start time.Time) (*ComparisonResult, error) {
	tickers = dedupeUpper(tickers)
	benchmark = normalizeTicker(benchmark)
	if len(tickers) == 0 || benchmark == "" {
		return nil, fmt.Errorf("tickers and benchmark are required: %w", ErrNoData)
	}
	if len(allocations) != len(tickers) {
		return nil, fmt.Errorf("got %d allocations for %d tickers", len(allocations), len(tickers))
	}
	sum := 0.0
	for _, a := range allocations {
		sum += a
	}
	if math.Abs(sum-100) > allocationTolerance {
		return nil, &AllocationError{Sum: sum}
	}
	weights := make([]float64, len(allocations))
	for i, a := range allocations {
		weights[i] = a / 100
	}

	all := append(append([]string{}, tickers...), benchmark)
	histories, _, err := e.fetchNormalized(ctx, all, start)
	if err != nil {
		return nil, err
	}
	returns := make(map[string]series.Series, len(histories))
	for sym, d := range histories {
		r := series.Returns(d)
		if !r.Empty() {
			returns[sym] = r
		}
	}
	// The comparison needs every constituent plus the benchmark; a missing
	// leg invalidates the requested portfolio rather than downgrading.
	for _, sym := range all {
		if _, ok := returns[sym]; !ok {
			return nil, fmt.Errorf("%s: %w", sym, ErrNoData)
		}
	}
	kept, dates, cols := series.AlignInner(all, returns)
	if len(dates) == 0 {
		return nil, fmt.Errorf("no overlapping return history: %w", ErrNoData)
	}
	colOf := make(map[string]int, len(kept))
	for i, sym := range kept {
		colOf[sym] = i
	}

	portVals := make([]float64, len(dates))
	benchVals := make([]float64, len(dates))
	portCum := float64(initialGrowthValue)
	benchCum := float64(initialGrowthValue)
	benchCol := cols[colOf[benchmark]]
	for row := range dates {
		r := 0.0
		for i, sym := range tickers {
			r += cols[colOf[sym]][row] * weights[i]
		}
		portCum *= 1 + r
		benchCum *= 1 + benchCol[row]
		portVals[row] = portCum
		benchVals[row] = benchCum
	}

	e.log.Info().
		Strs("tickers", tickers).
		Str("benchmark", benchmark).
		Int("observations", len(dates)).
		Msg("compared portfolio against benchmark")
	return &ComparisonResult{
		Title:     fmt.Sprintf("Portfolio Comparison: Portfolio vs. %s", benchmark),
		LogScale:  true,
		Portfolio: Trace{Name: "Portfolio", Dates: dates, Values: portVals},
		Benchmark: Trace{Name: benchmark, Dates: dates, Values: benchVals},
	}, nil
}
