package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"assetanalysis/internal/series"
)

func TestCompareValidatesAllocationsBeforeFetching(t *testing.T) {
	p := &stubProvider{histories: map[string]series.Series{}}
	e := newTestEngine(p, Config{})

	_, err := e.Compare(context.Background(), []string{"A", "B"}, []float64{60, 30}, "SPY", day(2020, 1, 1))
	var allocErr *AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("err = %v, want AllocationError", err)
	}
	if allocErr.Sum != 90 {
		t.Errorf("Sum = %v, want 90", allocErr.Sum)
	}
	if p.callCount() != 0 {
		t.Errorf("provider was called %d times before validation", p.callCount())
	}
}

func TestCompareRejectsLengthMismatch(t *testing.T) {
	e := newTestEngine(&stubProvider{}, Config{})
	if _, err := e.Compare(context.Background(), []string{"A", "B"}, []float64{100}, "SPY", day(2020, 1, 1)); err == nil {
		t.Fatal("mismatched allocations should fail")
	}
}

func TestCompareSingleTickerTracksItself(t *testing.T) {
	// One ticker at 100% against itself as benchmark: both curves replay the
	// same compounded returns from $10,000.
	prices := dailySeries(day(2020, 1, 1), 3, func(i int) float64 {
		return 100 * math.Pow(1.1, float64(i))
	})
	p := &stubProvider{histories: map[string]series.Series{"A": prices, "SPY": prices}}
	e := newTestEngine(p, Config{})

	res, err := e.Compare(context.Background(), []string{"A"}, []float64{100}, "SPY", day(2020, 1, 1))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	want := []float64{11000, 12100}
	if len(res.Portfolio.Values) != len(want) {
		t.Fatalf("portfolio length = %d, want %d (first day has no return)", len(res.Portfolio.Values), len(want))
	}
	for i, w := range want {
		if math.Abs(res.Portfolio.Values[i]-w) > 1e-6 {
			t.Errorf("portfolio[%d] = %v, want %v", i, res.Portfolio.Values[i], w)
		}
		if math.Abs(res.Benchmark.Values[i]-w) > 1e-6 {
			t.Errorf("benchmark[%d] = %v, want %v", i, res.Benchmark.Values[i], w)
		}
	}
	if res.Title != "Portfolio Comparison: Portfolio vs. SPY" {
		t.Errorf("Title = %q", res.Title)
	}
}

func TestCompareMissingLegFails(t *testing.T) {
	p := &stubProvider{histories: map[string]series.Series{
		"A": dailySeries(day(2020, 1, 1), 30, func(i int) float64 { return 100 + float64(i) }),
	}}
	e := newTestEngine(p, Config{})

	_, err := e.Compare(context.Background(), []string{"A"}, []float64{100}, "SPY", day(2020, 1, 1))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData for the missing benchmark", err)
	}
}
