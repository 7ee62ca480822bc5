package engine

import (
	"context"
	"math"
	"testing"

	"assetanalysis/internal/series"
)

func mustNormalize(t *testing.T, s series.Series) series.Daily {
	t.Helper()
	d, err := series.Normalize(s)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return d
}

func TestSimulateDCAConstantPrice(t *testing.T) {
	// Flat prices: every contribution holds its value exactly.
	d := mustNormalize(t, dailySeries(day(2020, 1, 1), 91, func(i int) float64 { return 100 }))
	sim, ok := simulateDCA(d, day(2020, 1, 1), 100)
	if !ok {
		t.Fatal("simulateDCA returned no events")
	}
	// Contribution events: Jan 1, Feb 1, Mar 1.
	if sim.contributed != 300 {
		t.Errorf("contributed = %v, want 300", sim.contributed)
	}
	if math.Abs(sim.final-300) > 1e-9 {
		t.Errorf("final = %v, want 300", sim.final)
	}
	if math.Abs(sim.percent) > 1e-9 {
		t.Errorf("percent = %v, want 0", sim.percent)
	}
	if !sim.values.Dates[0].Equal(day(2020, 1, 1)) {
		t.Errorf("trace starts %v, want 2020-01-01", sim.values.Dates[0])
	}
}

func TestSimulateDCAFirstEventForcedToContribution(t *testing.T) {
	// The price doubles on day two; the first event's own value still reads
	// the contribution amount exactly.
	d := mustNormalize(t, dailySeries(day(2020, 1, 1), 40, func(i int) float64 {
		if i == 0 {
			return 50
		}
		return 100
	}))
	sim, ok := simulateDCA(d, day(2020, 1, 1), 100)
	if !ok {
		t.Fatal("simulateDCA returned no events")
	}
	if sim.values.Values[0] != 100 {
		t.Errorf("first event value = %v, want the contribution amount", sim.values.Values[0])
	}
	// Two shares bought on day one are worth 200 from day two on.
	if math.Abs(sim.values.Values[1]-200) > 1e-9 {
		t.Errorf("day-two value = %v, want 200", sim.values.Values[1])
	}
}

func TestSimulateDCAStartAfterHistory(t *testing.T) {
	d := mustNormalize(t, dailySeries(day(2020, 1, 1), 10, func(i int) float64 { return 100 }))
	if _, ok := simulateDCA(d, day(2021, 1, 1), 100); ok {
		t.Fatal("start past the series should yield no events")
	}
}

func TestSimulateDCAEffectiveStart(t *testing.T) {
	// Requested start predates the data; the simulation clamps to the first
	// valid date and contributes there.
	d := mustNormalize(t, dailySeries(day(2020, 6, 15), 60, func(i int) float64 { return 100 }))
	sim, ok := simulateDCA(d, day(2020, 1, 1), 100)
	if !ok {
		t.Fatal("simulateDCA returned no events")
	}
	if !sim.values.Dates[0].Equal(day(2020, 6, 15)) {
		t.Errorf("trace starts %v, want the first valid date", sim.values.Dates[0])
	}
	// Events: Jun 15 (series start), Jul 1, Aug 1.
	if sim.contributed != 300 {
		t.Errorf("contributed = %v, want 300", sim.contributed)
	}
}

func TestDCAAlignsAtLatestStart(t *testing.T) {
	p := &stubProvider{histories: map[string]series.Series{
		"A": dailySeries(day(2020, 1, 1), 91, func(i int) float64 { return 100 }),
		"B": dailySeries(day(2020, 2, 15), 46, func(i int) float64 { return 50 }),
	}}
	e := newTestEngine(p, Config{})

	res, err := e.DCA(context.Background(), []string{"A", "B", "BAD"}, day(2020, 1, 1), 100)
	if err != nil {
		t.Fatalf("DCA: %v", err)
	}
	if !res.AlignedStart.Equal(day(2020, 2, 15)) {
		t.Errorf("AlignedStart = %v, want 2020-02-15 (latest per-ticker start)", res.AlignedStart)
	}
	if len(res.Traces) != 2 {
		t.Fatalf("traces = %d, want 2", len(res.Traces))
	}
	for _, tr := range res.Traces {
		if !tr.Dates[0].Equal(res.AlignedStart) {
			t.Errorf("%s starts %v, want the aligned start", tr.Name, tr.Dates[0])
		}
		if tr.Values[0] != 100 {
			t.Errorf("%s first aligned value = %v, want the contribution amount", tr.Name, tr.Values[0])
		}
	}
	// A: Jan, Feb, Mar events; B: Feb 15 and Mar 1. Prices are flat so value
	// equals contribution throughout.
	if res.CumulativeInput != 500 {
		t.Errorf("CumulativeInput = %v, want 500", res.CumulativeInput)
	}
	if math.Abs(res.CumulativeValue-500) > 1e-9 {
		t.Errorf("CumulativeValue = %v, want 500", res.CumulativeValue)
	}
	if len(res.ExcludedTickers) != 1 || res.ExcludedTickers[0] != "BAD" {
		t.Errorf("ExcludedTickers = %v, want [BAD]", res.ExcludedTickers)
	}
}

func TestDCARejectsBadInput(t *testing.T) {
	e := newTestEngine(&stubProvider{}, Config{})
	if _, err := e.DCA(context.Background(), nil, day(2020, 1, 1), 100); err == nil {
		t.Error("no tickers should fail")
	}
	if _, err := e.DCA(context.Background(), []string{"A"}, day(2020, 1, 1), 0); err == nil {
		t.Error("non-positive monthly amount should fail")
	}
}
