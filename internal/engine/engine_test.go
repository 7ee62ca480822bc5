package engine

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"assetanalysis/internal/series"
)

// stubProvider serves canned histories keyed by symbol and counts calls.
type stubProvider struct {
	mu        sync.Mutex
	histories map[string]series.Series
	calls     int
}

func (p *stubProvider) History(_ context.Context, symbol string, _ time.Time) (series.Series, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	s, ok := p.histories[symbol]
	if !ok {
		return series.Series{}, errors.New("unknown symbol")
	}
	return s, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailySeries builds a daily price series of n days starting at start, with
// price(i) computed per day index i (0-based).
func dailySeries(start time.Time, n int, price func(i int) float64) series.Series {
	s := series.Series{
		Dates:  make([]time.Time, n),
		Values: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.Dates[i] = start.AddDate(0, 0, i)
		s.Values[i] = price(i)
	}
	return s
}

func newTestEngine(p Provider, cfg Config) *Engine {
	return New(p, cfg, zerolog.Nop())
}

func TestDedupeUpper(t *testing.T) {
	got := dedupeUpper([]string{" aapl ", "AAPL", "", "msft", "Msft", "spy"})
	want := []string{"AAPL", "MSFT", "SPY"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dedupeUpper = %v, want %v", got, want)
	}
}

func TestFetchNormalizedExcludesFailures(t *testing.T) {
	p := &stubProvider{histories: map[string]series.Series{
		"GOOD": dailySeries(day(2024, 1, 1), 10, func(i int) float64 { return 100 + float64(i) }),
	}}
	e := newTestEngine(p, Config{})

	got, excluded, err := e.fetchNormalized(context.Background(), []string{"GOOD", "BAD"}, day(2024, 1, 1))
	if err != nil {
		t.Fatalf("fetchNormalized: %v", err)
	}
	if _, ok := got["GOOD"]; !ok {
		t.Error("GOOD should survive")
	}
	if !reflect.DeepEqual(excluded, []string{"BAD"}) {
		t.Errorf("excluded = %v, want [BAD]", excluded)
	}
}

func TestFetchNormalizedAllFail(t *testing.T) {
	p := &stubProvider{histories: map[string]series.Series{}}
	e := newTestEngine(p, Config{})

	_, _, err := e.fetchNormalized(context.Background(), []string{"A", "B"}, day(2024, 1, 1))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestNewFillsDefaults(t *testing.T) {
	e := newTestEngine(&stubProvider{}, Config{})
	if e.cfg.RiskFreeRate != 0.0535 {
		t.Errorf("RiskFreeRate = %v, want 0.0535", e.cfg.RiskFreeRate)
	}
	if e.cfg.Samples != 5000 {
		t.Errorf("Samples = %v, want 5000", e.cfg.Samples)
	}
	if e.cfg.BenchmarkTicker != "SPY" {
		t.Errorf("BenchmarkTicker = %q, want SPY", e.cfg.BenchmarkTicker)
	}
	if len(e.cfg.BaselineTickers) != 17 {
		t.Errorf("BaselineTickers = %d entries, want 17", len(e.cfg.BaselineTickers))
	}
}
