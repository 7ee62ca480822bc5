// Package engine implements the financial time-series analytics core: trend
// regression with standard-deviation bands, dollar-cost-average growth
// simulation, a Monte Carlo portfolio optimizer, portfolio-vs-benchmark
// comparison and a cross-asset correlation matrix. All computations are
// request-scoped and stateless; price history comes from an injected
// Provider and results are plain structured series.
package engine

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"assetanalysis/internal/series"
)

// Provider fetches the adjusted daily close history of one ticker from its
// start date through today. An empty series means the ticker has no data in
// range; that is not an error at this layer.
type Provider interface {
	History(ctx context.Context, symbol string, start time.Time) (series.Series, error)
}

// Config carries the engine tunables. Zero values are filled by Default.
type Config struct {
	// RiskFreeRate is the fixed annual rate used in Sharpe ratios.
	RiskFreeRate float64
	// Samples is the Monte Carlo population size.
	Samples int
	// Seed fixes the optimizer's weight sampling when non-zero.
	Seed int64
	// FetchConcurrency caps in-flight provider calls per request.
	FetchConcurrency int
	// FetchTimeout bounds a single ticker fetch; a ticker that exceeds it is
	// excluded from the batch rather than failing it.
	FetchTimeout time.Duration
	// BaselineTickers is the fixed set always included in the correlation
	// matrix; user extras are merged in.
	BaselineTickers []string
	// CorrelationStart is how far back the correlation matrix looks.
	CorrelationStart time.Time
	// BenchmarkTicker backs the optimizer's growth comparison view.
	BenchmarkTicker string
}

// Default returns the engine configuration used when fields are unset.
func Default() Config {
	return Config{
		RiskFreeRate:     0.0535,
		Samples:          5000,
		FetchConcurrency: 4,
		FetchTimeout:     30 * time.Second,
		BaselineTickers: []string{
			"AAPL", "AMZN", "GOOGL", "TSLA", "BTC-USD", "ETH-USD",
			"GC=F", "SI=F", "PL=F", "PA=F", "DX-Y.NYB",
			"NVDA", "MSFT", "META", "^SPX", "^NDX", "^DJI",
		},
		CorrelationStart: time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
		BenchmarkTicker:  "SPY",
	}
}

// Engine wires the provider and configuration behind the analytics
// operations. Safe for concurrent use; it holds no per-request state.
type Engine struct {
	provider Provider
	cfg      Config
	log      zerolog.Logger
}

// New builds an Engine, filling unset config fields from Default.
func New(p Provider, cfg Config, log zerolog.Logger) *Engine {
	def := Default()
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = def.RiskFreeRate
	}
	if cfg.Samples <= 0 {
		cfg.Samples = def.Samples
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = def.FetchConcurrency
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if len(cfg.BaselineTickers) == 0 {
		cfg.BaselineTickers = def.BaselineTickers
	}
	if cfg.CorrelationStart.IsZero() {
		cfg.CorrelationStart = def.CorrelationStart
	}
	if cfg.BenchmarkTicker == "" {
		cfg.BenchmarkTicker = def.BenchmarkTicker
	}
	return &Engine{
		provider: p,
		cfg:      cfg,
		log:      log.With().Str("component", "engine").Logger(),
	}
}

// fetchNormalized fetches and daily-resamples the history of each ticker.
// Fetches run concurrently, capped at FetchConcurrency, each under its own
// timeout. A ticker that errors or comes back empty is excluded and logged;
// the batch fails only when nothing survives.
func (e *Engine) fetchNormalized(ctx context.Context, tickers []string, start time.Time) (map[string]series.Daily, []string, error) {
	var (
		mu       sync.Mutex
		got      = make(map[string]series.Daily, len(tickers))
		excluded []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FetchConcurrency)
	for _, t := range tickers {
		ticker := t
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, e.cfg.FetchTimeout)
			defer cancel()
			raw, err := e.provider.History(fctx, ticker, start)
			var daily series.Daily
			if err == nil {
				daily, err = series.Normalize(raw)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.log.Warn().Str("ticker", ticker).Err(err).Msg("excluding ticker")
				excluded = append(excluded, ticker)
				return nil
			}
			got[ticker] = daily
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.Strings(excluded)
	if len(got) == 0 {
		return nil, excluded, ErrNoData
	}
	return got, excluded, nil
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// dedupeUpper uppercases, trims and deduplicates tickers, keeping first-seen
// order.
func dedupeUpper(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		u := normalizeTicker(t)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
