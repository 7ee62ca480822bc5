package engine

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"assetanalysis/internal/series"
)

// displayLabels maps well-known symbols to friendlier axis labels. Unmapped
// tickers display as themselves.
var displayLabels = map[string]string{
	"AAPL":     "Apple",
	"TSLA":     "Tesla",
	"MSFT":     "Microsoft",
	"GOOGL":    "Alphabet",
	"AMZN":     "Amazon",
	"META":     "Meta",
	"NVDA":     "Nvidia",
	"DX-Y.NYB": "DXY",
	"^SPX":     "S&P500",
	"^NDX":     "Nasdaq 100",
	"^DJI":     "Dow Jones",
	"GC=F":     "Gold",
	"SI=F":     "Silver",
	"PL=F":     "Platinum",
	"PA=F":     "Palladium",
	"ETH-USD":  "Ethereum",
	"BTC-USD":  "Bitcoin",
}

// Correlation computes the pairwise Pearson coefficient matrix of daily
// prices across the configured baseline tickers plus any extras, dedup'd.
// Tickers that fail to fetch are dropped. The matrix is computed over the
// dates where every surviving series has data (rows with any missing value
// are excluded by the inner join) and each coefficient is rounded to two
// decimals. DisplayRows lists the tickers in reverse for the conventional
// heat-map diagonal; Matrix itself stays in natural order.
func (e *Engine) Correlation(ctx context.Context, extras []string) (*CorrelationResult, error) {
	tickers := dedupeUpper(append(append([]string{}, e.cfg.BaselineTickers...), extras...))

	histories, excluded, err := e.fetchNormalized(ctx, tickers, e.cfg.CorrelationStart)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]series.Series, len(histories))
	for sym, d := range histories {
		prices[sym] = d.Series
	}
	kept, dates, cols := series.AlignInner(tickers, prices)
	if len(kept) < 2 || len(dates) < 2 {
		return nil, ErrNoData
	}

	n := len(kept)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := stat.Correlation(cols[i], cols[j], nil)
			c = math.Round(c*100) / 100
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}

	labels := make([]string, n)
	rows := make([]string, n)
	for i, sym := range kept {
		if l, ok := displayLabels[sym]; ok {
			labels[i] = l
		} else {
			labels[i] = sym
		}
		rows[n-1-i] = sym
	}

	e.log.Info().
		Int("tickers", n).
		Int("excluded", len(excluded)).
		Int("shared_days", len(dates)).
		Msg("computed correlation matrix")
	return &CorrelationResult{
		Tickers:     kept,
		Labels:      labels,
		Matrix:      matrix,
		DisplayRows: rows,
	}, nil
}
