package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"assetanalysis/internal/series"
)

// annualizationDays scales daily means and covariances to annual figures.
// The observed model uses calendar days, not the 252 trading-day convention.
const annualizationDays = 365

// initialGrowthValue is the starting notional of the growth comparison view.
const initialGrowthValue = 10000

// Optimize estimates a return/risk frontier for the tickers by sampling
// randomly weighted allocations over their joint daily return history.
// Tickers without history are excluded; the request fails only when no
// usable return table remains. The result carries the minimum-risk,
// maximum-return and maximum-Sharpe samples, an averaged blend of the first
// two, the raw sample scatter, and $10,000 growth curves of the four named
// portfolios against the configured benchmark.
func (e *Engine) Optimize(ctx context.Context, tickers []string, start time.Time) (*OptimizerResult, error) {
	tickers = dedupeUpper(tickers)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers: %w", ErrNoData)
	}

	histories, excluded, err := e.fetchNormalized(ctx, tickers, start)
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
	kept, dates, cols := series.AlignInner(tickers, returns)
	if len(dates) == 0 {
		return nil, fmt.Errorf("no overlapping return history: %w", ErrNoData)
	}
	n := len(kept)

	// Annualized moments of the joint daily return table.
	means := make([]float64, n)
	for i, col := range cols {
		means[i] = stat.Mean(col, nil) * annualizationDays
	}
	covData := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := stat.Covariance(cols[i], cols[j], nil) * annualizationDays
			covData[i*n+j] = c
			covData[j*n+i] = c
		}
	}
	cov := mat.NewSymDense(n, covData)

	evaluate := func(w []float64) (ret, risk, sharpe float64) {
		for i, wi := range w {
			ret += means[i] * wi
		}
		v := mat.NewVecDense(n, w)
		variance := mat.Inner(v, cov, v)
		if variance > 0 {
			risk = math.Sqrt(variance)
		}
		if risk > 0 {
			sharpe = (ret - e.cfg.RiskFreeRate) / risk
		}
		return ret, risk, sharpe
	}

	seed := e.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	samples := e.cfg.Samples
	res := &OptimizerResult{
		Tickers:         kept,
		ScatterRisk:     make([]float64, samples),
		ScatterReturn:   make([]float64, samples),
		ScatterSharpe:   make([]float64, samples),
		ExcludedTickers: excluded,
	}
	var wMinRisk, wMaxReturn, wMaxSharpe []float64
	var bestRisk, bestReturn, bestSharpe float64
	w := make([]float64, n)
	for s := 0; s < samples; s++ {
		sum := 0.0
		for i := range w {
			w[i] = rng.Float64()
			sum += w[i]
		}
		if sum == 0 {
			sum = 1
		}
		// Rounded to 3 decimals after normalizing; the components may then
		// sum slightly off 1 and are deliberately not renormalized.
		for i := range w {
			w[i] = math.Round(w[i]/sum*1000) / 1000
		}
		ret, risk, sharpe := evaluate(w)
		res.ScatterRisk[s] = risk
		res.ScatterReturn[s] = ret
		res.ScatterSharpe[s] = sharpe
		if s == 0 || risk < bestRisk {
			bestRisk = risk
			wMinRisk = append(wMinRisk[:0], w...)
		}
		if s == 0 || ret > bestReturn {
			bestReturn = ret
			wMaxReturn = append(wMaxReturn[:0], w...)
		}
		if s == 0 || sharpe > bestSharpe {
			bestSharpe = sharpe
			wMaxSharpe = append(wMaxSharpe[:0], w...)
		}
	}

	// The averaged blend keeps the raw elementwise mean of the min-risk and
	// max-return weights; its components are not renormalized to sum to 1.
	wAvg := make([]float64, n)
	for i := range wAvg {
		wAvg[i] = (wMinRisk[i] + wMaxReturn[i]) / 2
	}

	mk := func(name string, w []float64) Portfolio {
		ret, risk, sharpe := evaluate(w)
		weights := make(map[string]float64, n)
		for i, sym := range kept {
			weights[sym] = w[i]
		}
		return Portfolio{Name: name, Weights: weights, Return: ret, Risk: risk, Sharpe: sharpe}
	}
	res.MinRisk = mk("Minimum Risk", wMinRisk)
	res.MaxReturn = mk("Maximum Return", wMaxReturn)
	res.MaxSharpe = mk("Maximum Sharpe", wMaxSharpe)
	res.Average = mk("Average", wAvg)
	res.Summary = summarizePortfolios(kept, res.MinRisk, res.MaxReturn, res.MaxSharpe, res.Average)
	res.Growth = e.growthComparison(ctx, kept, dates, cols, start,
		res.MinRisk, res.MaxReturn, res.MaxSharpe, res.Average)

	e.log.Info().
		Strs("tickers", kept).
		Int("samples", samples).
		Int("observations", len(dates)).
		Int64("seed", seed).
		Msg("sampled portfolio frontier")
	return res, nil
}

// summarizePortfolios renders the four named portfolios as readable text.
func summarizePortfolios(tickers []string, ports ...Portfolio) string {
	var b strings.Builder
	for i, p := range ports {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s Portfolio:\n", p.Name)
		fmt.Fprintf(&b, "  Return: %.2f%%  Risk: %.2f%%  Sharpe: %.2f\n",
			p.Return*100, p.Risk*100, p.Sharpe)
		parts := make([]string, 0, len(tickers))
		for _, sym := range tickers {
			parts = append(parts, fmt.Sprintf("%s %.1f%%", sym, p.Weights[sym]*100))
		}
		fmt.Fprintf(&b, "  Weights: %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}

// growthComparison builds cumulative $10,000 growth curves of the named
// portfolios over the joint return table, plus the benchmark when its
// history is available. A benchmark failure downgrades to portfolio-only
// curves.
func (e *Engine) growthComparison(ctx context.Context, kept []string, dates []time.Time, cols [][]float64, start time.Time, ports ...Portfolio) []Trace {
	benchDates := dates
	benchReturns := map[time.Time]float64{}
	haveBench := false

	fctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()
	raw, err := e.provider.History(fctx, e.cfg.BenchmarkTicker, start)
	if err == nil {
		if daily, nerr := series.Normalize(raw); nerr == nil {
			r := series.Returns(daily)
			for i, d := range r.Dates {
				benchReturns[d] = r.Values[i]
			}
			joint := dates[:0:0]
			for _, d := range dates {
				if _, ok := benchReturns[d]; ok {
					joint = append(joint, d)
				}
			}
			if len(joint) > 0 {
				benchDates = joint
				haveBench = true
			}
		}
	}
	if !haveBench {
		e.log.Warn().Str("benchmark", e.cfg.BenchmarkTicker).Err(err).Msg("benchmark unavailable, comparing portfolios only")
	}

	// Index of each surviving date back into the return table.
	rowOf := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		rowOf[d] = i
	}

	traces := make([]Trace, 0, len(ports)+1)
	for _, p := range ports {
		w := make([]float64, len(kept))
		for i, sym := range kept {
			w[i] = p.Weights[sym]
		}
		vals := make([]float64, len(benchDates))
		cum := float64(initialGrowthValue)
		for i, d := range benchDates {
			row := rowOf[d]
			r := 0.0
			for ci, wi := range w {
				r += cols[ci][row] * wi
			}
			cum *= 1 + r
			vals[i] = cum
		}
		traces = append(traces, Trace{Name: p.Name, Dates: benchDates, Values: vals})
	}
	if haveBench {
		vals := make([]float64, len(benchDates))
		cum := float64(initialGrowthValue)
		for i, d := range benchDates {
			cum *= 1 + benchReturns[d]
			vals[i] = cum
		}
		traces = append(traces, Trace{Name: e.cfg.BenchmarkTicker, Dates: benchDates, Values: vals})
	}
	return traces
}
