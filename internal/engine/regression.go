package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"assetanalysis/internal/series"
)

// ModelKind selects the trend model fitted to log prices.
type ModelKind string

const (
	// ModelLinear fits log(price) = a*day + b.
	ModelLinear ModelKind = "linear"
	// ModelLogarithmic fits log(price) = a*log(day) + b with a floor at the
	// first observed price.
	ModelLogarithmic ModelKind = "logarithmic"
)

const (
	// minFitPoints is the hard precondition for fitting at all.
	minFitPoints = 5
	// lowConfidencePoints marks fits too short to trust.
	lowConfidencePoints = 10

	linearProjectionYears = 4
	logProjectionYears    = 3
)

// trendFit is an immutable fitted trend model in log-price space. Day indices
// start at 1 on the first observed date.
type trendFit struct {
	kind     ModelKind
	a, b     float64
	floorLog float64
}

// logValue evaluates the central model at a day index, in log-price space.
// The logarithmic model is floored at the first observed price so small day
// values cannot predict below it.
func (f trendFit) logValue(day float64) float64 {
	switch f.kind {
	case ModelLogarithmic:
		v := f.a*math.Log(math.Max(day, 1)) + f.b
		if v < f.floorLog {
			v = f.floorLog
		}
		return v
	default:
		return f.a*day + f.b
	}
}

// fitTrend fits the requested model by least squares on log prices. xs are
// day indices, ys are log prices.
func fitTrend(kind ModelKind, xs, ys []float64, firstPrice float64) trendFit {
	if kind == ModelLogarithmic {
		fit := trendFit{kind: kind, floorLog: math.Log(firstPrice)}
		// Seed from the closed-form regression on log(day), then refine
		// against the floored model.
		lnx := make([]float64, len(xs))
		for i, x := range xs {
			lnx[i] = math.Log(math.Max(x, 1))
		}
		b0, a0 := stat.LinearRegression(lnx, ys, nil, false)
		sse := func(p []float64) float64 {
			cand := trendFit{kind: kind, a: p[0], b: p[1], floorLog: fit.floorLog}
			s := 0.0
			for i, x := range xs {
				r := ys[i] - cand.logValue(x)
				s += r * r
			}
			return s
		}
		problem := optimize.Problem{Func: sse}
		fit.a, fit.b = a0, b0
		if res, err := optimize.Minimize(problem, []float64{a0, b0}, nil, &optimize.NelderMead{}); err == nil && len(res.X) == 2 {
			if sse(res.X) <= sse([]float64{a0, b0}) {
				fit.a, fit.b = res.X[0], res.X[1]
			}
		}
		return fit
	}
	b, a := stat.LinearRegression(xs, ys, nil, false)
	return trendFit{kind: ModelLinear, a: a, b: b, floorLog: math.Inf(-1)}
}

// Regression fits a trend to the ticker's log price history and projects the
// central line and ±1/2/3σ bands forward: four years of daily dates for the
// linear model, three for the logarithmic one.
func (e *Engine) Regression(ctx context.Context, ticker string, start time.Time, model ModelKind) (*RegressionResult, error) {
	switch model {
	case ModelLinear, ModelLogarithmic:
	case "":
		model = ModelLinear
	default:
		return nil, fmt.Errorf("unknown model %q", model)
	}
	ticker = normalizeTicker(ticker)

	fctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()
	raw, err := e.provider.History(fctx, ticker, start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	daily, err := series.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}
	n := daily.Len()
	if n < minFitPoints {
		return nil, fmt.Errorf("%s: %d points: %w", ticker, n, ErrInsufficientHistory)
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = float64(i + 1) // day index starts at 1
		ys[i] = math.Log(daily.Values[i])
	}
	fit := fitTrend(model, xs, ys, daily.Values[0])

	residuals := make([]float64, n)
	for i := range xs {
		residuals[i] = ys[i] - fit.logValue(xs[i])
	}
	sigma := stat.StdDev(residuals, nil)

	years := linearProjectionYears
	if model == ModelLogarithmic {
		years = logProjectionYears
	}
	projDays := years * 365
	extDates := make([]time.Time, 0, n+projDays)
	extDates = append(extDates, daily.Dates...)
	last := daily.Dates[n-1]
	for i := 1; i <= projDays; i++ {
		extDates = append(extDates, last.AddDate(0, 0, i))
	}

	central := make([]float64, len(extDates))
	bandVals := make(map[float64][]float64, 6) // key: signed multiple
	for _, k := range []float64{1, -1, 2, -2, 3, -3} {
		bandVals[k] = make([]float64, len(extDates))
	}
	for i := range extDates {
		day := float64(i + 1)
		m := fit.logValue(day)
		central[i] = math.Exp(m)
		for k, vals := range bandVals {
			vals[i] = math.Exp(m + k*sigma)
		}
	}

	fitName := "Linear Fit"
	modelTitle := "Linear Regression"
	if model == ModelLogarithmic {
		fitName = "Logarithmic Fit"
		modelTitle = "Logarithmic Regression"
	}
	band := func(k float64, name string) Trace {
		return Trace{Name: name, Dates: extDates, Values: bandVals[k]}
	}
	res := &RegressionResult{
		Ticker:   ticker,
		Title:    fmt.Sprintf("%s Stock Price with %s and Standard Deviation Bounds", ticker, modelTitle),
		LogScale: true,
		ActualPrices: Trace{
			Name:   "Actual Prices",
			Dates:  daily.Dates,
			Values: daily.Values,
		},
		Fit: Trace{Name: fitName, Dates: extDates, Values: central},
		Bands: []Trace{
			band(1, "1 SD Upper Bound"), band(-1, "1 SD Lower Bound"),
			band(2, "2 SD Upper Bound"), band(-2, "2 SD Lower Bound"),
			band(3, "3 SD Upper Bound"), band(-3, "3 SD Lower Bound"),
		},
		Model:           string(model),
		ResidualStd:     sigma,
		FirstDay:        daily.FirstValid,
		HighUncertainty: n < lowConfidencePoints,
	}
	e.log.Info().
		Str("ticker", ticker).
		Str("model", string(model)).
		Int("points", n).
		Float64("residual_std", sigma).
		Msg("fitted trend model")
	return res, nil
}
