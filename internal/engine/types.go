package engine

import "time"

// Trace is one named line of a chart-able result: parallel dates and values.
// Results are plain series so any plotting collaborator can consume them.
type Trace struct {
	Name   string      `json:"name"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// RegressionResult carries the observed prices, the central fit and the six
// standard-deviation band lines. The fit and band traces span history plus
// the forward projection; ActualPrices covers the historical span only.
type RegressionResult struct {
	Ticker       string  `json:"ticker"`
	Title        string  `json:"title"`
	LogScale     bool    `json:"log_scale"`
	ActualPrices Trace   `json:"actual_prices"`
	Fit          Trace   `json:"fit"`
	Bands        []Trace `json:"bands"`

	Model           string    `json:"model"`
	ResidualStd     float64   `json:"residual_std"`
	FirstDay        time.Time `json:"first_day"`
	HighUncertainty bool      `json:"high_uncertainty,omitempty"`
}

// DCASummary is the per-ticker outcome of a monthly contribution schedule.
type DCASummary struct {
	Ticker           string  `json:"ticker"`
	TotalContributed float64 `json:"total_contributed"`
	FinalValue       float64 `json:"final_value"`
	PercentChange    float64 `json:"percent_change"`
}

// DCAResult is the multi-ticker simulation output: one aligned value trace
// per surviving ticker, per-ticker summaries, cumulative totals, and the
// tickers that were excluded for lack of data.
type DCAResult struct {
	Title           string       `json:"title"`
	LogScale        bool         `json:"log_scale"`
	Traces          []Trace      `json:"traces"`
	Summaries       []DCASummary `json:"summaries"`
	CumulativeInput float64      `json:"cumulative_investment"`
	CumulativeValue float64      `json:"cumulative_total_value"`
	AlignedStart    time.Time    `json:"aligned_start"`
	ExcludedTickers []string     `json:"excluded_tickers,omitempty"`
	MonthlyAmount   float64      `json:"monthly_amount"`
}

// Portfolio is one weighted allocation with its annualized metrics.
type Portfolio struct {
	Name    string             `json:"name"`
	Weights map[string]float64 `json:"weights"`
	Return  float64            `json:"return"`
	Risk    float64            `json:"risk"`
	Sharpe  float64            `json:"sharpe"`
}

// OptimizerResult is the Monte Carlo frontier output: the four named
// portfolios, the raw sample scatter, and a readable text summary.
type OptimizerResult struct {
	Tickers         []string    `json:"tickers"`
	MinRisk         Portfolio   `json:"min_risk"`
	MaxReturn       Portfolio   `json:"max_return"`
	MaxSharpe       Portfolio   `json:"max_sharpe"`
	Average         Portfolio   `json:"average"`
	ScatterRisk     []float64   `json:"scatter_risk"`
	ScatterReturn   []float64   `json:"scatter_return"`
	ScatterSharpe   []float64   `json:"scatter_sharpe"`
	Summary         string      `json:"summary"`
	Growth          []Trace     `json:"growth,omitempty"`
	ExcludedTickers []string    `json:"excluded_tickers,omitempty"`
}

// ComparisonResult is the $10,000 growth comparison of a user-allocated
// portfolio against a benchmark ticker.
type ComparisonResult struct {
	Title     string  `json:"title"`
	LogScale  bool    `json:"log_scale"`
	Portfolio Trace   `json:"portfolio"`
	Benchmark Trace   `json:"benchmark"`
}

// CorrelationResult is the pairwise Pearson coefficient matrix. Matrix is in
// natural (Tickers) order, symmetric with a unit diagonal; DisplayRows lists
// the row order reversed for the conventional visual diagonal.
type CorrelationResult struct {
	Tickers     []string    `json:"tickers"`
	Labels      []string    `json:"labels"`
	Matrix      [][]float64 `json:"matrix"`
	DisplayRows []string    `json:"display_rows"`
}

// PerformanceSummary is the plain price change of one ticker over the window.
type PerformanceSummary struct {
	Ticker        string  `json:"ticker"`
	StartPrice    float64 `json:"start_price"`
	EndPrice      float64 `json:"end_price"`
	PercentChange float64 `json:"percent_change"`
}

// PerformanceResult is the no-contribution tracker view: each ticker plotted
// from its own effective start date.
type PerformanceResult struct {
	Title           string               `json:"title"`
	LogScale        bool                 `json:"log_scale"`
	Traces          []Trace              `json:"traces"`
	Summaries       []PerformanceSummary `json:"summaries"`
	ExcludedTickers []string             `json:"excluded_tickers,omitempty"`
}
