// Package chart renders engine results to PNG line charts.
package chart

import (
	"errors"
	"math"
	"time"

	"github.com/vicanso/go-charts/v2"

	"assetanalysis/internal/engine"
)

// Regression renders the price history with the fitted trend and its six
// deviation bands.
func Regression(res *engine.RegressionResult) ([]byte, error) {
	traces := append([]engine.Trace{res.ActualPrices, res.Fit}, res.Bands...)
	return render(res.Title, traces, res.LogScale)
}

// DCA renders the cumulative contribution growth curves.
func DCA(res *engine.DCAResult) ([]byte, error) {
	return render(res.Title, res.Traces, false)
}

// Comparison renders portfolio versus benchmark growth.
func Comparison(res *engine.ComparisonResult) ([]byte, error) {
	return render(res.Title, []engine.Trace{res.Portfolio, res.Benchmark}, res.LogScale)
}

// Performance renders each ticker's price from its effective start.
func Performance(res *engine.PerformanceResult) ([]byte, error) {
	return render(res.Title, res.Traces, res.LogScale)
}

// Growth renders the optimizer's $10,000 growth comparison curves.
func Growth(res *engine.OptimizerResult) ([]byte, error) {
	return render("Growth of $10,000 Investment", res.Growth, true)
}

// render draws traces on a shared date axis. Traces covering only part of
// the axis get null points outside their range. When logScale is set values
// are plotted as log10 so multi-decade histories stay readable.
func render(title string, traces []engine.Trace, logScale bool) ([]byte, error) {
	traces = nonEmpty(traces)
	if len(traces) == 0 {
		return nil, errors.New("no series to render")
	}

	dates := unionDates(traces)
	if len(dates) < 2 {
		return nil, errors.New("not enough data points")
	}
	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}
	xLabels := make([]string, len(dates))
	for i, d := range dates {
		xLabels[i] = d.Format("2006-01-02")
	}

	null := charts.GetNullValue()
	values := make([][]float64, len(traces))
	names := make([]string, len(traces))
	var yMin, yMax float64
	seen := false
	for i, tr := range traces {
		row := make([]float64, len(dates))
		for j := range row {
			row[j] = null
		}
		for j, d := range tr.Dates {
			v := tr.Values[j]
			if logScale {
				if v <= 0 {
					continue
				}
				v = math.Log10(v)
			}
			row[index[d]] = v
			if !seen {
				yMin, yMax = v, v
				seen = true
			} else {
				if v < yMin {
					yMin = v
				}
				if v > yMax {
					yMax = v
				}
			}
		}
		values[i] = row
		names[i] = tr.Name
	}
	pad := (yMax - yMin) * 0.05
	if pad == 0 {
		pad = math.Abs(yMax) * 0.002
	}
	yMin -= pad
	yMax += pad

	subtitle := ""
	if logScale {
		subtitle = "log10 scale"
	}
	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

func nonEmpty(traces []engine.Trace) []engine.Trace {
	out := traces[:0:0]
	for _, tr := range traces {
		if len(tr.Dates) > 0 {
			out = append(out, tr)
		}
	}
	return out
}

// unionDates merges trace date axes into one sorted axis. Inputs are already
// sorted, so a k-way min merge suffices.
func unionDates(traces []engine.Trace) []time.Time {
	pos := make([]int, len(traces))
	var out []time.Time
	for {
		var min time.Time
		found := false
		for i, tr := range traces {
			if pos[i] >= len(tr.Dates) {
				continue
			}
			d := tr.Dates[pos[i]]
			if !found || d.Before(min) {
				min = d
				found = true
			}
		}
		if !found {
			return out
		}
		out = append(out, min)
		for i, tr := range traces {
			if pos[i] < len(tr.Dates) && tr.Dates[pos[i]].Equal(min) {
				pos[i]++
			}
		}
	}
}
