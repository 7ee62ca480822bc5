// Package yahoo fetches daily adjusted-close price history from the Yahoo
// Finance v8 chart API. It is the engine's price history provider.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"assetanalysis/internal/series"
)

// chartResp mirrors the Yahoo v8 chart response, trimmed to needed fields.
type chartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Adjclose []struct {
					Adjclose []float64 `json:"adjclose"`
				} `json:"adjclose"`
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// Client talks to the Yahoo chart API with host rotation and bounded retry.
type Client struct {
	hosts    []string
	backoffs []time.Duration
	httpc    *http.Client
	log      zerolog.Logger
}

// New builds a Client with the default host pair and retry schedule.
func New(log zerolog.Logger) *Client {
	return &Client{
		hosts:    []string{"query1.finance.yahoo.com", "query2.finance.yahoo.com"},
		backoffs: []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		httpc:    http.DefaultClient,
		log:      log.With().Str("component", "yahoo").Logger(),
	}
}

// History fetches the daily adjusted-close series for symbol from start
// through now. It prefers the adjclose indicator and falls back to the raw
// close when Yahoo omits it, so callers always see one consistent price
// field.
func (c *Client) History(ctx context.Context, symbol string, start time.Time) (series.Series, error) {
	var yc chartResp
	var lastErr error
	period1 := start.UTC().Unix()
	period2 := time.Now().UTC().Unix()
	for attempt := 0; attempt < len(c.backoffs)+1; attempt++ {
		for _, host := range c.hosts {
			url := fmt.Sprintf("https://%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div%%2Csplits",
				host, symbol, period1, period2)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return series.Series{}, err
			}
			req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
			req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
			req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", strings.ToUpper(symbol)))
			resp, err := c.httpc.Do(req)
			if err != nil {
				lastErr = err
				continue
			}
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("read yahoo response: %w", readErr)
				continue
			}
			if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
				lastErr = fmt.Errorf("yahoo %s returned 429", host)
				continue
			}
			if resp.StatusCode != http.StatusOK {
				lastErr = fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, preview(body))
				continue
			}
			if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
				lastErr = fmt.Errorf("yahoo returned non-json body: %s", preview(body))
				continue
			}
			if err := json.Unmarshal(body, &yc); err != nil {
				lastErr = fmt.Errorf("parse yahoo json: %v; body: %s", err, preview(body))
				continue
			}
			lastErr = nil
			break
		}
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return series.Series{}, ctx.Err()
		}
		if attempt < len(c.backoffs) {
			select {
			case <-time.After(c.backoffs[attempt]):
			case <-ctx.Done():
				return series.Series{}, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		return series.Series{}, lastErr
	}
	out, err := seriesFromChart(yc)
	if err != nil {
		return series.Series{}, err
	}
	c.log.Debug().Str("symbol", symbol).Int("bars", out.Len()).Msg("fetched history")
	return out, nil
}

// seriesFromChart extracts the daily bars from a decoded chart response,
// preferring the adjclose indicator over the raw close.
func seriesFromChart(yc chartResp) (series.Series, error) {
	if len(yc.Chart.Result) == 0 {
		return series.Series{}, errors.New("no data")
	}
	r := yc.Chart.Result[0]
	prices := []float64(nil)
	if len(r.Indicators.Adjclose) > 0 && len(r.Indicators.Adjclose[0].Adjclose) > 0 {
		prices = r.Indicators.Adjclose[0].Adjclose
	} else if len(r.Indicators.Quote) > 0 {
		prices = r.Indicators.Quote[0].Close
	}
	if len(r.Timestamp) == 0 || len(prices) == 0 {
		return series.Series{}, errors.New("no data")
	}
	n := len(r.Timestamp)
	if len(prices) < n {
		n = len(prices)
	}
	out := series.Series{
		Dates:  make([]time.Time, 0, n),
		Values: make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		out.Dates = append(out.Dates, series.Day(time.Unix(r.Timestamp[i], 0)))
		out.Values = append(out.Values, prices[i])
	}
	return out, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
