// Package server exposes the analytics engine over a small JSON HTTP API.
// Each chart-able endpoint also renders to PNG with ?format=png.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"assetanalysis/internal/chart"
	"assetanalysis/internal/engine"
)

// defaultStart is used when a request omits its window start; it predates
// every series the upstream serves, so it means "all available history".
var defaultStart = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

// Server holds the handlers' shared collaborators.
type Server struct {
	eng *engine.Engine
	log zerolog.Logger
}

// New builds a Server around an engine.
func New(eng *engine.Engine, log zerolog.Logger) *Server {
	return &Server{eng: eng, log: log.With().Str("component", "http").Logger()}
}

// Mux registers all routes.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/regression", s.handleRegression)
	mux.HandleFunc("/api/dca", s.handleDCA)
	mux.HandleFunc("/api/optimizer", s.handleOptimizer)
	mux.HandleFunc("/api/comparison", s.handleComparison)
	mux.HandleFunc("/api/correlation", s.handleCorrelation)
	mux.HandleFunc("/api/performance", s.handlePerformance)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
	return mux
}

// ListenAndServe serves mux on addr.
func ListenAndServe(addr string, mux *http.ServeMux) error {
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleRegression(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		s.badRequest(w, "ticker is required")
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	res, err := s.eng.Regression(r.Context(), ticker, start, engine.ModelKind(r.URL.Query().Get("model")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if wantsPNG(r) {
		s.writePNG(w, chart.Regression(res))
		return
	}
	s.writeJSON(w, res)
}

func (s *Server) handleDCA(w http.ResponseWriter, r *http.Request) {
	tickers := queryList(r, "tickers")
	if len(tickers) == 0 {
		s.badRequest(w, "tickers is required")
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	monthly := 100.0
	if v := r.URL.Query().Get("monthly"); v != "" {
		monthly, err = strconv.ParseFloat(v, 64)
		if err != nil || monthly <= 0 {
			s.badRequest(w, "monthly must be a positive number")
			return
		}
	}
	res, err := s.eng.DCA(r.Context(), tickers, start, monthly)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if wantsPNG(r) {
		s.writePNG(w, chart.DCA(res))
		return
	}
	s.writeJSON(w, res)
}

func (s *Server) handleOptimizer(w http.ResponseWriter, r *http.Request) {
	tickers := queryList(r, "tickers")
	if len(tickers) == 0 {
		s.badRequest(w, "tickers is required")
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	res, err := s.eng.Optimize(r.Context(), tickers, start)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if wantsPNG(r) {
		s.writePNG(w, chart.Growth(res))
		return
	}
	s.writeJSON(w, res)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	tickers := queryList(r, "tickers")
	if len(tickers) == 0 {
		s.badRequest(w, "tickers is required")
		return
	}
	allocations, err := queryFloats(r, "allocations")
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	benchmark := r.URL.Query().Get("benchmark")
	if benchmark == "" {
		benchmark = "SPY"
	}
	res, err := s.eng.Compare(r.Context(), tickers, allocations, benchmark, start)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if wantsPNG(r) {
		s.writePNG(w, chart.Comparison(res))
		return
	}
	s.writeJSON(w, res)
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	res, err := s.eng.Correlation(r.Context(), queryList(r, "tickers"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, res)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	tickers := queryList(r, "tickers")
	if len(tickers) == 0 {
		s.badRequest(w, "tickers is required")
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	res, err := s.eng.Performance(r.Context(), tickers, start)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if wantsPNG(r) {
		s.writePNG(w, chart.Performance(res))
		return
	}
	s.writeJSON(w, res)
}

func wantsPNG(r *http.Request) bool {
	return r.URL.Query().Get("format") == "png"
}

func queryList(r *http.Request, key string) []string {
	var out []string
	for _, part := range strings.Split(r.URL.Query().Get(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryFloats(r *http.Request, key string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(r.URL.Query().Get(key), ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errors.New(key + " must be comma-separated numbers")
		}
		out = append(out, f)
	}
	return out, nil
}

func queryDate(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultStart, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, errors.New(key + " must be YYYY-MM-DD")
	}
	return t, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writePNG(w http.ResponseWriter, png []byte, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		s.log.Error().Err(err).Msg("write png")
	}
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.fail(w, http.StatusBadRequest, msg)
}

// writeError maps engine errors onto HTTP statuses: bad allocations are the
// caller's fault, thin or missing data is a 404/422, anything else is the
// upstream's.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var allocErr *engine.AllocationError
	switch {
	case errors.As(err, &allocErr):
		s.fail(w, http.StatusBadRequest, allocErr.Error())
	case errors.Is(err, engine.ErrInsufficientHistory):
		s.fail(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, engine.ErrNoData):
		s.fail(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed upstream")
		s.fail(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
