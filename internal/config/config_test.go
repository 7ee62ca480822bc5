package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9095" {
		t.Errorf("Port = %q, want 9095", cfg.Server.Port)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8080"
engine:
  risk_free_rate: 0.04
  samples: 1000
  seed: 7
  fetch_concurrency: 2
  fetch_timeout_seconds: 10
  baseline_tickers: [AAPL, MSFT]
  correlation_start: "2000-01-01"
  benchmark_ticker: QQQ
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	ec := cfg.EngineConfig()
	if ec.RiskFreeRate != 0.04 || ec.Samples != 1000 || ec.Seed != 7 {
		t.Errorf("engine config = %+v", ec)
	}
	if ec.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", ec.FetchTimeout)
	}
	if !ec.CorrelationStart.Equal(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CorrelationStart = %v", ec.CorrelationStart)
	}
	if len(ec.BaselineTickers) != 2 || ec.BenchmarkTicker != "QQQ" {
		t.Errorf("tickers = %v, benchmark = %q", ec.BaselineTickers, ec.BenchmarkTicker)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"8080\"\n")
	t.Setenv("PORT", "9999")
	t.Setenv("RISK_FREE_RATE", "0.02")
	t.Setenv("OPTIMIZER_SAMPLES", "250")
	t.Setenv("BENCHMARK_TICKER", "VOO")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("Port = %q, want env override", cfg.Server.Port)
	}
	if cfg.Engine.RiskFreeRate != 0.02 || cfg.Engine.Samples != 250 || cfg.Engine.BenchmarkTicker != "VOO" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"rate out of range", "engine:\n  risk_free_rate: 1.5\n"},
		{"negative samples", "engine:\n  samples: -1\n"},
		{"bad date", "engine:\n  correlation_start: \"January 1\"\n"},
		{"bad yaml", "engine: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("want error")
			}
		})
	}
}
