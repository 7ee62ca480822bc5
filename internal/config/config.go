// Package config loads application settings from an optional YAML file with
// environment-variable overrides. Everything the engine can be tuned with
// flows through here; nothing else reads ambient state after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"assetanalysis/internal/engine"
)

// Config is the full application configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Engine struct {
		RiskFreeRate        float64  `yaml:"risk_free_rate"`
		Samples             int      `yaml:"samples"`
		Seed                int64    `yaml:"seed"`
		FetchConcurrency    int      `yaml:"fetch_concurrency"`
		FetchTimeoutSeconds int      `yaml:"fetch_timeout_seconds"`
		BaselineTickers     []string `yaml:"baseline_tickers"`
		CorrelationStart    string   `yaml:"correlation_start"`
		BenchmarkTicker     string   `yaml:"benchmark_ticker"`
	} `yaml:"engine"`
}

// Load reads the YAML file at path, then applies env overrides. A missing
// file is not an error; defaults cover everything.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("RISK_FREE_RATE: %w", err)
		}
		cfg.Engine.RiskFreeRate = f
	}
	if v := os.Getenv("OPTIMIZER_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("OPTIMIZER_SAMPLES: %w", err)
		}
		cfg.Engine.Samples = n
	}
	if v := os.Getenv("FETCH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FETCH_CONCURRENCY: %w", err)
		}
		cfg.Engine.FetchConcurrency = n
	}
	if v := os.Getenv("BENCHMARK_TICKER"); v != "" {
		cfg.Engine.BenchmarkTicker = v
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "9095"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.RiskFreeRate < 0 || c.Engine.RiskFreeRate >= 1 {
		return fmt.Errorf("risk_free_rate must be a fraction in [0, 1), got %v", c.Engine.RiskFreeRate)
	}
	if c.Engine.Samples < 0 {
		return fmt.Errorf("samples must be non-negative, got %d", c.Engine.Samples)
	}
	if c.Engine.FetchConcurrency < 0 {
		return fmt.Errorf("fetch_concurrency must be non-negative, got %d", c.Engine.FetchConcurrency)
	}
	if c.Engine.CorrelationStart != "" {
		if _, err := time.Parse("2006-01-02", c.Engine.CorrelationStart); err != nil {
			return fmt.Errorf("correlation_start: %w", err)
		}
	}
	return nil
}

// EngineConfig converts the file representation into the engine's config.
// Unset fields stay zero and the engine fills its own defaults.
func (c *Config) EngineConfig() engine.Config {
	ec := engine.Config{
		RiskFreeRate:     c.Engine.RiskFreeRate,
		Samples:          c.Engine.Samples,
		Seed:             c.Engine.Seed,
		FetchConcurrency: c.Engine.FetchConcurrency,
		BaselineTickers:  c.Engine.BaselineTickers,
		BenchmarkTicker:  c.Engine.BenchmarkTicker,
	}
	if c.Engine.FetchTimeoutSeconds > 0 {
		ec.FetchTimeout = time.Duration(c.Engine.FetchTimeoutSeconds) * time.Second
	}
	if c.Engine.CorrelationStart != "" {
		t, _ := time.Parse("2006-01-02", c.Engine.CorrelationStart)
		ec.CorrelationStart = t
	}
	return ec
}
