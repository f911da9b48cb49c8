// Package config loads the engine configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agrisure/weatherindex/internal/optimize"
	"github.com/agrisure/weatherindex/internal/pricing"
)

// Config is the complete engine configuration.
type Config struct {
	Data struct {
		Dir     string `yaml:"dir"`     // root of the weather file tree
		Country string `yaml:"country"` // country directory inside the tree
	} `yaml:"data"`
	Pricing struct {
		Years         int     `yaml:"years"`
		AdminLoading  float64 `yaml:"admin_loading"`
		ProfitLoading float64 `yaml:"profit_loading"`
	} `yaml:"pricing"`
	Search          optimize.SearchConfig `yaml:"search"`
	StrategyTimeout string                `yaml:"strategy_timeout"` // Go duration string, e.g. "5m"

	strategyTimeout time.Duration
}

// Default returns the production defaults: 30 replay years, 15% admin and
// 7.5% profit loading, the standard search budget, five-minute strategy
// timeouts.
func Default() Config {
	var c Config
	c.Data.Dir = "climate_data"
	c.Data.Country = "Cambodia"
	p := pricing.DefaultConfig()
	c.Pricing.Years = p.Years
	c.Pricing.AdminLoading = p.AdminLoading
	c.Pricing.ProfitLoading = p.ProfitLoading
	c.Search = optimize.DefaultSearchConfig()
	c.StrategyTimeout = "5m"
	c.strategyTimeout = 5 * time.Minute
	return c
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for internally consistent values and
// parses the strategy timeout.
func (c *Config) Validate() error {
	if c.Pricing.Years < 1 {
		return fmt.Errorf("pricing.years must be >= 1, got %d", c.Pricing.Years)
	}
	if c.Pricing.AdminLoading < 0 || c.Pricing.ProfitLoading < 0 {
		return fmt.Errorf("loadings must be non-negative")
	}
	if c.Search.InitialTrials < 1 {
		return fmt.Errorf("search.initial_trials must be >= 1, got %d", c.Search.InitialTrials)
	}
	if c.Search.MaxTrials < c.Search.InitialTrials {
		return fmt.Errorf("search.max_trials %d below initial_trials %d",
			c.Search.MaxTrials, c.Search.InitialTrials)
	}
	d, err := time.ParseDuration(c.StrategyTimeout)
	if err != nil {
		return fmt.Errorf("strategy_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("strategy_timeout must be positive, got %s", c.StrategyTimeout)
	}
	c.strategyTimeout = d
	return nil
}

// PricingConfig converts the pricing section into the engine's config type.
func (c Config) PricingConfig() pricing.Config {
	return pricing.Config{
		Years:         c.Pricing.Years,
		AdminLoading:  c.Pricing.AdminLoading,
		ProfitLoading: c.Pricing.ProfitLoading,
	}
}

// OrchestratorConfig assembles the orchestrator's view of the configuration.
func (c Config) OrchestratorConfig() optimize.OrchestratorConfig {
	return optimize.OrchestratorConfig{
		StrategyTimeout: c.strategyTimeout,
		Search:          c.Search,
		Pricing:         c.PricingConfig(),
	}
}
