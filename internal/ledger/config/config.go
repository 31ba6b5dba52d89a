package config

import (
	"time"

	"golang-portfolio-ledger/pkg/common"
	"golang-portfolio-ledger/pkg/config"
)

// Ledger holds ledger-service specific configuration.
type Ledger struct {
	PortfolioName         string        `mapstructure:"portfolio_name"`
	IntegritySchedule     string        `mapstructure:"integrity_schedule"`
	PriceCacheTTL         time.Duration `mapstructure:"price_cache_ttl"`
	MutationRatePerMinute int           `mapstructure:"mutation_rate_per_minute"`
	LedgerPageSize        int           `mapstructure:"ledger_page_size"`
}

// Config holds the full configuration for the ledger service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	Tracing  config.Tracing  `mapstructure:"tracing"`
	Telegram config.Telegram `mapstructure:"telegram"`
	Ledger   Ledger          `mapstructure:"ledger"`
}

// Load loads the ledger configuration from the given path and fills defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Ledger.PortfolioName == "" {
		c.Ledger.PortfolioName = common.DefaultPortfolioName
	}
	if c.Ledger.PriceCacheTTL <= 0 {
		c.Ledger.PriceCacheTTL = 30 * time.Second
	}
	if c.Ledger.LedgerPageSize <= 0 {
		c.Ledger.LedgerPageSize = 100
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}
