package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: portfolio-ledger
logger:
  level: debug
  encoding: console
database:
  host: db
  port: 5432
ledger:
  integrity_schedule: "@every 5m"
  price_cache_ttl: 10s
  mutation_rate_per_minute: 60
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "portfolio-ledger", cfg.App.Name)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "@every 5m", cfg.Ledger.IntegritySchedule)
	assert.Equal(t, 10*time.Second, cfg.Ledger.PriceCacheTTL)
	assert.Equal(t, 60, cfg.Ledger.MutationRatePerMinute)

	assert.Equal(t, "default", cfg.Ledger.PortfolioName)
	assert.Equal(t, 100, cfg.Ledger.LedgerPageSize)
	assert.Equal(t, 8080, cfg.API.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	t.Setenv("DATABASE_HOST", "db.internal")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}
