package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/rendimientos/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
comparator:
  interval_seconds: 60
  schedule: "*/5 10-17 * * MON-FRI"
  timezone: UTC
  timeout_seconds: 15
settings:
  capital: 1000000
  horizon_days: 14
  base_days: 360
  money_market_rate_pct: 22.1
  min_extra_profit: 1000
  caucion_fees:
    broker_commission_pct: 0.15
    iva_pct: 21
  lecap_broker_fee_pct: 0.1
  favorites: [S24O5, S31O5]
api:
  caucion_url: http://scraper/cauciones
server:
  listen: 127.0.0.1:9090
  allowed_origins: [http://localhost:5173]
storage:
  dsn: ":memory:"
log:
  level: debug
  format: json
  file: /tmp/rendimientos.log
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Interval())
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, "*/5 10-17 * * MON-FRI", cfg.Comparator.Schedule)
	assert.Equal(t, time.UTC, cfg.Location())

	s := cfg.Settings
	assert.Equal(t, 1_000_000.0, s.Capital)
	assert.Equal(t, 14, s.HorizonDays)
	assert.Equal(t, 360, s.BaseDays)
	assert.Equal(t, "ARS", s.Currency)
	assert.InDelta(t, 0.001815, s.CaucionFees.EffectiveCostRate(), 1e-12)
	assert.Equal(t, []string{"S24O5", "S31O5"}, s.Favorites)

	ep := cfg.Endpoints()
	assert.Equal(t, "http://scraper/cauciones", ep.Caucion)
	assert.Equal(t, "https://dolarapi.com/v1/dolares/oficial", ep.FX)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Listen)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 20, cfg.Log.MaxSizeMB)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "settings:\n  capital: 5000\n"))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Interval())
	assert.Equal(t, 20*time.Second, cfg.Timeout())
	assert.Equal(t, 365, cfg.Settings.BaseDays)
	assert.Equal(t, 1, cfg.Settings.HorizonDays)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "rendimientos.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CAPITAL", "250000")
	t.Setenv("HORIZON_DAYS", "7")
	t.Setenv("FAVORITES", "S24O5,S14N5")

	cfg, err := config.Load(writeConfig(t, "settings:\n  capital: 5000\n  horizon_days: 30\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 250_000.0, cfg.Settings.Capital)
	assert.Equal(t, 7, cfg.Settings.HorizonDays)
	assert.Equal(t, []string{"S24O5", "S14N5"}, cfg.Settings.Favorites)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("CAPITAL", "un palo")
	_, err := config.Load(writeConfig(t, "settings: {}\n"))
	assert.Error(t, err)
}

func TestLoad_InvalidSchedule(t *testing.T) {
	_, err := config.Load(writeConfig(t, "comparator:\n  schedule: \"every now and then\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule")
}

func TestLoad_InvalidBaseDays(t *testing.T) {
	_, err := config.Load(writeConfig(t, "settings:\n  base_days: 300\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_days")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := config.Load(writeConfig(t, "settings: [unclosed\n"))
	assert.Error(t, err)
}
