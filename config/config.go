package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // el schedule usa America/Argentina/Buenos_Aires aunque el host no tenga zoneinfo

	"github.com/alejandrodnm/rendimientos/internal/adapters/marketdata"
	"github.com/alejandrodnm/rendimientos/internal/domain"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del comparador.
type Config struct {
	Comparator ComparatorConfig `yaml:"comparator"`
	Settings   domain.Settings  `yaml:"settings"`
	API        APIConfig        `yaml:"api"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// ComparatorConfig controla el loop de comparación.
type ComparatorConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	Schedule        string `yaml:"schedule"` // cron de 5 campos; tiene prioridad sobre interval_seconds
	Timezone        string `yaml:"timezone"` // zona del schedule
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// APIConfig contiene las URLs de las fuentes de mercado.
type APIConfig struct {
	CaucionURL    string `yaml:"caucion_url"`
	BondPricesURL string `yaml:"bond_prices_url"`
	BondTableURL  string `yaml:"bond_table_url"`
	FXURL         string `yaml:"fx_url"`
}

// ServerConfig controla la API HTTP.
type ServerConfig struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig controla dónde se persiste el historial.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato, nivel y destino del logging.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // text | json
	File       string `yaml:"file"`   // vacío = sólo stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del entorno sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate revisa los valores que no tienen un default razonable.
func (c *Config) Validate() error {
	if c.Comparator.Schedule != "" {
		if _, err := cron.ParseStandard(c.Comparator.Schedule); err != nil {
			return fmt.Errorf("invalid comparator.schedule %q: %w", c.Comparator.Schedule, err)
		}
	}
	if _, err := time.LoadLocation(c.Comparator.Timezone); err != nil {
		return fmt.Errorf("invalid comparator.timezone %q: %w", c.Comparator.Timezone, err)
	}
	if c.Settings.BaseDays != domain.BaseDays360 && c.Settings.BaseDays != domain.BaseDays365 {
		return fmt.Errorf("settings.base_days must be 360 or 365, got %d", c.Settings.BaseDays)
	}
	return nil
}

// Interval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Comparator.IntervalSeconds) * time.Second
}

// Timeout devuelve el límite de cada ciclo de fetch.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Comparator.TimeoutSeconds) * time.Second
}

// Location devuelve la zona horaria del schedule. Validate ya comprobó que carga.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Comparator.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Endpoints devuelve las URLs de las fuentes para el client de marketdata.
func (c *Config) Endpoints() marketdata.Endpoints {
	return marketdata.Endpoints{
		Caucion:    c.API.CaucionURL,
		BondPrices: c.API.BondPricesURL,
		BondTable:  c.API.BondTableURL,
		FX:         c.API.FXURL,
	}
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CAPITAL"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env CAPITAL: %w", err)
		}
		cfg.Settings.Capital = f
	}
	if v := os.Getenv("HORIZON_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env HORIZON_DAYS: %w", err)
		}
		cfg.Settings.HorizonDays = n
	}
	if v := os.Getenv("FAVORITES"); v != "" {
		cfg.Settings.Favorites = strings.Split(v, ",")
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Comparator.IntervalSeconds <= 0 {
		cfg.Comparator.IntervalSeconds = 300
	}
	if cfg.Comparator.TimeoutSeconds <= 0 {
		cfg.Comparator.TimeoutSeconds = 20
	}
	if cfg.Comparator.Timezone == "" {
		cfg.Comparator.Timezone = "America/Argentina/Buenos_Aires"
	}
	if cfg.Settings.BaseDays == 0 {
		cfg.Settings.BaseDays = domain.BaseDays365
	}
	if cfg.Settings.Currency == "" {
		cfg.Settings.Currency = domain.DefaultCurrency
	}
	if cfg.Settings.HorizonDays <= 0 {
		cfg.Settings.HorizonDays = 1
	}
	if cfg.API.CaucionURL == "" {
		cfg.API.CaucionURL = "http://localhost:8787/cauciones"
	}
	if cfg.API.BondPricesURL == "" {
		cfg.API.BondPricesURL = "http://localhost:8787/lecaps/prices"
	}
	if cfg.API.BondTableURL == "" {
		cfg.API.BondTableURL = "http://localhost:8787/lecaps/table"
	}
	if cfg.API.FXURL == "" {
		cfg.API.FXURL = "https://dolarapi.com/v1/dolares/oficial"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "rendimientos.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 20
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 30
	}
}
