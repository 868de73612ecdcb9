package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/ratecheck/reconcile"
)

// Config is the complete ratecheck configuration
type Config struct {
	MarketData MarketDataConfig `json:"market_data" yaml:"market_data"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Reconcile  ReconcileConfig  `json:"reconcile" yaml:"reconcile"`
	Report     ReportConfig     `json:"report" yaml:"report"`
	LogLevel   string           `json:"log_level" yaml:"log_level"`
	LogFormat  string           `json:"log_format" yaml:"log_format"` // "text" or "json"
}

// MarketDataConfig selects and tunes the curve source
type MarketDataConfig struct {
	Source      string `json:"source" yaml:"source"` // "b3" or "dir"
	BaseURL     string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout     string `json:"timeout" yaml:"timeout"` // e.g. "30s"
	MaxAttempts int    `json:"max_attempts" yaml:"max_attempts"`
	Parallelism int    `json:"parallelism" yaml:"parallelism"`
	SnapshotDir string `json:"snapshot_dir,omitempty" yaml:"snapshot_dir,omitempty"`
}

// TimeoutDuration parses Timeout. Empty means no timeout.
func (m MarketDataConfig) TimeoutDuration() (time.Duration, error) {
	if m.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(m.Timeout)
}

// CacheConfig configures the optional Redis snapshot cache
type CacheConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int    `json:"db" yaml:"db"`
	TTL       string `json:"ttl" yaml:"ttl"` // e.g. "24h"; empty keeps entries forever
}

func (c CacheConfig) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.TTL)
}

// ReconcileConfig contains the valuation parameters
type ReconcileConfig struct {
	Notional         float64 `json:"notional" yaml:"notional"`
	RateTolerance    float64 `json:"rate_tolerance" yaml:"rate_tolerance"`
	SettlementPlaces int32   `json:"settlement_places" yaml:"settlement_places"`
	RequireExactDate bool    `json:"require_exact_date" yaml:"require_exact_date"`
	Product          string  `json:"product" yaml:"product"`
	DUColumn         string  `json:"du_column" yaml:"du_column"`
}

func (r ReconcileConfig) Options() reconcile.Options {
	return reconcile.Options{
		Notional:         r.Notional,
		RateTolerance:    r.RateTolerance,
		SettlementPlaces: r.SettlementPlaces,
		RequireExactDate: r.RequireExactDate,
	}
}

// ReportConfig says where verdicts go
type ReportConfig struct {
	Type     string `json:"type" yaml:"type"` // "csv" or "sqlite"
	CSVPath  string `json:"csv_path,omitempty" yaml:"csv_path,omitempty"`
	RunsPath string `json:"runs_path,omitempty" yaml:"runs_path,omitempty"`
	DBPath   string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgPath  string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

// Load returns the defaults when path is empty and LoadFromFile otherwise.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		ApplyEnv(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromFile(path)
}

// LoadFromFile loads configuration from a file (JSON or YAML), on top of the
// defaults, then applies RATECHECK_* environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.MarketData.Source {
	case "b3":
		if c.MarketData.BaseURL == "" {
			return fmt.Errorf("market_data.base_url is required for b3 source")
		}
	case "dir":
		if c.MarketData.SnapshotDir == "" {
			return fmt.Errorf("market_data.snapshot_dir is required for dir source")
		}
	default:
		return fmt.Errorf("market_data.source must be 'b3' or 'dir'")
	}
	if _, err := c.MarketData.TimeoutDuration(); err != nil {
		return fmt.Errorf("market_data.timeout: %w", err)
	}
	if c.MarketData.MaxAttempts < 1 {
		return fmt.Errorf("market_data.max_attempts must be positive")
	}
	if c.MarketData.Parallelism < 1 {
		return fmt.Errorf("market_data.parallelism must be positive")
	}

	if c.Cache.Enabled && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr required when cache is enabled")
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}

	if c.Reconcile.Notional <= 0 {
		return fmt.Errorf("reconcile.notional must be positive")
	}
	if c.Reconcile.RateTolerance <= 0 {
		return fmt.Errorf("reconcile.rate_tolerance must be positive")
	}
	if c.Reconcile.SettlementPlaces < 0 {
		return fmt.Errorf("reconcile.settlement_places must not be negative")
	}

	if c.Report.Type != "csv" && c.Report.Type != "sqlite" {
		return fmt.Errorf("report.type must be 'csv' or 'sqlite'")
	}
	if c.Report.Type == "csv" && c.Report.CSVPath == "" {
		return fmt.Errorf("report csv_path required for CSV type")
	}
	if c.Report.Type == "sqlite" && c.Report.DBPath == "" {
		return fmt.Errorf("report db_path required for SQLite type")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be 'text' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		MarketData: MarketDataConfig{
			Source:      "b3",
			BaseURL:     "https://www2.bmf.com.br",
			Timeout:     "30s",
			MaxAttempts: 10,
			Parallelism: 4,
			SnapshotDir: "./snapshots",
		},
		Cache: CacheConfig{
			RedisAddr: "localhost:6379",
			TTL:       "168h",
		},
		Reconcile: ReconcileConfig{
			Notional:         reconcile.DefaultNotional,
			RateTolerance:    reconcile.DefaultRateTolerance,
			SettlementPlaces: reconcile.DefaultSettlementPlaces,
			RequireExactDate: true,
			Product:          "Futuro de DI",
			DUColumn:         "n_dias_corridos",
		},
		Report: ReportConfig{
			Type:    "csv",
			CSVPath: "./verdicts.csv",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}
