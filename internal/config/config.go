package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source selects the primary market-data provider.
const (
	SourceProxy     = "proxy"
	SourceSimulated = "simulated"
	SourceYahoo     = "yahoo"
)

// AuthMemory is the in-process identity provider.
const AuthMemory = "memory"

// Fallback modes for failed quote fetches.
const (
	FallbackZero     = "zero"
	FallbackSimulate = "simulate"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Mode           string        `yaml:"mode"`
		BaseURL        string        `yaml:"base_url"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		RatePerSecond  float64       `yaml:"rate_per_second"`
		Burst          int           `yaml:"burst"`
		FallbackMode   string        `yaml:"fallback_mode"`
		Seed           int64         `yaml:"seed"`
	} `yaml:"data_source"`
	Session struct {
		Watchlist       []string      `yaml:"watchlist"`
		HistorySymbol   string        `yaml:"history_symbol"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
	} `yaml:"session"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
		GinMode    string `yaml:"gin_mode"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Auth struct {
		Provider string `yaml:"provider"`
	} `yaml:"auth"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides.
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

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STOCKLENS_SOURCE"); v != "" {
		cfg.DataSource.Mode = v
	}
	if v := os.Getenv("STOCKLENS_PROXY_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("STOCKLENS_FALLBACK_MODE"); v != "" {
		cfg.DataSource.FallbackMode = v
	}
	if v := os.Getenv("STOCKLENS_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.DataSource.Seed = seed
		}
	}
	if v := os.Getenv("STOCKLENS_WATCHLIST"); v != "" {
		cfg.Session.Watchlist = splitSymbols(v)
	}
	if v := os.Getenv("STOCKLENS_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.RefreshInterval = d
		}
	}
	if v := os.Getenv("STOCKLENS_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("STOCKLENS_AUTH_PROVIDER"); v != "" {
		cfg.Auth.Provider = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DataSource.Mode == "" {
		cfg.DataSource.Mode = SourceProxy
	}
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "http://localhost:3001/api"
	}
	if cfg.DataSource.RequestTimeout == 0 {
		cfg.DataSource.RequestTimeout = 10 * time.Second
	}
	if cfg.DataSource.RatePerSecond == 0 {
		cfg.DataSource.RatePerSecond = 5
	}
	if cfg.DataSource.Burst == 0 {
		cfg.DataSource.Burst = 10
	}
	if cfg.DataSource.FallbackMode == "" {
		cfg.DataSource.FallbackMode = FallbackZero
	}
	if cfg.DataSource.Seed == 0 {
		cfg.DataSource.Seed = time.Now().UnixNano()
	}
	if len(cfg.Session.Watchlist) == 0 {
		cfg.Session.Watchlist = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}
	}
	if cfg.Session.HistorySymbol == "" {
		cfg.Session.HistorySymbol = "SPY"
	}
	if cfg.Session.RefreshInterval == 0 {
		cfg.Session.RefreshInterval = 30 * time.Second
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.GinMode == "" {
		cfg.Server.GinMode = "release"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stocklens.db"
	}
	if cfg.Auth.Provider == "" {
		cfg.Auth.Provider = AuthMemory
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "logs/stocklens.log"
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Mode {
	case SourceProxy:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required in proxy mode")
		}
	case SourceSimulated, SourceYahoo:
	default:
		return fmt.Errorf("data_source.mode must be one of %q, %q, %q, got %q", SourceProxy, SourceSimulated, SourceYahoo, c.DataSource.Mode)
	}
	switch c.DataSource.FallbackMode {
	case FallbackZero, FallbackSimulate:
	default:
		return fmt.Errorf("data_source.fallback_mode must be %q or %q, got %q", FallbackZero, FallbackSimulate, c.DataSource.FallbackMode)
	}
	if c.DataSource.RatePerSecond < 0 {
		return fmt.Errorf("data_source.rate_per_second must not be negative")
	}
	if c.Session.RefreshInterval < time.Second {
		return fmt.Errorf("session.refresh_interval must be at least 1s")
	}
	if c.Auth.Provider != AuthMemory {
		return fmt.Errorf("auth.provider %q is not supported", c.Auth.Provider)
	}
	return nil
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
