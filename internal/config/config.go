package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the backend stocks API used when nothing else is set.
const DefaultBaseURL = "http://localhost:8000/api/stocks"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration shared by the dashboard, the CLI and
// the reference backend.
type Config struct {
	Client  Client       `yaml:"client"`
	Server  Server       `yaml:"server"`
	Storage Storage      `yaml:"storage"`
	Alpaca  Alpaca       `yaml:"alpaca"`
	Gather  GatherConfig `yaml:"gather"`
	Logging Logging      `yaml:"logging"`
}

// Client configures how the dashboard and CLI reach the stocks API.
type Client struct {
	BaseURL   string        `yaml:"base_url"`
	PageLimit int           `yaml:"page_limit"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Server holds the reference backend's listener configuration.
type Server struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Storage holds paths for the backend's price data. Backend is "sqlite" or
// "parquet"; parquet files live under DataDir.
type Storage struct {
	Backend    string `yaml:"backend"`
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	// Source is an optional CSV or Parquet file imported at startup.
	Source string `yaml:"source"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// GatherConfig controls the daily-bar import job.
type GatherConfig struct {
	Symbols         []string `yaml:"symbols"`
	StartDate       string   `yaml:"start_date"`
	Schedule        string   `yaml:"schedule"`
	BatchSize       int      `yaml:"batch_size"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	MaxAttempts     int      `yaml:"max_attempts"`
}

// Logging configures the application logger. An empty File logs to stdout.
type Logging struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Client: Client{
			BaseURL:   DefaultBaseURL,
			PageLimit: 100,
			Timeout:   30 * time.Second,
		},
		Server: Server{
			Host: "0.0.0.0",
			Port: 8000,
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://localhost:4173",
				"http://127.0.0.1:5173",
				"http://127.0.0.1:4173",
			},
		},
		Storage: Storage{
			Backend:    "sqlite",
			DataDir:    "data",
			SQLitePath: "data/stockdash.db",
		},
		Gather: GatherConfig{
			StartDate:       "2020-01-01",
			BatchSize:       100,
			RateLimitPerMin: 200,
			MaxAttempts:     3,
		},
		Logging: Logging{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load builds a Config from defaults, the YAML file at path, and environment
// variable overrides, in that order. A .env file in the working directory is
// read first without replacing variables that are already set. A missing
// YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Path returns the config path from STOCKDASH_CONFIG, or the default
// location.
func Path() string {
	if p := os.Getenv("STOCKDASH_CONFIG"); p != "" {
		return p
	}
	return "config/stockdash.yaml"
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKDASH_API_BASE_URL"); v != "" {
		cfg.Client.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("STOCKDASH_PAGE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Client.PageLimit = n
		}
	}

	if v := os.Getenv("STOCKDASH_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}

	if v := os.Getenv("STOCKDASH_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("STOCKDASH_SOURCE"); v != "" {
		cfg.Storage.Source = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	// Standard Alpaca env vars take precedence.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
