package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockdash.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STOCKDASH_API_BASE_URL", "STOCKDASH_PAGE_LIMIT", "STOCKDASH_PORT",
		"DATA_DIR", "SQLITE_PATH", "STOCKDASH_SOURCE", "STOCKDASH_STORAGE_BACKEND",
		"ALPACA_API_KEY", "ALPACA_API_SECRET", "ALPACA_DATA_URL",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
client:
  base_url: "http://api.internal:9000/api/stocks"
  page_limit: 250
  timeout: 5s
server:
  host: "127.0.0.1"
  port: 8081
  cors_origins: ["http://localhost:3000"]
storage:
  data_dir: "/tmp/stockdash/data"
  sqlite_path: "/tmp/stockdash/prices.db"
  source: "/tmp/stockdash/prices.csv"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  feed: "iex"
gather:
  symbols: ["AAPL", "MSFT"]
  start_date: "2023-01-01"
  schedule: "30 18 * * 1-5"
  batch_size: 50
  rate_limit_per_min: 100
logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Client --
	if cfg.Client.BaseURL != "http://api.internal:9000/api/stocks" {
		t.Errorf("Client.BaseURL = %q", cfg.Client.BaseURL)
	}
	if cfg.Client.PageLimit != 250 {
		t.Errorf("Client.PageLimit = %d, want %d", cfg.Client.PageLimit, 250)
	}
	if cfg.Client.Timeout != 5*time.Second {
		t.Errorf("Client.Timeout = %v, want %v", cfg.Client.Timeout, 5*time.Second)
	}

	// -- Server --
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8081 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}

	// -- Storage --
	if cfg.Storage.SQLitePath != "/tmp/stockdash/prices.db" {
		t.Errorf("Storage.SQLitePath = %q", cfg.Storage.SQLitePath)
	}
	if cfg.Storage.Source != "/tmp/stockdash/prices.csv" {
		t.Errorf("Storage.Source = %q", cfg.Storage.Source)
	}

	// -- Alpaca / Gather --
	if cfg.Alpaca.APIKey != "test-key" || cfg.Alpaca.Feed != "iex" {
		t.Errorf("Alpaca = %+v", cfg.Alpaca)
	}
	if len(cfg.Gather.Symbols) != 2 || cfg.Gather.Schedule != "30 18 * * 1-5" {
		t.Errorf("Gather = %+v", cfg.Gather)
	}
	// Unset keys keep their defaults.
	if cfg.Gather.MaxAttempts != 3 {
		t.Errorf("Gather.MaxAttempts = %d, want default 3", cfg.Gather.MaxAttempts)
	}

	// -- Logging --
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Client.BaseURL != DefaultBaseURL {
		t.Errorf("Client.BaseURL = %q, want %q", cfg.Client.BaseURL, DefaultBaseURL)
	}
	if cfg.Client.PageLimit != 100 {
		t.Errorf("Client.PageLimit = %d, want 100", cfg.Client.PageLimit)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "client: [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail on malformed YAML")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
client:
  base_url: "http://yaml-host/api/stocks"
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	t.Setenv("STOCKDASH_API_BASE_URL", "http://env-host:8000/api/stocks/")
	t.Setenv("STOCKDASH_PAGE_LIMIT", "500")
	t.Setenv("ALPACA_API_KEY", "env-key")
	t.Setenv("DATA_DIR", "/env/data")
	t.Setenv("STOCKDASH_STORAGE_BACKEND", "parquet")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Client.BaseURL != "http://env-host:8000/api/stocks" {
		t.Errorf("Client.BaseURL = %q, want trailing slash trimmed env value", cfg.Client.BaseURL)
	}
	if cfg.Client.PageLimit != 500 {
		t.Errorf("Client.PageLimit = %d, want 500", cfg.Client.PageLimit)
	}
	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
	if cfg.Storage.Backend != "parquet" {
		t.Errorf("Storage.Backend = %q, want parquet", cfg.Storage.Backend)
	}

	// Canonical Alpaca names win over the short ones.
	t.Setenv("APCA_API_KEY_ID", "canonical-key")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Alpaca.APIKey != "canonical-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "canonical-key")
	}
}

func TestPath(t *testing.T) {
	t.Setenv("STOCKDASH_CONFIG", "")
	if got := Path(); got != "config/stockdash.yaml" {
		t.Errorf("Path() = %q", got)
	}
	t.Setenv("STOCKDASH_CONFIG", "/etc/stockdash.yaml")
	if got := Path(); got != "/etc/stockdash.yaml" {
		t.Errorf("Path() = %q", got)
	}
}
