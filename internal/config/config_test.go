package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig(t *testing.T) Config {
	return Config{
		DBPath:    filepath.Join(t.TempDir(), "ledger.db"),
		Addr:      ":8888",
		ServerURL: "http://localhost:8888",
		TimeZone:  "UTC",
		Currency:  "CNY",
		Seed:      true,
		LogLevel:  "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name:   "host and port",
			modify: func(c *Config) { c.Addr = "127.0.0.1:9000" },
		},
		{
			name:        "missing port",
			modify:      func(c *Config) { c.Addr = "localhost" },
			wantErr:     true,
			errorString: "invalid listen address 'localhost'",
		},
		{
			name:        "port out of range",
			modify:      func(c *Config) { c.Addr = ":70000" },
			wantErr:     true,
			errorString: "invalid listen port '70000'",
		},
		{
			name:        "server url scheme",
			modify:      func(c *Config) { c.ServerURL = "ftp://example.com" },
			wantErr:     true,
			errorString: "invalid server URL scheme 'ftp'",
		},
		{
			name:        "unknown zone",
			modify:      func(c *Config) { c.TimeZone = "Mars/Olympus" },
			wantErr:     true,
			errorString: "unknown time zone 'Mars/Olympus'",
		},
		{
			name:        "unsupported currency",
			modify:      func(c *Config) { c.Currency = "XXX" },
			wantErr:     true,
			errorString: "unsupported currency 'XXX'",
		},
		{
			name:        "empty db path",
			modify:      func(c *Config) { c.DBPath = "" },
			wantErr:     true,
			errorString: "database path cannot be empty",
		},
		{
			name:        "bad log level",
			modify:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateCreatesDBDirectory(t *testing.T) {
	cfg := validConfig(t)
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg.DBPath = filepath.Join(dir, "ledger.db")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MONEYMANAGER_DB", "/tmp/books.db")
	t.Setenv("MONEYMANAGER_CURRENCY", "usd")
	t.Setenv("MONEYMANAGER_SEED", "false")
	t.Setenv("MONEYMANAGER_TZ", "Asia/Shanghai")
	t.Setenv("MONEYMANAGER_ADDR", "")
	t.Setenv("MONEYMANAGER_SERVER", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()
	if cfg.DBPath != "/tmp/books.db" || cfg.Currency != "USD" || cfg.Seed {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Addr != ":8888" || cfg.ServerURL != "http://localhost:8888" || cfg.LogLevel != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Location().String() != "Asia/Shanghai" {
		t.Errorf("Location() = %s", cfg.Location())
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MONEYMANAGER_CURRENCY", "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MONEYMANAGER_CURRENCY=EUR\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, even empty
	// ones, so clear it from the environment first.
	os.Unsetenv("MONEYMANAGER_CURRENCY")

	cfg := Load()
	t.Cleanup(func() { os.Unsetenv("MONEYMANAGER_CURRENCY") })
	if cfg.Currency != "EUR" {
		t.Fatalf("Currency = %q, want EUR from .env", cfg.Currency)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"0", true, false},
		{"true", false, true},
		{"nope", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("MM_TEST_BOOL", tt.value)
			if got := getEnvBool("MM_TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v", tt.value, tt.def, got)
			}
		})
	}
}
