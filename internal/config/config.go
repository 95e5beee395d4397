package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/simonvc/moneymanager/internal/ledger"
)

type Config struct {
	// Storage
	DBPath string

	// HTTP
	Addr      string
	ServerURL string

	// Ledger
	TimeZone string
	Currency string
	Seed     bool

	LogLevel string
}

// Load reads the configuration from the environment, after loading a .env
// file from the working directory if there is one.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBPath:    getEnv("MONEYMANAGER_DB", "moneymanager.db"),
		Addr:      getEnv("MONEYMANAGER_ADDR", ":8888"),
		ServerURL: getEnv("MONEYMANAGER_SERVER", "http://localhost:8888"),
		TimeZone:  getEnv("MONEYMANAGER_TZ", "Local"),
		Currency:  strings.ToUpper(getEnv("MONEYMANAGER_CURRENCY", ledger.DefaultCurrency)),
		Seed:      getEnvBool("MONEYMANAGER_SEED", true),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

// Location resolves TimeZone. Validate reports an unknown zone; here it
// falls back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	} else if dir := filepath.Dir(c.DBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	}

	if _, port, err := net.SplitHostPort(c.Addr); err != nil {
		errors = append(errors, fmt.Sprintf("invalid listen address '%s': %v", c.Addr, err))
	} else if p, err := strconv.Atoi(port); err != nil || p < 0 || p > 65535 {
		errors = append(errors, fmt.Sprintf("invalid listen port '%s': must be between 0 and 65535", port))
	}

	if u, err := url.Parse(c.ServerURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid server URL '%s': %v", c.ServerURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid server URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errors = append(errors, fmt.Sprintf("unknown time zone '%s'", c.TimeZone))
	}

	if !ledger.ValidCurrency(c.Currency) {
		errors = append(errors, fmt.Sprintf("unsupported currency '%s': must be one of %v", c.Currency, ledger.CurrencyCodes()))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
