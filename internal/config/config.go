package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for farmdesk.
type Config struct {
	// Root of the farm management REST API, without a trailing slash.
	APIURL string `env:"FARMDESK_API_URL" envDefault:"http://localhost:8000/api"`

	// Path to the bbolt state file. Defaults to ~/.farmdesk/state.db.
	StatePath string `env:"FARMDESK_STATE_PATH"`

	// Output format for records: table or yaml.
	Output string `env:"FARMDESK_OUTPUT" envDefault:"table"`

	// Default username offered at the login prompt.
	Username string `env:"FARMDESK_USERNAME"`

	// Environment controls log format
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Log level for diagnostics written to stderr.
	LogLevel string `env:"FARMDESK_LOG_LEVEL" envDefault:"warn"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing credentials to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if cfg.StatePath != "" {
		abs, err := filepath.Abs(cfg.StatePath)
		if err != nil {
			return nil, fmt.Errorf("resolving state path to absolute path: %w", err)
		}

		cfg.StatePath = abs
	}

	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("FARMDESK_API_URL is not a valid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("FARMDESK_API_URL must use http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("FARMDESK_API_URL has no host")
	}

	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("FARMDESK_API_URL must not contain a query or fragment")
	}

	switch c.Output {
	case "table", "yaml":
	default:
		return fmt.Errorf("FARMDESK_OUTPUT must be table or yaml, got %q", c.Output)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("FARMDESK_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// InsecureTransport reports whether the API is reached over plain HTTP
// to a host other than the local machine. Bearer tokens would cross the
// network in clear text.
func (c *Config) InsecureTransport() bool {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme != "http" {
		return false
	}

	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return false
	}

	return true
}
