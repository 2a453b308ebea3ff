package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	SourceJSON     = "json"
	SourcePostgres = "postgres"
)

var ErrUnknownSource = errors.New("unknown dataset source")

type Config struct {
	DSN      string         `toml:"dsn"`
	Server   ServerConfig   `toml:"server"`
	Dataset  DatasetConfig  `toml:"dataset"`
	Security SecurityConfig `toml:"security"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Addr        string `toml:"addr"`
	PerPage     int    `toml:"per_page"`
	MaxQueryLen int    `toml:"max_query_len"`
	Timezone    string `toml:"timezone"`
}

type DatasetConfig struct {
	Source          string `toml:"source"`
	File            string `toml:"file"`
	Watch           bool   `toml:"watch"`
	RefreshInterval string `toml:"refresh_interval"`
}

type SecurityConfig struct {
	CSRFKey      string `toml:"csrf_key"`
	CookieName   string `toml:"cookie_name"`
	CookieSecure bool   `toml:"cookie_secure"`
	TokenTTL     string `toml:"token_ttl"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.PerPage = 20
	cfg.Server.MaxQueryLen = 100
	cfg.Server.Timezone = "Local"
	cfg.Dataset.Source = SourceJSON
	cfg.Dataset.File = "outputs.json"
	cfg.Dataset.Watch = true
	cfg.Dataset.RefreshInterval = "5m"
	cfg.Security.CookieName = "alisopan_session"
	cfg.Security.TokenTTL = "24h"
	cfg.Logging.Format = "text"
	cfg.Logging.Level = "info"
	return &cfg
}

// Load reads the TOML file at path on top of Default. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	err = toml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Dataset.Source {
	case SourceJSON, SourcePostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Dataset.Source)
	}

	if c.Dataset.Source == SourcePostgres && c.DSN == "" {
		return errors.New("dataset source postgres requires dsn")
	}

	if c.Server.PerPage <= 0 {
		c.Server.PerPage = 20
	}
	if c.Server.MaxQueryLen <= 0 {
		c.Server.MaxQueryLen = 100
	}
	return nil
}

func (c *ServerConfig) GetLocation() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC // Fallback
	}
	return loc
}

func (c *DatasetConfig) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute // Fallback
	}
	return d
}

func (c *SecurityConfig) GetTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour // Fallback
	}
	return d
}
