// Package config loads server settings from defaults, a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rsned/blueprint-cost-server/internal/blueprint/catalog"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/engine"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/market"
)

type Config struct {
	DBPath          string       `yaml:"db_path"`
	HTTPAddr        string       `yaml:"http_addr"`
	LogLevel        string       `yaml:"log_level"`
	IconURLTemplate string       `yaml:"icon_url_template"`
	Market          MarketConfig `yaml:"market"`
}

type MarketConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	CacheSize   int           `yaml:"cache_size"`
	MaxAge      time.Duration `yaml:"max_age"`
	Concurrency int           `yaml:"concurrency"`
	// Offline serves prices from imported snapshots instead of the API.
	Offline bool `yaml:"offline"`
}

// UseSnapshots reports whether prices come from the database rather than
// the market API.
func (m MarketConfig) UseSnapshots() bool {
	return m.Offline || m.BaseURL == ""
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		DBPath:          "blueprints.db",
		LogLevel:        "info",
		IconURLTemplate: catalog.DefaultIconURLTemplate,
		Market: MarketConfig{
			Timeout:     market.DefaultTimeout,
			CacheTTL:    market.DefaultCacheTTL,
			CacheSize:   market.DefaultCacheSize,
			MaxAge:      7 * 24 * time.Hour,
			Concurrency: engine.DefaultConcurrency,
		},
	}
}

// LoadDotEnv loads KEY=value files into the process environment. Missing
// files are skipped and variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load returns the defaults overlaid with the YAML file at path (if any) and
// then with BP_* environment variables.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.DBPath = getEnv("BP_DB_PATH", c.DBPath)
	c.HTTPAddr = getEnv("BP_HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = getEnv("BP_LOG_LEVEL", c.LogLevel)
	c.IconURLTemplate = getEnv("BP_ICON_URL_TEMPLATE", c.IconURLTemplate)
	c.Market.BaseURL = getEnv("BP_MARKET_URL", c.Market.BaseURL)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"BP_MARKET_TIMEOUT", &c.Market.Timeout},
		{"BP_MARKET_CACHE_TTL", &c.Market.CacheTTL},
		{"BP_MARKET_MAX_AGE", &c.Market.MaxAge},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("BP_MARKET_OFFLINE"); v != "" {
		offline, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BP_MARKET_OFFLINE: %w", err)
		}
		c.Market.Offline = offline
	}
	return nil
}

// Validate checks settings that cannot be defaulted.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.Market.Concurrency < 1 {
		return fmt.Errorf("market.concurrency must be positive, got %d", c.Market.Concurrency)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel is the configured log level.
func (c Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
