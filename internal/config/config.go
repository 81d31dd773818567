package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override (HEXBOARD_ADDR, ...).
const EnvPrefix = "HEXBOARD_"

type Config struct {
	Addr    string `yaml:"addr" env:"ADDR"`
	Origin  string `yaml:"origin" env:"ORIGIN"` // public origin used in share links
	DataDir string `yaml:"data_dir" env:"DATA_DIR"`

	Store StoreConfig `yaml:"store" envPrefix:"STORE_"`
	Share ShareConfig `yaml:"share" envPrefix:"SHARE_"`
	Log   LogConfig   `yaml:"log" envPrefix:"LOG_"`

	EnableNotifications bool `yaml:"enable_notifications" env:"ENABLE_NOTIFICATIONS"`
}

type StoreConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"` // sqlite, file, memory
}

type ShareConfig struct {
	Compress bool `yaml:"compress" env:"COMPRESS"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LEVEL"`
	Encoding string `yaml:"encoding" env:"ENCODING"` // json or console
}

func Defaults() Config {
	return Config{
		Addr:                ":8080",
		Origin:              "http://localhost:8080",
		DataDir:             "./data",
		Store:               StoreConfig{Backend: "sqlite"},
		Share:               ShareConfig{Compress: true},
		Log:                 LogConfig{Level: "info", Encoding: "json"},
		EnableNotifications: true,
	}
}

// Load reads a yaml file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("hexboard.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("hexboard.yaml: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays HEXBOARD_* environment variables. Unset variables leave
// the current values alone.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	c.Normalize()
	return c.Validate()
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.Addr = strings.TrimSpace(c.Addr)
	c.Origin = strings.TrimRight(strings.TrimSpace(c.Origin), "/")
	c.DataDir = strings.TrimSpace(c.DataDir)
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Log.Encoding = strings.ToLower(strings.TrimSpace(c.Log.Encoding))
	if c.Log.Encoding == "" {
		c.Log.Encoding = "json"
	}
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	u, err := url.Parse(c.Origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("origin %q must be an absolute http(s) url", c.Origin)
	}
	switch c.Store.Backend {
	case "sqlite", "file":
		if c.DataDir == "" {
			return fmt.Errorf("data_dir must not be empty for store backend %s", c.Store.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.Log.Level)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log encoding: %s", c.Log.Encoding)
	}
	return nil
}
