package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the server looks for its YAML config.
const DefaultConfigPath = "config.yml"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	DSN            string         `yaml:"dsn"` // MySQL DSN, overrides database block
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	JWTSecret      string         `yaml:"jwt_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Timezone       string         `yaml:"timezone"`
	Stream         StreamConfig   `yaml:"stream"`
}

// DatabaseConfig assembles a DSN from structured fields when no raw DSN is set.
type DatabaseConfig struct {
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"`
	Charset  string            `yaml:"charset"`
	Loc      string            `yaml:"loc"`
	Params   map[string]string `yaml:"params"`
}

// StreamConfig tunes the active-session stream server.
type StreamConfig struct {
	TickMS       int `yaml:"tick_ms"`        // elapsed-time push interval
	QueryCacheMS int `yaml:"query_cache_ms"` // fresh-read collapse window
}

// IsDev reports whether the server runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }

// Load reads the YAML config at path. A missing file is not an error: the
// config then comes from env overrides and defaults alone.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	normalize(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("TRACKTIDE_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("TRACKTIDE_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("TRACKTIDE_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("TRACKTIDE_ENV"); v != "" {
		cfg.Env = v
	}
}
