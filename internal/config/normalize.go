package config

import "strings"

const (
	defaultPort         = 2333
	defaultRedisURL     = "redis://localhost:6379/0"
	defaultTickMS       = 1000
	defaultQueryCacheMS = 100
)

// normalize fills defaults and resolves the effective DSN.
func normalize(cfg *AppConfig) {
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	cfg.Env = strings.TrimSpace(strings.ToLower(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		cfg.RedisURL = defaultRedisURL
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		cfg.DSN = buildDSN(&cfg.Database)
	}
	if cfg.Stream.TickMS <= 0 {
		cfg.Stream.TickMS = defaultTickMS
	}
	if cfg.Stream.QueryCacheMS <= 0 {
		cfg.Stream.QueryCacheMS = defaultQueryCacheMS
	}

	origins := cfg.AllowedOrigins[:0]
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	cfg.AllowedOrigins = origins
}
