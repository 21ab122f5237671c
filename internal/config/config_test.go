package config

import (
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &AppConfig{}
	normalize(cfg)

	if cfg.Port != defaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, defaultPort)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.RedisURL != defaultRedisURL {
		t.Errorf("RedisURL = %q, want %q", cfg.RedisURL, defaultRedisURL)
	}
	if cfg.Stream.TickMS != defaultTickMS {
		t.Errorf("Stream.TickMS = %d, want %d", cfg.Stream.TickMS, defaultTickMS)
	}
	if cfg.Stream.QueryCacheMS != defaultQueryCacheMS {
		t.Errorf("Stream.QueryCacheMS = %d, want %d", cfg.Stream.QueryCacheMS, defaultQueryCacheMS)
	}
	if cfg.DSN == "" {
		t.Error("DSN not assembled from defaults")
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	cfg := &AppConfig{
		Port:     8080,
		Env:      "Production",
		DSN:      "user@tcp(db:3306)/app?parseTime=True",
		RedisURL: "redis://cache:6379/1",
		Stream:   StreamConfig{TickMS: 500, QueryCacheMS: 50},
	}
	normalize(cfg)

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.IsDev() {
		t.Error("IsDev() = true for production env")
	}
	if cfg.DSN != "user@tcp(db:3306)/app?parseTime=True" {
		t.Errorf("DSN overwritten: %q", cfg.DSN)
	}
	if cfg.Stream.TickMS != 500 || cfg.Stream.QueryCacheMS != 50 {
		t.Errorf("Stream config overwritten: %+v", cfg.Stream)
	}
}

func TestNormalizeTrimsOrigins(t *testing.T) {
	cfg := &AppConfig{AllowedOrigins: []string{" example.com ", "", "*.app.example.com"}}
	normalize(cfg)

	want := []string{"example.com", "*.app.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		db   DatabaseConfig
		want []string // substrings that must appear
	}{
		{
			name: "defaults",
			db:   DatabaseConfig{},
			want: []string{"root@tcp(localhost:3306)/tracktide?", "charset=utf8mb4", "parseTime=True", "loc=Local"},
		},
		{
			name: "full",
			db: DatabaseConfig{
				Host: "db", Port: 3307, User: "track", Password: "s3cret", Name: "timers",
				Params: map[string]string{"timeout": "5s"},
			},
			want: []string{"track:s3cret@tcp(db:3307)/timers?", "timeout=5s"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildDSN(&tt.db)
			for _, sub := range tt.want {
				if !strings.Contains(got, sub) {
					t.Errorf("buildDSN() = %q, missing %q", got, sub)
				}
			}
		})
	}
}
