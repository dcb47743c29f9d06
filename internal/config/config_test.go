package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Environment:       "local",
		LogLevel:          "info",
		MatchThreshold:    0.80,
		MinSimilarity:     0.30,
		KNeighbors:        10,
		NgramMin:          1,
		NgramMax:          2,
		CSVDelimiter:      "_§_",
		PlateCachePath:    "license_plate_cache.json",
		DBMaxConns:        8,
		ListenAddr:        ":8080",
		AdminUser:         "admin",
		SessionTTLHours:   168,
		SessionCookieName: "sift_session",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.MatchThreshold = 1.5 },
			wantSub: "threshold",
		},
		{
			name:    "empty delimiter",
			mutate:  func(c *Config) { c.CSVDelimiter = " " },
			wantSub: "SIFT_CSV_DELIMITER",
		},
		{
			name:    "db conns",
			mutate:  func(c *Config) { c.DBMaxConns = 0 },
			wantSub: "SIFT_DB_MAX_CONNS",
		},
		{
			name:    "empty listen addr",
			mutate:  func(c *Config) { c.ListenAddr = "" },
			wantSub: "SIFT_LISTEN_ADDR",
		},
		{
			name:    "session ttl",
			mutate:  func(c *Config) { c.SessionTTLHours = 0 },
			wantSub: "SIFT_SESSION_TTL_HOURS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestEngineOptionsMapping(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.MatchThreshold = 0.9
	cfg.KNeighbors = 5

	opts := cfg.EngineOptions()
	if opts.MatchThreshold != 0.9 || opts.KNeighbors != 5 {
		t.Fatalf("unexpected mapping: %+v", opts)
	}
}

func TestPersistenceEnabled(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if cfg.PersistenceEnabled() {
		t.Fatalf("empty DATABASE_URL must disable persistence")
	}
	cfg.DatabaseURL = "postgres://localhost/sift"
	if !cfg.PersistenceEnabled() {
		t.Fatalf("expected persistence enabled")
	}
}
