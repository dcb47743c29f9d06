package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/bibliojobs/sift/internal/dedup"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Engine tuning. The defaults match dedup.DefaultOptions.
	MatchThreshold float64 `envconfig:"SIFT_MATCH_THRESHOLD" default:"0.80"`
	MinSimilarity  float64 `envconfig:"SIFT_MIN_SIMILARITY" default:"0.30"`
	KNeighbors     int     `envconfig:"SIFT_K_NEIGHBORS" default:"10"`
	NgramMin       int     `envconfig:"SIFT_NGRAM_MIN" default:"1"`
	NgramMax       int     `envconfig:"SIFT_NGRAM_MAX" default:"2"`

	CSVDelimiter   string `envconfig:"SIFT_CSV_DELIMITER" default:"_§_"`
	PlateCachePath string `envconfig:"SIFT_PLATE_CACHE" default:"license_plate_cache.json"`
	PlateOffline   bool   `envconfig:"SIFT_PLATE_OFFLINE" default:"false"`

	// Optional run persistence. Leaving DATABASE_URL empty disables it.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMaxConns  int    `envconfig:"SIFT_DB_MAX_CONNS" default:"8"`

	// HTTP API.
	ListenAddr          string `envconfig:"SIFT_LISTEN_ADDR" default:":8080"`
	AdminUser           string `envconfig:"SIFT_ADMIN_USER" default:"admin"`
	AdminPasswordHash   string `envconfig:"SIFT_ADMIN_PASSWORD_HASH" default:""`
	SessionTTLHours     int    `envconfig:"SIFT_SESSION_TTL_HOURS" default:"168"`
	SessionCookieName   string `envconfig:"SIFT_SESSION_COOKIE_NAME" default:"sift_session"`
	SessionCookieSecure bool   `envconfig:"SIFT_SESSION_COOKIE_SECURE" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.EngineOptions().Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.CSVDelimiter) == "" {
		return fmt.Errorf("SIFT_CSV_DELIMITER must not be empty")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("SIFT_DB_MAX_CONNS must be >= 1")
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("SIFT_LISTEN_ADDR must not be empty")
	}
	if strings.TrimSpace(c.AdminUser) == "" {
		return fmt.Errorf("SIFT_ADMIN_USER is required")
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SIFT_SESSION_TTL_HOURS must be >= 1")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SIFT_SESSION_COOKIE_NAME is required")
	}
	return nil
}

// EngineOptions maps the tuning fields onto engine options. Range validation
// is the engine's job, the config only transports the values.
func (c *Config) EngineOptions() dedup.Options {
	return dedup.Options{
		KNeighbors:     c.KNeighbors,
		MinSimilarity:  c.MinSimilarity,
		MatchThreshold: c.MatchThreshold,
		NgramMin:       c.NgramMin,
		NgramMax:       c.NgramMax,
	}
}

// PersistenceEnabled reports whether a database was configured.
func (c *Config) PersistenceEnabled() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}
