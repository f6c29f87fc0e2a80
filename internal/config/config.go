package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
	Port     string `mapstructure:"PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	OrganizationID string `mapstructure:"ORGANIZATION_ID"`
	SiteID         string `mapstructure:"SITE_ID"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`

	ImportConcurrency int           `mapstructure:"IMPORT_CONCURRENCY"`
	PreviewRows       int           `mapstructure:"PREVIEW_ROWS"`
	CreateTimeout     time.Duration `mapstructure:"CREATE_TIMEOUT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("IMPORT_CONCURRENCY", 1)
	v.SetDefault("PREVIEW_ROWS", 10)
	v.SetDefault("CREATE_TIMEOUT", "0s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "LOG_FILE", "PORT",
		"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"ORGANIZATION_ID", "SITE_ID", "JWT_SECRET",
		"IMPORT_CONCURRENCY", "PREVIEW_ROWS", "CREATE_TIMEOUT",
	} {
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks values that would otherwise fail deep inside an import.
func (c *Config) Validate() error {
	if c.OrganizationID != "" {
		if _, err := uuid.Parse(c.OrganizationID); err != nil {
			return fmt.Errorf("ORGANIZATION_ID is not a valid UUID: %w", err)
		}
	}
	if c.SiteID != "" {
		if _, err := uuid.Parse(c.SiteID); err != nil {
			return fmt.Errorf("SITE_ID is not a valid UUID: %w", err)
		}
	}
	if c.ImportConcurrency < 1 {
		return fmt.Errorf("IMPORT_CONCURRENCY must be at least 1, got %d", c.ImportConcurrency)
	}
	if c.PreviewRows < 1 {
		return fmt.Errorf("PREVIEW_ROWS must be at least 1, got %d", c.PreviewRows)
	}
	if c.CreateTimeout < 0 {
		return fmt.Errorf("CREATE_TIMEOUT must not be negative, got %s", c.CreateTimeout)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}

// Organization returns the configured organization, or uuid.Nil when unset.
// Call Validate first.
func (c *Config) Organization() uuid.UUID {
	id, err := uuid.Parse(c.OrganizationID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Site returns the configured site, or nil when unset.
func (c *Config) Site() *uuid.UUID {
	if c.SiteID == "" {
		return nil
	}
	id, err := uuid.Parse(c.SiteID)
	if err != nil {
		return nil
	}
	return &id
}
