// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Club     ClubConfig     `mapstructure:"club"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig contains Redis cache connection settings.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// ClubConfig contains the loyalty club engine settings.
type ClubConfig struct {
	// Timezone is the fixed civil time zone every period boundary is
	// computed in, regardless of the caller's locale.
	Timezone string `mapstructure:"timezone"`
	// CooldownHours is the minimum gap between two redemptions by the
	// same user at the same merchant.
	CooldownHours int `mapstructure:"cooldown_hours"`
	// DefaultUnlockRadius is the fallback unlock radius in meters for
	// location-bound collectibles without one of their own.
	DefaultUnlockRadius float64 `mapstructure:"default_unlock_radius"`
	// EventUnlockRadius is the fallback radius for time-boxed event
	// check-ins.
	EventUnlockRadius float64 `mapstructure:"event_unlock_radius"`
	// CatalogPath points to the YAML reference-data seed file. Empty
	// disables seeding on startup.
	CatalogPath string `mapstructure:"catalog_path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/club-engine/")
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("club.timezone", "Europe/Rome")
	v.SetDefault("club.cooldown_hours", 24)
	v.SetDefault("club.default_unlock_radius", 100)
	v.SetDefault("club.event_unlock_radius", 50)
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 10)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", 300)
	v.SetDefault("database.redis.cache_ttl", 300)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Explicit bindings for 12-factor deployments.
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")

	_ = v.BindEnv("database.redis.enabled", "REDIS_ENABLED")
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.cache_ttl", "REDIS_CACHE_TTL")

	_ = v.BindEnv("club.timezone", "CLUB_TIMEZONE")
	_ = v.BindEnv("club.cooldown_hours", "CLUB_COOLDOWN_HOURS")
	_ = v.BindEnv("club.default_unlock_radius", "CLUB_DEFAULT_UNLOCK_RADIUS")
	_ = v.BindEnv("club.event_unlock_radius", "CLUB_EVENT_UNLOCK_RADIUS")
	_ = v.BindEnv("club.catalog_path", "CLUB_CATALOG_PATH")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Enabled && c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required when redis is enabled")
	}
	if c.Club.CooldownHours <= 0 {
		return fmt.Errorf("club.cooldown_hours must be positive")
	}
	if _, err := c.Club.GetLocation(); err != nil {
		return fmt.Errorf("club.timezone is invalid: %w", err)
	}
	return nil
}

// GetLocation returns the club's civil time zone location.
func (c *ClubConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Cooldown returns the redemption cooldown as a duration.
func (c *ClubConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}

// TTL returns the reference-data cache TTL as a duration.
func (c *RedisConfig) TTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}
