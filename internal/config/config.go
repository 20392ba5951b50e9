// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Breaker    BreakerConfig    `mapstructure:"breaker"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// BreakerConfig carries per-dependency circuit breaker settings.
type BreakerConfig struct {
	Database DependencyBreakerConfig `mapstructure:"database"`
	Cache    DependencyBreakerConfig `mapstructure:"cache"`
}

type DependencyBreakerConfig struct {
	FailureThreshold       int `mapstructure:"failure_threshold"`
	RecoveryTimeoutSeconds int `mapstructure:"recovery_timeout_seconds"`
}

// RecoveryTimeout returns the configured cooldown as a duration.
func (c DependencyBreakerConfig) RecoveryTimeout() time.Duration {
	return time.Duration(c.RecoveryTimeoutSeconds) * time.Second
}

type MonitorConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

type MiddlewareConfig struct {
	RateLimit      int `mapstructure:"rate_limit"`
	RateLimitBurst int `mapstructure:"rate_limit_burst"`
	RequestTimeout int `mapstructure:"request_timeout"`
}

func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("app.name", "ueep-ha-system")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", EnvProduction)
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", 10)
	viper.SetDefault("server.write_timeout", 10)
	viper.SetDefault("database.host", "postgres")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.host", "redis")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("cache.ttl_seconds", 60)
	viper.SetDefault("breaker.database.failure_threshold", 5)
	viper.SetDefault("breaker.database.recovery_timeout_seconds", 30)
	viper.SetDefault("breaker.cache.failure_threshold", 5)
	viper.SetDefault("breaker.cache.recovery_timeout_seconds", 30)
	viper.SetDefault("monitor.interval_seconds", 15)
	viper.SetDefault("middleware.rate_limit", 100)
	viper.SetDefault("middleware.rate_limit_burst", 1000)
	viper.SetDefault("middleware.request_timeout", 30)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks the invariants the breakers and server depend on.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.App, validation.By(validateApp)),
		validation.Field(&c.Server, validation.By(validateServer)),
		validation.Field(&c.Breaker, validation.By(validateBreakers)),
		validation.Field(&c.Cache, validation.By(validateCache)),
	)
}

func validateApp(value interface{}) error {
	ac, ok := value.(AppConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be an AppConfig")
	}
	return validation.ValidateStruct(&ac,
		validation.Field(&ac.Name, validation.Required),
		validation.Field(&ac.Environment,
			validation.Required,
			validation.In(EnvDevelopment, EnvStaging, EnvProduction),
		),
	)
}

func validateServer(value interface{}) error {
	sc, ok := value.(ServerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a ServerConfig")
	}
	return validation.ValidateStruct(&sc,
		validation.Field(&sc.Port, validation.Required),
		validation.Field(&sc.ReadTimeout, validation.Min(1)),
		validation.Field(&sc.WriteTimeout, validation.Min(1)),
	)
}

func validateBreakers(value interface{}) error {
	bc, ok := value.(BreakerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a BreakerConfig")
	}
	for name, dep := range map[string]DependencyBreakerConfig{
		"database": bc.Database,
		"cache":    bc.Cache,
	} {
		if dep.FailureThreshold < 1 {
			return validation.NewError("validation_breaker_threshold",
				fmt.Sprintf("breaker %s: failure_threshold must be at least 1", name))
		}
		if dep.RecoveryTimeoutSeconds < 1 {
			return validation.NewError("validation_breaker_timeout",
				fmt.Sprintf("breaker %s: recovery_timeout_seconds must be at least 1", name))
		}
	}
	return nil
}

func validateCache(value interface{}) error {
	cc, ok := value.(CacheConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a CacheConfig")
	}
	return validation.ValidateStruct(&cc,
		validation.Field(&cc.TTLSeconds, validation.Min(1)),
	)
}

// TTL returns the cache expiry as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// GetDSN returns PostgreSQL connection string.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}
