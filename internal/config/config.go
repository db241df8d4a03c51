package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "dev_secret_change_me"

// Task list scopes.
const (
	ScopeAll   = "all"
	ScopeOwner = "owner"
)

// Session registry backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	ServerPort            int           `mapstructure:"port"`
	DatabasePath          string        `mapstructure:"database_path"`
	AppEnv                string        `mapstructure:"app_env"`
	LogLevel              string        `mapstructure:"log_level"`
	JWTSecret             string        `mapstructure:"jwt_secret"`
	SessionTTL            time.Duration `mapstructure:"session_ttl"`
	SessionBackend        string        `mapstructure:"session_backend"`
	SessionSweepSchedule  string        `mapstructure:"session_sweep_schedule"`
	RedisAddr             string        `mapstructure:"redis_addr"`
	RedisPassword         string        `mapstructure:"redis_password"`
	MinPasswordLength     int           `mapstructure:"min_password_length"`
	BcryptCost            int           `mapstructure:"bcrypt_cost"`
	RegisterRedirectDelay time.Duration `mapstructure:"register_redirect_delay"`
	TaskListScope         string        `mapstructure:"task_list_scope"`
	TaskCreateEnabled     bool          `mapstructure:"task_create_enabled"`
	AllowedOrigins        []string      `mapstructure:"allowed_origins"`
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("database_path", "./taskmanager.db")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("session_backend", BackendSQLite)
	v.SetDefault("session_sweep_schedule", "@every 1m")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("min_password_length", 6)
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("register_redirect_delay", 1200*time.Millisecond)
	v.SetDefault("task_list_scope", ScopeAll)
	v.SetDefault("task_create_enabled", false)
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
}

// Load reads configuration from defaults, an optional config file and
// environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.TaskListScope = strings.ToLower(strings.TrimSpace(cfg.TaskListScope))
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid port %d", c.ServerPort)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret must not be empty")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("jwt_secret must be set in production")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.MinPasswordLength < 1 {
		return fmt.Errorf("min_password_length must be at least 1")
	}
	switch c.TaskListScope {
	case ScopeAll, ScopeOwner:
	default:
		return fmt.Errorf("unknown task_list_scope %q", c.TaskListScope)
	}
	switch c.SessionBackend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown session_backend %q", c.SessionBackend)
	}
	if _, err := cron.ParseStandard(c.SessionSweepSchedule); err != nil {
		return fmt.Errorf("invalid session_sweep_schedule: %w", err)
	}
	return nil
}
