package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "./taskmanager.db", cfg.DatabasePath)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 1200*time.Millisecond, cfg.RegisterRedirectDelay)
	assert.Equal(t, 6, cfg.MinPasswordLength)
	assert.Equal(t, ScopeAll, cfg.TaskListScope)
	assert.Equal(t, BackendSQLite, cfg.SessionBackend)
	assert.False(t, cfg.TaskCreateEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("TASK_LIST_SCOPE", "Owner")
	t.Setenv("TASK_CREATE_ENABLED", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, ScopeOwner, cfg.TaskListScope)
	assert.True(t, cfg.TaskCreateEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: 7070\ndatabase_path: /tmp/tasks.db\nmin_password_length: 8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "/tmp/tasks.db", cfg.DatabasePath)
	assert.Equal(t, 8, cfg.MinPasswordLength)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load("")
	assert.ErrorContains(t, err, "jwt_secret")

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ServerPort:           8080,
			DatabasePath:         "x.db",
			JWTSecret:            "s",
			SessionTTL:           time.Hour,
			MinPasswordLength:    6,
			TaskListScope:        ScopeAll,
			SessionBackend:       BackendSQLite,
			SessionSweepSchedule: "@every 1m",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.ServerPort = 0 }},
		{"empty db path", func(c *Config) { c.DatabasePath = "" }},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"password length", func(c *Config) { c.MinPasswordLength = 0 }},
		{"scope", func(c *Config) { c.TaskListScope = "mine" }},
		{"backend", func(c *Config) { c.SessionBackend = "memcached" }},
		{"schedule", func(c *Config) { c.SessionSweepSchedule = "every minute" }},
	}

	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
