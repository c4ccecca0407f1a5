package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "licitaciones-api", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, time.Minute, cfg.Sweeper.Interval)
	assert.Equal(t, 5*time.Minute, cfg.SMS.CodeTTL)
	assert.True(t, cfg.DB.Migrate)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 25, cfg.DB.MaxConns)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("LOGIN_CODE_TTL", "120")
	t.Setenv("DB_MIGRATE", "false")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.Sweeper.Interval)
	assert.Equal(t, 2*time.Minute, cfg.SMS.CodeTTL)
	assert.False(t, cfg.DB.Migrate)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_IntervaloInvalido(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "-5s")
	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "lic", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/lic?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
