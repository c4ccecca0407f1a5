package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/pkg/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.DBConfig{
		Host: "127.0.0.1", Port: 5432, User: "u", Password: "p", DBName: "lic", SSLMode: "disable",
		MaxConns: 10, MinConns: 3,
	}
	pc, err := poolConfig(cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 10, pc.MaxConns)
	assert.EqualValues(t, 3, pc.MinConns)
	assert.Equal(t, "lic", pc.ConnConfig.Database)
	assert.NotNil(t, pc.AfterConnect)
}

func TestPoolConfig_MinMayorQueMaxSeIgnora(t *testing.T) {
	pc, err := poolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@127.0.0.1:5432/lic", MaxConns: 2, MinConns: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 2, pc.MaxConns)
	assert.Zero(t, pc.MinConns)
}

func TestPoolConfig_DSNInvalido(t *testing.T) {
	_, err := poolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@host:5432/%zz"})
	assert.Error(t, err)
}

func TestLookupIPv4(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "10.0.0.1", lookupIPv4(ctx, "10.0.0.1"))
	assert.Empty(t, lookupIPv4(ctx, "::1"))
}
