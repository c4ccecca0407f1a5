package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_SinEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "licitaciones-api", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_ConEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "licitaciones-api", "http://127.0.0.1:4318")
	require.NoError(t, err)
	// sin spans pendientes el cierre no contacta al colector
	assert.NoError(t, shutdown(context.Background()))
}
