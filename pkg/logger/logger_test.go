package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponent_AgregaCampo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Config{Env: "production", Level: "info"})

	zl := l.Component("sweeper")
	zl.Info().Int("closed", 2).Msg("licitaciones cerradas")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sweeper", entry["component"])
	assert.Equal(t, "licitaciones cerradas", entry["message"])
	assert.EqualValues(t, 2, entry["closed"])
}

func TestNivel_FiltraDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Config{Level: "warn"})

	l.Info().Msg("no se escribe")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("se escribe")
	assert.NotZero(t, buf.Len())
}
