package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	token, err := jwt.Generate("secreto", "u1", "secretary", "licitaciones-api", 5)
	require.NoError(t, err)

	userID, role, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "secretary", role)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := jwt.Generate("secreto", "u1", "admin", "x", 5)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otro", token)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	token, err := jwt.Generate("secreto", "u1", "admin", "x", -1)
	require.NoError(t, err)

	_, _, err = jwt.Parse("secreto", token)
	assert.Error(t, err)
}

func TestSecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "u1", "admin", "x", 5)
	assert.Error(t, err)
	_, _, err = jwt.Parse("", "abc")
	assert.Error(t, err)
}
