package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordEncoding(t *testing.T) {
	pm := NewPasswordManager()

	encoded, err := pm.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=3,p=2$"))
	assert.Len(t, strings.Split(encoded, "$"), 6)
}

func TestVerifyPassword(t *testing.T) {
	pm := NewPasswordManager()

	encoded, err := pm.HashPassword("secret123")
	require.NoError(t, err)

	ok, err := pm.VerifyPassword(encoded, "secret123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pm.VerifyPassword(encoded, "secret124")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	pm := NewPasswordManager()

	first, err := pm.HashPassword("secret123")
	require.NoError(t, err)
	second, err := pm.HashPassword("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordRejectsMalformedDigest(t *testing.T) {
	pm := NewPasswordManager()

	_, err := pm.VerifyPassword("not-a-digest", "secret123")
	assert.Error(t, err)

	_, err = pm.VerifyPassword("$bcrypt$whatever", "secret123")
	assert.Error(t, err)
}
