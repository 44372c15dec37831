package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmclinic/telemed/pkg/config"
	"github.com/tcmclinic/telemed/pkg/types"
)

func testTokenManager(expirationSeconds int) *TokenManager {
	return NewTokenManager(&config.JWTConfig{
		Secret:     "test-secret-key",
		Expiration: expirationSeconds,
		Issuer:     "telemed-test",
	})
}

func TestIssueAndVerify(t *testing.T) {
	tm := testTokenManager(3600)

	token, err := tm.Issue("user-1", types.RoleDoctor)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, types.RoleDoctor, claims.Role)
	assert.Greater(t, claims.Remaining(), 59*time.Minute)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	tm := testTokenManager(-60)

	token, err := tm.Issue("user-1", types.RolePatient)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindUnauthorized, types.AsAppError(err).Kind)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	tm := testTokenManager(3600)
	other := NewTokenManager(&config.JWTConfig{Secret: "different-secret", Expiration: 3600})

	token, err := other.Issue("user-1", types.RoleAdmin)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tm := testTokenManager(3600)

	_, err := tm.Verify("not.a.token")
	assert.Error(t, err)
}
