package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tcmclinic/telemed/pkg/config"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Claims is the bearer token payload.
type Claims struct {
	Role types.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewTokenManager creates a token manager from JWT configuration.
func NewTokenManager(cfg *config.JWTConfig) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		expiration: time.Duration(cfg.Expiration) * time.Second,
		issuer:     cfg.Issuer,
	}
}

// Issue signs a new token for the given user.
func (tm *TokenManager) Issue(userID string, role types.UserRole) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", types.NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
func (tm *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, types.NewUnauthorizedError("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, types.NewUnauthorizedError("invalid or expired token")
	}
	return claims, nil
}

// Remaining returns the unexpired lifetime of the claims, or zero if the
// token has already lapsed.
func (c *Claims) Remaining() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
