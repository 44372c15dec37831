package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/types"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*types.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*types.Principal)
	return principal, ok
}

// ContextWithPrincipal attaches a principal to the context. Used by the
// middleware and by tests.
func ContextWithPrincipal(ctx context.Context, principal *types.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", types.NewUnauthorizedError("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", types.NewUnauthorizedError("malformed authorization header")
	}
	return parts[1], nil
}

// Authenticate resolves the bearer token and places the principal in the
// request context. Requests without a valid token are rejected.
func (s *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			api.Error(w, err)
			return
		}

		principal, err := s.Resolve(r.Context(), token)
		if err != nil {
			api.Error(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireRole rejects authenticated requests whose principal lacks one of
// the allowed roles. Must run after Authenticate.
func RequireRole(roles ...types.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[types.UserRole]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				api.Error(w, types.NewUnauthorizedError("authentication required"))
				return
			}
			if !allowed[principal.Role] {
				api.Error(w, types.NewForbiddenError("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
