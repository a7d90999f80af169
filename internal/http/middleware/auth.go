package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rogerio-castellano/product-management/internal/apperr"
	"github.com/rogerio-castellano/product-management/internal/auth"
	"github.com/rogerio-castellano/product-management/internal/http/respond"
)

type principalKey struct{}

// Principal is the verified identity behind a bearer token.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Roles    []string
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Caller returns the authenticated username, or "" for anonymous requests.
func Caller(r *http.Request) string {
	p, _ := PrincipalFromContext(r.Context())
	return p.Username
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respond.Error(w, r, apperr.Unauthorized("missing or invalid token"))
				return
			}

			claims, err := issuer.Parse(header)
			if err != nil {
				respond.Error(w, r, apperr.Unauthorized("invalid token"))
				return
			}
			id, _ := claims.UserID()

			ctx := WithPrincipal(r.Context(), Principal{UserID: id, Username: claims.Username, Roles: claims.Roles})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after Authenticate.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				respond.Error(w, r, apperr.Unauthorized("authentication required"))
				return
			}
			if !p.HasRole(role) {
				respond.Error(w, r, apperr.Forbidden("administrator role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
