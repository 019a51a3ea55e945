package middleware

import (
	"context"
	"net/http"
	"strings"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/services"
)

// ContextKey is a type for context keys
type ContextKey string

// ContextKeyClaims is the context key for verified token claims
const ContextKeyClaims ContextKey = "claims"

// TokenVerifier validates a bearer token. *services.AuthService implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*services.Claims, error)
}

// Authenticate returns middleware that requires a valid bearer token and
// stores its claims in the request context
func Authenticate(v TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for OPTIONS requests (CORS preflight)
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized", "No token provided")
				return
			}

			claims, err := v.Verify(r.Context(), raw)
			if err != nil {
				e := apperr.As(err, "Invalid token")
				writeError(w, http.StatusUnauthorized, "Unauthorized", e.Message)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthForWrites gates every method except GET, HEAD and OPTIONS
// behind Authenticate. Reads stay public.
func RequireAuthForWrites(v TokenVerifier) func(next http.Handler) http.Handler {
	auth := Authenticate(v)
	return func(next http.Handler) http.Handler {
		gated := auth(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				gated.ServeHTTP(w, r)
			}
		})
	}
}

// ClaimsFromContext returns the claims stored by Authenticate
func ClaimsFromContext(ctx context.Context) (*services.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*services.Claims)
	return claims, ok && claims != nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
