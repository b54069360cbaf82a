package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/fresh-start/internal/records"
)

// CookieName is the HttpOnly cookie holding the session token.
const CookieName = "token"

// contextKey is an unexported type used for context keys in this package,
// so no other package can read or shadow the values we store.
type contextKey string

const userIDKey contextKey = "userID"

var errNoToken = errors.New("auth: no token")

// RequireAuth enforces a valid session token on protected routes.
//
// It reads the JWT from the "token" cookie or an "Authorization: Bearer"
// header, validates it, and stores the user id and the session id in the
// request context. Missing or invalid tokens get 401 and stop the chain.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"select a profile first"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth extracts the identity when a valid token is present but never
// blocks the request. Without one the request runs with no user selected,
// which the record store answers with defaults.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := extractIdentity(r, tokens); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin lets the request through only when isAdmin approves the user
// already placed in the context by RequireAuth.
func RequireAdmin(isAdmin func(ctx context.Context, userID string) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			ok, err := isAdmin(r.Context(), userID)
			if err != nil || !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","message":"administrator profile required"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores id in ctx: the user id for handlers and the session id
// for the record store's activity log.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, userIDKey, id.UserID)
	if id.SessionID != "" {
		ctx = records.WithSessionID(ctx, id.SessionID)
	}
	return ctx
}

// UserIDFromContext returns the authenticated user id, or ("", false) when
// the request carries no valid token.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractIdentity reads the token from the cookie, falling back to the
// Authorization header, and validates it.
func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return tokens.Validate(cookie.Value)
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return tokens.Validate(strings.TrimPrefix(h, "Bearer "))
	}
	return Identity{}, errNoToken
}
