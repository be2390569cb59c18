package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/questbase/api/internal/response"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "questbase_session"

// contextKey is an unexported type for context keys in this package.
type contextKey string

// UserIDKey is the context key for the authenticated user's ID.
const UserIDKey contextKey = "userID"

// UserRoleKey is the context key for the authenticated user's role.
const UserRoleKey contextKey = "userRole"

// RequireSession returns middleware that validates the session token from the
// session cookie (or a Bearer header) and injects the user's claims into the
// request context.
func RequireSession(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := sessionToken(r)
			if raw == "" {
				response.Unauthorized(w, "authentication required")
				return
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				response.Unauthorized(w, "invalid or expired session")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				response.Unauthorized(w, "invalid session claims")
				return
			}

			userID, _ := claims["sub"].(string)
			if userID == "" {
				response.Unauthorized(w, "invalid session claims")
				return
			}
			role, _ := claims["role"].(string)

			ctx := WithUser(r.Context(), userID, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a context carrying an authenticated user.
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRoleKey, role)
}

// UserID returns the authenticated user's ID, or "" outside RequireSession.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && scheme == "Bearer" {
		return token
	}
	return ""
}
