package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/imagevault/service/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// UserIDKey is the context key for the authenticated user's ID.
const UserIDKey contextKey = "userID"

// TenantIDKey is the context key for the authenticated user's tenant ID.
const TenantIDKey contextKey = "tenantID"

// RequireAuth returns middleware that validates a Bearer JWT and injects
// the (user, tenant) identity pair into the request context. Handlers
// downstream can rely on both claims being present.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				response.Unauthorized(w, "invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				response.Unauthorized(w, "invalid token claims")
				return
			}

			userID, _ := claims["sub"].(string)
			tenantID, _ := claims["tenantId"].(string)
			if userID == "" || tenantID == "" {
				response.Unauthorized(w, "token missing identity claims")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, TenantIDKey, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Identity extracts the authenticated (user, tenant) pair from the
// request context. ok is false when either claim is missing.
func Identity(ctx context.Context) (userID, tenantID string, ok bool) {
	userID, uok := ctx.Value(UserIDKey).(string)
	tenantID, tok := ctx.Value(TenantIDKey).(string)
	if !uok || !tok || userID == "" || tenantID == "" {
		return "", "", false
	}
	return userID, tenantID, true
}
