package middleware

import (
	"net/http"
	"strings"

	"payflow/internal/domain/auth"
)

// Auth parses the bearer token when present. Missing or invalid tokens
// leave the request anonymous; route guards decide whether that is fatal.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUser(r.Context(), auth.UserContext{
				UserID:       claims.UserID,
				CompanyID:    claims.CompanyID,
				Role:         claims.Role,
				OriginalRole: claims.OriginalRole,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
