package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tychoorderbook/pkg/crypto"
)

// Auth gates mutating operator endpoints (watch/unwatch a pair) behind a
// single static bearer token, hashed at rest with bcrypt via pkg/crypto —
// replacing the teacher's never-finished JWT auth stub with something
// that fits a single-operator service rather than a multi-user one.
func Auth(tokenHash string, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				log.Warn("auth middleware active with no operator token configured; rejecting all requests")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			if !crypto.CheckPasswordMatch(token, tokenHash) {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
