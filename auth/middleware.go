package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/warp/solution-configurator/logger"
)

// Middleware guards HTTP handlers. A nil Authenticator means auth is
// disabled and every request runs as Anonymous.
type Middleware struct {
	auth *Authenticator
	log  *logger.Logger
}

// NewMiddleware creates the middleware.
func NewMiddleware(a *Authenticator, log *logger.Logger) *Middleware {
	if log == nil {
		log = logger.Nop()
	}
	return &Middleware{auth: a, log: log.With("middleware", "auth")}
}

// RequireAuth rejects requests without a valid bearer token with 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.auth == nil {
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), Anonymous)))
			return
		}

		token := bearerToken(r)
		if token == "" {
			deny(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		id, err := m.auth.Parse(token)
		if err != nil {
			m.log.Debug("token rejected", "error", err, "path", r.URL.Path)
			deny(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin rejects callers without the admin role with 403. It must
// run after RequireAuth.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !id.Roles.IsAdmin {
			m.log.Info("admin role required", "subject", id.Subject, "path", r.URL.Path)
			deny(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
