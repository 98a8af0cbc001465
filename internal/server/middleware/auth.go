package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/portcullisgw/portcullis/internal/metrics"
	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/service"
)

type contextKeyAuth string

// AuthPrincipalKey is the context key for the authenticated principal.
const AuthPrincipalKey contextKeyAuth = "auth_principal"

// Principal represents the authenticated identity making the request. Proxy
// callers carry only a role; management sessions also carry the admin
// identity.
type Principal struct {
	Role    model.Role
	Via     string // "api_key" or "jwt"
	AdminID int64
	Email   string
}

// RequireAPIKey returns the authentication middleware for the proxy surface.
// It resolves the configured API key header to a role and attaches a
// Principal to the request context. Requests without a key or with a key
// that does not verify get a 401; credentials are never echoed back.
func RequireAPIKey(authSvc *service.AuthService, header string, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get(header)
			if rawKey == "" {
				m.AuthFailures.WithLabelValues("missing").Inc()
				writeAuthError(w, http.StatusUnauthorized, "API key required. Provide the "+header+" header.")
				return
			}

			p, err := authSvc.Authenticate(r.Context(), rawKey)
			if err != nil {
				if errors.Is(err, service.ErrInvalidKey) || errors.Is(err, service.ErrMissingKey) {
					m.AuthFailures.WithLabelValues("invalid").Inc()
					writeAuthError(w, http.StatusUnauthorized, "Invalid API key")
					return
				}
				// Store outage, not a credential problem.
				m.AuthFailures.WithLabelValues("error").Inc()
				writeAuthError(w, http.StatusServiceUnavailable, "Authentication is temporarily unavailable")
				return
			}

			ctx := withPrincipal(r.Context(), &Principal{Role: p.Role, Via: "api_key"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate returns the authentication middleware for the management
// surface. It accepts either an admin session JWT via the Authorization
// header or an API key via the configured header; API key principals keep
// their stored role, JWT principals are admins by construction.
func Authenticate(authSvc *service.AuthService, header string, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var principal *Principal

			if rawKey := r.Header.Get(header); rawKey != "" {
				p, err := authSvc.Authenticate(r.Context(), rawKey)
				if err != nil {
					m.AuthFailures.WithLabelValues("invalid").Inc()
					writeAuthError(w, http.StatusUnauthorized, "Invalid API key")
					return
				}
				principal = &Principal{Role: p.Role, Via: "api_key"}
			}

			if principal == nil {
				if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
					token := strings.TrimPrefix(authHeader, "Bearer ")
					ap, err := authSvc.ValidateJWT(r.Context(), token)
					if err != nil {
						m.AuthFailures.WithLabelValues("invalid").Inc()
						writeAuthError(w, http.StatusUnauthorized, "Invalid token")
						return
					}
					principal = &Principal{
						Role:    model.RoleAdmin,
						Via:     "jwt",
						AdminID: ap.AdminID,
						Email:   ap.Email,
					}
				}
			}

			if principal == nil {
				m.AuthFailures.WithLabelValues("missing").Inc()
				writeAuthError(w, http.StatusUnauthorized,
					"Authentication required. Provide the "+header+" header or a Bearer token.")
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin enforces admin-level access on the management surface. It
// must run after Authenticate in the middleware chain.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil || principal.Role != model.RoleAdmin {
				writeAuthError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, AuthPrincipalKey, p)
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message},
	})
}
