package middleware

import (
	"net/http"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/metrics"
)

// RequirePermission enforces that the authenticated principal's role holds
// the given permission. It must run after an authentication middleware; a
// missing principal is a 401, a role without the permission is a 403. The
// check never reaches upstream: denial short-circuits before any proxying.
func RequirePermission(az *authz.Authorizer, perm authz.Permission, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !az.Authorize(principal.Role, perm) {
				m.AuthzDenials.WithLabelValues(string(perm)).Inc()
				writeAuthError(w, http.StatusForbidden, "Role "+string(principal.Role)+" is not permitted to "+string(perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
