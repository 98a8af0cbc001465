package handler

import (
	"net/http"

	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/server/middleware"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

// StatusHandler serves the authenticated access probe and the upstream
// connectivity check.
type StatusHandler struct {
	tufin tufin.Client
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(client tufin.Client) *StatusHandler {
	return &StatusHandler{tufin: client}
}

// Secure confirms the caller's credentials cleared authentication and
// authorization. Useful as an integration smoke check; it never touches the
// upstream.
// GET /api/v1/secure
func (h *StatusHandler) Secure(w http.ResponseWriter, r *http.Request) {
	role := ""
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		role = string(p.Role)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Access granted",
		"role":    role,
	})
}

// TufinStatus probes SecureTrack by listing domains and reports the
// connection state.
// GET /api/v1/tufin/status
func (h *StatusHandler) TufinStatus(w http.ResponseWriter, r *http.Request) {
	domains, err := h.tufin.ListDomains(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ConnectionStatus{
		Status:  "connected",
		Domains: len(domains.Domains.Domain),
	})
}
