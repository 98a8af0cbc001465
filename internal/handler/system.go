package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/keystore"
	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/service"
)

// SystemHandler manages the gateway's own surface: admin sessions, admin
// accounts, API keys, and the read-only permission views.
type SystemHandler struct {
	authSvc   *service.AuthService
	admins    *service.AdminRegistry
	keys      keystore.Store
	table     authz.Table
	workflows authz.WorkflowTable
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(authSvc *service.AuthService, admins *service.AdminRegistry, keys keystore.Store, table authz.Table, workflows authz.WorkflowTable) *SystemHandler {
	return &SystemHandler{
		authSvc:   authSvc,
		admins:    admins,
		keys:      keys,
		table:     table,
		workflows: workflows,
	}
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// loginRequest is the expected payload for the Login endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the response payload for a successful login.
type loginResponse struct {
	Token     string `json:"session_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
	AdminID   int64  `json:"admin_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

// Login authenticates an admin and returns a JWT session token.
// POST /api/v1/system/admin/session
func (h *SystemHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	admin, err := h.admins.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown account and wrong password are indistinguishable on
		// purpose.
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.authSvc.IssueJWT(r.Context(), admin.ID, admin.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(h.authSvc.JWTExpiry().Seconds()),
		AdminID:   admin.ID,
		Email:     admin.Email,
		Name:      admin.Name,
	})
}

// Logout invalidates the current session. Since JWTs are stateless, this is
// a no-op on the server side. Clients should discard their token.
// DELETE /api/v1/system/admin/session
func (h *SystemHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session invalidated",
	})
}

// ---------------------------------------------------------------------------
// Admin management
// ---------------------------------------------------------------------------

// ListAdmins returns all admin accounts.
// GET /api/v1/system/admin
func (h *SystemHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins := h.admins.ListAdmins(r.Context())

	resources := make([]map[string]interface{}, 0, len(admins))
	for i := range admins {
		resources = append(resources, adminToMap(&admins[i]))
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: resources,
		Meta: &model.ResponseMeta{
			Count: len(resources),
		},
	})
}

// CreateAdmin creates a new admin account.
// POST /api/v1/system/admin
func (h *SystemHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if body.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if len(body.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	admin, err := h.admins.CreateAdmin(r.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateAdmin) {
			writeError(w, http.StatusConflict, "Admin with this email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create admin")
		return
	}

	writeJSON(w, http.StatusCreated, adminToMap(admin))
}

// ---------------------------------------------------------------------------
// API key management
// ---------------------------------------------------------------------------

// ListAPIKeys returns all API key records. Hashes are never included; the
// raw key was shown once at creation and cannot be recovered.
// GET /api/v1/system/api_key
func (h *SystemHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	resources := make([]map[string]interface{}, 0, len(keys))
	for i := range keys {
		resources = append(resources, apiKeyToMap(&keys[i]))
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: resources,
		Meta: &model.ResponseMeta{
			Count: len(resources),
		},
	})
}

// createAPIKeyRequest is the expected payload for CreateAPIKey.
type createAPIKeyRequest struct {
	Role  string `json:"role"`
	Label string `json:"label"`
}

// createAPIKeyResponse includes the plaintext key (shown once only).
type createAPIKeyResponse struct {
	ID        string `json:"id"`
	Key       string `json:"api_key"` // Plaintext, shown ONCE.
	KeyPrefix string `json:"key_prefix"`
	Role      string `json:"role"`
	Label     string `json:"label"`
}

// CreateAPIKey generates a new API key, stores its hash, and returns the
// plaintext key exactly once.
// POST /api/v1/system/api_key
func (h *SystemHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req createAPIKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plaintext, err := keystore.GenerateKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate key")
		return
	}

	id, err := h.keys.Insert(r.Context(), plaintext, role, req.Label)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save API key")
		return
	}

	writeJSON(w, http.StatusCreated, createAPIKeyResponse{
		ID:        id,
		Key:       plaintext,
		KeyPrefix: keystore.Prefix(plaintext),
		Role:      string(role),
		Label:     req.Label,
	})
}

// RevokeAPIKey deactivates an API key by record ID.
// DELETE /api/v1/system/api_key/{keyId}
func (h *SystemHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "keyId")

	if err := h.keys.Revoke(r.Context(), id); err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "API key not found: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to revoke API key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "API key revoked",
	})
}

// ---------------------------------------------------------------------------
// Permission views
// ---------------------------------------------------------------------------

// Permissions returns the permission table: every protected operation and
// the roles cleared for it. Read-only; the table is fixed at startup.
// GET /api/v1/system/permission
func (h *SystemHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	resources := make([]map[string]interface{}, 0, len(h.table))
	for _, perm := range authz.AllPermissions() {
		roles, ok := h.table[perm]
		if !ok {
			continue
		}
		resources = append(resources, map[string]interface{}{
			"permission": string(perm),
			"roles":      roles,
		})
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: resources,
		Meta: &model.ResponseMeta{
			Count: len(resources),
		},
	})
}

// Workflows returns the workflow clearance table for ticket creation.
// GET /api/v1/system/workflow
func (h *SystemHandler) Workflows(w http.ResponseWriter, r *http.Request) {
	resources := make([]map[string]interface{}, 0, len(h.workflows))
	for _, name := range h.workflows.Names() {
		resources = append(resources, map[string]interface{}{
			"workflow": name,
			"roles":    h.workflows[name],
		})
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: resources,
		Meta: &model.ResponseMeta{
			Count: len(resources),
		},
	})
}

// ---------------------------------------------------------------------------
// Serialization helpers (never expose password or key hashes)
// ---------------------------------------------------------------------------

func adminToMap(admin *model.Admin) map[string]interface{} {
	m := map[string]interface{}{
		"id":         admin.ID,
		"email":      admin.Email,
		"name":       admin.Name,
		"is_active":  admin.IsActive,
		"created_at": admin.CreatedAt,
	}
	if admin.LastLoginAt != nil {
		m["last_login_at"] = admin.LastLoginAt
	}
	return m
}

func apiKeyToMap(key *model.APIKey) map[string]interface{} {
	m := map[string]interface{}{
		"id":         key.ID,
		"key_prefix": key.KeyPrefix,
		"label":      key.Label,
		"role":       key.Role,
		"is_active":  key.IsActive,
		"created_at": key.CreatedAt,
	}
	if key.LastUsed != nil {
		m["last_used"] = key.LastUsed
	}
	return m
}
