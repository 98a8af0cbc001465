package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/model"
)

// seedAdmin creates a default admin account and returns it.
func (e *testEnv) seedAdmin(t *testing.T) *model.Admin {
	t.Helper()
	admin, err := e.admins.CreateAdmin(context.Background(), "admin@example.com", testPassword, "Test Admin")
	if err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	return admin
}

// ---------------------------------------------------------------------------
// Login / Logout
// ---------------------------------------------------------------------------

func TestLogin_ValidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	body := toJSON(t, map[string]string{
		"email":    "admin@example.com",
		"password": testPassword,
	})
	rr := env.do(t, "POST", "/api/v1/system/admin/session", body)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Token     string `json:"session_token"`
		TokenType string `json:"token_type"`
		ExpiresIn int    `json:"expires_in"`
		AdminID   int64  `json:"admin_id"`
		Email     string `json:"email"`
		Name      string `json:"name"`
	}
	decodeJSON(t, rr, &resp)

	if resp.Token == "" {
		t.Error("expected non-empty session_token")
	}
	if resp.TokenType != "bearer" {
		t.Errorf("token_type = %q, want %q", resp.TokenType, "bearer")
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expires_in = %d, want 3600", resp.ExpiresIn)
	}
	if resp.Email != "admin@example.com" {
		t.Errorf("email = %q, want %q", resp.Email, "admin@example.com")
	}
	if resp.Name != "Test Admin" {
		t.Errorf("name = %q, want %q", resp.Name, "Test Admin")
	}
}

func TestLogin_InvalidPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	body := toJSON(t, map[string]string{
		"email":    "admin@example.com",
		"password": "wrongpassword",
	})
	rr := env.do(t, "POST", "/api/v1/system/admin/session", body)
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	wrongPassword := env.do(t, "POST", "/api/v1/system/admin/session", toJSON(t, map[string]string{
		"email":    "admin@example.com",
		"password": "wrongpassword",
	}))
	unknownEmail := env.do(t, "POST", "/api/v1/system/admin/session", toJSON(t, map[string]string{
		"email":    "nobody@example.com",
		"password": testPassword,
	}))

	assertStatus(t, wrongPassword, http.StatusUnauthorized)
	assertStatus(t, unknownEmail, http.StatusUnauthorized)

	// The two failures must be indistinguishable to the caller.
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("error bodies differ:\n%s\n%s", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing password", map[string]string{"email": "admin@example.com"}},
		{"missing email", map[string]string{"password": testPassword}},
		{"empty body", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/v1/system/admin/session", toJSON(t, tt.body))
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/system/admin/session", strings.NewReader(`{broken`))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "DELETE", "/api/v1/system/admin/session", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp map[string]interface{}
	decodeJSON(t, rr, &resp)
	if resp["success"] != true {
		t.Errorf("success = %v, want true", resp["success"])
	}
}

// ---------------------------------------------------------------------------
// Admin management
// ---------------------------------------------------------------------------

func TestAdminCRUD(t *testing.T) {
	env := newTestEnv(t)

	// --- Create ---
	createBody := toJSON(t, map[string]string{
		"email":    "ops@example.com",
		"password": "anothersecret",
		"name":     "Ops Admin",
	})
	rr := env.do(t, "POST", "/api/v1/system/admin", createBody)
	assertStatus(t, rr, http.StatusCreated)

	var created map[string]interface{}
	decodeJSON(t, rr, &created)
	if created["email"] != "ops@example.com" {
		t.Errorf("email = %v", created["email"])
	}
	if _, exists := created["password_hash"]; exists {
		t.Error("password_hash must never appear in responses")
	}

	// --- List ---
	rr = env.do(t, "GET", "/api/v1/system/admin", nil)
	assertStatus(t, rr, http.StatusOK)

	var listResp struct {
		Resource []map[string]interface{} `json:"resource"`
		Meta     struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	decodeJSON(t, rr, &listResp)
	if listResp.Meta.Count != 1 {
		t.Fatalf("list count = %d, want 1", listResp.Meta.Count)
	}

	// --- New admin can log in ---
	rr = env.do(t, "POST", "/api/v1/system/admin/session", toJSON(t, map[string]string{
		"email":    "ops@example.com",
		"password": "anothersecret",
	}))
	assertStatus(t, rr, http.StatusOK)
}

func TestCreateAdmin_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"password": "longenough"}},
		{"short password", map[string]string{"email": "a@example.com", "password": "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/v1/system/admin", toJSON(t, tt.body))
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestCreateAdmin_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	body := toJSON(t, map[string]string{
		"email":    "admin@example.com",
		"password": "anothersecret",
		"name":     "Duplicate",
	})
	rr := env.do(t, "POST", "/api/v1/system/admin", body)
	assertStatus(t, rr, http.StatusConflict)
}

// ---------------------------------------------------------------------------
// API key management
// ---------------------------------------------------------------------------

func TestAPIKeyCRUD(t *testing.T) {
	env := newTestEnv(t)

	// --- Create ---
	createBody := toJSON(t, map[string]string{
		"role":  "ticket_manager",
		"label": "CI pipeline",
	})
	rr := env.do(t, "POST", "/api/v1/system/api_key", createBody)
	assertStatus(t, rr, http.StatusCreated)

	var keyResp struct {
		ID        string `json:"id"`
		Key       string `json:"api_key"`
		KeyPrefix string `json:"key_prefix"`
		Role      string `json:"role"`
		Label     string `json:"label"`
	}
	decodeJSON(t, rr, &keyResp)

	if keyResp.Key == "" {
		t.Fatal("expected non-empty api_key")
	}
	if !strings.HasPrefix(keyResp.Key, "pcl_") {
		t.Errorf("api_key %q lacks pcl_ marker", keyResp.Key)
	}
	if keyResp.KeyPrefix == "" || !strings.HasPrefix(keyResp.Key, keyResp.KeyPrefix) {
		t.Errorf("key_prefix %q is not a prefix of the raw key", keyResp.KeyPrefix)
	}
	if keyResp.Role != "ticket_manager" {
		t.Errorf("role = %q", keyResp.Role)
	}

	// The raw key verifies against the store.
	role, err := env.keys.Verify(context.Background(), keyResp.Key)
	if err != nil {
		t.Fatalf("Verify after create: %v", err)
	}
	if role != model.RoleTicketManager {
		t.Errorf("verified role = %q, want ticket_manager", role)
	}

	// --- List (no hash, no raw key) ---
	rr = env.do(t, "GET", "/api/v1/system/api_key", nil)
	assertStatus(t, rr, http.StatusOK)

	var listResp struct {
		Resource []map[string]interface{} `json:"resource"`
	}
	decodeJSON(t, rr, &listResp)
	if len(listResp.Resource) != 1 {
		t.Fatalf("list count = %d, want 1", len(listResp.Resource))
	}
	if _, exists := listResp.Resource[0]["api_key"]; exists {
		t.Error("raw api_key should not appear in list response")
	}
	if strings.Contains(rr.Body.String(), "argon2id") {
		t.Error("key hash leaked into list response")
	}

	// --- Revoke ---
	rr = env.do(t, "DELETE", "/api/v1/system/api_key/"+keyResp.ID, nil)
	assertStatus(t, rr, http.StatusOK)

	if _, err := env.keys.Verify(context.Background(), keyResp.Key); err == nil {
		t.Error("revoked key still verifies")
	}

	// --- Revoke again ---
	rr = env.do(t, "DELETE", "/api/v1/system/api_key/"+keyResp.ID, nil)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestCreateAPIKey_UnknownRole(t *testing.T) {
	env := newTestEnv(t)

	body := toJSON(t, map[string]string{
		"role":  "superuser",
		"label": "Bad Role",
	})
	rr := env.do(t, "POST", "/api/v1/system/api_key", body)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestCreateAPIKey_MissingRole(t *testing.T) {
	env := newTestEnv(t)

	body := toJSON(t, map[string]string{
		"label": "No Role",
	})
	rr := env.do(t, "POST", "/api/v1/system/api_key", body)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestCreateAPIKey_OnePerRole(t *testing.T) {
	env := newTestEnv(t)

	for _, role := range model.Roles() {
		body := toJSON(t, map[string]string{
			"role":  string(role),
			"label": "Key for " + string(role),
		})
		rr := env.do(t, "POST", "/api/v1/system/api_key", body)
		assertStatus(t, rr, http.StatusCreated)
	}

	rr := env.do(t, "GET", "/api/v1/system/api_key", nil)
	assertStatus(t, rr, http.StatusOK)

	var listResp struct {
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	decodeJSON(t, rr, &listResp)
	if listResp.Meta.Count != len(model.Roles()) {
		t.Errorf("list count = %d, want %d", listResp.Meta.Count, len(model.Roles()))
	}
}

// ---------------------------------------------------------------------------
// Permission views
// ---------------------------------------------------------------------------

func TestPermissionsView(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/system/permission", nil)
	assertStatus(t, rr, http.StatusOK)

	var listResp struct {
		Resource []struct {
			Permission string   `json:"permission"`
			Roles      []string `json:"roles"`
		} `json:"resource"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	decodeJSON(t, rr, &listResp)

	if listResp.Meta.Count != len(authz.AllPermissions()) {
		t.Errorf("count = %d, want %d", listResp.Meta.Count, len(authz.AllPermissions()))
	}

	var createTicket []string
	for _, entry := range listResp.Resource {
		if entry.Permission == "create_ticket" {
			createTicket = entry.Roles
		}
	}
	if createTicket == nil {
		t.Fatal("create_ticket missing from permission view")
	}
	for _, role := range createTicket {
		if role == "user" {
			t.Error("user role should not hold create_ticket")
		}
	}
}

func TestWorkflowsView(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/system/workflow", nil)
	assertStatus(t, rr, http.StatusOK)

	var listResp struct {
		Resource []struct {
			Workflow string   `json:"workflow"`
			Roles    []string `json:"roles"`
		} `json:"resource"`
	}
	decodeJSON(t, rr, &listResp)

	if len(listResp.Resource) != 2 {
		t.Fatalf("got %d workflows, want 2", len(listResp.Resource))
	}
	// Names() sorts, so Decom comes first.
	if listResp.Resource[0].Workflow != "Example Decom Workflow" {
		t.Errorf("got first workflow %q", listResp.Resource[0].Workflow)
	}
}

// ---------------------------------------------------------------------------
// Error envelope
// ---------------------------------------------------------------------------

func TestErrorResponseFormat(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/system/api_key", toJSON(t, map[string]string{
		"role": "not-a-role",
	}))
	assertStatus(t, rr, http.StatusBadRequest)

	var resp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeJSON(t, rr, &resp)

	if resp.Error.Code != http.StatusBadRequest {
		t.Errorf("error.code = %d, want 400", resp.Error.Code)
	}
	if resp.Error.Message == "" {
		t.Error("expected non-empty error.message")
	}
}
