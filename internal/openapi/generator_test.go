package openapi

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/portcullisgw/portcullis/internal/authz"
)

func TestGenerate_ValidOpenAPI(t *testing.T) {
	doc := Generate("http://localhost:8080", "X-API-Key", authz.DefaultTable())

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI version = %q, want %q", doc.OpenAPI, "3.1.0")
	}
	if doc.Info == nil || doc.Info.Title != "Portcullis API" {
		t.Errorf("Info.Title wrong: %+v", doc.Info)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:8080" {
		t.Error("Servers not set correctly")
	}

	if err := doc.Validate(context.Background()); err != nil {
		t.Errorf("generated document does not validate: %v", err)
	}
}

func TestGenerate_SecuritySchemes(t *testing.T) {
	doc := Generate("http://localhost:8080", "X-Portcullis-Key", authz.DefaultTable())

	apiKey, ok := doc.Components.SecuritySchemes["apiKey"]
	if !ok {
		t.Fatal("apiKey security scheme not found")
	}
	if apiKey.Value.Type != "apiKey" || apiKey.Value.In != "header" {
		t.Errorf("apiKey scheme = %+v", apiKey.Value)
	}
	if apiKey.Value.Name != "X-Portcullis-Key" {
		t.Errorf("apiKey.Name = %q, want configured header", apiKey.Value.Name)
	}

	bearer, ok := doc.Components.SecuritySchemes["bearerAuth"]
	if !ok {
		t.Fatal("bearerAuth security scheme not found")
	}
	if bearer.Value.Scheme != "bearer" || bearer.Value.BearerFormat != "JWT" {
		t.Errorf("bearerAuth scheme = %+v", bearer.Value)
	}

	if len(doc.Security) != 2 {
		t.Errorf("security requirements count = %d, want 2", len(doc.Security))
	}
}

func TestGenerate_CoversGatewaySurface(t *testing.T) {
	doc := Generate("http://localhost:8080", "X-API-Key", authz.DefaultTable())

	tests := []struct {
		path   string
		method string
	}{
		{"/api/v1/secure", "GET"},
		{"/api/v1/devices", "GET"},
		{"/api/v1/devices/{deviceId}", "GET"},
		{"/api/v1/devices/bulk", "POST"},
		{"/api/v1/devices/bulk/import", "POST"},
		{"/api/v1/topology/path", "GET"},
		{"/api/v1/topology/path_image", "GET"},
		{"/api/v1/rules/query", "POST"},
		{"/api/v1/tickets", "GET"},
		{"/api/v1/tickets", "POST"},
		{"/api/v1/tickets/{ticketId}", "GET"},
		{"/api/v1/tickets/{ticketId}", "PUT"},
		{"/api/v1/tufin/status", "GET"},
		{"/api/v1/system/admin/session", "POST"},
		{"/api/v1/system/api_key", "POST"},
		{"/api/v1/system/api_key/{keyId}", "DELETE"},
		{"/api/v1/system/permission", "GET"},
		{"/api/v1/system/workflow", "GET"},
		{"/healthz", "GET"},
		{"/readyz", "GET"},
		{"/metrics", "GET"},
	}

	for _, tt := range tests {
		item := doc.Paths.Find(tt.path)
		if item == nil {
			t.Errorf("path %s missing", tt.path)
			continue
		}
		if item.GetOperation(tt.method) == nil {
			t.Errorf("%s %s missing", tt.method, tt.path)
		}
	}
}

func TestGenerate_OperationRoleAnnotations(t *testing.T) {
	doc := Generate("http://localhost:8080", "X-API-Key", authz.DefaultTable())

	createTicket := doc.Paths.Find("/api/v1/tickets").Post
	if createTicket == nil {
		t.Fatal("POST /api/v1/tickets missing")
	}
	if !strings.Contains(createTicket.Description, "ticket_manager") {
		t.Errorf("create_ticket description lacks role note: %q", createTicket.Description)
	}
	if strings.Contains(createTicket.Description, "or user") {
		t.Errorf("create_ticket should not be cleared for user: %q", createTicket.Description)
	}

	addDevices := doc.Paths.Find("/api/v1/devices/bulk").Post
	if addDevices == nil {
		t.Fatal("POST /api/v1/devices/bulk missing")
	}
	if !strings.Contains(addDevices.Description, "Requires role: admin.") {
		t.Errorf("add_devices should be admin only: %q", addDevices.Description)
	}
}

func TestGenerate_OperationalPathsUnauthenticated(t *testing.T) {
	doc := Generate("http://localhost:8080", "X-API-Key", authz.DefaultTable())

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		op := doc.Paths.Find(path).Get
		if op == nil {
			t.Fatalf("GET %s missing", path)
		}
		if op.Security == nil || len(*op.Security) != 0 {
			t.Errorf("%s should declare empty security requirements", path)
		}
	}
}

func TestGenerate_UpstreamErrorResponsesDocumented(t *testing.T) {
	doc := Generate("http://localhost:8080", "X-API-Key", authz.DefaultTable())

	listDevices := doc.Paths.Find("/api/v1/devices").Get
	for _, code := range []string{"429", "502", "503", "504"} {
		if listDevices.Responses.Value(code) == nil {
			t.Errorf("list_devices missing %s response", code)
		}
	}

	// The access probe never proxies, so upstream statuses are absent.
	secure := doc.Paths.Find("/api/v1/secure").Get
	if secure.Responses.Value("504") != nil {
		t.Error("access probe should not document upstream timeouts")
	}
}

func TestGenerate_MarshalsToJSON(t *testing.T) {
	doc := Generate("http://localhost:8080", "X-API-Key", authz.DefaultTable())

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"Portcullis API"`, `"apiKey"`, `"/api/v1/tickets"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("marshaled document missing %s", want)
		}
	}
}

func TestRolesNote(t *testing.T) {
	table := authz.DefaultTable()

	note := rolesNote(table, authz.PermCreateTicket)
	if note != "Requires role: admin or ticket_manager." {
		t.Errorf("got %q", note)
	}

	if got := rolesNote(authz.Table{}, authz.PermCreateTicket); !strings.Contains(got, "No role") {
		t.Errorf("empty table note = %q", got)
	}
}
