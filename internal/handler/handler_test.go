package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/keystore"
	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/server/middleware"
	"github.com/portcullisgw/portcullis/internal/service"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

const (
	testJWTSecret = "test-secret-for-handler-tests"
	testPassword  = "supersecretpassword"
)

// testParams keeps argon2id cheap in tests.
var testParams = keystore.Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1}

// fakeTufin is a function-field fake of the upstream client. Methods without
// a configured function fail the request, and every method bumps the call
// counter so tests can assert that a rejected request never reached upstream.
type fakeTufin struct {
	calls int

	listDomains          func(ctx context.Context) (*model.TufinDomainList, error)
	listDevices          func(ctx context.Context, filters model.DeviceFilters) (*model.TufinDeviceList, error)
	getDevice            func(ctx context.Context, deviceID string) (*model.TufinDevice, error)
	addDevices           func(ctx context.Context, payload json.RawMessage) error
	importManagedDevices func(ctx context.Context, payload json.RawMessage) error
	getTopologyPath      func(ctx context.Context, q model.TopologyQuery) (*model.TufinTopologyPath, error)
	getTopologyPathImage func(ctx context.Context, q model.TopologyQuery) ([]byte, string, error)
	queryRulesGraphQL    func(ctx context.Context, query model.GraphQLQuery) (*model.GraphQLResult, error)
	listTickets          func(ctx context.Context, status string, limit, offset int) (*model.TufinTicketList, error)
	createTicket         func(ctx context.Context, ticket model.TicketCreate) (*model.TufinTicket, error)
	getTicket            func(ctx context.Context, ticketID int64) (*model.TufinTicket, error)
	updateTicket         func(ctx context.Context, ticketID int64, ticket model.TicketUpdate) (*model.TufinTicket, error)
}

var _ tufin.Client = (*fakeTufin)(nil)

var errFakeUnconfigured = errors.New("fake: unexpected upstream call")

func (f *fakeTufin) ListDomains(ctx context.Context) (*model.TufinDomainList, error) {
	f.calls++
	if f.listDomains == nil {
		return nil, errFakeUnconfigured
	}
	return f.listDomains(ctx)
}

func (f *fakeTufin) ListDevices(ctx context.Context, filters model.DeviceFilters) (*model.TufinDeviceList, error) {
	f.calls++
	if f.listDevices == nil {
		return nil, errFakeUnconfigured
	}
	return f.listDevices(ctx, filters)
}

func (f *fakeTufin) GetDevice(ctx context.Context, deviceID string) (*model.TufinDevice, error) {
	f.calls++
	if f.getDevice == nil {
		return nil, errFakeUnconfigured
	}
	return f.getDevice(ctx, deviceID)
}

func (f *fakeTufin) AddDevices(ctx context.Context, payload json.RawMessage) error {
	f.calls++
	if f.addDevices == nil {
		return errFakeUnconfigured
	}
	return f.addDevices(ctx, payload)
}

func (f *fakeTufin) ImportManagedDevices(ctx context.Context, payload json.RawMessage) error {
	f.calls++
	if f.importManagedDevices == nil {
		return errFakeUnconfigured
	}
	return f.importManagedDevices(ctx, payload)
}

func (f *fakeTufin) GetTopologyPath(ctx context.Context, q model.TopologyQuery) (*model.TufinTopologyPath, error) {
	f.calls++
	if f.getTopologyPath == nil {
		return nil, errFakeUnconfigured
	}
	return f.getTopologyPath(ctx, q)
}

func (f *fakeTufin) GetTopologyPathImage(ctx context.Context, q model.TopologyQuery) ([]byte, string, error) {
	f.calls++
	if f.getTopologyPathImage == nil {
		return nil, "", errFakeUnconfigured
	}
	return f.getTopologyPathImage(ctx, q)
}

func (f *fakeTufin) QueryRulesGraphQL(ctx context.Context, query model.GraphQLQuery) (*model.GraphQLResult, error) {
	f.calls++
	if f.queryRulesGraphQL == nil {
		return nil, errFakeUnconfigured
	}
	return f.queryRulesGraphQL(ctx, query)
}

func (f *fakeTufin) ListTickets(ctx context.Context, status string, limit, offset int) (*model.TufinTicketList, error) {
	f.calls++
	if f.listTickets == nil {
		return nil, errFakeUnconfigured
	}
	return f.listTickets(ctx, status, limit, offset)
}

func (f *fakeTufin) CreateTicket(ctx context.Context, ticket model.TicketCreate) (*model.TufinTicket, error) {
	f.calls++
	if f.createTicket == nil {
		return nil, errFakeUnconfigured
	}
	return f.createTicket(ctx, ticket)
}

func (f *fakeTufin) GetTicket(ctx context.Context, ticketID int64) (*model.TufinTicket, error) {
	f.calls++
	if f.getTicket == nil {
		return nil, errFakeUnconfigured
	}
	return f.getTicket(ctx, ticketID)
}

func (f *fakeTufin) UpdateTicket(ctx context.Context, ticketID int64, ticket model.TicketUpdate) (*model.TufinTicket, error) {
	f.calls++
	if f.updateTicket == nil {
		return nil, errFakeUnconfigured
	}
	return f.updateTicket(ctx, ticketID, ticket)
}

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	keys    keystore.Store
	authSvc *service.AuthService
	admins  *service.AdminRegistry
	fake    *fakeTufin
	router  chi.Router
}

// newTestEnv creates a fresh test environment with an in-memory key store,
// a fake upstream client, and a Chi router with routes mounted (no auth
// middleware).
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	keys := keystore.NewMemoryStore(testParams)
	t.Cleanup(func() { keys.Close() })

	authSvc := service.NewAuthService(keys, testJWTSecret, time.Hour)
	admins := service.NewAdminRegistry()
	fake := &fakeTufin{}

	devices := NewDeviceHandler(fake)
	topology := NewTopologyHandler(fake)
	rules := NewRulesHandler(fake)
	tickets := NewTicketHandler(fake, authz.DefaultWorkflowTable())
	status := NewStatusHandler(fake)
	system := NewSystemHandler(authSvc, admins, keys, authz.DefaultTable(), authz.DefaultWorkflowTable())

	// Mount routes without auth middleware for direct handler testing.
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/devices", devices.List)
		r.Get("/devices/{deviceId}", devices.Get)
		r.Post("/devices/bulk", devices.Add)
		r.Post("/devices/bulk/import", devices.Import)

		r.Get("/topology/path", topology.Path)
		r.Get("/topology/path_image", topology.PathImage)

		r.Post("/rules/query", rules.Query)

		r.Get("/tickets", tickets.List)
		r.Post("/tickets", tickets.Create)
		r.Get("/tickets/{ticketId}", tickets.Get)
		r.Put("/tickets/{ticketId}", tickets.Update)

		r.Get("/secure", status.Secure)
		r.Get("/tufin/status", status.TufinStatus)

		r.Route("/system", func(r chi.Router) {
			r.Post("/admin/session", system.Login)
			r.Delete("/admin/session", system.Logout)

			r.Get("/admin", system.ListAdmins)
			r.Post("/admin", system.CreateAdmin)

			r.Get("/api_key", system.ListAPIKeys)
			r.Post("/api_key", system.CreateAPIKey)
			r.Delete("/api_key/{keyId}", system.RevokeAPIKey)

			r.Get("/permission", system.Permissions)
			r.Get("/workflow", system.Workflows)
		})
	})

	return &testEnv{
		keys:    keys,
		authSvc: authSvc,
		admins:  admins,
		fake:    fake,
		router:  r,
	}
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// doAs executes a request with an authenticated principal of the given role
// already attached, the way the auth middleware would leave it.
func (e *testEnv) doAs(t *testing.T, role model.Role, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	principal := &middleware.Principal{Role: role, Via: "api_key"}
	req = req.WithContext(context.WithValue(req.Context(), middleware.AuthPrincipalKey, principal))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Device tests
// ---------------------------------------------------------------------------

func TestListDevicesShapesUpstreamPayload(t *testing.T) {
	e := newTestEnv(t)
	e.fake.listDevices = func(ctx context.Context, filters model.DeviceFilters) (*model.TufinDeviceList, error) {
		return &model.TufinDeviceList{
			Device: []model.TufinDevice{{
				ID:         "8",
				Name:       "fw-edge",
				Vendor:     "Cisco",
				OSVersion:  "9.12",
				IP:         "10.0.0.1",
				DomainName: "Default",
				Status:     "started",
			}},
			Count: 1,
			Total: 12,
		}, nil
	}

	rr := e.do(t, "GET", "/api/v1/devices", nil)
	assertStatus(t, rr, http.StatusOK)

	var got model.DeviceList
	decodeJSON(t, rr, &got)
	if len(got.Devices) != 1 {
		t.Fatalf("got %d devices, want 1", len(got.Devices))
	}
	if got.Devices[0].Version != "9.12" {
		t.Errorf("OS_Version not mapped to version: %q", got.Devices[0].Version)
	}
	if got.Devices[0].IPAddress != "10.0.0.1" {
		t.Errorf("ip not mapped to ip_address: %q", got.Devices[0].IPAddress)
	}
	if got.Total != 12 {
		t.Errorf("got total %d, want 12", got.Total)
	}
}

func TestListDevicesForwardsFilters(t *testing.T) {
	e := newTestEnv(t)
	var captured model.DeviceFilters
	e.fake.listDevices = func(ctx context.Context, filters model.DeviceFilters) (*model.TufinDeviceList, error) {
		captured = filters
		return &model.TufinDeviceList{}, nil
	}

	rr := e.do(t, "GET", "/api/v1/devices?status=started&vendor=Cisco", nil)
	assertStatus(t, rr, http.StatusOK)

	if captured.Status != "started" || captured.Vendor != "Cisco" {
		t.Errorf("filters not forwarded: %+v", captured)
	}
	if captured.Name != "" {
		t.Errorf("unexpected name filter: %q", captured.Name)
	}
}

func TestGetDeviceUpstreamStatusPassesThrough(t *testing.T) {
	e := newTestEnv(t)
	e.fake.getDevice = func(ctx context.Context, deviceID string) (*model.TufinDevice, error) {
		return nil, &tufin.Error{Kind: tufin.KindStatus, StatusCode: 404, Message: "Device 99 not found"}
	}

	rr := e.do(t, "GET", "/api/v1/devices/99", nil)
	assertStatus(t, rr, http.StatusNotFound)
	if !strings.Contains(rr.Body.String(), "Device 99 not found") {
		t.Errorf("upstream message lost: %s", rr.Body.String())
	}
}

func TestGetDeviceTimeoutMapsTo504(t *testing.T) {
	e := newTestEnv(t)
	e.fake.getDevice = func(ctx context.Context, deviceID string) (*model.TufinDevice, error) {
		return nil, &tufin.Error{Kind: tufin.KindTimeout, Message: "request timed out"}
	}

	rr := e.do(t, "GET", "/api/v1/devices/8", nil)
	assertStatus(t, rr, http.StatusGatewayTimeout)
}

func TestAddDevicesForwardsPayloadVerbatim(t *testing.T) {
	e := newTestEnv(t)
	var captured json.RawMessage
	e.fake.addDevices = func(ctx context.Context, payload json.RawMessage) error {
		captured = payload
		return nil
	}

	body := `{"devices":{"device":[{"display_name":"fw-new","vendor":"Cisco"}]}}`
	rr := e.do(t, "POST", "/api/v1/devices/bulk", strings.NewReader(body))
	assertStatus(t, rr, http.StatusAccepted)

	if string(captured) != body {
		t.Errorf("payload altered in transit:\ngot  %s\nwant %s", captured, body)
	}
}

func TestAddDevicesRejectsBadJSONBeforeUpstream(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "POST", "/api/v1/devices/bulk", strings.NewReader(`{broken`))
	assertStatus(t, rr, http.StatusBadRequest)

	if e.fake.calls != 0 {
		t.Errorf("invalid body reached upstream: %d calls", e.fake.calls)
	}
}

func TestImportDevicesAccepted(t *testing.T) {
	e := newTestEnv(t)
	e.fake.importManagedDevices = func(ctx context.Context, payload json.RawMessage) error {
		return nil
	}

	rr := e.do(t, "POST", "/api/v1/devices/bulk/import", strings.NewReader(`{"devices":[]}`))
	assertStatus(t, rr, http.StatusAccepted)
	if !strings.Contains(rr.Body.String(), "accepted") {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Topology tests
// ---------------------------------------------------------------------------

func TestTopologyPathRequiresSrcAndDst(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "GET", "/api/v1/topology/path?src=10.0.0.1", nil)
	assertStatus(t, rr, http.StatusBadRequest)

	if e.fake.calls != 0 {
		t.Errorf("incomplete query reached upstream: %d calls", e.fake.calls)
	}
}

func TestTopologyPathSummarizesAllowedPath(t *testing.T) {
	e := newTestEnv(t)
	var captured model.TopologyQuery
	e.fake.getTopologyPath = func(ctx context.Context, q model.TopologyQuery) (*model.TufinTopologyPath, error) {
		captured = q
		return &model.TufinTopologyPath{
			TrafficAllowed: true,
			DeviceInfo: []model.TufinPathDevice{
				{ID: 1, Name: "fw-edge"},
				{ID: 2, Name: "rtr-core"},
			},
		}, nil
	}

	rr := e.do(t, "GET", "/api/v1/topology/path?src=10.0.0.1&dst=10.0.0.2", nil)
	assertStatus(t, rr, http.StatusOK)

	if captured.Service != "any" {
		t.Errorf("service not defaulted: %q", captured.Service)
	}

	var got model.TopologyPath
	decodeJSON(t, rr, &got)
	if !got.TrafficAllowed || !got.IsFullyRouted {
		t.Errorf("got %+v, want allowed and fully routed", got)
	}
	if len(got.PathDeviceNames) != 2 || got.PathDeviceNames[0] != "fw-edge" {
		t.Errorf("got device names %v", got.PathDeviceNames)
	}
}

func TestTopologyPathBlockedHidesDeviceNames(t *testing.T) {
	e := newTestEnv(t)
	e.fake.getTopologyPath = func(ctx context.Context, q model.TopologyQuery) (*model.TufinTopologyPath, error) {
		return &model.TufinTopologyPath{
			TrafficAllowed: false,
			DeviceInfo:     []model.TufinPathDevice{{ID: 1, Name: "fw-edge"}},
		}, nil
	}

	rr := e.do(t, "GET", "/api/v1/topology/path?src=10.0.0.1&dst=10.0.0.2&service=tcp:443", nil)
	assertStatus(t, rr, http.StatusOK)

	var got model.TopologyPath
	decodeJSON(t, rr, &got)
	if got.TrafficAllowed {
		t.Error("expected traffic_allowed false")
	}
	if len(got.PathDeviceNames) != 0 {
		t.Errorf("blocked path leaked device names: %v", got.PathDeviceNames)
	}
}

func TestTopologyPathImagePassthrough(t *testing.T) {
	e := newTestEnv(t)
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n'}
	e.fake.getTopologyPathImage = func(ctx context.Context, q model.TopologyQuery) ([]byte, string, error) {
		return png, "image/png", nil
	}

	rr := e.do(t, "GET", "/api/v1/topology/path_image?src=10.0.0.1&dst=10.0.0.2", nil)
	assertStatus(t, rr, http.StatusOK)

	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("got content type %q", ct)
	}
	if !bytes.Equal(rr.Body.Bytes(), png) {
		t.Errorf("image bytes altered: %v", rr.Body.Bytes())
	}
}

// ---------------------------------------------------------------------------
// Rules tests
// ---------------------------------------------------------------------------

func TestQueryRulesRequiresQuery(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "POST", "/api/v1/rules/query", toJSON(t, map[string]interface{}{
		"variables": map[string]interface{}{"limit": 10},
	}))
	assertStatus(t, rr, http.StatusBadRequest)

	if e.fake.calls != 0 {
		t.Errorf("empty query reached upstream: %d calls", e.fake.calls)
	}
}

func TestQueryRulesForwardsResult(t *testing.T) {
	e := newTestEnv(t)
	e.fake.queryRulesGraphQL = func(ctx context.Context, query model.GraphQLQuery) (*model.GraphQLResult, error) {
		if query.Query != "{ rules { id } }" {
			t.Errorf("got query %q", query.Query)
		}
		return &model.GraphQLResult{Data: json.RawMessage(`{"rules":[{"id":5}]}`)}, nil
	}

	rr := e.do(t, "POST", "/api/v1/rules/query", toJSON(t, model.GraphQLQuery{Query: "{ rules { id } }"}))
	assertStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"rules"`) {
		t.Errorf("upstream data lost: %s", rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Ticket tests
// ---------------------------------------------------------------------------

func TestListTicketsClampsPaging(t *testing.T) {
	e := newTestEnv(t)
	var gotLimit, gotOffset int
	e.fake.listTickets = func(ctx context.Context, status string, limit, offset int) (*model.TufinTicketList, error) {
		gotLimit, gotOffset = limit, offset
		return &model.TufinTicketList{}, nil
	}

	rr := e.do(t, "GET", "/api/v1/tickets?limit=9999&offset=-3", nil)
	assertStatus(t, rr, http.StatusOK)

	if gotLimit != 200 {
		t.Errorf("limit not clamped: %d", gotLimit)
	}
	if gotOffset != 0 {
		t.Errorf("negative offset not floored: %d", gotOffset)
	}
}

func TestGetTicketRejectsNonNumericID(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "GET", "/api/v1/tickets/abc", nil)
	assertStatus(t, rr, http.StatusBadRequest)

	if e.fake.calls != 0 {
		t.Errorf("bad id reached upstream: %d calls", e.fake.calls)
	}
}

func TestCreateTicketWorkflowClearance(t *testing.T) {
	tests := []struct {
		name       string
		role       model.Role
		workflow   string
		wantStatus int
	}{
		{"admin may use decom workflow", model.RoleAdmin, "Example Decom Workflow", http.StatusCreated},
		{"ticket manager may use decom workflow", model.RoleTicketManager, "Example Decom Workflow", http.StatusCreated},
		{"user denied decom workflow", model.RoleUser, "Example Decom Workflow", http.StatusForbidden},
		{"user may use firewall workflow", model.RoleUser, "Example Firewall Workflow", http.StatusCreated},
		{"unknown workflow denied for admin", model.RoleAdmin, "No Such Workflow", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.fake.createTicket = func(ctx context.Context, ticket model.TicketCreate) (*model.TufinTicket, error) {
				return &model.TufinTicket{ID: 3001, Subject: ticket.Subject, Status: "In Progress"}, nil
			}

			rr := e.doAs(t, tt.role, "POST", "/api/v1/tickets", toJSON(t, model.TicketCreate{
				Subject:  "Open port 443",
				Workflow: tt.workflow,
			}))
			assertStatus(t, rr, tt.wantStatus)

			if tt.wantStatus == http.StatusForbidden && e.fake.calls != 0 {
				t.Errorf("denied workflow reached upstream: %d calls", e.fake.calls)
			}
		})
	}
}

func TestCreateTicketWithoutWorkflowSkipsClearance(t *testing.T) {
	e := newTestEnv(t)
	e.fake.createTicket = func(ctx context.Context, ticket model.TicketCreate) (*model.TufinTicket, error) {
		return &model.TufinTicket{ID: 3002, Subject: ticket.Subject}, nil
	}

	rr := e.doAs(t, model.RoleUser, "POST", "/api/v1/tickets", toJSON(t, model.TicketCreate{
		Subject: "Routine request",
	}))
	assertStatus(t, rr, http.StatusCreated)

	var got model.Ticket
	decodeJSON(t, rr, &got)
	if got.ID != 3002 {
		t.Errorf("got id %d, want 3002", got.ID)
	}
}

func TestCreateTicketRequiresSubject(t *testing.T) {
	e := newTestEnv(t)

	rr := e.doAs(t, model.RoleUser, "POST", "/api/v1/tickets", toJSON(t, model.TicketCreate{
		Description: "no subject",
	}))
	assertStatus(t, rr, http.StatusBadRequest)

	if e.fake.calls != 0 {
		t.Errorf("invalid ticket reached upstream: %d calls", e.fake.calls)
	}
}

func TestUpdateTicketRequiresFields(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "PUT", "/api/v1/tickets/5", toJSON(t, model.TicketUpdate{}))
	assertStatus(t, rr, http.StatusBadRequest)
	if !strings.Contains(rr.Body.String(), "No fields to update") {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}
}

func TestUpdateTicketForwardsChanges(t *testing.T) {
	e := newTestEnv(t)
	var gotID int64
	var gotUpdate model.TicketUpdate
	e.fake.updateTicket = func(ctx context.Context, ticketID int64, ticket model.TicketUpdate) (*model.TufinTicket, error) {
		gotID, gotUpdate = ticketID, ticket
		return &model.TufinTicket{ID: ticketID, Subject: "Open port 443", Status: ticket.Status}, nil
	}

	rr := e.do(t, "PUT", "/api/v1/tickets/5", toJSON(t, model.TicketUpdate{Status: "Closed"}))
	assertStatus(t, rr, http.StatusOK)

	if gotID != 5 {
		t.Errorf("got id %d, want 5", gotID)
	}
	if gotUpdate.Status != "Closed" {
		t.Errorf("got status %q, want Closed", gotUpdate.Status)
	}
}

// ---------------------------------------------------------------------------
// Status tests
// ---------------------------------------------------------------------------

func TestSecureEchoesRole(t *testing.T) {
	e := newTestEnv(t)

	rr := e.doAs(t, model.RoleTicketManager, "GET", "/api/v1/secure", nil)
	assertStatus(t, rr, http.StatusOK)

	var got map[string]interface{}
	decodeJSON(t, rr, &got)
	if got["role"] != "ticket_manager" {
		t.Errorf("got role %v", got["role"])
	}
	if e.fake.calls != 0 {
		t.Errorf("probe touched upstream: %d calls", e.fake.calls)
	}
}

func TestTufinStatusCountsDomains(t *testing.T) {
	e := newTestEnv(t)
	e.fake.listDomains = func(ctx context.Context) (*model.TufinDomainList, error) {
		var out model.TufinDomainList
		out.Domains.Domain = []model.TufinDomain{{ID: "1", Name: "Default"}, {ID: "2", Name: "DMZ"}}
		return &out, nil
	}

	rr := e.do(t, "GET", "/api/v1/tufin/status", nil)
	assertStatus(t, rr, http.StatusOK)

	var got model.ConnectionStatus
	decodeJSON(t, rr, &got)
	if got.Status != "connected" || got.Domains != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestTufinStatusReportsConnectionFailure(t *testing.T) {
	e := newTestEnv(t)
	e.fake.listDomains = func(ctx context.Context) (*model.TufinDomainList, error) {
		return nil, &tufin.Error{Kind: tufin.KindConnection, Message: "could not connect"}
	}

	rr := e.do(t, "GET", "/api/v1/tufin/status", nil)
	assertStatus(t, rr, http.StatusServiceUnavailable)
}
