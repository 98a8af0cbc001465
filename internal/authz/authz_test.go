package authz

import (
	"errors"
	"strings"
	"testing"

	"github.com/portcullisgw/portcullis/internal/model"
)

func TestDefaultTableCoversEveryPermission(t *testing.T) {
	table := DefaultTable()
	for _, perm := range AllPermissions() {
		roles, ok := table[perm]
		if !ok {
			t.Errorf("permission %q missing from default table", perm)
			continue
		}
		if len(roles) == 0 {
			t.Errorf("permission %q allows no roles", perm)
		}
	}
}

func TestAuthorize(t *testing.T) {
	a := New(DefaultTable())

	tests := []struct {
		role model.Role
		perm Permission
		want bool
	}{
		{model.RoleAdmin, PermAddDevices, true},
		{model.RoleAdmin, PermCreateTicket, true},
		{model.RoleAdmin, PermListDevices, true},
		{model.RoleTicketManager, PermCreateTicket, true},
		{model.RoleTicketManager, PermGetTopologyPath, true},
		{model.RoleTicketManager, PermAddDevices, false},
		{model.RoleTicketManager, PermTestTufinConnection, false},
		{model.RoleUser, PermListDevices, true},
		{model.RoleUser, PermGetTopologyPathImage, true},
		{model.RoleUser, PermCreateTicket, false},
		{model.RoleUser, PermGetTopologyPath, false},
		{model.RoleUser, PermImportManagedDevices, false},
	}
	for _, tt := range tests {
		if got := a.Authorize(tt.role, tt.perm); got != tt.want {
			t.Errorf("Authorize(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestAuthorizeFailsClosed(t *testing.T) {
	a := New(DefaultTable())

	if a.Authorize(model.RoleAdmin, Permission("made_up_permission")) {
		t.Error("unknown permission must deny even for admin")
	}
	if a.Authorize(model.Role("superuser"), PermListDevices) {
		t.Error("unknown role must deny")
	}

	// Zero value denies everything.
	var zero Authorizer
	if zero.Authorize(model.RoleAdmin, PermListDevices) {
		t.Error("zero-value authorizer must deny")
	}
}

func TestAdminAllowedEverywhere(t *testing.T) {
	a := New(DefaultTable())
	for _, perm := range AllPermissions() {
		if !a.Authorize(model.RoleAdmin, perm) {
			t.Errorf("admin denied %q", perm)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultTable().Validate(AllPermissions()); err != nil {
		t.Fatalf("default table must validate against the full permission set: %v", err)
	}
}

func TestValidateMissingRegistration(t *testing.T) {
	table := DefaultTable()
	delete(table, PermQueryRulesGraphQL)

	err := table.Validate(AllPermissions())
	if err == nil {
		t.Fatal("expected error for registered operation without table entry")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if !strings.Contains(err.Error(), "query_rules_graphql") {
		t.Errorf("error should name the missing permission: %v", err)
	}
}

func TestValidateRejectsBadEntries(t *testing.T) {
	table := DefaultTable()
	table[Permission("typo_permission")] = []model.Role{model.RoleAdmin}
	table[PermListDevices] = nil
	table[PermGetDevice] = []model.Role{model.Role("root")}

	err := table.Validate(nil)
	if err == nil {
		t.Fatal("expected error for invalid table entries")
	}
	for _, want := range []string{"typo_permission", "list_devices", "root"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestWorkflowTable(t *testing.T) {
	wt := DefaultWorkflowTable()

	tests := []struct {
		workflow string
		role     model.Role
		want     bool
	}{
		{"Example Firewall Workflow", model.RoleUser, true},
		{"Example Firewall Workflow", model.RoleAdmin, true},
		{"Example Decom Workflow", model.RoleTicketManager, true},
		{"Example Decom Workflow", model.RoleUser, false},
		{"Nonexistent Workflow", model.RoleAdmin, false},
	}
	for _, tt := range tests {
		if got := wt.Allowed(tt.workflow, tt.role); got != tt.want {
			t.Errorf("Allowed(%q, %s) = %v, want %v", tt.workflow, tt.role, got, tt.want)
		}
	}
}
