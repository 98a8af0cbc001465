// Package authz holds the static role-permission table and the fail-closed
// authorizer consulted on every protected request. Nothing here talks to the
// network: decisions are pure lookups over an immutable snapshot, and any
// table/operation mismatch is caught by Validate before the server accepts
// traffic.
package authz

import (
	"fmt"
	"strings"

	"github.com/portcullisgw/portcullis/internal/model"
)

// Permission identifies one protected gateway operation. The set is closed;
// handlers register the constant they require and the table maps it to roles.
type Permission string

const (
	PermAccessSecureEndpoint Permission = "access_secure_endpoint"
	PermListDevices          Permission = "list_devices"
	PermGetDevice            Permission = "get_device"
	PermAddDevices           Permission = "add_devices"
	PermImportManagedDevices Permission = "import_managed_devices"
	PermGetTopologyPath      Permission = "get_topology_path"
	PermGetTopologyPathImage Permission = "get_topology_path_image"
	PermQueryRulesGraphQL    Permission = "query_rules_graphql"
	PermListTickets          Permission = "list_tickets"
	PermCreateTicket         Permission = "create_ticket"
	PermGetTicket            Permission = "get_ticket"
	PermUpdateTicket         Permission = "update_ticket"
	PermTestTufinConnection  Permission = "test_tufin_connection"
)

// AllPermissions returns every known permission in stable order.
func AllPermissions() []Permission {
	return []Permission{
		PermAccessSecureEndpoint,
		PermListDevices,
		PermGetDevice,
		PermAddDevices,
		PermImportManagedDevices,
		PermGetTopologyPath,
		PermGetTopologyPathImage,
		PermQueryRulesGraphQL,
		PermListTickets,
		PermCreateTicket,
		PermGetTicket,
		PermUpdateTicket,
		PermTestTufinConnection,
	}
}

// Valid reports whether p is a known permission constant.
func (p Permission) Valid() bool {
	for _, known := range AllPermissions() {
		if p == known {
			return true
		}
	}
	return false
}

func (p Permission) String() string { return string(p) }

// Table maps each permission to the roles allowed to exercise it. A Table is
// built once and treated as immutable afterwards; reloading builds a fresh
// Table and swaps the whole value.
type Table map[Permission][]model.Role

// DefaultTable mirrors the upstream system of record. Keep groupings in sync
// with the role descriptions in internal/model.
func DefaultTable() Table {
	everyone := []model.Role{model.RoleAdmin, model.RoleTicketManager, model.RoleUser}
	managers := []model.Role{model.RoleAdmin, model.RoleTicketManager}
	adminOnly := []model.Role{model.RoleAdmin}

	return Table{
		PermAccessSecureEndpoint: everyone,
		PermListDevices:          everyone,
		PermGetDevice:            everyone,
		PermListTickets:          everyone,
		PermGetTicket:            everyone,
		PermGetTopologyPathImage: everyone,
		PermQueryRulesGraphQL:    everyone,

		PermCreateTicket:    managers,
		PermUpdateTicket:    managers,
		PermGetTopologyPath: managers,

		PermAddDevices:           adminOnly,
		PermImportManagedDevices: adminOnly,
		PermTestTufinConnection:  adminOnly,
	}
}

// Validate checks the table against the set of permissions the server
// actually registered routes for. It returns a *ConfigError describing every
// problem found; callers treat that as fatal.
func (t Table) Validate(registered []Permission) error {
	var problems []string

	for perm := range t {
		if !perm.Valid() {
			problems = append(problems, fmt.Sprintf("table entry %q is not a known permission", perm))
		}
	}
	for perm, roles := range t {
		if len(roles) == 0 {
			problems = append(problems, fmt.Sprintf("permission %q allows no roles", perm))
		}
		for _, r := range roles {
			if !r.Valid() {
				problems = append(problems, fmt.Sprintf("permission %q names unknown role %q", perm, r))
			}
		}
	}
	for _, perm := range registered {
		if _, ok := t[perm]; !ok {
			problems = append(problems, fmt.Sprintf("registered operation %q has no table entry", perm))
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// ConfigError reports a role-permission table that cannot safely serve
// traffic. The server refuses to start on one.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "authorization table invalid: " + strings.Join(e.Problems, "; ")
}

// Authorizer answers allow/deny for a role and permission. The zero value
// denies everything.
type Authorizer struct {
	table Table
}

// New creates an Authorizer over the given table. The table must not be
// mutated after this call.
func New(table Table) *Authorizer {
	return &Authorizer{table: table}
}

// Authorize reports whether role may exercise perm. Unknown permissions and
// unknown roles deny; there is no implicit allow anywhere.
func (a *Authorizer) Authorize(role model.Role, perm Permission) bool {
	roles, ok := a.table[perm]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
