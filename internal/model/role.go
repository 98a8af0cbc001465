package model

import "fmt"

// Role is the closed set of principal roles an API key can be bound to.
// Authorization decisions are made purely from the role; there are no
// per-key grants.
type Role string

const (
	// RoleAdmin may perform every gateway operation, including device
	// onboarding and the upstream connectivity probe.
	RoleAdmin Role = "admin"

	// RoleTicketManager may create and update SecureChange tickets and run
	// topology path queries, in addition to everything RoleUser can do.
	RoleTicketManager Role = "ticket_manager"

	// RoleUser has read access to devices, tickets, and topology summaries.
	RoleUser Role = "user"
)

// Roles lists every valid role. The order is stable and used in CLI output.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTicketManager, RoleUser}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTicketManager, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts a string into a Role, rejecting anything outside the
// closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (valid: admin, ticket_manager, user)", s)
	}
	return r, nil
}
