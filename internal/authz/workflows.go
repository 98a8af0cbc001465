package authz

import (
	"sort"

	"github.com/portcullisgw/portcullis/internal/model"
)

// WorkflowTable maps a SecureChange workflow name to the roles allowed to
// open tickets under it. The create-ticket handler consults it only when the
// request names a workflow; a workflow missing from the table denies for
// every role.
type WorkflowTable map[string][]model.Role

// DefaultWorkflowTable mirrors the upstream workflow assignments.
func DefaultWorkflowTable() WorkflowTable {
	return WorkflowTable{
		"Example Firewall Workflow": {model.RoleAdmin, model.RoleTicketManager, model.RoleUser},
		"Example Decom Workflow":    {model.RoleAdmin, model.RoleTicketManager},
	}
}

// Names returns the workflow names in sorted order.
func (t WorkflowTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Allowed reports whether role may create tickets under the named workflow.
func (t WorkflowTable) Allowed(workflow string, role model.Role) bool {
	roles, ok := t[workflow]
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
