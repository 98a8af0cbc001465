package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/model"
)

func newRoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Inspect roles and their clearances",
		Long: `Show the fixed gateway roles and what each one may do.

The role set and permission table are compiled in; this command is a
read-only view of the clearances the running gateway enforces.`,
	}

	cmd.AddCommand(newRoleListCmd())
	cmd.AddCommand(newRoleShowCmd())

	return cmd
}

// ---------- role list ----------

func newRoleListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoleList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runRoleList(jsonOutput bool) error {
	table := authz.DefaultTable()
	workflows := authz.DefaultWorkflowTable()
	auth := authz.New(table)

	type roleRow struct {
		Role        string `json:"role"`
		Permissions int    `json:"permissions"`
		Workflows   int    `json:"workflows"`
	}

	rows := make([]roleRow, 0, len(model.Roles()))
	for _, role := range model.Roles() {
		perms := 0
		for _, p := range authz.AllPermissions() {
			if auth.Authorize(role, p) {
				perms++
			}
		}
		cleared := 0
		for _, name := range workflows.Names() {
			if workflows.Allowed(name, role) {
				cleared++
			}
		}
		rows = append(rows, roleRow{Role: string(role), Permissions: perms, Workflows: cleared})
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Printf("%-16s %-12s %-10s\n", "ROLE", "PERMISSIONS", "WORKFLOWS")
	fmt.Printf("%-16s %-12s %-10s\n", "----", "-----------", "---------")
	for _, r := range rows {
		fmt.Printf("%-16s %-12d %-10d\n", r.Role, r.Permissions, r.Workflows)
	}

	return nil
}

// ---------- role show ----------

func newRoleShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <role>",
		Short: "Show the permissions and workflows granted to a role",
		Example: `  portcullis role show user
  portcullis role show ticket_manager --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoleShow(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runRoleShow(roleName string, jsonOutput bool) error {
	role, err := model.ParseRole(roleName)
	if err != nil {
		return err
	}

	table := authz.DefaultTable()
	workflows := authz.DefaultWorkflowTable()
	auth := authz.New(table)

	granted := make([]string, 0)
	denied := make([]string, 0)
	for _, p := range authz.AllPermissions() {
		if auth.Authorize(role, p) {
			granted = append(granted, p.String())
		} else {
			denied = append(denied, p.String())
		}
	}

	cleared := make([]string, 0)
	for _, name := range workflows.Names() {
		if workflows.Allowed(name, role) {
			cleared = append(cleared, name)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"role":      string(role),
			"granted":   granted,
			"denied":    denied,
			"workflows": cleared,
		})
	}

	fmt.Printf("Role: %s\n", role)
	fmt.Println()
	fmt.Println("Granted:")
	for _, p := range granted {
		fmt.Printf("  %s\n", p)
	}
	if len(denied) > 0 {
		fmt.Println()
		fmt.Println("Denied:")
		for _, p := range denied {
			fmt.Printf("  %s\n", p)
		}
	}
	fmt.Println()
	fmt.Println("Cleared workflows:")
	if len(cleared) == 0 {
		fmt.Println("  (none)")
	}
	for _, name := range cleared {
		fmt.Printf("  %s\n", name)
	}

	return nil
}
