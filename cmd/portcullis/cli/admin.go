package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/portcullisgw/portcullis/internal/config"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
		Long: `Manage the operator accounts that can log into the management API.

Admin accounts are declared in the auth.admins section of portcullis.yaml and
seeded at startup; 'admin hash' produces the password hash that section needs.`,
	}

	cmd.AddCommand(newAdminHashCmd())
	cmd.AddCommand(newAdminListCmd())

	return cmd
}

// ---------- admin hash ----------

func newAdminHashCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Hash an admin password for the config file",
		Long:  "Hash a password with bcrypt and print the auth.admins entry to paste into portcullis.yaml. The clear-text password is never stored.",
		Example: `  portcullis admin hash --email admin@example.com --name "Jane Ops"
  portcullis admin hash --email admin@example.com --password secret12  # non-interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminHash(email, password, name)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runAdminHash(email, password, name string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}

	// Prompt for password if not provided
	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if password != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	fmt.Println("Add this to the auth.admins section of portcullis.yaml:")
	fmt.Println()
	fmt.Println("auth:")
	fmt.Println("  admins:")
	fmt.Printf("    - email: %s\n", email)
	if name != "" {
		fmt.Printf("      name: %s\n", name)
	}
	fmt.Printf("      password_hash: \"%s\"\n", string(hash))
	fmt.Println()
	fmt.Println("The account is seeded the next time the gateway starts.")
	return nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the admin accounts declared in the config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(jsonOutput bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	type adminRow struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	rows := make([]adminRow, len(cfg.Auth.Admins))
	for i, a := range cfg.Auth.Admins {
		rows[i] = adminRow{Email: a.Email, Name: a.Name}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No admin accounts configured. Use 'portcullis admin hash' to create one.")
		return nil
	}

	fmt.Printf("%-30s %-24s\n", "EMAIL", "NAME")
	fmt.Printf("%-30s %-24s\n", "-----", "----")
	for _, a := range rows {
		fmt.Printf("%-30s %-24s\n", a.Email, a.Name)
	}

	return nil
}
