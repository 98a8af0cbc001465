package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/portcullisgw/portcullis/internal/config"
	"github.com/portcullisgw/portcullis/internal/keystore"
	"github.com/portcullisgw/portcullis/internal/model"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys callers use to authenticate against the gateway.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// openConfiguredStore loads config and opens the key store it selects. The
// memory driver is rejected: keys created in a throwaway process would be
// gone before the gateway could verify them.
func openConfiguredStore() (keystore.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Driver == "memory" {
		return nil, fmt.Errorf("store.driver is %q; keys managed here would not outlive this process (configure sqlite, a SQL database, or redis)", cfg.Store.Driver)
	}
	return openKeyStore(cfg)
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		role  string
		label string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key bound to a role. The raw key is shown once and cannot be retrieved again.",
		Example: `  portcullis key create --role user --label "CI pipeline"
  portcullis key create --role ticket_manager
  portcullis key create --role admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(role, label)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Role to bind the key to: admin, ticket_manager, or user (required)")
	cmd.Flags().StringVar(&label, "label", "", "Human-readable label for the key")
	cmd.MarkFlagRequired("role")

	return cmd
}

func runKeyCreate(roleName, label string) error {
	role, err := model.ParseRole(roleName)
	if err != nil {
		return err
	}

	store, err := openConfiguredStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer store.Close()

	rawKey, err := keystore.GenerateKey()
	if err != nil {
		return err
	}

	if _, err := store.Insert(context.Background(), rawKey, role, label); err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Println("API Key created:")
	fmt.Println()
	fmt.Printf("  Key:   %s\n", rawKey)
	fmt.Printf("  Role:  %s\n", role)
	if label != "" {
		fmt.Printf("  Label: %s\n", label)
	}
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(jsonOutput bool) error {
	store, err := openConfiguredStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer store.Close()

	keys, err := store.List(context.Background())
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	type keyRow struct {
		Prefix string `json:"prefix"`
		Role   string `json:"role"`
		Label  string `json:"label"`
		Active bool   `json:"active"`
	}

	rows := make([]keyRow, len(keys))
	for i, k := range keys {
		rows[i] = keyRow{
			Prefix: k.KeyPrefix,
			Role:   string(k.Role),
			Label:  k.Label,
			Active: k.IsActive,
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No API keys configured. Use 'portcullis key create' to create one.")
		return nil
	}

	fmt.Printf("%-16s %-16s %-24s %-8s\n", "PREFIX", "ROLE", "LABEL", "ACTIVE")
	fmt.Printf("%-16s %-16s %-24s %-8s\n", "------", "----", "-----", "------")
	for _, k := range rows {
		active := "yes"
		if !k.Active {
			active = "no"
		}
		fmt.Printf("%-16s %-16s %-24s %-8s\n", k.Prefix, k.Role, k.Label, active)
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <prefix>",
		Short: "Revoke an API key by its prefix",
		Long:  "Remove an API key from the store, rejecting any further requests that present it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}

	return cmd
}

func runKeyRevoke(prefix string) error {
	store, err := openConfiguredStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	keys, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	// Find the key whose stored prefix starts with the given prefix
	var matched *model.APIKey
	for i := range keys {
		if strings.HasPrefix(keys[i].KeyPrefix, prefix) {
			if matched != nil {
				return fmt.Errorf("prefix %q matches more than one key; give more characters", prefix)
			}
			matched = &keys[i]
		}
	}
	if matched == nil {
		return fmt.Errorf("no API key found with prefix %q", prefix)
	}

	if err := store.Revoke(ctx, matched.ID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	fmt.Printf("Revoked API key with prefix %q\n", matched.KeyPrefix)
	return nil
}
