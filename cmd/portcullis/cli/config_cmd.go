package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Portcullis configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default portcullis.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

const defaultConfig = `# Portcullis Configuration
# https://github.com/portcullisgw/portcullis

server:
  host: 0.0.0.0
  port: 8080
  max_body_size: 10MB
  shutdown_timeout: 30s
  cors:
    origins:
      - "*"
  tls:
    enabled: false
    cert_file: ""
    key_file: ""

# Authentication
auth:
  api_key_header: X-API-Key
  jwt_secret: ""   # Set via PORTCULLIS_AUTH_JWT_SECRET env var
  jwt_expiry: 1h
  # argon2id cost parameters for API key hashing
  argon2:
    memory_kib: 48128
    iterations: 1
    parallelism: 1
  # Operator accounts, seeded at startup. Generate entries with
  # 'portcullis admin hash'.
  admins: []
    # - email: admin@example.com
    #   name: Jane Ops
    #   password_hash: "$2a$10$..."

# Global per-source rate limit (fixed window)
rate_limit:
  requests: 60
  window: 60s

# API key store: memory, sqlite, postgres, mysql, mssql, or redis
store:
  driver: sqlite
  dsn: ""   # default: portcullis.db in the data dir
  redis:
    addr: localhost:6379
    password: ""
    db: 0

# Upstream Tufin appliances. ${VAR} references are expanded from the
# environment when the file is read.
tufin:
  securetrack_url: ""    # e.g. https://tufin.example.com
  securechange_url: ""   # e.g. https://tufin.example.com
  username: ""
  password: ""           # e.g. ${TUFIN_PASSWORD}
  ssl_verify: true
  timeout: 30s

# MCP server for AI agents
mcp:
  enabled: false
  transport: stdio
  role: user   # admin, ticket_manager, or user

# Logging
logging:
  level: info    # debug, info, warn, error
  format: text   # text or json

# Anonymous usage reporting (also PORTCULLIS_TELEMETRY=0)
telemetry:
  enabled: true

# Pre-provisioned API keys, seeded at startup. Also accepted as a JSON
# array in the PORTCULLIS_BOOTSTRAP_KEYS env var.
bootstrap:
  keys_file: ""
`

func runConfigInit(force bool) error {
	path := "portcullis.yaml"

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Edit the file to add your Tufin connection, then run 'portcullis serve'.")
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	return cmd
}

func runConfigShow() error {
	// Ensure config is loaded
	initConfig()

	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		fmt.Printf("Config file: %s\n", configFile)
	} else {
		fmt.Println("Config file: (none found, using defaults)")
	}
	fmt.Println()

	// Print all settings
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("No configuration settings loaded.")
		fmt.Println("Run 'portcullis config init' to create a default configuration file.")
		return nil
	}

	redactSecrets(settings)
	for key, value := range settings {
		fmt.Printf("  %s: %v\n", key, value)
	}

	return nil
}

// redactSecrets masks credential values in-place so 'config show' output is
// safe to paste into a bug report.
func redactSecrets(settings map[string]interface{}) {
	secretKeys := map[string]bool{
		"password":      true,
		"jwt_secret":    true,
		"dsn":           true,
		"password_hash": true,
	}
	var walk func(m map[string]interface{})
	walk = func(m map[string]interface{}) {
		for k, v := range m {
			switch val := v.(type) {
			case map[string]interface{}:
				walk(val)
			case []interface{}:
				for _, item := range val {
					if sub, ok := item.(map[string]interface{}); ok {
						walk(sub)
					}
				}
			case string:
				if secretKeys[k] && val != "" {
					m[k] = "****"
				}
			}
		}
	}
	walk(settings)
}
