package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/config"
	"github.com/portcullisgw/portcullis/internal/mcp"
	"github.com/portcullisgw/portcullis/internal/model"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
		roleName  string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the gateway's
Tufin operations as tools for AI agents. Supports stdio (default) and HTTP
transports.

The MCP process runs as a single role (mcp.role in the config, default
"user"); every tool call is checked against that role's clearances before
anything is sent upstream, exactly like a REST caller holding a key of the
same role.

In stdio mode, the server communicates over stdin/stdout using JSON-RPC,
suitable for direct integration with Claude Desktop or other MCP clients.`,
		Example: `  portcullis mcp                             # stdio mode, role from config
  portcullis mcp --role ticket_manager       # override the session role
  portcullis mcp --transport http --port 3001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port, roleName)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")
	cmd.Flags().StringVar(&roleName, "role", "", "Role the MCP session runs as (default: mcp.role from config)")

	return cmd
}

func runMCP(transport string, port int, roleName string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireTufin(); err != nil {
		return fmt.Errorf("tufin upstream not configured: %w", err)
	}

	// Logs go to stderr; stdout belongs to the JSON-RPC stream in stdio mode.
	logger := newLogger(cfg, false)

	if roleName == "" {
		roleName = cfg.MCP.Role
	}
	role, err := model.ParseRole(roleName)
	if err != nil {
		return err
	}

	srv := mcp.NewMCPServer(
		newTufinClient(cfg),
		authz.DefaultTable(),
		authz.DefaultWorkflowTable(),
		role,
		logger,
	)

	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "http":
		addr := fmt.Sprintf(":%d", port)
		logger.Info("starting MCP HTTP server", "addr", addr, "role", role)
		return srv.ServeHTTP(addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
