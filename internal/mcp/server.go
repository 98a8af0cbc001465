package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

// MCPServer wraps the mcp-go server with the gateway's tool and resource
// registrations. It exposes SecureTrack and SecureChange operations as MCP
// tools so AI agents can inspect devices, trace topology paths, and manage
// tickets through the same clearance checks the REST surface enforces.
//
// The MCP process runs as a single configured role. Every tool call is
// checked against that role before anything is sent upstream; a denied call
// returns a tool-level error and never reaches Tufin.
type MCPServer struct {
	client     tufin.Client
	table      authz.Table
	authorizer *authz.Authorizer
	workflows  authz.WorkflowTable
	role       model.Role
	logger     *slog.Logger
	server     *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all gateway tools and
// resources, bound to the given role. The returned server is ready to serve
// over stdio or HTTP.
func NewMCPServer(client tufin.Client, table authz.Table, workflows authz.WorkflowTable, role model.Role, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		client:     client,
		table:      table,
		authorizer: authz.New(table),
		workflows:  workflows,
		role:       role,
		logger:     logger,
	}

	mcpServer := server.NewMCPServer(
		"Portcullis Gateway",
		"0.1.0",
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	// Register tools (devices, topology, rules, tickets).
	s.registerTools(mcpServer)

	// Register resources (clearance table, ticket template).
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode. This is the primary
// integration path for Claude Code, Claude Desktop, and other MCP clients
// that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode", "role", s.role)
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001"). This is suitable for remote MCP clients.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr, "role", s.role)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
