package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/shape"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// portcullis://permissions — the role clearance tables
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			"portcullis://permissions",
			"Gateway Clearance Tables",
			mcp.WithResourceDescription(
				"The gateway's role-permission table and workflow clearances, "+
					"plus the role this MCP session runs as. Consult this to see "+
					"which tools will be permitted before calling them.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handlePermissionsResource,
	)

	// -------------------------------------------------------------------
	// portcullis://ticket/{ticketId} — one SecureChange ticket (template)
	// -------------------------------------------------------------------
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"portcullis://ticket/{ticketId}",
			"SecureChange Ticket",
			mcp.WithTemplateDescription(
				"A single SecureChange ticket by numeric ID, subject to the "+
					"same clearance check as the tufin_get_ticket tool.",
			),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleTicketResource,
	)
}

// handlePermissionsResource returns the clearance tables as JSON.
func (s *MCPServer) handlePermissionsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	type permissionInfo struct {
		Permission string   `json:"permission"`
		Roles      []string `json:"roles"`
		Granted    bool     `json:"granted"`
	}

	perms := make([]permissionInfo, 0, len(s.table))
	for _, perm := range authz.AllPermissions() {
		roles, ok := s.table[perm]
		if !ok {
			continue
		}
		info := permissionInfo{
			Permission: perm.String(),
			Granted:    s.authorizer.Authorize(s.role, perm),
		}
		for _, role := range roles {
			info.Roles = append(info.Roles, string(role))
		}
		perms = append(perms, info)
	}

	payload := map[string]interface{}{
		"role":        string(s.role),
		"permissions": perms,
		"workflows":   s.workflows.Names(),
	}

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal clearance tables: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "portcullis://permissions",
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

// handleTicketResource fetches one ticket through the upstream client.
func (s *MCPServer) handleTicketResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	if !s.authorizer.Authorize(s.role, authz.PermGetTicket) {
		return nil, fmt.Errorf("role %s is not permitted to %s", s.role, authz.PermGetTicket)
	}

	// Extract ticket ID from URI: "portcullis://ticket/{ticketId}"
	uri := request.Params.URI
	idStr := strings.TrimPrefix(uri, "portcullis://ticket/")
	if idStr == "" || idStr == uri {
		return nil, fmt.Errorf("invalid ticket URI %q: expected portcullis://ticket/{ticketId}", uri)
	}
	ticketID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket ID %q: %w", idStr, err)
	}

	ticket, err := s.client.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %d: %w", ticketID, err)
	}

	b, err := json.MarshalIndent(shape.Ticket(*ticket), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
