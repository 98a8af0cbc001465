package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/shape"
)

// registerTools registers all gateway MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Device tools -----

	srv.AddTool(
		mcp.NewTool("tufin_list_devices",
			mcp.WithDescription(
				"List devices monitored by SecureTrack. Returns each device's name, "+
					"vendor, model, OS version, IP address, and status. Optional filters "+
					"narrow the listing by vendor, status, or name.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("vendor",
				mcp.Description("Filter by vendor (e.g. \"Cisco\", \"Checkpoint\")"),
			),
			mcp.WithString("status",
				mcp.Description("Filter by monitoring status (e.g. \"started\", \"stopped\")"),
			),
			mcp.WithString("name",
				mcp.Description("Filter by device name"),
			),
		),
		s.handleListDevices,
	)

	srv.AddTool(
		mcp.NewTool("tufin_get_device",
			mcp.WithDescription(
				"Get a single SecureTrack device by its numeric ID, including vendor, "+
					"model, OS version, IP address, domain, and monitoring status. Use "+
					"tufin_list_devices first to discover device IDs.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("device_id",
				mcp.Required(),
				mcp.Description("SecureTrack device ID"),
			),
		),
		s.handleGetDevice,
	)

	// ----- Topology tools -----

	srv.AddTool(
		mcp.NewTool("tufin_topology_path",
			mcp.WithDescription(
				"Run a topology path query: would traffic from source to destination "+
					"on the given service be allowed by the current policy? Returns "+
					"traffic_allowed, whether the path is fully routed, and the devices "+
					"on the path.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("source",
				mcp.Required(),
				mcp.Description("Source address or network (e.g. \"10.0.1.5\" or \"10.0.1.0/24\")"),
			),
			mcp.WithString("destination",
				mcp.Required(),
				mcp.Description("Destination address or network"),
			),
			mcp.WithString("service",
				mcp.Required(),
				mcp.Description("Service in protocol:port form (e.g. \"tcp:443\") or \"any\""),
			),
		),
		s.handleTopologyPath,
	)

	// ----- Rule query tool -----

	srv.AddTool(
		mcp.NewTool("tufin_query_rules",
			mcp.WithDescription(
				"Query security rules through the SecureTrack GraphQL API. The query "+
					"runs verbatim against the upstream schema; pass GraphQL variables "+
					"as a JSON object.\n\n"+
					"Example query:\n"+
					"  query { rules(filter: \"action accept\") { count values { id name action } } }",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("GraphQL query text"),
			),
			mcp.WithObject("variables",
				mcp.Description("GraphQL variables object"),
			),
		),
		s.handleQueryRules,
	)

	// ----- Ticket tools -----

	srv.AddTool(
		mcp.NewTool("tufin_list_tickets",
			mcp.WithDescription(
				"List SecureChange tickets with optional status filtering and "+
					"pagination. Returns each ticket's ID, subject, and status.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("status",
				mcp.Description("Filter by ticket status (e.g. \"In Progress\", \"Closed\")"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of tickets to return (default 25, max 100)"),
			),
			mcp.WithNumber("offset",
				mcp.Description("Number of tickets to skip for pagination"),
			),
		),
		s.handleListTickets,
	)

	srv.AddTool(
		mcp.NewTool("tufin_get_ticket",
			mcp.WithDescription(
				"Get a single SecureChange ticket by its numeric ID.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("ticket_id",
				mcp.Required(),
				mcp.Description("SecureChange ticket ID"),
			),
		),
		s.handleGetTicket,
	)

	srv.AddTool(
		mcp.NewTool("tufin_create_ticket",
			mcp.WithDescription(
				"Create a SecureChange ticket. Subject is required; description and "+
					"workflow are optional. When a workflow is named it must be one the "+
					"configured role is cleared for.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Ticket subject line"),
			),
			mcp.WithString("description",
				mcp.Description("Free-text ticket description"),
			),
			mcp.WithString("workflow",
				mcp.Description("SecureChange workflow to open the ticket under"),
			),
		),
		s.handleCreateTicket,
	)

	srv.AddTool(
		mcp.NewTool("tufin_update_ticket",
			mcp.WithDescription(
				"Update an existing SecureChange ticket. Only the provided fields are "+
					"changed; omitted fields keep their current values.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("ticket_id",
				mcp.Required(),
				mcp.Description("SecureChange ticket ID"),
			),
			mcp.WithString("subject",
				mcp.Description("New subject line"),
			),
			mcp.WithString("description",
				mcp.Description("New description"),
			),
			mcp.WithString("status",
				mcp.Description("New ticket status"),
			),
		),
		s.handleUpdateTicket,
	)

	// ----- Connectivity tool -----

	srv.AddTool(
		mcp.NewTool("tufin_connection_status",
			mcp.WithDescription(
				"Probe connectivity to the upstream Tufin deployment. Returns the "+
					"connection status and the number of SecureTrack domains visible "+
					"with the configured credentials.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleConnectionStatus,
	)
}

// guard checks the configured role against the clearance table. A non-nil
// result is the denial to return; the upstream client is never consulted on
// a denied call.
func (s *MCPServer) guard(perm authz.Permission) *mcp.CallToolResult {
	if s.authorizer.Authorize(s.role, perm) {
		return nil
	}
	s.logger.Warn("tool call denied", "role", s.role, "permission", perm)
	return mcp.NewToolResultError(
		"Role " + string(s.role) + " is not permitted to " + perm.String() + ".")
}

// =========================================================================
// Tool handlers
// =========================================================================

// handleListDevices lists SecureTrack devices with optional filters.
func (s *MCPServer) handleListDevices(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if denied := s.guard(authz.PermListDevices); denied != nil {
		return denied, nil
	}

	filters := model.DeviceFilters{
		Vendor: optionalString(request, "vendor"),
		Status: optionalString(request, "status"),
		Name:   optionalString(request, "name"),
	}

	list, err := s.client.ListDevices(ctx, filters)
	if err != nil {
		return toolError("Failed to list devices: %v", err)
	}

	return successJSON(shape.DeviceList(list))
}

// handleGetDevice fetches one device by ID.
func (s *MCPServer) handleGetDevice(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if denied := s.guard(authz.PermGetDevice); denied != nil {
		return denied, nil
	}

	deviceID, err := requireString(request, "device_id")
	if err != nil {
		return toolError("%v. Use tufin_list_devices to discover device IDs.", err)
	}

	device, err := s.client.GetDevice(ctx, deviceID)
	if err != nil {
		return toolError("Failed to get device %q: %v", deviceID, err)
	}

	return successJSON(shape.Device(*device))
}

// handleTopologyPath runs a path query.
func (s *MCPServer) handleTopologyPath(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if denied := s.guard(authz.PermGetTopologyPath); denied != nil {
		return denied, nil
	}

	source, err := requireString(request, "source")
	if err != nil {
		return toolError("%v", err)
	}
	destination, err := requireString(request, "destination")
	if err != nil {
		return toolError("%v", err)
	}
	svc, err := requireString(request, "service")
	if err != nil {
		return toolError("%v. Use protocol:port form (e.g. \"tcp:443\") or \"any\".", err)
	}

	path, err := s.client.GetTopologyPath(ctx, model.TopologyQuery{
		Source:      source,
		Destination: destination,
		Service:     svc,
	})
	if err != nil {
		return toolError("Topology path query failed: %v", err)
	}

	return successJSON(shape.TopologyPath(path))
}

// handleQueryRules forwards a GraphQL rule query upstream.
func (s *MCPServer) handleQueryRules(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if denied := s.guard(authz.PermQueryRulesGraphQL); denied != nil {
		return denied, nil
	}

	query, err := requireString(request, "query")
	if err != nil {
		return toolError("%v", err)
	}

	result, err := s.client.QueryRulesGraphQL(ctx, model.GraphQLQuery{
		Query:     query,
		Variables: getObjectArg(request, "variables"),
	})
	if err != nil {
		return toolError("Rule query failed: %v", err)
	}

	return successJSON(result)
}

// handleListTickets lists SecureChange tickets.
func (s *MCPServer) handleListTickets(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if denied := s.guard(authz.PermListTickets); denied != nil {
		return denied, nil
	}

	status := optionalString(request, "status")
	limit := clamp(optionalInt(request, "limit", 25), 1, 100)
	offset := optionalInt(request, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	list, err := s.client.ListTickets(ctx, status, limit, offset)
	if err != nil {
		return toolError("Failed to list tickets: %v", err)
	}

	return successJSON(shape.TicketList(list, limit, offset))
}

// handleGetTicket fetches one ticket by ID.
func (s *MCPServer) handleGetTicket(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if denied := s.guard(authz.PermGetTicket); denied != nil {
		return denied, nil
	}

	ticketID, err := requireInt(request, "ticket_id")
	if err != nil {
		return toolError("%v. Use tufin_list_tickets to discover ticket IDs.", err)
	}

	ticket, err := s.client.GetTicket(ctx, int64(ticketID))
	if err != nil {
		return toolError("Failed to get ticket %d: %v", ticketID, err)
	}

	return successJSON(shape.Ticket(*ticket))
}

// handleCreateTicket opens a new ticket, enforcing workflow clearance when
// the request names one.
func (s *MCPServer) handleCreateTicket(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if denied := s.guard(authz.PermCreateTicket); denied != nil {
		return denied, nil
	}

	subject, err := requireString(request, "subject")
	if err != nil {
		return toolError("%v", err)
	}

	create := model.TicketCreate{
		Subject:     subject,
		Description: optionalString(request, "description"),
		Workflow:    optionalString(request, "workflow"),
	}

	if create.Workflow != "" && !s.workflows.Allowed(create.Workflow, s.role) {
		s.logger.Warn("workflow denied", "role", s.role, "workflow", create.Workflow)
		return toolError("Role %s is not cleared for workflow %q. Cleared workflows: %v",
			s.role, create.Workflow, s.workflows.Names())
	}

	ticket, err := s.client.CreateTicket(ctx, create)
	if err != nil {
		return toolError("Failed to create ticket: %v", err)
	}

	return successJSON(shape.Ticket(*ticket))
}

// handleUpdateTicket changes fields on an existing ticket.
func (s *MCPServer) handleUpdateTicket(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if denied := s.guard(authz.PermUpdateTicket); denied != nil {
		return denied, nil
	}

	ticketID, err := requireInt(request, "ticket_id")
	if err != nil {
		return toolError("%v", err)
	}

	update := model.TicketUpdate{
		Subject:     optionalString(request, "subject"),
		Description: optionalString(request, "description"),
		Status:      optionalString(request, "status"),
	}
	if update.Subject == "" && update.Description == "" && update.Status == "" {
		return toolError("No fields to update. Provide at least one of subject, description, or status.")
	}

	ticket, err := s.client.UpdateTicket(ctx, int64(ticketID), update)
	if err != nil {
		return toolError("Failed to update ticket %d: %v", ticketID, err)
	}

	return successJSON(shape.Ticket(*ticket))
}

// handleConnectionStatus probes upstream connectivity via the domain listing.
func (s *MCPServer) handleConnectionStatus(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if denied := s.guard(authz.PermTestTufinConnection); denied != nil {
		return denied, nil
	}

	domains, err := s.client.ListDomains(ctx)
	if err != nil {
		return successJSON(model.ConnectionStatus{Status: "unreachable"})
	}

	return successJSON(model.ConnectionStatus{
		Status:  "connected",
		Domains: len(domains.Domains.Domain),
	})
}
