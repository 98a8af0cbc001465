// Package openapi generates the OpenAPI 3.1 document for the gateway's REST
// surface. The surface is fixed at compile time, so the document is built
// once at startup and served verbatim from /openapi.json. Role requirements
// on each operation are rendered from the live permission table, which keeps
// the published contract in lockstep with what the authorizer enforces.
package openapi

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/portcullisgw/portcullis/internal/authz"
)

// Generate builds the gateway's OpenAPI document. apiKeyHeader is the
// configured authentication header name; table supplies the role annotation
// appended to each operation description.
func Generate(baseURL, apiKeyHeader string, table authz.Table) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Portcullis API",
			Description: "REST gateway for Tufin SecureTrack and SecureChange.",
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["apiKey"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "header",
			Name: apiKeyHeader,
		},
	}
	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	doc.Security = openapi3.SecurityRequirements{
		{"apiKey": {}},
		{"bearerAuth": {}},
	}

	doc.Paths = openapi3.NewPaths()

	addComponentSchemas(doc)
	addDevicePaths(doc, table)
	addTopologyPaths(doc, table)
	addRulesPaths(doc, table)
	addTicketPaths(doc, table)
	addStatusPaths(doc, table)
	addSystemPaths(doc)
	addOperationalPaths(doc)

	return doc
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addDevicePaths(doc *openapi3.T, table authz.Table) {
	doc.Paths.Set("/api/v1/devices", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"devices"},
			Summary:     "List monitored devices",
			Description: "Retrieve SecureTrack devices with optional status, name, and vendor filters. " + rolesNote(table, authz.PermListDevices),
			OperationID: "list_devices",
			Parameters:  deviceFilterParameters(),
			Responses:   upstreamResponses("200", "Device list", schemaRef("DeviceList")),
		},
	})

	doc.Paths.Set("/api/v1/devices/{deviceId}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"devices"},
			Summary:     "Get a device",
			Description: "Retrieve one SecureTrack device by its ID. " + rolesNote(table, authz.PermGetDevice),
			OperationID: "get_device",
			Parameters: openapi3.Parameters{
				pathParameter("deviceId", "SecureTrack device ID."),
			},
			Responses: upstreamResponses("200", "Device details", schemaRef("Device")),
		},
	})

	doc.Paths.Set("/api/v1/devices/bulk", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"devices"},
			Summary:     "Add devices",
			Description: "Onboard devices into SecureTrack. The payload is forwarded upstream verbatim and processed asynchronously. " + rolesNote(table, authz.PermAddDevices),
			OperationID: "add_devices",
			RequestBody: jsonBody("SecureTrack bulk device payload.", freeformObject()),
			Responses:   upstreamResponses("202", "Device addition accepted", successSchema()),
		},
	})

	doc.Paths.Set("/api/v1/devices/bulk/import", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"devices"},
			Summary:     "Import managed devices",
			Description: "Start a managed-device import in SecureTrack. " + rolesNote(table, authz.PermImportManagedDevices),
			OperationID: "import_managed_devices",
			RequestBody: jsonBody("SecureTrack managed-device import payload.", freeformObject()),
			Responses:   upstreamResponses("202", "Device import accepted", successSchema()),
		},
	})
}

func addTopologyPaths(doc *openapi3.T, table authz.Table) {
	doc.Paths.Set("/api/v1/topology/path", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"topology"},
			Summary:     "Run a topology path query",
			Description: "Check whether traffic from src to dst is allowed and summarize the path. Device names are included only for allowed, fully routed paths. " + rolesNote(table, authz.PermGetTopologyPath),
			OperationID: "get_topology_path",
			Parameters:  topologyParameters(),
			Responses:   upstreamResponses("200", "Path summary", schemaRef("TopologyPath")),
		},
	})

	doc.Paths.Set("/api/v1/topology/path_image", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"topology"},
			Summary:     "Render a topology path image",
			Description: "Stream the rendered topology path image through unchanged. " + rolesNote(table, authz.PermGetTopologyPathImage),
			OperationID: "get_topology_path_image",
			Parameters:  topologyParameters(),
			Responses:   imageResponses(),
		},
	})
}

func addRulesPaths(doc *openapi3.T, table authz.Table) {
	doc.Paths.Set("/api/v1/rules/query", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"rules"},
			Summary:     "Query security rules",
			Description: "Forward a GraphQL rule query to SecureTrack and return the result unchanged. " + rolesNote(table, authz.PermQueryRulesGraphQL),
			OperationID: "query_rules_graphql",
			RequestBody: jsonBody("GraphQL query and variables.", schemaRef("GraphQLQuery")),
			Responses:   upstreamResponses("200", "Query result", freeformObject()),
		},
	})
}

func addTicketPaths(doc *openapi3.T, table authz.Table) {
	doc.Paths.Set("/api/v1/tickets", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"tickets"},
			Summary:     "List tickets",
			Description: "Retrieve SecureChange tickets with optional status filter and paging. " + rolesNote(table, authz.PermListTickets),
			OperationID: "list_tickets",
			Parameters:  ticketListParameters(),
			Responses:   upstreamResponses("200", "Ticket list", schemaRef("TicketList")),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"tickets"},
			Summary:     "Create a ticket",
			Description: "Open a SecureChange ticket. A named workflow must be one the caller's role is cleared for. " + rolesNote(table, authz.PermCreateTicket),
			OperationID: "create_ticket",
			RequestBody: jsonBody("Ticket to create.", schemaRef("TicketCreate")),
			Responses:   upstreamResponses("201", "Created ticket", schemaRef("Ticket")),
		},
	})

	doc.Paths.Set("/api/v1/tickets/{ticketId}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"tickets"},
			Summary:     "Get a ticket",
			Description: "Retrieve one SecureChange ticket by its numeric ID. " + rolesNote(table, authz.PermGetTicket),
			OperationID: "get_ticket",
			Parameters: openapi3.Parameters{
				ticketIDParameter(),
			},
			Responses: upstreamResponses("200", "Ticket details", schemaRef("Ticket")),
		},
		Put: &openapi3.Operation{
			Tags:        []string{"tickets"},
			Summary:     "Update a ticket",
			Description: "Modify an existing ticket. Only provided fields are forwarded upstream. " + rolesNote(table, authz.PermUpdateTicket),
			OperationID: "update_ticket",
			Parameters: openapi3.Parameters{
				ticketIDParameter(),
			},
			RequestBody: jsonBody("Fields to update.", schemaRef("TicketUpdate")),
			Responses:   upstreamResponses("200", "Updated ticket", schemaRef("Ticket")),
		},
	})
}

func addStatusPaths(doc *openapi3.T, table authz.Table) {
	doc.Paths.Set("/api/v1/secure", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"status"},
			Summary:     "Authenticated access probe",
			Description: "Confirm the presented credentials clear authentication and authorization without touching the upstream. " + rolesNote(table, authz.PermAccessSecureEndpoint),
			OperationID: "access_secure_endpoint",
			Responses:   newResponses("200", "Access granted", accessGrantedSchema()),
		},
	})

	doc.Paths.Set("/api/v1/tufin/status", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"status"},
			Summary:     "Check upstream connectivity",
			Description: "Probe SecureTrack by listing management domains. " + rolesNote(table, authz.PermTestTufinConnection),
			OperationID: "test_tufin_connection",
			Responses:   upstreamResponses("200", "Upstream reachable", schemaRef("ConnectionStatus")),
		},
	})
}

// addSystemPaths documents the admin surface. These operations require an
// admin API key or a JWT session obtained through login.
func addSystemPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/v1/system/admin/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Admin login",
			Description: "Exchange admin credentials for a JWT session token.",
			OperationID: "login",
			Security:    &openapi3.SecurityRequirements{},
			RequestBody: jsonBody("Admin credentials.", schemaRef("LoginRequest")),
			Responses:   newResponses("200", "Session issued", schemaRef("LoginResponse")),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Admin logout",
			Description: "Invalidate the current session. JWTs are stateless; clients discard the token.",
			OperationID: "logout",
			Responses:   newResponses("200", "Session invalidated", successSchema()),
		},
	})

	doc.Paths.Set("/api/v1/system/admin", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "List admin accounts",
			Description: "Requires role: admin.",
			OperationID: "list_admins",
			Responses:   newResponses("200", "Admin accounts", schemaRef("ListResponse")),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Create an admin account",
			Description: "Requires role: admin.",
			OperationID: "create_admin",
			RequestBody: jsonBody("Admin account to create.", schemaRef("AdminCreate")),
			Responses:   newResponses("201", "Created admin", freeformObject()),
		},
	})

	doc.Paths.Set("/api/v1/system/api_key", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "List API keys",
			Description: "Key hashes are never included. Requires role: admin.",
			OperationID: "list_api_keys",
			Responses:   newResponses("200", "API key records", schemaRef("ListResponse")),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Create an API key",
			Description: "Generate a key bound to a role. The plaintext key appears in this response only and cannot be recovered afterwards. Requires role: admin.",
			OperationID: "create_api_key",
			RequestBody: jsonBody("Role and label for the new key.", schemaRef("APIKeyCreate")),
			Responses:   newResponses("201", "Created key, plaintext included once", schemaRef("APIKeyCreated")),
		},
	})

	doc.Paths.Set("/api/v1/system/api_key/{keyId}", &openapi3.PathItem{
		Delete: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Revoke an API key",
			Description: "Requires role: admin.",
			OperationID: "revoke_api_key",
			Parameters: openapi3.Parameters{
				pathParameter("keyId", "API key record ID."),
			},
			Responses: newResponses("200", "Key revoked", successSchema()),
		},
	})

	doc.Paths.Set("/api/v1/system/permission", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "View the permission table",
			Description: "Every protected operation and the roles cleared for it. Requires role: admin.",
			OperationID: "list_permissions",
			Responses:   newResponses("200", "Permission table", schemaRef("ListResponse")),
		},
	})

	doc.Paths.Set("/api/v1/system/workflow", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "View the workflow clearance table",
			Description: "SecureChange workflows and the roles allowed to open tickets under them. Requires role: admin.",
			OperationID: "list_workflows",
			Responses:   newResponses("200", "Workflow table", schemaRef("ListResponse")),
		},
	})
}

// addOperationalPaths documents the unauthenticated endpoints. They skip
// authentication but still pass through the rate limiter.
func addOperationalPaths(doc *openapi3.T) {
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"operational"},
			Summary:     "Liveness probe",
			OperationID: "healthz",
			Security:    &openapi3.SecurityRequirements{},
			Responses:   newResponses("200", "Process is alive", healthSchema()),
		},
	})

	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"operational"},
			Summary:     "Readiness probe",
			Description: "Reports whether the credential store is reachable.",
			OperationID: "readyz",
			Security:    &openapi3.SecurityRequirements{},
			Responses:   newResponses("200", "Ready to serve", healthSchema()),
		},
	})

	doc.Paths.Set("/metrics", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"operational"},
			Summary:     "Prometheus metrics",
			OperationID: "metrics",
			Security:    &openapi3.SecurityRequirements{},
			Responses:   textResponses("200", "Metrics in Prometheus exposition format"),
		},
	})
}

// ─── Component Schemas ──────────────────────────────────────────────────────

func addComponentSchemas(doc *openapi3.T) {
	doc.Components.Schemas["ErrorResponse"] = object(openapi3.Schemas{
		"error": object(openapi3.Schemas{
			"code":    prop("integer", "int32", "HTTP status code."),
			"message": prop("string", "", "Human-readable error description."),
			"context": freeformObject(),
		}),
	})

	doc.Components.Schemas["Device"] = object(openapi3.Schemas{
		"id":          prop("string", "", "SecureTrack device ID."),
		"name":        prop("string", "", ""),
		"vendor":      prop("string", "", ""),
		"model":       prop("string", "", ""),
		"version":     prop("string", "", "Device OS version."),
		"ip_address":  prop("string", "", ""),
		"domain_name": prop("string", "", "SecureTrack management domain."),
		"status":      prop("string", "", ""),
	})

	doc.Components.Schemas["DeviceList"] = object(openapi3.Schemas{
		"devices": arrayOf("#/components/schemas/Device"),
		"count":   prop("integer", "int32", "Devices in this response."),
		"total":   prop("integer", "int32", "Devices matching the filters."),
	})

	doc.Components.Schemas["TopologyPath"] = object(openapi3.Schemas{
		"traffic_allowed":   prop("boolean", "", "Whether the queried traffic is permitted."),
		"is_fully_routed":   prop("boolean", "", "Whether SecureTrack could route every segment."),
		"path_device_names": stringArray("Devices along the path; present only for allowed, fully routed paths."),
	})

	doc.Components.Schemas["GraphQLQuery"] = object(openapi3.Schemas{
		"query":     prop("string", "", "GraphQL query document."),
		"variables": freeformObject(),
	}, "query")

	doc.Components.Schemas["Ticket"] = object(openapi3.Schemas{
		"id":          prop("integer", "int64", "SecureChange ticket ID."),
		"subject":     prop("string", "", ""),
		"description": prop("string", "", ""),
		"status":      prop("string", "", ""),
	})

	doc.Components.Schemas["TicketList"] = object(openapi3.Schemas{
		"tickets": arrayOf("#/components/schemas/Ticket"),
		"total":   prop("integer", "int32", ""),
		"limit":   prop("integer", "int32", ""),
		"offset":  prop("integer", "int32", ""),
	})

	doc.Components.Schemas["TicketCreate"] = object(openapi3.Schemas{
		"subject":     prop("string", "", ""),
		"description": prop("string", "", ""),
		"workflow":    prop("string", "", "SecureChange workflow name; the caller's role must be cleared for it."),
	}, "subject")

	doc.Components.Schemas["TicketUpdate"] = object(openapi3.Schemas{
		"subject":     prop("string", "", ""),
		"description": prop("string", "", ""),
		"status":      prop("string", "", ""),
	})

	doc.Components.Schemas["ConnectionStatus"] = object(openapi3.Schemas{
		"status":  prop("string", "", "\"connected\" when the probe succeeds."),
		"domains": prop("integer", "int32", "Management domains visible upstream."),
	})

	doc.Components.Schemas["LoginRequest"] = object(openapi3.Schemas{
		"email":    prop("string", "", ""),
		"password": prop("string", "", ""),
	}, "email", "password")

	doc.Components.Schemas["LoginResponse"] = object(openapi3.Schemas{
		"session_token": prop("string", "", "JWT bearer token."),
		"token_type":    prop("string", "", ""),
		"expires_in":    prop("integer", "int32", "Token lifetime in seconds."),
		"admin_id":      prop("integer", "int64", ""),
		"email":         prop("string", "", ""),
		"name":          prop("string", "", ""),
	})

	doc.Components.Schemas["AdminCreate"] = object(openapi3.Schemas{
		"email":    prop("string", "", ""),
		"password": prop("string", "", "At least 8 characters."),
		"name":     prop("string", "", ""),
	}, "email", "password")

	doc.Components.Schemas["APIKeyCreate"] = object(openapi3.Schemas{
		"role":  prop("string", "", "One of admin, ticket_manager, user."),
		"label": prop("string", "", "Free-text description of the key's purpose."),
	}, "role")

	doc.Components.Schemas["APIKeyCreated"] = object(openapi3.Schemas{
		"id":         prop("string", "", "Record ID used for revocation."),
		"api_key":    prop("string", "", "Plaintext key. Shown once; store it now."),
		"key_prefix": prop("string", "", "Non-secret identification prefix."),
		"role":       prop("string", "", ""),
		"label":      prop("string", "", ""),
	})

	doc.Components.Schemas["ListResponse"] = object(openapi3.Schemas{
		"resource": &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: freeformObject(),
		}},
		"meta": object(openapi3.Schemas{
			"count": prop("integer", "int32", "Entries in this response."),
		}),
	})
}

// ─── Schema Builders ────────────────────────────────────────────────────────

func prop(typ, format, desc string) *openapi3.SchemaRef {
	s := &openapi3.Schema{Type: &openapi3.Types{typ}}
	if format != "" {
		s.Format = format
	}
	if desc != "" {
		s.Description = desc
	}
	return &openapi3.SchemaRef{Value: s}
}

func object(props openapi3.Schemas, required ...string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   required,
	}}
}

func freeformObject() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
}

func arrayOf(ref string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: openapi3.NewSchemaRef(ref, nil),
	}}
}

func stringArray(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:        &openapi3.Types{"array"},
		Description: desc,
		Items:       &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
	}}
}

func schemaRef(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func successSchema() *openapi3.SchemaRef {
	return object(openapi3.Schemas{
		"success": prop("boolean", "", ""),
		"message": prop("string", "", ""),
	})
}

func accessGrantedSchema() *openapi3.SchemaRef {
	return object(openapi3.Schemas{
		"message": prop("string", "", ""),
		"role":    prop("string", "", "Role of the authenticated caller."),
	})
}

func healthSchema() *openapi3.SchemaRef {
	return object(openapi3.Schemas{
		"status": prop("string", "", ""),
	})
}

// ─── Parameter Builders ─────────────────────────────────────────────────────

func pathParameter(name, desc string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter(name).
			WithDescription(desc).
			WithSchema(openapi3.NewStringSchema()),
	}
}

func ticketIDParameter() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("ticketId").
			WithDescription("SecureChange ticket ID.").
			WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}),
	}
}

func deviceFilterParameters() openapi3.Parameters {
	return openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("status").
				WithDescription("Filter on device status (e.g. \"started\").").
				WithSchema(openapi3.NewStringSchema()),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("name").
				WithDescription("Filter on device name.").
				WithSchema(openapi3.NewStringSchema()),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("vendor").
				WithDescription("Filter on device vendor.").
				WithSchema(openapi3.NewStringSchema()),
		},
	}
}

func topologyParameters() openapi3.Parameters {
	srcParam := openapi3.NewQueryParameter("src").
		WithDescription("Source address of the queried traffic.").
		WithSchema(openapi3.NewStringSchema())
	srcParam.Required = true

	dstParam := openapi3.NewQueryParameter("dst").
		WithDescription("Destination address of the queried traffic.").
		WithSchema(openapi3.NewStringSchema())
	dstParam.Required = true

	return openapi3.Parameters{
		&openapi3.ParameterRef{Value: srcParam},
		&openapi3.ParameterRef{Value: dstParam},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("service").
				WithDescription("Service in protocol:port form (e.g. \"tcp:443\"). Defaults to \"any\".").
				WithSchema(openapi3.NewStringSchema()),
		},
	}
}

func ticketListParameters() openapi3.Parameters {
	return openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("status").
				WithDescription("Filter on ticket status (e.g. \"In Progress\").").
				WithSchema(openapi3.NewStringSchema()),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("limit").
				WithDescription("Maximum tickets to return (1-200, default 50).").
				WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("offset").
				WithDescription("Tickets to skip before returning results.").
				WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}),
		},
	}
}

// ─── Request/Response Helpers ───────────────────────────────────────────────

func jsonBody(desc string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: desc,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

// newResponses builds a Responses map with a success response and the
// gateway's standard error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for code, desc := range map[string]string{
		"400": "Bad request",
		"401": "Missing or invalid credentials",
		"403": "Role not cleared for this operation",
		"429": "Rate limit exceeded",
		"500": "Internal server error",
	} {
		d := desc
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}

	return responses
}

// upstreamResponses extends newResponses with the statuses produced by
// upstream failures: timeouts, connection errors, and unreadable payloads.
func upstreamResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := newResponses(statusCode, description, schema)

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for code, desc := range map[string]string{
		"502": "Upstream returned an unreadable response",
		"503": "Upstream is unreachable",
		"504": "Upstream request timed out",
	} {
		d := desc
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}

	return responses
}

// imageResponses covers the path image endpoint, which streams binary data.
func imageResponses() *openapi3.Responses {
	responses := upstreamResponses("200", "Rendered path image", freeformObject())

	desc := "Rendered path image"
	responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content: openapi3.Content{
				"image/png": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{
						Type:   &openapi3.Types{"string"},
						Format: "binary",
					}},
				},
			},
		},
	})

	return responses
}

// textResponses covers the metrics endpoint, which is not JSON.
func textResponses(statusCode, description string) *openapi3.Responses {
	responses := openapi3.NewResponses()

	desc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content: openapi3.Content{
				"text/plain": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
				},
			},
		},
	})

	return responses
}

// ─── Role Annotations ───────────────────────────────────────────────────────

// rolesNote renders the clearance line appended to a protected operation's
// description, straight from the live permission table.
func rolesNote(table authz.Table, perm authz.Permission) string {
	roles, ok := table[perm]
	if !ok || len(roles) == 0 {
		return "No role is cleared for this operation."
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return "Requires role: " + strings.Join(names, " or ") + "."
}
