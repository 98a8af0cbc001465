package client

import "encoding/json"

// Device is one monitored device as reported by the gateway.
type Device struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Vendor     string `json:"vendor,omitempty"`
	Model      string `json:"model,omitempty"`
	Version    string `json:"version,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	DomainName string `json:"domain_name,omitempty"`
	Status     string `json:"status,omitempty"`
}

// DeviceList is the device listing response.
type DeviceList struct {
	Devices []Device `json:"devices"`
	Count   int      `json:"count"`
	Total   int      `json:"total"`
}

// DeviceFilters narrows a device listing. Zero values mean no filtering on
// that attribute.
type DeviceFilters struct {
	Status string
	Name   string
	Vendor string
}

// TopologyPath summarizes a topology path query.
type TopologyPath struct {
	TrafficAllowed  bool     `json:"traffic_allowed"`
	IsFullyRouted   bool     `json:"is_fully_routed"`
	PathDeviceNames []string `json:"path_device_names,omitempty"`
}

// GraphQLResult carries a rule query result through untouched.
type GraphQLResult struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors json.RawMessage `json:"errors,omitempty"`
}

// Ticket is one SecureChange ticket as reported by the gateway.
type Ticket struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// TicketList is a page of tickets.
type TicketList struct {
	Tickets []Ticket `json:"tickets"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// TicketCreate is the payload for opening a ticket.
type TicketCreate struct {
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Workflow    string `json:"workflow,omitempty"`
}

// TicketUpdate modifies an existing ticket. Empty fields are left unchanged.
type TicketUpdate struct {
	Subject     string `json:"subject,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// ListTicketsOptions controls ticket listing. A zero Limit uses the gateway
// default.
type ListTicketsOptions struct {
	Status string
	Limit  int
	Offset int
}

// SecureResponse confirms that the caller's key cleared authentication and
// authorization, and reports the role it resolved to.
type SecureResponse struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

// ConnectionStatus reports the gateway's view of its upstream.
type ConnectionStatus struct {
	Status  string `json:"status"`
	Domains int    `json:"domains"`
}
