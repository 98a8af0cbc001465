// Package client is the Go SDK for the Portcullis gateway. It wraps the
// REST surface in typed methods, authenticating every call with an API key.
//
//	gw := client.New(
//		client.WithBaseURL("https://gw.example.com:8443"),
//		client.WithAPIKey("pcl_..."),
//	)
//	devices, err := gw.ListDevices(ctx, client.DeviceFilters{Vendor: "Cisco"})
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultKeyHeader = "X-API-Key"
	apiPrefix        = "/api/v1"
)

// Client talks to a Portcullis gateway.
type Client struct {
	baseURL    string
	apiKey     string
	keyHeader  string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
}

// New creates a Client. It reads PORTCULLIS_SERVER_ADDR and
// PORTCULLIS_API_KEY from the environment by default; options override.
// With neither set, the client targets http://localhost:8080.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   os.Getenv("PORTCULLIS_SERVER_ADDR"),
		apiKey:    os.Getenv("PORTCULLIS_API_KEY"),
		keyHeader: defaultKeyHeader,
		timeout:   defaultTimeout,
		userAgent: "portcullis-go-sdk",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == "" {
		c.baseURL = "http://localhost:8080"
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c
}

// BaseURL reports the gateway address the client resolved at construction.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListDevices returns the monitored devices, optionally filtered.
func (c *Client) ListDevices(ctx context.Context, filters DeviceFilters) (*DeviceList, error) {
	q := url.Values{}
	if filters.Status != "" {
		q.Set("status", filters.Status)
	}
	if filters.Name != "" {
		q.Set("name", filters.Name)
	}
	if filters.Vendor != "" {
		q.Set("vendor", filters.Vendor)
	}

	var list DeviceList
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/devices", q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetDevice returns a single device by its SecureTrack ID.
func (c *Client) GetDevice(ctx context.Context, deviceID string) (*Device, error) {
	var d Device
	path := apiPrefix + "/devices/" + url.PathEscape(deviceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// AddDevices submits a bulk device onboarding payload. The payload format is
// the SecureTrack bulk-add document; it is forwarded upstream verbatim.
// Requires the admin role.
func (c *Client) AddDevices(ctx context.Context, payload json.RawMessage) error {
	return c.do(ctx, http.MethodPost, apiPrefix+"/devices/bulk", nil, payload, nil)
}

// ImportManagedDevices starts a managed-device import. Requires the admin
// role.
func (c *Client) ImportManagedDevices(ctx context.Context, payload json.RawMessage) error {
	return c.do(ctx, http.MethodPost, apiPrefix+"/devices/bulk/import", nil, payload, nil)
}

// TopologyPath runs a topology path query between source and destination.
// An empty service defaults to "any" on the gateway side.
func (c *Client) TopologyPath(ctx context.Context, source, destination, service string) (*TopologyPath, error) {
	q := url.Values{}
	q.Set("src", source)
	q.Set("dst", destination)
	if service != "" {
		q.Set("service", service)
	}

	var path TopologyPath
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/topology/path", q, nil, &path); err != nil {
		return nil, err
	}
	return &path, nil
}

// TopologyPathImage returns the rendered topology path image and its content
// type.
func (c *Client) TopologyPathImage(ctx context.Context, source, destination, service string) ([]byte, string, error) {
	q := url.Values{}
	q.Set("src", source)
	q.Set("dst", destination)
	if service != "" {
		q.Set("service", service)
	}

	resp, err := c.send(ctx, http.MethodGet, apiPrefix+"/topology/path_image", q, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", apiError(resp, body)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// QueryRules runs a GraphQL query against the SecureTrack rule base.
func (c *Client) QueryRules(ctx context.Context, query string, variables map[string]interface{}) (*GraphQLResult, error) {
	req := map[string]interface{}{"query": query}
	if len(variables) > 0 {
		req["variables"] = variables
	}

	var result GraphQLResult
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/rules/query", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTickets returns a page of SecureChange tickets.
func (c *Client) ListTickets(ctx context.Context, opts ListTicketsOptions) (*TicketList, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	var list TicketList
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/tickets", q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateTicket opens a SecureChange ticket. Requires a role cleared for
// ticket creation, and for the named workflow when one is set.
func (c *Client) CreateTicket(ctx context.Context, ticket TicketCreate) (*Ticket, error) {
	var created Ticket
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/tickets", nil, ticket, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetTicket returns a single ticket by ID.
func (c *Client) GetTicket(ctx context.Context, ticketID int64) (*Ticket, error) {
	var t Ticket
	path := fmt.Sprintf("%s/tickets/%d", apiPrefix, ticketID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTicket modifies an existing ticket. At least one field must be set.
func (c *Client) UpdateTicket(ctx context.Context, ticketID int64, update TicketUpdate) (*Ticket, error) {
	var t Ticket
	path := fmt.Sprintf("%s/tickets/%d", apiPrefix, ticketID)
	if err := c.do(ctx, http.MethodPut, path, nil, update, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Secure checks that the configured key authenticates and reports its role.
// A cheap smoke test; it never touches the upstream.
func (c *Client) Secure(ctx context.Context) (*SecureResponse, error) {
	var resp SecureResponse
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/secure", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TufinStatus probes the gateway's upstream connectivity. Requires the admin
// role.
func (c *Client) TufinStatus(ctx context.Context) (*ConnectionStatus, error) {
	var status ConnectionStatus
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/tufin/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Healthz checks gateway liveness. It needs no credentials.
func (c *Client) Healthz(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

// do performs a request and decodes the JSON answer into result. Non-2xx
// answers become an *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// send builds and executes one HTTP request. The caller owns the response
// body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	u := strings.TrimRight(c.baseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(c.keyHeader, c.apiKey)
	}

	return c.httpClient.Do(req)
}

// apiError decodes the gateway error envelope into an *APIError, falling
// back to the raw body text when the envelope is missing.
func apiError(resp *http.Response, body []byte) *APIError {
	e := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			e.RetryAfter = secs
		}
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		e.Message = envelope.Error.Message
		return e
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	e.Message = text
	return e
}
