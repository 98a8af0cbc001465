// Package tufin implements the outbound client for Tufin SecureTrack and
// SecureChange. Every method returns a *Error on failure; the HTTP layer
// maps its Kind onto a gateway status code.
package tufin

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/portcullisgw/portcullis/internal/model"
)

const defaultTimeout = 30 * time.Second

// Client is what the handlers depend on; tests substitute a fake.
type Client interface {
	ListDomains(ctx context.Context) (*model.TufinDomainList, error)
	ListDevices(ctx context.Context, filters model.DeviceFilters) (*model.TufinDeviceList, error)
	GetDevice(ctx context.Context, deviceID string) (*model.TufinDevice, error)
	AddDevices(ctx context.Context, payload json.RawMessage) error
	ImportManagedDevices(ctx context.Context, payload json.RawMessage) error
	GetTopologyPath(ctx context.Context, q model.TopologyQuery) (*model.TufinTopologyPath, error)
	GetTopologyPathImage(ctx context.Context, q model.TopologyQuery) ([]byte, string, error)
	QueryRulesGraphQL(ctx context.Context, query model.GraphQLQuery) (*model.GraphQLResult, error)
	ListTickets(ctx context.Context, status string, limit, offset int) (*model.TufinTicketList, error)
	CreateTicket(ctx context.Context, ticket model.TicketCreate) (*model.TufinTicket, error)
	GetTicket(ctx context.Context, ticketID int64) (*model.TufinTicket, error)
	UpdateTicket(ctx context.Context, ticketID int64, ticket model.TicketUpdate) (*model.TufinTicket, error)
}

// Config holds upstream connection parameters.
type Config struct {
	SecureTrackURL  string
	SecureChangeURL string
	GraphQLURL      string // full endpoint; derived from SecureTrackURL when empty
	Username        string
	Password        string
	SSLVerify       bool
	Timeout         time.Duration
	UserAgent       string
}

// HTTPClient talks to the Tufin APIs over HTTPS with basic auth.
type HTTPClient struct {
	cfg        Config
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds the upstream client. Appliances commonly run with
// self-signed certificates, so TLS verification is a config toggle.
func NewHTTPClient(cfg Config) *HTTPClient {
	cfg.SecureTrackURL = strings.TrimRight(cfg.SecureTrackURL, "/")
	cfg.SecureChangeURL = strings.TrimRight(cfg.SecureChangeURL, "/")
	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = cfg.SecureTrackURL + "/securetrack/api/graphql"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "portcullis"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.SSLVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &HTTPClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// do performs one upstream request and maps transport failures onto *Error.
// It returns the response body and content type on any 2xx answer.
func (c *HTTPClient) do(ctx context.Context, method, rawURL string, params url.Values, body interface{}) ([]byte, string, error) {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, "", timeoutErr("request timed out")
		}
		return nil, "", connectionErr("could not connect to " + req.URL.Redacted())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", connectionErr("reading response: " + err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", statusErr(resp.StatusCode, upstreamMessage(respBody))
	}

	return respBody, resp.Header.Get("Content-Type"), nil
}

// isTimeout distinguishes deadline expiry from other transport failures.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// upstreamMessage extracts the "message" field from an upstream error body,
// falling back to a trimmed slice of the raw text. The full body never
// reaches gateway callers.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 100 {
		text = text[:100] + "..."
	}
	return text
}

// decode unmarshals an upstream body, mapping failures to KindDecode.
func decode(body []byte, v interface{}, what string) error {
	if err := json.Unmarshal(body, v); err != nil {
		return decodeErr("failed to parse upstream response (" + what + ")")
	}
	return nil
}
