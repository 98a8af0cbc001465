package client

import (
	"net/http"
	"time"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL sets the gateway base URL, e.g. "https://gw.example.com:8443".
// If not set, defaults to the PORTCULLIS_SERVER_ADDR environment variable.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithAPIKey sets the API key presented on every request.
// If not set, defaults to the PORTCULLIS_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithAPIKeyHeader overrides the header the key is sent in. Only needed when
// the gateway was configured with a non-default auth.api_key_header.
func WithAPIKeyHeader(name string) Option {
	return func(c *Client) {
		c.keyHeader = name
	}
}

// WithTimeout sets the per-request timeout. Defaults to 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom http.Client, useful for testing, proxying, or
// custom TLS configuration.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}
