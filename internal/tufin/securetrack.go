package tufin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/portcullisgw/portcullis/internal/model"
)

func (c *HTTPClient) securetrack(path string) string {
	return c.cfg.SecureTrackURL + "/securetrack/api" + path
}

// ListDomains fetches the SecureTrack management domains. It doubles as the
// connectivity probe for /tufin/status.
func (c *HTTPClient) ListDomains(ctx context.Context) (*model.TufinDomainList, error) {
	body, _, err := c.do(ctx, http.MethodGet, c.securetrack("/domains"), nil, nil)
	if err != nil {
		return nil, err
	}

	var out model.TufinDomainList
	if err := decode(body, &out, "domains"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDevices fetches managed devices, filtered by status/name/vendor when
// set.
func (c *HTTPClient) ListDevices(ctx context.Context, filters model.DeviceFilters) (*model.TufinDeviceList, error) {
	params := url.Values{}
	if filters.Status != "" {
		params.Set("status", filters.Status)
	}
	if filters.Name != "" {
		params.Set("name", filters.Name)
	}
	if filters.Vendor != "" {
		params.Set("vendor", filters.Vendor)
	}

	body, _, err := c.do(ctx, http.MethodGet, c.securetrack("/devices"), params, nil)
	if err != nil {
		return nil, err
	}

	var out model.TufinDeviceList
	if err := decode(body, &out, "device list"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDevice fetches one device by SecureTrack id.
func (c *HTTPClient) GetDevice(ctx context.Context, deviceID string) (*model.TufinDevice, error) {
	body, _, err := c.do(ctx, http.MethodGet, c.securetrack("/devices/"+url.PathEscape(deviceID)), nil, nil)
	if err != nil {
		return nil, err
	}

	var out model.TufinDevice
	if err := decode(body, &out, "device details"); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddDevices submits a bulk add-devices task. The payload is the caller's
// document, forwarded verbatim; SecureTrack processes it asynchronously.
func (c *HTTPClient) AddDevices(ctx context.Context, payload json.RawMessage) error {
	_, _, err := c.do(ctx, http.MethodPost, c.securetrack("/devices/bulk"), nil, payload)
	return err
}

// ImportManagedDevices submits a bulk import task for devices already
// managed by an upstream management system.
func (c *HTTPClient) ImportManagedDevices(ctx context.Context, payload json.RawMessage) error {
	_, _, err := c.do(ctx, http.MethodPost, c.securetrack("/devices/bulk/import"), nil, payload)
	return err
}

func topologyParams(q model.TopologyQuery) url.Values {
	params := url.Values{}
	params.Set("src", q.Source)
	params.Set("dst", q.Destination)
	params.Set("service", q.Service)
	return params
}

// GetTopologyPath runs a path query and returns the full upstream result;
// the shape package summarizes it for gateway callers.
func (c *HTTPClient) GetTopologyPath(ctx context.Context, q model.TopologyQuery) (*model.TufinTopologyPath, error) {
	body, _, err := c.do(ctx, http.MethodGet, c.securetrack("/topology/path"), topologyParams(q), nil)
	if err != nil {
		return nil, err
	}

	var out model.TufinTopologyPath
	if err := decode(body, &out, "topology path"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTopologyPathImage fetches the rendered path diagram. The bytes and
// upstream content type pass through untouched.
func (c *HTTPClient) GetTopologyPathImage(ctx context.Context, q model.TopologyQuery) ([]byte, string, error) {
	return c.do(ctx, http.MethodGet, c.securetrack("/topology/path_image"), topologyParams(q), nil)
}

// QueryRulesGraphQL forwards a rule query to the SecureTrack GraphQL
// endpoint and returns its data/errors payload unchanged.
func (c *HTTPClient) QueryRulesGraphQL(ctx context.Context, query model.GraphQLQuery) (*model.GraphQLResult, error) {
	body, _, err := c.do(ctx, http.MethodPost, c.cfg.GraphQLURL, nil, query)
	if err != nil {
		return nil, err
	}

	var out model.GraphQLResult
	if err := decode(body, &out, "graphql"); err != nil {
		return nil, err
	}
	return &out, nil
}
