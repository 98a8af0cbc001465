package tufin

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/portcullisgw/portcullis/internal/metrics"
	"github.com/portcullisgw/portcullis/internal/model"
)

// InstrumentedClient wraps a Client and records per-operation Prometheus
// counters and latency histograms.
type InstrumentedClient struct {
	next Client
	m    *metrics.Metrics
}

// Instrument returns a Client that records upstream metrics around every call.
func Instrument(next Client, m *metrics.Metrics) *InstrumentedClient {
	return &InstrumentedClient{next: next, m: m}
}

var _ Client = (*InstrumentedClient)(nil)

func (c *InstrumentedClient) observe(op string, start time.Time, err error) {
	c.m.UpstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	c.m.UpstreamRequests.WithLabelValues(op, resultFor(err)).Inc()
}

func resultFor(err error) string {
	if err == nil {
		return "ok"
	}
	var te *Error
	if errors.As(err, &te) {
		return string(te.Kind)
	}
	return "error"
}

func (c *InstrumentedClient) ListDomains(ctx context.Context) (*model.TufinDomainList, error) {
	start := time.Now()
	out, err := c.next.ListDomains(ctx)
	c.observe("list_domains", start, err)
	return out, err
}

func (c *InstrumentedClient) ListDevices(ctx context.Context, filters model.DeviceFilters) (*model.TufinDeviceList, error) {
	start := time.Now()
	out, err := c.next.ListDevices(ctx, filters)
	c.observe("list_devices", start, err)
	return out, err
}

func (c *InstrumentedClient) GetDevice(ctx context.Context, id string) (*model.TufinDevice, error) {
	start := time.Now()
	out, err := c.next.GetDevice(ctx, id)
	c.observe("get_device", start, err)
	return out, err
}

func (c *InstrumentedClient) AddDevices(ctx context.Context, payload json.RawMessage) error {
	start := time.Now()
	err := c.next.AddDevices(ctx, payload)
	c.observe("add_devices", start, err)
	return err
}

func (c *InstrumentedClient) ImportManagedDevices(ctx context.Context, payload json.RawMessage) error {
	start := time.Now()
	err := c.next.ImportManagedDevices(ctx, payload)
	c.observe("import_managed_devices", start, err)
	return err
}

func (c *InstrumentedClient) GetTopologyPath(ctx context.Context, q model.TopologyQuery) (*model.TufinTopologyPath, error) {
	start := time.Now()
	out, err := c.next.GetTopologyPath(ctx, q)
	c.observe("get_topology_path", start, err)
	return out, err
}

func (c *InstrumentedClient) GetTopologyPathImage(ctx context.Context, q model.TopologyQuery) ([]byte, string, error) {
	start := time.Now()
	img, ct, err := c.next.GetTopologyPathImage(ctx, q)
	c.observe("get_topology_path_image", start, err)
	return img, ct, err
}

func (c *InstrumentedClient) QueryRulesGraphQL(ctx context.Context, q model.GraphQLQuery) (*model.GraphQLResult, error) {
	start := time.Now()
	out, err := c.next.QueryRulesGraphQL(ctx, q)
	c.observe("query_rules_graphql", start, err)
	return out, err
}

func (c *InstrumentedClient) ListTickets(ctx context.Context, status string, limit, offset int) (*model.TufinTicketList, error) {
	start := time.Now()
	out, err := c.next.ListTickets(ctx, status, limit, offset)
	c.observe("list_tickets", start, err)
	return out, err
}

func (c *InstrumentedClient) CreateTicket(ctx context.Context, ticket model.TicketCreate) (*model.TufinTicket, error) {
	start := time.Now()
	out, err := c.next.CreateTicket(ctx, ticket)
	c.observe("create_ticket", start, err)
	return out, err
}

func (c *InstrumentedClient) GetTicket(ctx context.Context, id int64) (*model.TufinTicket, error) {
	start := time.Now()
	out, err := c.next.GetTicket(ctx, id)
	c.observe("get_ticket", start, err)
	return out, err
}

func (c *InstrumentedClient) UpdateTicket(ctx context.Context, id int64, ticket model.TicketUpdate) (*model.TufinTicket, error) {
	start := time.Now()
	out, err := c.next.UpdateTicket(ctx, id, ticket)
	c.observe("update_ticket", start, err)
	return out, err
}
