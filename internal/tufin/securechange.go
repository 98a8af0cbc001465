package tufin

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/portcullisgw/portcullis/internal/model"
)

func (c *HTTPClient) securechange(path string) string {
	return c.cfg.SecureChangeURL + "/securechangeworkflow/api/securechange" + path
}

// ticketEnvelope is the SecureChange request body shape: ticket fields nest
// under a "ticket" object, and the workflow is a name reference.
type ticketEnvelope struct {
	Ticket ticketBody `json:"ticket"`
}

type ticketBody struct {
	Subject     string       `json:"subject,omitempty"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status,omitempty"`
	Workflow    *workflowRef `json:"workflow,omitempty"`
}

type workflowRef struct {
	Name string `json:"name"`
}

// ListTickets fetches tickets with paging and an optional status filter.
func (c *HTTPClient) ListTickets(ctx context.Context, status string, limit, offset int) (*model.TufinTicketList, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if status != "" {
		params.Set("status", status)
	}

	body, _, err := c.do(ctx, http.MethodGet, c.securechange("/tickets"), params, nil)
	if err != nil {
		return nil, err
	}

	var out model.TufinTicketList
	if err := decode(body, &out, "ticket list"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTicket opens a new SecureChange ticket.
func (c *HTTPClient) CreateTicket(ctx context.Context, ticket model.TicketCreate) (*model.TufinTicket, error) {
	payload := ticketEnvelope{Ticket: ticketBody{
		Subject:     ticket.Subject,
		Description: ticket.Description,
	}}
	if ticket.Workflow != "" {
		payload.Ticket.Workflow = &workflowRef{Name: ticket.Workflow}
	}

	body, _, err := c.do(ctx, http.MethodPost, c.securechange("/tickets"), nil, payload)
	if err != nil {
		return nil, err
	}

	var out model.TufinTicket
	if err := decode(body, &out, "create ticket"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTicket fetches one ticket by id.
func (c *HTTPClient) GetTicket(ctx context.Context, ticketID int64) (*model.TufinTicket, error) {
	body, _, err := c.do(ctx, http.MethodGet, c.securechange("/tickets/"+strconv.FormatInt(ticketID, 10)), nil, nil)
	if err != nil {
		return nil, err
	}

	var out model.TufinTicket
	if err := decode(body, &out, "ticket details"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTicket modifies an existing ticket. Only set fields are forwarded.
func (c *HTTPClient) UpdateTicket(ctx context.Context, ticketID int64, ticket model.TicketUpdate) (*model.TufinTicket, error) {
	payload := ticketEnvelope{Ticket: ticketBody{
		Subject:     ticket.Subject,
		Description: ticket.Description,
		Status:      ticket.Status,
	}}

	body, _, err := c.do(ctx, http.MethodPut, c.securechange("/tickets/"+strconv.FormatInt(ticketID, 10)), nil, payload)
	if err != nil {
		return nil, err
	}

	var out model.TufinTicket
	if err := decode(body, &out, "update ticket"); err != nil {
		return nil, err
	}
	return &out, nil
}
