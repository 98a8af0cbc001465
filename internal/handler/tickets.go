package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/server/middleware"
	"github.com/portcullisgw/portcullis/internal/shape"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TicketHandler serves the SecureChange ticket surface.
type TicketHandler struct {
	tufin     tufin.Client
	workflows authz.WorkflowTable
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(client tufin.Client, workflows authz.WorkflowTable) *TicketHandler {
	return &TicketHandler{tufin: client, workflows: workflows}
}

// List returns tickets, optionally filtered by status, with paging.
// GET /api/v1/tickets?status=&limit=&offset=
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	status := queryString(r, "status")
	limit := clampInt(queryInt(r, "limit", 50), 1, 200)
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	list, err := h.tufin.ListTickets(r.Context(), status, limit, offset)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shape.TicketList(list, limit, offset))
}

// Get returns a single ticket by ID.
// GET /api/v1/tickets/{ticketId}
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ticketId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ticket ID: "+chi.URLParam(r, "ticketId"))
		return
	}

	ticket, err := h.tufin.GetTicket(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shape.Ticket(*ticket))
}

// Create opens a SecureChange ticket. When the request names a workflow, the
// caller's role must be cleared for that workflow; an unknown workflow is
// denied for everyone.
// POST /api/v1/tickets
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.TicketCreate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ticket: "+err.Error())
		return
	}

	if req.Workflow != "" {
		principal := middleware.GetPrincipal(r.Context())
		if principal == nil || !h.workflows.Allowed(req.Workflow, principal.Role) {
			writeError(w, http.StatusForbidden, "Workflow not permitted: "+req.Workflow)
			return
		}
	}

	ticket, err := h.tufin.CreateTicket(r.Context(), req)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, shape.Ticket(*ticket))
}

// Update modifies an existing ticket. Only the provided fields are forwarded
// upstream.
// PUT /api/v1/tickets/{ticketId}
func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ticketId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ticket ID: "+chi.URLParam(r, "ticketId"))
		return
	}

	var req model.TicketUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ticket: "+err.Error())
		return
	}
	if req.Subject == "" && req.Description == "" && req.Status == "" {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	ticket, err := h.tufin.UpdateTicket(r.Context(), id, req)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shape.Ticket(*ticket))
}
