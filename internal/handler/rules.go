package handler

import (
	"net/http"

	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

// RulesHandler serves the SecureTrack rules GraphQL passthrough.
type RulesHandler struct {
	tufin tufin.Client
}

// NewRulesHandler creates a new RulesHandler.
func NewRulesHandler(client tufin.Client) *RulesHandler {
	return &RulesHandler{tufin: client}
}

// Query forwards a GraphQL rules query to SecureTrack and returns the
// upstream result body.
// POST /api/v1/rules/graphql
func (h *RulesHandler) Query(w http.ResponseWriter, r *http.Request) {
	var q model.GraphQLQuery
	if err := readJSON(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if q.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.tufin.QueryRulesGraphQL(r.Context(), q)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
