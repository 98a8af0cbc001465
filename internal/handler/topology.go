package handler

import (
	"net/http"

	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/shape"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

// TopologyHandler serves SecureTrack topology path queries.
type TopologyHandler struct {
	tufin tufin.Client
}

// NewTopologyHandler creates a new TopologyHandler.
func NewTopologyHandler(client tufin.Client) *TopologyHandler {
	return &TopologyHandler{tufin: client}
}

// topologyQuery pulls the src/dst/service triple out of the query string.
// src and dst are mandatory.
func topologyQuery(r *http.Request) (model.TopologyQuery, bool) {
	q := model.TopologyQuery{
		Source:      queryString(r, "src"),
		Destination: queryString(r, "dst"),
		Service:     queryString(r, "service"),
	}
	if q.Service == "" {
		q.Service = "any"
	}
	return q, q.Source != "" && q.Destination != ""
}

// Path runs a topology path query and returns the summarized result. Device
// names along the path are included only when traffic is allowed and the
// path is fully routed.
// GET /api/v1/topology/path?src=&dst=&service=
func (h *TopologyHandler) Path(w http.ResponseWriter, r *http.Request) {
	q, ok := topologyQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "src and dst query parameters are required")
		return
	}

	path, err := h.tufin.GetTopologyPath(r.Context(), q)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shape.TopologyPath(path))
}

// PathImage streams the rendered topology path image through unchanged,
// preserving the upstream content type.
// GET /api/v1/topology/path_image?src=&dst=&service=
func (h *TopologyHandler) PathImage(w http.ResponseWriter, r *http.Request) {
	q, ok := topologyQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "src and dst query parameters are required")
		return
	}

	img, contentType, err := h.tufin.GetTopologyPathImage(r.Context(), q)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}
