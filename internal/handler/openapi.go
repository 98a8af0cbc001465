package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIHandler serves the gateway's OpenAPI 3.1 document. The surface is
// fixed, so the document is marshaled once on first request and cached for
// the life of the process.
type OpenAPIHandler struct {
	doc *openapi3.T

	once sync.Once
	body []byte
	err  error
}

// NewOpenAPIHandler creates a new OpenAPIHandler around a generated document.
func NewOpenAPIHandler(doc *openapi3.T) *OpenAPIHandler {
	return &OpenAPIHandler{doc: doc}
}

// Serve returns the API description.
// GET /openapi.json
func (h *OpenAPIHandler) Serve(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.body, h.err = json.Marshal(h.doc)
	})
	if h.err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render API description")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.body)
}
