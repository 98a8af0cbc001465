package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// writeUpstreamError maps a Tufin client failure onto the gateway's response
// categories: timeouts are 504, unreachable upstreams 503, upstream-reported
// statuses pass through with their sanitized message, and undecodable
// payloads are 502. Anything else is an internal error with no detail leaked.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var te *tufin.Error
	if !errors.As(err, &te) {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	switch te.Kind {
	case tufin.KindTimeout:
		writeError(w, http.StatusGatewayTimeout, "Upstream request timed out")
	case tufin.KindConnection:
		writeError(w, http.StatusServiceUnavailable, "Upstream is unreachable")
	case tufin.KindStatus:
		writeError(w, te.StatusCode, te.Message)
	case tufin.KindDecode:
		writeError(w, http.StatusBadGateway, "Upstream returned an unreadable response")
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// readRawJSON reads the request body as an opaque JSON document that will be
// forwarded upstream verbatim.
func readRawJSON(r *http.Request) (json.RawMessage, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, errors.New("body is not valid JSON")
	}
	return json.RawMessage(data), nil
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// clampInt constrains val to be within [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
