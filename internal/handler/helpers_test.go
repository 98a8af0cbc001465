package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/portcullisgw/portcullis/internal/tufin"
)

// ---------------------------------------------------------------------------
// queryInt tests
// ---------------------------------------------------------------------------

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		key        string
		defaultVal int
		want       int
	}{
		{"returns default for missing param", "/test", "limit", 25, 25},
		{"parses integer param", "/test?limit=100", "limit", 25, 100},
		{"returns default for non-integer", "/test?limit=abc", "limit", 25, 25},
		{"parses zero", "/test?offset=0", "offset", 10, 0},
		{"parses negative", "/test?offset=-5", "offset", 0, -5},
		{"returns default for empty value", "/test?limit=", "limit", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got := queryInt(r, tt.key, tt.defaultVal)
			if got != tt.want {
				t.Errorf("queryInt(%q, %d) = %d, want %d", tt.key, tt.defaultVal, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// clampInt tests
// ---------------------------------------------------------------------------

func TestClampInt(t *testing.T) {
	tests := []struct {
		name string
		val  int
		min  int
		max  int
		want int
	}{
		{"within range", 50, 0, 100, 50},
		{"at min", 0, 0, 100, 0},
		{"at max", 100, 0, 100, 100},
		{"below min clamps to min", -5, 0, 100, 0},
		{"above max clamps to max", 500, 0, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampInt(tt.val, tt.min, tt.max)
			if got != tt.want {
				t.Errorf("clampInt(%d, %d, %d) = %d, want %d", tt.val, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// readRawJSON tests
// ---------------------------------------------------------------------------

func TestReadRawJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"devices": [{"name": "fw1"}]}`, false},
		{"array", `[{"name": "fw1"}, {"name": "fw2"}]`, false},
		{"not json", `{broken`, true},
		{"empty body", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/test", strings.NewReader(tt.body))
			raw, err := readRawJSON(r)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(raw) != tt.body {
				t.Errorf("payload altered: got %s, want %s", raw, tt.body)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// writeUpstreamError tests
// ---------------------------------------------------------------------------

func TestWriteUpstreamError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"timeout maps to 504", &tufin.Error{Kind: tufin.KindTimeout, Message: "deadline"}, http.StatusGatewayTimeout, "timed out"},
		{"connection maps to 503", &tufin.Error{Kind: tufin.KindConnection, Message: "refused"}, http.StatusServiceUnavailable, "unreachable"},
		{"status passes through", &tufin.Error{Kind: tufin.KindStatus, StatusCode: 404, Message: "Device not found"}, http.StatusNotFound, "Device not found"},
		{"decode maps to 502", &tufin.Error{Kind: tufin.KindDecode, Message: "bad json"}, http.StatusBadGateway, "unreadable"},
		{"unknown error maps to 500", errors.New("boom"), http.StatusInternalServerError, "Internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeUpstreamError(w, tt.err)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if !strings.Contains(w.Body.String(), tt.wantMsg) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tt.wantMsg)
			}
		})
	}
}

func TestWriteUpstreamErrorNeverLeaksInternals(t *testing.T) {
	w := httptest.NewRecorder()
	writeUpstreamError(w, errors.New("dial tcp 10.0.0.5:443: password=hunter2"))
	if strings.Contains(w.Body.String(), "hunter2") {
		t.Errorf("internal error detail leaked: %s", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// writeError / writeJSON tests
// ---------------------------------------------------------------------------

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusBadRequest, "Invalid input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"code":400`) {
		t.Errorf("expected code 400 in body: %s", body)
	}
	if !strings.Contains(body, `"message":"Invalid input"`) {
		t.Errorf("expected message in body: %s", body)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), `"hello":"world"`) {
		t.Errorf("expected JSON body, got: %s", w.Body.String())
	}
}
