package tufin

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/portcullisgw/portcullis/internal/metrics"
)

func TestInstrumentedClientRecordsResults(t *testing.T) {
	inner := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/securetrack/api/domains":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"domains":{"domain":[{"id":"1","name":"Default"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"no such thing"}`))
		}
	}))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := Instrument(inner, m)

	if _, err := client.ListDomains(context.Background()); err != nil {
		t.Fatalf("ListDomains: %v", err)
	}
	if _, err := client.GetDevice(context.Background(), "9"); err == nil {
		t.Fatal("GetDevice should fail with upstream 404")
	}

	ok := testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("list_domains", "ok"))
	if ok != 1 {
		t.Fatalf("list_domains ok count = %v, want 1", ok)
	}
	failed := testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("get_device", "status"))
	if failed != 1 {
		t.Fatalf("get_device status count = %v, want 1", failed)
	}
}
