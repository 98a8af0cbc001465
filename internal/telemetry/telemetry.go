// Package telemetry reports anonymous usage statistics. The payload carries
// aggregate counts and build metadata only — never key material, admin
// identities, request contents, or upstream hostnames.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	flushInterval = 1 * time.Hour
	httpTimeout   = 3 * time.Second
)

// posthogEndpoint is a var so tests can point capture at a local server.
var posthogEndpoint = "https://us.i.posthog.com/capture/"

// posthogAPIKey is injected at build time via -ldflags. Left empty, telemetry
// is disabled entirely, so source builds stay silent.
var posthogAPIKey = ""

// SettingsStore is the slice of the key store the telemetry package needs: a
// persistent string map holding the anonymous instance ID and the opt-out
// flag. A nil store is accepted; the instance ID is then per-process.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Properties holds the telemetry payload sent with each heartbeat.
type Properties struct {
	Version     string  `json:"version"`
	GoVersion   string  `json:"go_version"`
	OS          string  `json:"os"`
	Arch        string  `json:"arch"`
	StoreDriver string  `json:"store_driver"`
	APIKeys     int     `json:"api_key_count"`
	Admins      int     `json:"admin_count"`
	Roles       int     `json:"role_count"`
	MCPEnabled  bool    `json:"mcp_enabled"`
	UptimeHrs   float64 `json:"uptime_hours"`
}

// PropertiesFunc is called on each flush to gather current state.
type PropertiesFunc func() Properties

// Tracker manages anonymous heartbeat reporting.
type Tracker struct {
	instanceID string
	propsFn    PropertiesFunc
	client     *http.Client
	startedAt  time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Tracker, resolving (or generating) the instance ID from the
// settings store. Returns nil when no API key is compiled in, when
// PORTCULLIS_TELEMETRY switches reporting off, or when the settings store
// says telemetry is disabled. A nil Tracker is safe to Start and Shutdown.
func New(ctx context.Context, store SettingsStore, propsFn PropertiesFunc) *Tracker {
	if posthogAPIKey == "" {
		return nil
	}

	if disabledByEnv(os.Getenv("PORTCULLIS_TELEMETRY")) {
		return nil
	}

	if store != nil {
		val, err := store.GetSetting(ctx, "telemetry.enabled")
		if err == nil && (val == "false" || val == "0") {
			return nil
		}
	}

	return &Tracker{
		instanceID: resolveInstanceID(ctx, store),
		propsFn:    propsFn,
		client:     &http.Client{Timeout: httpTimeout},
		startedAt:  time.Now(),
	}
}

func disabledByEnv(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "0", "false", "off", "no":
		return true
	}
	return false
}

// Start begins the background heartbeat loop: one event immediately, then one
// per hour. Non-blocking.
func (t *Tracker) Start() {
	if t == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		t.flush()

		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.flush()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the background loop and sends a final event.
func (t *Tracker) Shutdown() {
	if t == nil {
		return
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	t.flush()
}

func (t *Tracker) flush() {
	props := t.propsFn()
	props.UptimeHrs = time.Since(t.startedAt).Hours()
	t.capture("gateway_heartbeat", props)
}

func (t *Tracker) capture(event string, props Properties) {
	payload := map[string]any{
		"api_key":     posthogAPIKey,
		"event":       event,
		"distinct_id": t.instanceID,
		"properties":  props,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest("POST", posthogEndpoint, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return // fail silently — network issues are expected
	}
	resp.Body.Close()
}

// resolveInstanceID loads or generates a persistent anonymous instance ID.
func resolveInstanceID(ctx context.Context, store SettingsStore) string {
	if store != nil {
		id, err := store.GetSetting(ctx, "instance_id")
		if err == nil && id != "" {
			return id
		}
	}

	id := uuid.New().String()

	if store != nil {
		_ = store.SetSetting(ctx, "instance_id", id)
	}
	return id
}

// PrintNotice prints the telemetry opt-out notice to stderr.
func PrintNotice() {
	fmt.Fprintln(os.Stderr,
		"Anonymous usage stats are enabled to help improve Portcullis.",
	)
	fmt.Fprintln(os.Stderr,
		"Disable with: telemetry.enabled: false in portcullis.yaml  (or set PORTCULLIS_TELEMETRY=0)",
	)
	fmt.Fprintln(os.Stderr,
		"See: https://github.com/portcullisgw/portcullis/blob/main/TELEMETRY.md",
	)
	fmt.Fprintln(os.Stderr)
}
