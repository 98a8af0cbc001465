package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/shape"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

// DeviceHandler serves the SecureTrack device surface.
type DeviceHandler struct {
	tufin tufin.Client
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(client tufin.Client) *DeviceHandler {
	return &DeviceHandler{tufin: client}
}

// List returns the monitored devices, optionally filtered by status, name,
// or vendor.
// GET /api/v1/devices
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := model.DeviceFilters{
		Status: queryString(r, "status"),
		Name:   queryString(r, "name"),
		Vendor: queryString(r, "vendor"),
	}

	list, err := h.tufin.ListDevices(r.Context(), filters)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shape.DeviceList(list))
}

// Get returns a single device by its SecureTrack ID.
// GET /api/v1/devices/{deviceId}
func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "deviceId")
	if _, err := url.PathUnescape(id); err != nil || id == "" {
		writeError(w, http.StatusBadRequest, "Invalid device ID")
		return
	}

	device, err := h.tufin.GetDevice(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shape.Device(*device))
}

// Add onboards devices into SecureTrack. The payload is forwarded upstream
// verbatim; SecureTrack processes bulk additions asynchronously.
// POST /api/v1/devices/bulk
func (h *DeviceHandler) Add(w http.ResponseWriter, r *http.Request) {
	payload, err := readRawJSON(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.tufin.AddDevices(r.Context(), payload); err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Device addition accepted",
	})
}

// Import starts a managed-device import in SecureTrack.
// POST /api/v1/devices/bulk/import
func (h *DeviceHandler) Import(w http.ResponseWriter, r *http.Request) {
	payload, err := readRawJSON(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.tufin.ImportManagedDevices(r.Context(), payload); err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Device import accepted",
	})
}
