package model

// TufinDevice is a single device as returned by the SecureTrack
// /securetrack/api/devices endpoints. Only the fields the gateway consumes
// are declared; unknown fields are ignored on decode.
type TufinDevice struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Vendor         string `json:"vendor"`
	Model          string `json:"model"`
	OSVersion      string `json:"OS_Version"`
	IP             string `json:"ip"`
	Status         string `json:"status"`
	DomainID       string `json:"domain_id"`
	DomainName     string `json:"domain_name"`
	LatestRevision string `json:"latest_revision"`
	Offline        bool   `json:"offline"`
	Topology       bool   `json:"topology"`
}

// TufinDeviceList is the SecureTrack device list envelope: a flat "device"
// array plus count/total.
type TufinDeviceList struct {
	Device []TufinDevice `json:"device"`
	Count  int           `json:"count"`
	Total  int           `json:"total"`
}

// Device is the trimmed device representation returned by the gateway.
type Device struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Vendor     string `json:"vendor,omitempty"`
	Model      string `json:"model,omitempty"`
	Version    string `json:"version,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	DomainName string `json:"domain_name,omitempty"`
	Status     string `json:"status,omitempty"`
}

// DeviceList is the gateway's device list response.
type DeviceList struct {
	Devices []Device `json:"devices"`
	Count   int      `json:"count"`
	Total   int      `json:"total"`
}

// DeviceFilters narrows a SecureTrack device listing. Zero values mean no
// filtering on that attribute.
type DeviceFilters struct {
	Status string
	Name   string
	Vendor string
}
