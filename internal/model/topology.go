package model

// TufinPathDevice is one hop in a SecureTrack topology path result. The
// upstream payload carries far more detail (NAT entries, interface and
// routing info); the gateway only consumes the identity fields.
type TufinPathDevice struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Vendor string `json:"vendor"`
}

// TufinUnroutedElement marks a segment of the queried path that SecureTrack
// could not route.
type TufinUnroutedElement struct {
	Source      []string `json:"source"`
	Destination string   `json:"destination"`
}

// TufinTopologyPath is the SecureTrack response for
// GET /securetrack/api/topology/path.
type TufinTopologyPath struct {
	TrafficAllowed   bool                   `json:"traffic_allowed"`
	DeviceInfo       []TufinPathDevice      `json:"device_info"`
	UnroutedElements []TufinUnroutedElement `json:"unrouted_elements"`
}

// TopologyPath is the summarized path query response returned by the
// gateway. PathDeviceNames is present only when traffic is allowed and the
// path is fully routed.
type TopologyPath struct {
	TrafficAllowed  bool     `json:"traffic_allowed"`
	IsFullyRouted   bool     `json:"is_fully_routed"`
	PathDeviceNames []string `json:"path_device_names,omitempty"`
}

// TopologyQuery holds the three mandatory parameters of a path query.
type TopologyQuery struct {
	Source      string
	Destination string
	Service     string
}
