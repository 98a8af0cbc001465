// Package shape converts upstream Tufin payloads into the trimmed
// representations the gateway returns. Everything here is a pure function;
// handlers call these after a successful upstream round trip.
package shape

import "github.com/portcullisgw/portcullis/internal/model"

// Device maps a SecureTrack device onto the gateway shape. OS_Version
// becomes version and ip becomes ip_address; fields the gateway does not
// expose are dropped.
func Device(d model.TufinDevice) model.Device {
	return model.Device{
		ID:         d.ID,
		Name:       d.Name,
		Vendor:     d.Vendor,
		Model:      d.Model,
		Version:    d.OSVersion,
		IPAddress:  d.IP,
		DomainName: d.DomainName,
		Status:     d.Status,
	}
}

// DeviceList maps the SecureTrack device envelope, carrying count and total
// through unchanged.
func DeviceList(list *model.TufinDeviceList) model.DeviceList {
	devices := make([]model.Device, 0, len(list.Device))
	for _, d := range list.Device {
		devices = append(devices, Device(d))
	}
	return model.DeviceList{
		Devices: devices,
		Count:   list.Count,
		Total:   list.Total,
	}
}

// TopologyPath summarizes a path query result. The path is fully routed when
// SecureTrack reports no unrouted elements; device names are disclosed only
// when traffic is allowed on a fully routed path.
func TopologyPath(p *model.TufinTopologyPath) model.TopologyPath {
	routed := len(p.UnroutedElements) == 0

	out := model.TopologyPath{
		TrafficAllowed: p.TrafficAllowed,
		IsFullyRouted:  routed,
	}
	if p.TrafficAllowed && routed {
		names := make([]string, 0, len(p.DeviceInfo))
		for _, dev := range p.DeviceInfo {
			if dev.Name != "" {
				names = append(names, dev.Name)
			}
		}
		out.PathDeviceNames = names
	}
	return out
}

// Ticket maps a SecureChange ticket onto the gateway shape.
func Ticket(t model.TufinTicket) model.Ticket {
	return model.Ticket{
		ID:      t.ID,
		Subject: t.Subject,
		Status:  t.Status,
	}
}

// TicketList flattens the nested SecureChange envelope and records the
// paging window the caller asked for.
func TicketList(list *model.TufinTicketList, limit, offset int) model.TicketList {
	tickets := make([]model.Ticket, 0, len(list.Tickets.Ticket))
	for _, t := range list.Tickets.Ticket {
		tickets = append(tickets, Ticket(t))
	}
	return model.TicketList{
		Tickets: tickets,
		Total:   list.Total,
		Limit:   limit,
		Offset:  offset,
	}
}
