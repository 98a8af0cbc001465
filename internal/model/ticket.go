package model

// TufinTicket is a single ticket as returned by SecureChange.
type TufinTicket struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
}

// TufinTicketList is the SecureChange list envelope. The ticket array is
// nested one level down ("tickets": {"ticket": [...]}).
type TufinTicketList struct {
	Tickets struct {
		Ticket []TufinTicket `json:"ticket"`
	} `json:"tickets"`
	Total int `json:"total"`
}

// TicketCreate is the gateway's request body for creating a ticket. Workflow
// is optional; when set it must name a workflow the caller's role is allowed
// to open tickets under.
type TicketCreate struct {
	Subject     string `json:"subject" validate:"required,max=255"`
	Description string `json:"description,omitempty" validate:"max=4000"`
	Workflow    string `json:"workflow,omitempty" validate:"max=255"`
}

// TicketUpdate is the gateway's request body for updating a ticket. All
// fields are optional; unset fields are not forwarded upstream.
type TicketUpdate struct {
	Subject     string `json:"subject,omitempty" validate:"max=255"`
	Description string `json:"description,omitempty" validate:"max=4000"`
	Status      string `json:"status,omitempty" validate:"max=64"`
}

// Ticket is the trimmed ticket representation returned by the gateway.
type Ticket struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// TicketList is the gateway's ticket list response.
type TicketList struct {
	Tickets []Ticket `json:"tickets"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}
