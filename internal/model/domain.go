package model

// TufinDomain is one SecureTrack management domain.
type TufinDomain struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TufinDomainList is the SecureTrack domains envelope
// ("domains": {"domain": [...]}).
type TufinDomainList struct {
	Domains struct {
		Domain []TufinDomain `json:"domain"`
	} `json:"domains"`
}

// ConnectionStatus is the gateway's upstream connectivity probe response.
type ConnectionStatus struct {
	Status  string `json:"status"`
	Domains int    `json:"domains"`
}
