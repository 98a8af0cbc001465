package model

import "encoding/json"

// GraphQLQuery is the gateway's request body for rule queries forwarded to
// the SecureTrack GraphQL endpoint.
type GraphQLQuery struct {
	Query     string                 `json:"query" validate:"required"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResult carries the upstream data/errors payload through unchanged.
type GraphQLResult struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors json.RawMessage `json:"errors,omitempty"`
}
