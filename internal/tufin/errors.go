package tufin

import "fmt"

// Kind classifies an upstream failure so the HTTP layer can pick a status
// code without string-matching.
type Kind string

const (
	KindTimeout    Kind = "timeout"    // request exceeded the client deadline
	KindConnection Kind = "connection" // DNS, refused, TLS, unreachable
	KindStatus     Kind = "status"     // upstream answered with a 4xx/5xx
	KindDecode     Kind = "decode"     // upstream body did not parse
)

// Error is the typed failure every client method returns. Message is already
// sanitized: it never carries credentials, upstream bodies beyond a trimmed
// message field, or stack detail.
type Error struct {
	Kind       Kind
	StatusCode int // upstream status for KindStatus, zero otherwise
	Message    string
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("tufin: upstream status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tufin: %s: %s", e.Kind, e.Message)
}

func timeoutErr(msg string) *Error    { return &Error{Kind: KindTimeout, Message: msg} }
func connectionErr(msg string) *Error { return &Error{Kind: KindConnection, Message: msg} }
func decodeErr(msg string) *Error     { return &Error{Kind: KindDecode, Message: msg} }

func statusErr(code int, msg string) *Error {
	return &Error{Kind: KindStatus, StatusCode: code, Message: msg}
}
