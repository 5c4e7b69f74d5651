// Package syncerrors defines the error taxonomy shared by the sync engine.
// Per-record errors (transport, parse, upstream) are collected into run
// summaries and never abort a batch; validation errors abort a run before any
// work starts; a missing mapping means "nothing to do" for that object type.
package syncerrors

import "fmt"

// TransportError is a network or HTTP-level failure reaching either system.
type TransportError struct {
	System string // "acgi" or "hubspot"
	Status int    // HTTP status, 0 when the request never completed
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s transport error: HTTP %d", e.System, e.Status)
	}
	return fmt.Sprintf("%s transport error: %v", e.System, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError is a malformed response body.
type ParseError struct {
	System string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse error: %v", e.System, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError is missing required configuration. It is the only error
// kind that prevents a run from starting.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

// UpstreamError is a non-2xx application-level response, carrying the status
// and body so run summaries can surface the upstream message.
type UpstreamError struct {
	System string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.System, e.Status, e.Body)
}

// Retryable reports whether the response indicates a transient condition
// (rate limiting or a server-side failure).
func (e *UpstreamError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// MappingError means no field mapping is configured for an object type.
// Treated as "nothing to do", not fatal.
type MappingError struct {
	ObjectType string
}

func (e *MappingError) Error() string {
	return "no field mapping configured for object type " + e.ObjectType
}
