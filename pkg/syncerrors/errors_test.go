package syncerrors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestUpstreamRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{400, false},
		{401, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		e := &UpstreamError{System: "hubspot", Status: tt.status}
		if got := e.Retryable(); got != tt.want {
			t.Errorf("Retryable(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("customer 500: %w", &TransportError{System: "acgi", Err: io.EOF})

	var transport *TransportError
	if !errors.As(wrapped, &transport) {
		t.Fatal("TransportError not found through wrapping")
	}
	if transport.System != "acgi" {
		t.Errorf("System = %q", transport.System)
	}
	if !errors.Is(wrapped, io.EOF) {
		t.Error("underlying cause lost")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&TransportError{System: "acgi", Status: 502}, "acgi transport error: HTTP 502"},
		{&ParseError{System: "hubspot", Err: io.EOF}, "hubspot parse error: EOF"},
		{&ValidationError{Reason: "missing API key"}, "validation error: missing API key"},
		{&UpstreamError{System: "hubspot", Status: 400, Body: "bad property"}, "hubspot returned HTTP 400: bad property"},
		{&MappingError{ObjectType: "orders"}, "no field mapping configured for object type orders"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
