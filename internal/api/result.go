package api

import (
	"fmt"
	"strings"
)

// ErrorKind classifies why a request did not produce validated data.
type ErrorKind int

const (
	// KindTransport covers network failures, timeouts, cancellation and
	// requests that could not be built.
	KindTransport ErrorKind = iota + 1
	// KindMalformed means the body was not a valid envelope.
	KindMalformed
	// KindEnvelope means the backend answered with a non-success status.
	KindEnvelope
	// KindValidation means the payload did not match the schema.
	KindValidation
	// KindAuthExpired means the backend rejected the session (HTTP 401).
	KindAuthExpired
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	case KindEnvelope:
		return "envelope"
	case KindValidation:
		return "validation"
	case KindAuthExpired:
		return "auth_expired"
	default:
		return "unknown"
	}
}

// Error describes a failed request. Code and Message are copied from the
// envelope when one was parsed.
type Error struct {
	Kind      ErrorKind
	Method    string
	Endpoint  string
	Status    int
	Code      string
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Method, e.Endpoint, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Code != "" {
		b.WriteString(": " + e.Code)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is what Execute returns. Value is always usable: on failure it holds
// the schema default (or the envelope-derived fallback, see FallbackPolicy).
type Result[T any] struct {
	Value     T
	Envelope  *Envelope
	Status    int
	RequestID string
	Err       *Error
}

// OK reports whether Value came from validated response data.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Cause returns Err as an error, or nil.
func (r Result[T]) Cause() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// FallbackPolicy picks the value returned when validation fails.
type FallbackPolicy int

const (
	// FallbackDefault returns the schema default.
	FallbackDefault FallbackPolicy = iota
	// FallbackEnvelope decodes the envelope itself into object-shaped
	// values. Array and scalar schemas still get their default.
	FallbackEnvelope
)

// ParseFallbackPolicy maps a config value to a policy.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return FallbackDefault, nil
	case "envelope":
		return FallbackEnvelope, nil
	default:
		return FallbackDefault, fmt.Errorf("unknown fallback policy %q", s)
	}
}
