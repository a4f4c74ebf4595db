package api

import (
	"bytes"
	"encoding/json"

	"sylvectl/internal/schema"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the wrapper every Sylve API response uses.
type Envelope struct {
	Status  string          `json:"status" validate:"required,oneof=success error"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Success reports whether the backend accepted the request.
func (e Envelope) Success() bool {
	return e.Status == StatusSuccess
}

// EnvelopeSchema asks Execute for the envelope itself rather than its data.
// Mutating endpoints use it so callers can read status and message.
func EnvelopeSchema() schema.Schema[Envelope] {
	return schema.Passthrough[Envelope]()
}

var envelopeSchema = schema.Object[Envelope]()

// parseEnvelope decodes body as an Envelope.
func parseEnvelope(body []byte) (Envelope, error) {
	return envelopeSchema.Validate(body)
}

// nestedData returns data.data when data is an object carrying one.
func nestedData(data json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var inner struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &inner); err != nil || len(inner.Data) == 0 {
		return nil, false
	}
	return inner.Data, true
}
