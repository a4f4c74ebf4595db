// Package sylve provides typed access to the Sylve REST API. Each method is a
// single validated request; read methods return the schema default alongside
// a classified error when the server's answer cannot be used.
package sylve

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"sylvectl/internal/api"
	"sylvectl/internal/schema"
)

// Client wraps an api.Client with Sylve's endpoints.
type Client struct {
	api *api.Client
}

// New returns a Sylve client over c.
func New(c *api.Client) *Client {
	return &Client{api: c}
}

// API returns the underlying executor client.
func (c *Client) API() *api.Client {
	return c.api
}

func get[T any](ctx context.Context, c *Client, endpoint string, s schema.Schema[T]) api.Result[T] {
	return api.Execute(ctx, c.api, endpoint, s, http.MethodGet, nil)
}

func mutate(ctx context.Context, c *Client, method, endpoint string, body any) api.Result[api.Envelope] {
	return api.Execute(ctx, c.api, endpoint, api.EnvelopeSchema(), method, body)
}

// pathf formats an endpoint, escaping each string argument as one path segment.
func pathf(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		if s, ok := a.(string); ok {
			escaped[i] = url.PathEscape(s)
			continue
		}
		escaped[i] = a
	}
	return fmt.Sprintf(format, escaped...)
}
