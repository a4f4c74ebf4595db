package api

import (
	"context"
	"encoding/json"
	"net/http"

	"sylvectl/internal/schema"
)

// Option adjusts a single Execute call.
type Option func(*callOptions)

type callOptions struct {
	fallback FallbackPolicy
}

// WithFallback overrides the client's FallbackPolicy for one call.
func WithFallback(p FallbackPolicy) Option {
	return func(o *callOptions) {
		o.fallback = p
	}
}

// Execute sends one request to endpoint and validates the envelope's data
// against s. It always returns a value assignable to T:
//
//   - a body that is not an envelope yields the default with KindMalformed;
//   - an envelope schema yields the envelope whatever its status;
//   - otherwise data, then data.data, are validated against s;
//   - if neither matches the fallback value is returned with KindValidation,
//     or KindEnvelope when the backend reported an error;
//   - transport failures yield the default with KindTransport.
//
// A 401 response is reported as KindAuthExpired and runs the OnAuthExpired
// hooks.
func Execute[T any](ctx context.Context, c *Client, endpoint string, s schema.Schema[T], method string, body any, opts ...Option) (res Result[T]) {
	o := callOptions{fallback: c.fallback}
	for _, opt := range opts {
		opt(&o)
	}

	res = Result[T]{Value: s.Default()}

	resp, err := c.send(ctx, method, endpoint, body)
	res.RequestID = resp.requestID
	res.Status = resp.status
	if err != nil {
		c.log.Error("[%s] %s request to %s failed: %v", resp.requestID, method, endpoint, err)
		res.Err = &Error{
			Kind:      KindTransport,
			Method:    method,
			Endpoint:  endpoint,
			Status:    resp.status,
			RequestID: resp.requestID,
			Err:       err,
		}
		return res
	}

	defer func() {
		if res.Status == http.StatusUnauthorized {
			res.Err = c.expire(res.Err, method, endpoint, resp.requestID)
		}
	}()

	env, err := parseEnvelope(resp.body)
	if err != nil {
		c.log.Warn("[%s] invalid API response structure from %s %s: %v", resp.requestID, method, endpoint, err)
		res.Err = &Error{
			Kind:      KindMalformed,
			Method:    method,
			Endpoint:  endpoint,
			Status:    resp.status,
			RequestID: resp.requestID,
			Err:       err,
		}
		return res
	}
	res.Envelope = &env

	var envErr *Error
	if !env.Success() {
		envErr = &Error{
			Kind:      KindEnvelope,
			Method:    method,
			Endpoint:  endpoint,
			Status:    resp.status,
			Code:      env.Error,
			Message:   env.Message,
			RequestID: resp.requestID,
		}
	}

	if s.Kind() == schema.KindEnvelope {
		v, err := s.Validate(resp.body)
		if err != nil {
			res.Err = validationError(method, endpoint, resp, &env, err)
			return res
		}
		res.Value = v
		res.Err = envErr
		return res
	}

	v, verr := s.Validate(env.Data)
	if verr == nil {
		res.Value = v
		res.Err = envErr
		return res
	}
	if inner, ok := nestedData(env.Data); ok {
		if v, err := s.Validate(inner); err == nil {
			res.Value = v
			res.Err = envErr
			return res
		}
	}

	if envErr != nil {
		c.log.Warn("[%s] %s %s returned %s: %s %s", resp.requestID, method, endpoint, env.Status, env.Error, env.Message)
		res.Err = envErr
	} else {
		c.log.Warn("[%s] failed to parse API response data from %s %s: %v", resp.requestID, method, endpoint, verr)
		res.Err = validationError(method, endpoint, resp, &env, verr)
	}
	res.Value = fallbackValue(s, o.fallback, resp.body)
	return res
}

func validationError(method, endpoint string, resp response, env *Envelope, err error) *Error {
	return &Error{
		Kind:      KindValidation,
		Method:    method,
		Endpoint:  endpoint,
		Status:    resp.status,
		Code:      env.Error,
		Message:   env.Message,
		RequestID: resp.requestID,
		Err:       err,
	}
}

// fallbackValue is the value handed out when no payload validated.
func fallbackValue[T any](s schema.Schema[T], p FallbackPolicy, body []byte) T {
	if p != FallbackEnvelope || s.Kind() != schema.KindObject {
		return s.Default()
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return s.Default()
	}
	return v
}

// expire turns a 401 result into KindAuthExpired and notifies the hooks.
func (c *Client) expire(prev *Error, method, endpoint, requestID string) *Error {
	e := &Error{
		Kind:      KindAuthExpired,
		Method:    method,
		Endpoint:  endpoint,
		Status:    http.StatusUnauthorized,
		RequestID: requestID,
	}
	if prev != nil {
		e.Code = prev.Code
		e.Message = prev.Message
		e.Err = prev.Err
	}
	c.log.Error("[%s] %s %s: session rejected by server", requestID, method, endpoint)
	c.authExpired(e)
	return e
}
