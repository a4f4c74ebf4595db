// Package schema describes the expected shape of an API payload. A Schema
// validates raw JSON into a typed value and manufactures the safe default
// handed out when validation fails.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Kind discriminates the shape a Schema expects.
type Kind int

const (
	// KindScalar is any non-container value (string, number, bool).
	KindScalar Kind = iota
	// KindObject is a JSON object decoded into a struct or map.
	KindObject
	// KindArray is a JSON array decoded into a slice.
	KindArray
	// KindEnvelope asks the executor for the response envelope itself.
	KindEnvelope
)

// String returns the kind name used in validation messages.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindEnvelope:
		return "envelope"
	default:
		return "scalar"
	}
}

// ErrMissing is returned when a required payload is absent or null.
var ErrMissing = errors.New("value is missing")

// ValidationError describes why a payload did not match a Schema.
type ValidationError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// validate is shared by every schema; validator caches struct metadata.
var validate *validator.Validate

// zfsNamePattern matches pool, dataset and snapshot name components.
var zfsNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.:\-]+(/[a-zA-Z0-9_.:\-]+)*$`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("zfsname", func(fl validator.FieldLevel) bool {
		return zfsNamePattern.MatchString(fl.Field().String())
	})
}

// Schema is a shape descriptor for values of type T.
type Schema[T any] struct {
	kind     Kind
	optional bool
	empty    func() T
	defaults func(*T)
}

// Object returns a schema for a JSON object decoded into T.
func Object[T any]() Schema[T] {
	return Schema[T]{kind: KindObject}
}

// ArrayOf returns a schema for a JSON array of E. Its default is an empty,
// non-nil slice.
func ArrayOf[E any]() Schema[[]E] {
	return Schema[[]E]{
		kind:  KindArray,
		empty: func() []E { return []E{} },
	}
}

// Scalar returns a schema for a primitive value.
func Scalar[T any]() Schema[T] {
	return Schema[T]{kind: KindScalar}
}

// Passthrough returns a schema marking T as the response envelope type, so
// the executor hands back the envelope instead of its data.
func Passthrough[T any]() Schema[T] {
	return Schema[T]{kind: KindEnvelope}
}

// Optional accepts an absent or null payload, yielding the default.
func (s Schema[T]) Optional() Schema[T] {
	s.optional = true
	return s
}

// WithDefaults registers a hook that fills unset fields after decoding,
// before validation runs.
func (s Schema[T]) WithDefaults(fn func(*T)) Schema[T] {
	s.defaults = fn
	return s
}

// Kind returns the schema discriminant.
func (s Schema[T]) Kind() Kind {
	return s.kind
}

// Default returns the safe fallback value: an empty slice for arrays and the
// zero value otherwise.
func (s Schema[T]) Default() T {
	if s.empty != nil {
		return s.empty()
	}
	var zero T
	return zero
}

// Validate decodes raw into T and checks it against the schema.
func (s Schema[T]) Validate(raw json.RawMessage) (T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if s.optional {
			return s.Default(), nil
		}
		return s.Default(), &ValidationError{Kind: s.kind, Reason: "no value", Err: ErrMissing}
	}

	switch s.kind {
	case KindArray:
		if trimmed[0] != '[' {
			return s.Default(), &ValidationError{Kind: s.kind, Reason: "expected array, got " + tokenName(trimmed[0])}
		}
	case KindObject, KindEnvelope:
		if trimmed[0] != '{' {
			return s.Default(), &ValidationError{Kind: s.kind, Reason: "expected object, got " + tokenName(trimmed[0])}
		}
	case KindScalar:
		if trimmed[0] == '{' || trimmed[0] == '[' {
			return s.Default(), &ValidationError{Kind: s.kind, Reason: "expected scalar, got " + tokenName(trimmed[0])}
		}
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return s.Default(), &ValidationError{Kind: s.kind, Reason: "decode failed", Err: err}
	}
	if s.kind == KindArray && s.empty != nil && reflect.ValueOf(v).IsNil() {
		v = s.empty()
	}
	if s.defaults != nil {
		s.defaults(&v)
	}
	if err := Check(v); err != nil {
		return s.Default(), &ValidationError{Kind: s.kind, Reason: "constraint failed", Err: err}
	}
	return v, nil
}

// Check runs struct tag validation on v, descending into slices and
// pointers. Values without struct tags always pass.
func Check(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return validate.Struct(rv.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := Check(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func tokenName(b byte) string {
	switch {
	case b == '{':
		return "object"
	case b == '[':
		return "array"
	case b == '"':
		return "string"
	case b == 't' || b == 'f':
		return "boolean"
	case b == '-' || (b >= '0' && b <= '9'):
		return "number"
	default:
		return "unknown token"
	}
}
