package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind tags the outcome of a domain API call.
type Kind int

const (
	KindOK Kind = iota
	KindBusinessError
	KindTransportFailure
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindBusinessError:
		return "business_error"
	case KindTransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the uniform return value of every domain API operation.
// Value holds the payload on KindOK and the operation's empty sentinel
// (nil or an empty slice) otherwise. Body is set for KindBusinessError,
// Message for KindTransportFailure.
type Result[T any] struct {
	Kind    Kind
	Value   T
	Status  int
	Body    *ErrorBody
	Message string
	err     error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Kind == KindOK
}

// Err returns nil, a *BusinessError or a *TransportError.
func (r Result[T]) Err() error {
	switch r.Kind {
	case KindOK:
		return nil
	case KindBusinessError:
		return &BusinessError{Status: r.Status, Body: r.Body}
	default:
		if te, ok := r.err.(*TransportError); ok {
			return te
		}
		return &TransportError{Status: r.Status, Message: r.Message, Err: r.err}
	}
}

// Extractor pulls the success payload out of a 2xx body. ok=false means the
// body does not carry a success payload and is treated as a business error;
// a non-nil error means the body could not be decoded.
type Extractor[T any] func(data json.RawMessage) (value T, ok bool, err error)

// Normalize maps a transport outcome onto a Result. empty is the sentinel
// returned whenever the call did not succeed.
func Normalize[T any](resp Response, err error, empty T, extract Extractor[T]) Result[T] {
	if err != nil {
		r := Result[T]{Kind: KindTransportFailure, Value: empty, Message: err.Error(), err: err}
		if te, ok := err.(*TransportError); ok {
			r.Status = te.Status
		}
		return r
	}
	if resp.Status < 200 || resp.Status > 299 {
		return Result[T]{Kind: KindBusinessError, Value: empty, Status: resp.Status, Body: parseErrorBody(resp.Data)}
	}
	v, ok, derr := extract(resp.Data)
	if derr != nil {
		te := &TransportError{Status: resp.Status, Message: "The server sent a response that could not be read.", Err: derr}
		return Result[T]{Kind: KindTransportFailure, Value: empty, Status: resp.Status, Message: te.Message, err: te}
	}
	if !ok {
		return Result[T]{Kind: KindBusinessError, Value: empty, Status: resp.Status, Body: parseErrorBody(resp.Data)}
	}
	return Result[T]{Kind: KindOK, Value: v, Status: resp.Status}
}

// ListField extracts the array under name. A missing or null field yields an
// empty, non-nil slice.
func ListField[E any](name string) Extractor[[]E] {
	return func(data json.RawMessage) ([]E, bool, error) {
		field, err := lookupField(data, name)
		if err != nil {
			return []E{}, false, err
		}
		out := []E{}
		if field == nil {
			return out, true, nil
		}
		if err := json.Unmarshal(field, &out); err != nil {
			return []E{}, false, fmt.Errorf("decode %s: %w", name, err)
		}
		if out == nil {
			out = []E{}
		}
		return out, true, nil
	}
}

// ObjectField extracts the object under name. A missing or null field means
// the body carries no success payload.
func ObjectField[E any](name string) Extractor[*E] {
	return func(data json.RawMessage) (*E, bool, error) {
		field, err := lookupField(data, name)
		if err != nil || field == nil {
			return nil, false, err
		}
		var v E
		if err := json.Unmarshal(field, &v); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", name, err)
		}
		return &v, true, nil
	}
}

// ObjectOrField extracts the object under name, or the whole body when the
// field is absent. accept decides whether the decoded value is a real
// payload.
func ObjectOrField[E any](name string, accept func(*E) bool) Extractor[*E] {
	return func(data json.RawMessage) (*E, bool, error) {
		field, err := lookupField(data, name)
		if err != nil {
			return nil, false, err
		}
		if field == nil {
			field = data
		}
		if field == nil {
			return nil, false, nil
		}
		var v E
		if err := json.Unmarshal(field, &v); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", name, err)
		}
		if accept != nil && !accept(&v) {
			return nil, false, nil
		}
		return &v, true, nil
	}
}

// Object decodes the whole body. A nil body decodes to the zero value.
func Object[E any](accept func(*E) bool) Extractor[*E] {
	return func(data json.RawMessage) (*E, bool, error) {
		var v E
		if data != nil {
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, false, fmt.Errorf("decode body: %w", err)
			}
		}
		if accept != nil && !accept(&v) {
			return nil, false, nil
		}
		return &v, true, nil
	}
}

// lookupField returns the raw value of name in a JSON object body, or nil
// when the body is empty, the field is absent, or the field is null.
func lookupField(data json.RawMessage, name string) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	field, ok := obj[name]
	if !ok || bytes.Equal(bytes.TrimSpace(field), []byte("null")) {
		return nil, nil
	}
	return field, nil
}
