package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrServiceUnavailable is wrapped by transport errors caused by a 5xx status.
var ErrServiceUnavailable = errors.New("service unavailable")

// TransportError is a call that produced no usable response: network
// failure, timeout, or a server-side fault. Status is set only for 5xx.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FieldError is one entry of a validation error list.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ErrorBody is a structured error payload returned by the backend.
// Raw holds the body exactly as received.
type ErrorBody struct {
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Errors  []FieldError    `json:"errors,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Text returns the most specific human-readable message in the body.
func (b *ErrorBody) Text() string {
	if b == nil {
		return ""
	}
	for _, fe := range b.Errors {
		if msg := strings.TrimSpace(fe.Message); msg != "" {
			return msg
		}
	}
	if msg := strings.TrimSpace(b.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(b.Error)
}

func parseErrorBody(raw json.RawMessage) *ErrorBody {
	body := &ErrorBody{Raw: raw}
	if len(raw) > 0 {
		// Non-object bodies still surface through Raw.
		_ = json.Unmarshal(raw, body)
		body.Raw = raw
	}
	return body
}

// BusinessError is a well-formed request the backend rejected.
type BusinessError struct {
	Status int
	Body   *ErrorBody
}

func (e *BusinessError) Error() string {
	if msg := e.Body.Text(); msg != "" {
		return msg
	}
	if text := http.StatusText(e.Status); text != "" {
		return strings.ToLower(text)
	}
	return "request rejected"
}
