package respondio

import (
	"errors"
	"fmt"
)

// Op names the remote operation that failed.
type Op string

const (
	OpGet    Op = "GET"
	OpCreate Op = "CREATE"
	OpUpdate Op = "UPDATE"
	OpTag    Op = "TAG"
)

// APIError is the per-contact error descriptor. Either StatusCode/Body are set
// (the API answered with an unexpected status) or Err is (the request never
// completed: timeout, connection refused, ...).
type APIError struct {
	Op         Op
	Phone      string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Phone, e.Err)
	}
	return fmt.Sprintf("%s %s -> %d: %s", e.Op, e.Phone, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCodeOf returns the HTTP status carried by err, or 0 when err is not an
// APIError or the request never got a response.
func StatusCodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func newStatusError(op Op, phone string, status int, body []byte) *APIError {
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return &APIError{Op: op, Phone: phone, StatusCode: status, Body: text}
}
