package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures for callers.
type ErrorKind string

const (
	// KindUnreachable means the network call itself failed; the backend
	// never produced a response.
	KindUnreachable ErrorKind = "unreachable"
	// KindServerRejected means the backend answered with a non-2xx status.
	KindServerRejected ErrorKind = "server_rejected"
)

// APIError is the normalized failure returned by every gateway operation.
// Detail carries the server-provided message when one was present in the
// response body, else a generic description.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	if e.Kind == KindUnreachable {
		return fmt.Sprintf("backend unreachable: %v", e.Err)
	}
	return fmt.Sprintf("backend rejected request (HTTP %d): %s", e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUnreachable reports whether err is a transport-level gateway failure.
func IsUnreachable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindUnreachable
}

// IsServerRejected reports whether err is a non-2xx backend response.
func IsServerRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindServerRejected
}

// Detail extracts the server-provided detail message from err, or "" when
// err carries none.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}
