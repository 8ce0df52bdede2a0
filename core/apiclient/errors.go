package apiclient

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnauthenticated is the terminal session failure: no usable credential
// and no usable refresh token, or a second 401 after one refresh attempt.
// By the time a caller sees it the session has been cleared.
var ErrUnauthenticated = errors.New("not authenticated")

// NetworkError means no response was received at all (transport failure).
// Callers may retry locally; the client does not.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network failure: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-auth 4xx/5xx response, returned verbatim with status
// and body for the caller to interpret (e.g. form validation messages).
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Body)
}

// IsUnauthenticated reports whether err is the terminal session failure.
func IsUnauthenticated(err error) bool {
	return errors.Cause(err) == ErrUnauthenticated
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	_, ok := errors.Cause(err).(*NetworkError)
	return ok
}

// AsAPIError returns the underlying APIError, if any.
func AsAPIError(err error) (*APIError, bool) {
	apiErr, ok := errors.Cause(err).(*APIError)
	return apiErr, ok
}
