package services

import "errors"

// Error kinds. Handlers map them to HTTP status codes.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotAuthorized         = errors.New("not authorized")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrUpstream              = errors.New("upstream failure")
	ErrPayloadTooLarge       = errors.New("payload too large")
	ErrRateLimited           = errors.New("rate limited")
)

// Error is a classified failure. Message is safe to show to clients,
// Err carries the internal cause for logging.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}
