package service

import (
	"errors"
	"net/http"
)

// Kind classifies a failed call. Callers branch on Kind, never on message
// text: only Transient failures are worth retrying.
type Kind string

const (
	KindUnavailable    Kind = "UNAVAILABLE"     // offline asserted by the caller
	KindTransient      Kind = "TRANSIENT"       // injected server failure
	KindInvalidRequest Kind = "INVALID_REQUEST" // payload failed validation
	KindForbidden      Kind = "FORBIDDEN"       // caller lacks the capability
	KindNotFound       Kind = "NOT_FOUND"       // unknown case or field
	KindConflict       Kind = "CONFLICT"        // stale oldValue on an edit
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindUnavailable, KindTransient, KindInvalidRequest,
		KindForbidden, KindNotFound, KindConflict:
		return true
	}
	return false
}

// HTTPStatus maps the kind onto the wire status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTransient:
		return http.StatusInternalServerError
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed failure returned by every facade operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed failure; exported for clients that reconstruct
// errors from wire responses.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the failure kind, if err carries one.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// Retryable reports whether err is a transient failure a client may retry.
func Retryable(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindTransient
}
