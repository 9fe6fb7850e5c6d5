package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of application error. Kinds are part of the
// API contract: clients branch on them (e.g. redirect to login on
// not-authorized vs. show access-denied on forbidden).
type Kind string

const (
	KindNotAuthorized   Kind = "not-authorized" // no valid session
	KindForbidden       Kind = "forbidden"      // session exists, lacks rights
	KindNotFound        Kind = "not-found"
	KindInvalidStatus   Kind = "invalid-status"
	KindTimeConflict    Kind = "time-conflict"
	KindValidationError Kind = "validation-error"
	KindInsertFailed    Kind = "insert-failed"
	KindUpdateFailed    Kind = "update-failed"
	KindDeleteFailed    Kind = "delete-failed"
	KindFetchFailed     Kind = "fetch-failed"
)

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindNotAuthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeConflict:
		return http.StatusConflict
	case KindInvalidStatus, KindValidationError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NotAuthorized(message string) *AppError {
	return &AppError{Kind: KindNotAuthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func InvalidStatus(message string) *AppError {
	return &AppError{Kind: KindInvalidStatus, Message: message}
}

func TimeConflict() *AppError {
	return &AppError{Kind: KindTimeConflict, Message: "this time slot is already booked"}
}

func Validation(message string) *AppError {
	return &AppError{Kind: KindValidationError, Message: message}
}

// Failed wraps an unexpected persistence error. The internal detail
// stays in Err for logging; the client only sees the generic message.
func Failed(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, or "" if the error is
// not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
