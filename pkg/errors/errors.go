package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on the machine readable code so cloned errors still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrDataStore          = New("DATA_STORE_ERROR", http.StatusInternalServerError, "data store failure")

	ErrDuplicateCompletion       = New("DUPLICATE_COMPLETION", http.StatusConflict, "course already marked as completed")
	ErrSemesterOrderingViolation = New("SEMESTER_ORDERING_VIOLATION", http.StatusUnprocessableEntity, "course semester is ahead of the student's semester")

	ErrMissingToken       = New("MISSING_TOKEN", http.StatusUnauthorized, "authentication token is required")
	ErrInvalidToken       = New("INVALID_TOKEN", http.StatusUnauthorized, "invalid or expired token")
	ErrWrongIdentityType  = New("WRONG_IDENTITY_TYPE", http.StatusForbidden, "token is not valid for this resource")
	ErrAccessDenied       = New("ACCESS_DENIED", http.StatusForbidden, "access denied")
	ErrAccountLocked      = New("ACCOUNT_LOCKED", http.StatusLocked, "account is temporarily locked")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")

	// ErrCacheMiss is returned by cache repositories when a key is absent or expired.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Store wraps a persistence failure as a DATA_STORE_ERROR with a caller-safe message.
func Store(err error, message string) *Error {
	if message == "" {
		message = ErrDataStore.Message
	}
	return Wrap(err, ErrDataStore.Code, ErrDataStore.Status, message)
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	return errors.Is(err, target)
}
