package apperrors

import (
	"errors"
	"fmt"
)

// Common error conditions for the session core
var (
	// Credential errors
	ErrRefreshTokenMissing = errors.New("refresh token missing")
	ErrNotAuthenticated    = errors.New("not authenticated")

	// Collaborator errors
	ErrBackendUnreachable = errors.New("backend unreachable")
)

// ValidationError reports a malformed credential or profile handed to the
// credential store. It is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// NewValidationError creates a ValidationError with the given reason
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// StorageError reports a device storage I/O failure.
type StorageError struct {
	Op  string // the storage operation that failed
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps an underlying storage failure
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// AuthError reports that the backend rejected credentials or a registration.
// Message carries the backend-provided text when available, else a generic
// fallback, and is safe to show to a user.
type AuthError struct {
	Message string
	Status  int // HTTP status when known, zero otherwise
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError creates an AuthError, substituting fallback when the backend
// supplied no message.
func NewAuthError(message, fallback string, status int, err error) *AuthError {
	if message == "" {
		message = fallback
	}
	return &AuthError{Message: message, Status: status, Err: err}
}

// NetworkError reports that a request could not reach the backend at all.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string { return e.Message }

func (e *NetworkError) Unwrap() error { return e.Err }

// SessionExpiredError reports an irrecoverable refresh failure. Every request
// queued behind the failed refresh episode receives this error, and local
// credentials have already been cleared by the time it is returned.
type SessionExpiredError struct {
	Err error
}

func (e *SessionExpiredError) Error() string {
	return "session expired, please log in again"
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// IsSessionExpired reports whether err is (or wraps) a SessionExpiredError
func IsSessionExpired(err error) bool {
	var se *SessionExpiredError
	return errors.As(err, &se)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is (or wraps) a StorageError
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
