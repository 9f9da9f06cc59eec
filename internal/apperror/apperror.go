// Package apperror defines the typed failures returned by the core services.
// Callers branch on the Kind; the HTTP layer owns the mapping to status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError.
type Kind int

const (
	// Unknown is never constructed deliberately; it is the zero value.
	Unknown Kind = iota
	// Validation marks malformed or missing input. The caller may retry after fixing it.
	Validation
	// Auth marks a missing identity or a failed password verification.
	Auth
	// Forbidden marks an authenticated caller acting on a record it does not own.
	Forbidden
	// NotFound marks a record that does not exist.
	NotFound
	// Conflict marks a uniqueness violation.
	Conflict
	// Storage marks a persistence or file system failure.
	Storage
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Storage:
		return "storage"
	default:
		return "unknown"
	}
}

// AppError carries a user-facing message and an optional underlying cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
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

func New(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NewValidation(message string) *AppError { return New(Validation, message, nil) }

func NewAuth(message string) *AppError { return New(Auth, message, nil) }

func NewForbidden(message string) *AppError { return New(Forbidden, message, nil) }

func NewNotFound(message string) *AppError { return New(NotFound, message, nil) }

func NewConflict(message string) *AppError { return New(Conflict, message, nil) }

// NewStorage wraps a persistence failure. The message is safe to show; err is not.
func NewStorage(message string, err error) *AppError { return New(Storage, message, err) }

// KindOf returns the Kind of the first AppError in err's chain, or Unknown.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}

func IsValidation(err error) bool { return KindOf(err) == Validation }

func IsAuth(err error) bool { return KindOf(err) == Auth }

func IsForbidden(err error) bool { return KindOf(err) == Forbidden }

func IsNotFound(err error) bool { return KindOf(err) == NotFound }

func IsConflict(err error) bool { return KindOf(err) == Conflict }

func IsStorage(err error) bool { return KindOf(err) == Storage }
