package response

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError. Every kind maps to exactly one HTTP status.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindState          Kind = "state"
	KindPersistence    Kind = "persistence"
	KindDelivery       Kind = "delivery"
)

// AppError represents a structured application error with HTTP status and kind.
type AppError struct {
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 500)
	Kind       Kind   // Error class
	Message    string // Human-readable error message, safe to return to clients
	Err        error  // Underlying cause, never returned to clients
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

// Pre-defined error constructors

func NewValidation(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

func NewAuthentication(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Kind: KindAuthentication, Message: msg}
}

func NewAuthorization(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Kind: KindAuthorization, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

// NewConflict reports a uniqueness violation. Clients of the portal expect 400 here, not 409.
func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Kind: KindConflict, Message: msg}
}

// NewState reports an operation that is not allowed in the resource's current state.
func NewState(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Kind: KindState, Message: msg}
}

// NewPersistence wraps a storage failure. The cause is logged, never returned.
func NewPersistence(msg string, err error) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Kind: KindPersistence, Message: msg, Err: err}
}

// NewDelivery reports an outbound email that could not be sent when the
// email itself was the operation. The message is returned; the cause is not.
func NewDelivery(msg string, err error) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Kind: KindDelivery, Message: msg, Err: err}
}

// KindOf returns the kind of err, or "" if err is not an *AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
