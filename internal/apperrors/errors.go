package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine error.
type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindResolution      Kind = "RESOLUTION_ERROR"
	KindVersionConflict Kind = "VERSION_CONFLICT"
	KindSyncAnomaly     Kind = "SYNC_ANOMALY"
	KindNotFound        Kind = "NOT_FOUND"
	KindInternal        Kind = "INTERNAL_ERROR"
)

var (
	// ErrNotFound is wrapped by repositories when a record does not exist
	// (or exists under another client).
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned by a compare-and-swap that lost a race.
	ErrVersionConflict = errors.New("version conflict")
)

// Error is the base error type of the engine.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string, details map[string]any) *Error {
	return New(KindValidation, message, details)
}

func Resolution(message string, details map[string]any) *Error {
	return New(KindResolution, message, details)
}

func SyncAnomaly(message string, details map[string]any) *Error {
	return New(KindSyncAnomaly, message, details)
}

func NotFound(resource, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: resource + " not found: " + id,
		Details: map[string]any{"resource": resource, "id": id},
		Err:     ErrNotFound,
	}
}

// KindOf reports the Kind of err. Bare sentinels are classified too.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrVersionConflict):
		return KindVersionConflict
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// DetailsOf returns the details of the outermost *Error in err's chain.
func DetailsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindResolution:
		return http.StatusUnprocessableEntity
	case KindVersionConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
