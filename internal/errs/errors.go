// Package errs provides the unified error type used across all of apiforge.
//
// Every subsystem (database drivers, introspection, query building, the
// generated API layer, …) wraps its native errors into *errs.Error before
// returning them. Callers use the Is* predicates to handle errors without
// importing driver-specific packages, and the HTTP layer maps kinds to
// status codes in exactly one place.
//
// Usage:
//
//	// In a driver — wrap native errors:
//	return errs.Wrap(errs.ErrKindTimeout, "query timed out", pgErr)
//
//	// In a handler — check error kind:
//	if errs.IsNotFound(err) {
//	    http.Error(w, "not found", http.StatusNotFound)
//	}
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// All backends (Postgres, MySQL, MinIO, …) map their native errors to one
// of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no tenant, no matching route
	ErrKindConnectionFailed         // cannot reach the backing database
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL execution error other than not-found
	ErrKindIntrospection            // catalog queries failed or schema empty
	ErrKindSchema                   // operation impossible for this schema (e.g. no primary key)
	ErrKindValidation               // empty or malformed payload from the caller
	ErrKindRateLimited              // tenant exceeded its request budget
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindIntrospection:
		return "introspection_failed"
	case ErrKindSchema:
		return "schema_error"
	case ErrKindValidation:
		return "validation_error"
	case ErrKindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// HTTPStatus returns the response status for an error kind crossing the
// external HTTP boundary.
func (k ErrKind) HTTPStatus() int {
	switch k {
	case ErrKindNotFound:
		return http.StatusNotFound
	case ErrKindSchema, ErrKindValidation:
		return http.StatusBadRequest
	case ErrKindTimeout:
		return http.StatusGatewayTimeout
	case ErrKindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is the single error type returned by all apiforge subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
// Message is safe to show to clients; Cause is the original driver-level
// error and stays server-side (it may carry DSNs or bind values).
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an *Error with a formatted message and no cause.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result
// (no rows, unknown tenant, unmatched route, …).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a SQL execution failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsIntrospection reports whether err came from schema introspection.
func IsIntrospection(err error) bool {
	return KindOf(err) == ErrKindIntrospection
}

// IsSchema reports whether err means the schema cannot support the operation.
func IsSchema(err error) bool {
	return KindOf(err) == ErrKindSchema
}

// IsValidation reports whether err was caused by a bad payload or parameters.
func IsValidation(err error) bool {
	return KindOf(err) == ErrKindValidation
}

// IsRateLimited reports whether err means the tenant's budget is exhausted.
func IsRateLimited(err error) bool {
	return KindOf(err) == ErrKindRateLimited
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// PublicMessage returns the client-safe message for err. Unwrapped or
// unknown errors get a generic message so driver text never leaks.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
