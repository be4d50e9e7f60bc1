package errors

import (
	"errors"
	"fmt"
)

// Class buckets every failure the engine can observe into the recovery
// policy it maps to.
type Class string

const (
	// ClassTransient covers network faults, timeouts and 5xx responses.
	ClassTransient Class = "transient"
	// ClassRateLimited covers 429 responses and explicit throttle signals.
	ClassRateLimited Class = "rate_limited"
	// ClassAccessDenied covers login walls, checkpoints, blocks and bans.
	ClassAccessDenied Class = "access_denied"
	// ClassStructural covers responses that arrived but no longer match the
	// expected shape (schema drift, HTML where JSON was expected).
	ClassStructural Class = "structural"
	// ClassFatal covers invalid targets, malformed requests and internal
	// errors that no amount of retrying can fix.
	ClassFatal Class = "fatal"
	// ClassProxyPoolExhausted is raised when rotation has burned through
	// every configured proxy.
	ClassProxyPoolExhausted Class = "proxy_pool_exhausted"
)

// Error is a classified failure. Code carries the HTTP status when the
// failure came off the wire, zero otherwise.
type Error struct {
	Class   Class
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Class, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a classified error with no underlying cause.
func New(class Class, message string) *Error {
	return &Error{Class: class, Message: message}
}

// Newf builds a classified error from a format string.
func Newf(class Class, format string, args ...any) *Error {
	return &Error{Class: class, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a classification to an underlying error.
func Wrap(class Class, message string, err error) *Error {
	return &Error{Class: class, Message: message, Err: err}
}

// FromStatus builds a classified error straight from an HTTP status code.
func FromStatus(code int, message string) *Error {
	return &Error{Class: ClassifyStatus(code), Message: message, Code: code}
}

// ClassOf extracts the classification from anywhere in err's chain.
// Unclassified errors are fatal: an error nobody mapped is an internal bug,
// not something worth retrying against a live platform.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassFatal
}

// Is reports whether err carries the given classification.
func Is(err error, class Class) bool {
	return ClassOf(err) == class
}

// ClassifyStatus maps an HTTP status code onto the failure taxonomy.
func ClassifyStatus(code int) Class {
	switch {
	case code == 0:
		return ClassTransient
	case code == 429:
		return ClassRateLimited
	case code == 401 || code == 403:
		return ClassAccessDenied
	case code == 404 || code == 410:
		return ClassFatal
	case code == 408:
		return ClassTransient
	case code >= 500:
		return ClassTransient
	default:
		return ClassFatal
	}
}

// Retryable reports whether the same attempt may simply be repeated.
// Denied access and structural drift are handled by escalation, not
// repetition, so they are not retryable here.
func Retryable(class Class) bool {
	switch class {
	case ClassTransient, ClassRateLimited:
		return true
	default:
		return false
	}
}
