// Package domainerrors provides coded errors for the domain and service
// layers. Services construct these (or wrap infrastructure errors into them)
// so transports can translate codes into protocol responses without string
// matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and tests.
type Code string

const (
	// CodeNotFound indicates the referenced activity, ledger, record or
	// registration does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict indicates a uniqueness violation (already registered,
	// duplicate check-in entry).
	CodeConflict Code = "conflict"
	// CodeInvalidInput indicates malformed caller input: bad time string,
	// unknown slot name, day number out of range.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvalidState indicates admission was rejected by a status, date or
	// capacity rule.
	CodeInvalidState Code = "invalid_state"
	// CodeScheduleConflict indicates the candidate registration overlaps a
	// live registration elsewhere. The error carries the structured hits so
	// callers can explain the conflict, never a bare boolean.
	CodeScheduleConflict Code = "schedule_conflict"
	// CodeInvariantViolation indicates a domain invariant would be broken.
	// Model constructors and transition guards return this code.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnauthorized indicates a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden indicates the actor is not allowed to perform the action.
	CodeForbidden Code = "forbidden"
	// CodeInternal indicates an unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Details optionally carries structured
// context (e.g. overlap hits) for the transport layer.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

// CodeOf returns the error code.
func (e *Error) Code() Code { return e.code }

// Message returns the human-readable message without the wrapped cause.
func (e *Error) Message() string { return e.message }

// Details returns the structured context attached via WithDetails, or nil.
func (e *Error) Details() any { return e.details }

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// WithDetails returns a copy of the error carrying structured details.
func (e *Error) WithDetails(details any) *Error {
	clone := *e
	clone.details = details
	return &clone
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal for non-domain errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}

// DetailsOf extracts structured details from err, or nil.
func DetailsOf(err error) any {
	var de *Error
	if errors.As(err, &de) {
		return de.details
	}
	return nil
}
