// Package errors provides structured error types for DM3K.
//
// Library packages return plain sentinel errors wrapped with fmt.Errorf.
// The CLI and the HTTP API convert them into an [Error] with a
// machine-readable [Code] through [FromDomain], so that callers can branch
// on the code and [HTTPStatus] can pick a response status.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Missing documents or references
//   - *_FAILED: Pipeline stage failures
//   - NETWORK_*, SOLVER_*: Solver service failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown width function: %s", wf)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Classify a library error
//	if _, err := layout.Compute(doc, trace, opts); err != nil {
//	    return errors.FromDomain(err)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidDocument  Code = "INVALID_DOCUMENT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidName      Code = "INVALID_NAME"
	ErrCodeInvalidTrace     Code = "INVALID_TRACE"
	ErrCodeInvalidWidthFunc Code = "INVALID_WIDTH_FUNC"

	// Model errors
	ErrCodeDuplicateName      Code = "DUPLICATE_NAME"
	ErrCodeDuplicateLink      Code = "DUPLICATE_LINK"
	ErrCodeMissingBudget      Code = "MISSING_BUDGET"
	ErrCodeUnknownReference   Code = "UNKNOWN_REFERENCE"
	ErrCodeMixedContainment   Code = "MIXED_CONTAINMENT"
	ErrCodeInvalidConstraint  Code = "INVALID_CONSTRAINT"
	ErrCodeCyclicContainment  Code = "CYCLIC_CONTAINMENT"
	ErrCodeUnknownAllocation  Code = "UNKNOWN_ALLOCATION"
	ErrCodeImportFailed       Code = "IMPORT_FAILED"
	ErrCodeLayoutFailed       Code = "LAYOUT_FAILED"
	ErrCodePresentationFailed Code = "PRESENTATION_FAILED"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"

	// Solver service errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeSolverError Code = "SOLVER_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
