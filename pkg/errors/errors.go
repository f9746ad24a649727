// Package errors provides structured error types for zinefold.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, the pipeline and the CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The imposition engine reports four codes:
//   - INFEASIBLE_LAYOUT: the requested columns do not fit the paper at any positive row count
//   - EMPTY_INPUT: there are no pages to place
//   - LAYOUT_MISMATCH: a layout with non-positive grid dimensions reached the planner
//   - COMPOSITOR_FAILURE: an external render call failed for one sheet side
//
// The remaining codes belong to the plumbing around the engine
// (configuration loading, file lookup).
//
// # Usage
//
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, unitErr, "paperSize.unit")
//	errors.Is(err, errors.ErrCodeInvalidConfig) // true
//	errors.Is(err, errors.ErrCodeInvalidUnit)   // true: causes are searched too
//	errors.GetCode(err)                         // INVALID_CONFIG, the outermost code
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// Imposition engine
	ErrCodeInfeasibleLayout  Code = "INFEASIBLE_LAYOUT"
	ErrCodeEmptyInput        Code = "EMPTY_INPUT"
	ErrCodeLayoutMismatch    Code = "LAYOUT_MISMATCH"
	ErrCodeCompositorFailure Code = "COMPOSITOR_FAILURE"

	// Input validation
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidUnit   Code = "INVALID_UNIT"
	ErrCodeInvalidPaper  Code = "INVALID_PAPER"

	// Resources
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeToolMissing  Code = "TOOL_MISSING"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error carries a Code, a message for people and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message and cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// coder is implemented by error types with a fixed code.
type coder interface{ Code() Code }

// codeOf returns the code err carries itself, ignoring its causes.
func codeOf(err error) (Code, bool) {
	switch e := err.(type) {
	case *Error:
		return e.Code, true
	case coder:
		return e.Code(), true
	}
	return "", false
}

// walk visits err and its causes depth first, following both single and
// joined (Unwrap() []error) chains, until visit returns true.
func walk(err error, visit func(Code) bool) bool {
	for err != nil {
		if c, ok := codeOf(err); ok && visit(c) {
			return true
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if walk(inner, visit) {
					return true
				}
			}
			return false
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return false
		}
	}
	return false
}

// Is reports whether err or any of its causes carries code.
func Is(err error, code Code) bool {
	return walk(err, func(c Code) bool { return c == code })
}

// GetCode returns the outermost code in err's chain, or "" if there is none.
func GetCode(err error) Code {
	var found Code
	walk(err, func(c Code) bool { found = c; return true })
	return found
}

// UserMessage renders err without code prefixes, for terminal output.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + UserMessage(e.Cause)
}

// SheetError reports a failure that belongs to one sheet side.
// The renderer collects these instead of aborting the run.
type SheetError struct {
	Sheet   int    // 1-based sheet number
	Side    string // "front" or "back"
	Command string // the compositor command that failed, if known
	Err     error
}

// Error implements the error interface.
func (e *SheetError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("sheet %d %s: %v (command: %s)", e.Sheet, e.Side, e.Err, e.Command)
	}
	return fmt.Sprintf("sheet %d %s: %v", e.Sheet, e.Side, e.Err)
}

// Unwrap returns the wrapped error.
func (e *SheetError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *SheetError) Code() Code {
	return ErrCodeCompositorFailure
}
