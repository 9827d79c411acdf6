package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies an engine error. Parse and security kinds are raised
// before evaluation ever starts; the remaining kinds abort an evaluation in
// progress.
type ErrorKind string

const (
	KindParse             ErrorKind = "ParseError"
	KindSecurity          ErrorKind = "SecurityViolation"
	KindUndefinedVariable ErrorKind = "UndefinedVariable"
	KindUndefinedFunction ErrorKind = "UndefinedFunction"
	KindDivisionByZero    ErrorKind = "DivisionByZero"
	KindTypeMismatch      ErrorKind = "TypeMismatch"
	KindRecursionLimit    ErrorKind = "RecursionLimitExceeded"
	KindTimeout           ErrorKind = "ExecutionTimeout"
	KindKey               ErrorKind = "KeyError"
	KindIndex             ErrorKind = "IndexError"
	KindValue             ErrorKind = "ValueError"
)

// Error is the single error type produced by the engine. Kind selects the
// failure class; Position carries a byte offset into the source text for
// parse errors (-1 when not applicable); Violations lists every sandbox
// rule broken for security errors.
type Error struct {
	Kind       ErrorKind
	Message    string
	Position   int
	Violations []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindParse && e.Position >= 0 {
		return fmt.Sprintf("%s: %s (position %d)", e.Kind, e.Message, e.Position)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is (or wraps) an engine Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// NewParseError creates a parse error at the given byte offset.
func NewParseError(pos int, format string, args ...interface{}) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf(format, args...), Position: pos}
}

// NewSecurityError creates a security violation error carrying every
// violation found.
func NewSecurityError(violations []string) *Error {
	msg := "expression rejected by sandbox"
	if len(violations) > 0 {
		msg = violations[0]
		if len(violations) > 1 {
			msg = fmt.Sprintf("%s (and %d more)", violations[0], len(violations)-1)
		}
	}
	return &Error{Kind: KindSecurity, Message: msg, Position: -1, Violations: violations}
}

// NewUndefinedVariableError creates an UndefinedVariable error.
func NewUndefinedVariableError(name string) *Error {
	return &Error{Kind: KindUndefinedVariable, Message: fmt.Sprintf("undefined variable '%s'", name), Position: -1}
}

// NewUndefinedFunctionError creates an UndefinedFunction error.
func NewUndefinedFunctionError(name string) *Error {
	return &Error{Kind: KindUndefinedFunction, Message: fmt.Sprintf("undefined function '%s'", name), Position: -1}
}

// NewDivisionByZeroError creates a DivisionByZero error.
func NewDivisionByZeroError() *Error {
	return &Error{Kind: KindDivisionByZero, Message: "division by zero", Position: -1}
}

// NewTypeMismatchError creates a TypeMismatch error.
func NewTypeMismatchError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindTypeMismatch, Message: fmt.Sprintf(format, args...), Position: -1}
}

// NewRecursionLimitError creates a RecursionLimitExceeded error.
func NewRecursionLimitError(limit int) *Error {
	return &Error{Kind: KindRecursionLimit, Message: fmt.Sprintf("recursion depth limit exceeded (max %d)", limit), Position: -1}
}

// NewTimeoutError creates an ExecutionTimeout error.
func NewTimeoutError(budget time.Duration) *Error {
	return &Error{Kind: KindTimeout, Message: fmt.Sprintf("execution time budget exceeded (%s)", budget), Position: -1}
}

// NewKeyError creates a KeyError.
func NewKeyError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindKey, Message: fmt.Sprintf(format, args...), Position: -1}
}

// NewIndexError creates an IndexError.
func NewIndexError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindIndex, Message: fmt.Sprintf(format, args...), Position: -1}
}

// NewValueError creates a ValueError.
func NewValueError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValue, Message: fmt.Sprintf(format, args...), Position: -1}
}
