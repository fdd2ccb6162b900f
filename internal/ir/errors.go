package ir

import (
	"errors"
	"fmt"
)

// LowerError represents a rejection by the lowering layer.
//
// Error categories:
//   - UnsupportedType: a scalar type has no wire datatype mapping
//   - UnresolvableShape: the element count of a descriptor cannot be derived
//   - MalformedOperation: operand arity or kind mismatch at construction
//
// MalformedOperation is raised when an operation is constructed; the other
// two are raised when it is lowered. None are defaulted or retried; the
// compiler driver decides whether to abort or continue with diagnostics.
type LowerError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Operand names the offending operand slot or descriptor (e.g. "comm", "x").
	Operand string

	// Expected states the contract the operand failed (e.g. "communicator").
	Expected string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes lowering errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedType indicates a scalar type without a wire datatype.
	ErrCodeUnsupportedType ErrorCode = "UNSUPPORTED_TYPE"

	// ErrCodeUnresolvableShape indicates a descriptor whose count cannot be derived.
	ErrCodeUnresolvableShape ErrorCode = "UNRESOLVABLE_SHAPE"

	// ErrCodeMalformedOperation indicates an operand arity or kind mismatch.
	ErrCodeMalformedOperation ErrorCode = "MALFORMED_OPERATION"
)

// Error implements the error interface.
func (e *LowerError) Error() string {
	switch {
	case e.Operand != "" && e.Expected != "":
		return fmt.Sprintf("%s: %s: %s (expected %s)", e.Code, e.Operand, e.Message, e.Expected)
	case e.Operand != "":
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Operand, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NewUnsupportedTypeError creates a LowerError for a scalar type with no wire mapping.
func NewUnsupportedTypeError(operand string, t ScalarType) *LowerError {
	return &LowerError{
		Code:     ErrCodeUnsupportedType,
		Operand:  operand,
		Expected: "one of bool, int, float, double, complex",
		Message:  fmt.Sprintf("no wire datatype for scalar type %s", t),
	}
}

// NewUnresolvableShapeError creates a LowerError for a descriptor whose count
// cannot be derived.
func NewUnresolvableShapeError(operand, message string) *LowerError {
	return &LowerError{
		Code:     ErrCodeUnresolvableShape,
		Operand:  operand,
		Expected: "buffer or indexed view with a resolvable shape",
		Message:  message,
	}
}

// NewMalformedOperationError creates a LowerError for an operand that does not
// fit its slot.
func NewMalformedOperationError(operand, expected, message string) *LowerError {
	return &LowerError{
		Code:     ErrCodeMalformedOperation,
		Operand:  operand,
		Expected: expected,
		Message:  message,
	}
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not a LowerError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var le *LowerError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsUnsupportedType returns true if the error is an UnsupportedType error.
func IsUnsupportedType(err error) bool {
	return CodeOf(err) == ErrCodeUnsupportedType
}

// IsUnresolvableShape returns true if the error is an UnresolvableShape error.
func IsUnresolvableShape(err error) bool {
	return CodeOf(err) == ErrCodeUnresolvableShape
}

// IsMalformedOperation returns true if the error is a MalformedOperation error.
func IsMalformedOperation(err error) bool {
	return CodeOf(err) == ErrCodeMalformedOperation
}
