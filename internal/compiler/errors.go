package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Compile error codes (E100-E109).
const (
	ErrCodeSchema             = "E100" // manifest does not match the schema
	ErrCodeUnknownKind        = "E101" // unknown operation kind
	ErrCodeUnknownType        = "E102" // unknown scalar type spelling
	ErrCodeUndeclaredBase     = "E103" // view base is not a declared buffer
	ErrCodeDuplicateName      = "E104" // name declared twice
	ErrCodeMalformedOperation = "E105" // operands do not fit the operation
	ErrCodeNoOperations       = "E106" // manifest has no ops
)

// CompileError reports a manifest that cannot be compiled, with the CUE
// source position of the offending value when known.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos

	// Err is the underlying error, e.g. an ir.LowerError for a malformed
	// operation.
	Err error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Code:    ErrCodeSchema,
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
			Err:     err,
		}
	}

	return &CompileError{Code: ErrCodeSchema, Field: "cue", Message: err.Error(), Err: err}
}
