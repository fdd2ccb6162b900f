package compiler

import (
	"fmt"

	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/lower"
	"github.com/roach88/mpilower/internal/opir"
)

// Validation codes. E11x are errors (the op will not lower), W2xx warnings.
const (
	ErrCodeUnsupportedType   = "E110" // scalar type without a wire datatype
	ErrCodeUnresolvableShape = "E111" // count cannot be derived
	ErrCodeLowering          = "E119" // other lowering failure

	WarnCodeAnalysis = "W201" // opir.Analyze finding
	WarnCodeUnused   = "W202" // declared but never referenced
)

// Severity levels of a ValidationError.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError is one finding about a compiled manifest.
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsError reports whether the finding blocks lowering.
func (e ValidationError) IsError() bool {
	return e.Severity == SeverityError
}

// Validate lowers every op of m against ctx and analyzes it.
// Returns all findings in op order followed by unused declarations
// (does not fail-fast).
func Validate(m *Manifest, ctx *ir.Context) []ValidationError {
	if ctx == nil {
		ctx = ir.DefaultContext()
	}
	var errs []ValidationError

	l := lower.New(ctx)
	for i, op := range m.Ops {
		field := fmt.Sprintf("ops[%d].%s", i, op.Kind())
		line := 0
		if i < len(m.Positions) && m.Positions[i].IsValid() {
			line = m.Positions[i].Line()
		}

		if _, err := l.Lower(op); err != nil {
			errs = append(errs, ValidationError{
				Field:    field,
				Message:  err.Error(),
				Code:     loweringCode(err),
				Severity: SeverityError,
				Line:     line,
			})
		}

		for _, w := range opir.Analyze(op, ctx).Warnings {
			errs = append(errs, ValidationError{
				Field:    field,
				Message:  w,
				Code:     WarnCodeAnalysis,
				Severity: SeverityWarning,
				Line:     line,
			})
		}
	}

	for _, name := range m.Names {
		if !m.used[name] {
			errs = append(errs, ValidationError{
				Field:    name,
				Message:  fmt.Sprintf("%q is declared but never used", name),
				Code:     WarnCodeUnused,
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

func loweringCode(err error) string {
	switch ir.CodeOf(err) {
	case ir.ErrCodeUnsupportedType:
		return ErrCodeUnsupportedType
	case ir.ErrCodeUnresolvableShape:
		return ErrCodeUnresolvableShape
	default:
		return ErrCodeLowering
	}
}

// HasErrors reports whether any finding is an error.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.IsError() {
			return true
		}
	}
	return false
}
