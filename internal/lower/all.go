package lower

import (
	"fmt"

	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/opir"
)

// OpError is a lowering failure of one operation in a sequence.
type OpError struct {
	// Index is the position of the operation in the input sequence.
	Index int

	// Kind is the kind of the failed operation, zero for a nil operation.
	Kind opir.Kind

	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %d: %v", e.Index, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Code returns the LowerError code of the failure.
func (e *OpError) Code() ir.ErrorCode {
	return ir.CodeOf(e.Err)
}

// Result is the outcome of lowering a sequence of operations.
type Result struct {
	// Calls holds the successfully lowered calls in source order.
	Calls []ir.Call

	// Indices[i] is the input position of Calls[i].
	Indices []int

	// Errors holds one entry per failed operation, in source order.
	Errors []*OpError
}

// OK reports whether every operation lowered.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// LowerAll lowers ops in source order. A failed operation is reported in
// Result.Errors and skipped; lowering continues with the next operation so
// the caller sees every diagnostic at once.
func (l *Lowerer) LowerAll(ops []opir.Op) Result {
	res := Result{
		Calls:   make([]ir.Call, 0, len(ops)),
		Indices: make([]int, 0, len(ops)),
	}
	for i, op := range ops {
		call, err := l.Lower(op)
		if err != nil {
			opErr := &OpError{Index: i, Err: err}
			if op != nil {
				opErr.Kind = op.Kind()
			}
			l.logger.Warn("operation not lowered",
				"index", i,
				"kind", opErr.Kind.String(),
				"code", string(opErr.Code()),
				"error", err,
			)
			res.Errors = append(res.Errors, opErr)
			continue
		}
		res.Calls = append(res.Calls, call)
		res.Indices = append(res.Indices, i)
	}
	return res
}
