package opir

import (
	"fmt"

	"github.com/roach88/mpilower/internal/ir"
)

// checkDescriptor rejects nil descriptors (including typed nil pointers) and
// unnamed buffers. A view without a base is left for the resolver to reject.
func checkDescriptor(slot string, d ir.Descriptor) error {
	switch x := d.(type) {
	case nil:
		return ir.NewMalformedOperationError(slot, OperandDescriptor.String(), "descriptor is nil")
	case *ir.Buffer:
		if x == nil {
			return ir.NewMalformedOperationError(slot, OperandDescriptor.String(), "buffer is nil")
		}
		if x.Name() == "" {
			return ir.NewMalformedOperationError(slot, OperandDescriptor.String(), "buffer has no name")
		}
	case *ir.IndexedView:
		if x == nil {
			return ir.NewMalformedOperationError(slot, OperandDescriptor.String(), "indexed view is nil")
		}
	}
	return nil
}

func checkValue(slot string, v ir.Value) error {
	switch x := v.(type) {
	case nil:
		return ir.NewMalformedOperationError(slot, OperandValue.String(), "value is nil")
	case *ir.Sentinel:
		if x == nil {
			return ir.NewMalformedOperationError(slot, OperandValue.String(), "sentinel is nil")
		}
	case ir.Sym:
		if x == "" {
			return ir.NewMalformedOperationError(slot, OperandValue.String(), "symbol is empty")
		}
	}
	return nil
}

func checkComm(slot string, c *ir.Communicator) error {
	if !c.Valid() {
		return ir.NewMalformedOperationError(slot, OperandComm.String(), "communicator is nil or unnamed")
	}
	return nil
}

// firstError returns the first non-nil error, wrapped with the kind.
func firstError(k Kind, errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("new %s: %w", k, err)
		}
	}
	return nil
}
