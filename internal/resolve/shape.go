package resolve

import (
	"fmt"

	"github.com/roach88/mpilower/internal/ir"
)

// Count returns the element count expression of a descriptor.
//
//   - A scalar buffer counts as 1.
//   - A one-dimensional buffer counts as its extent.
//   - A multi-dimensional buffer counts as the product of its extents.
//   - An indexed view counts as its whole base buffer.
//
// The indexed view rule over-counts a reduced-rank access. Callers that need
// the exact section size must pass a contiguous buffer instead; opir.Analyze
// flags the case.
func Count(d ir.Descriptor) (ir.Expr, error) {
	if d == nil {
		return nil, ir.NewUnresolvableShapeError("", "descriptor is nil")
	}
	switch d.Kind() {
	case ir.KindBuffer:
		b, ok := d.(*ir.Buffer)
		if !ok || b == nil {
			return nil, ir.NewUnresolvableShapeError("", "buffer descriptor is nil")
		}
		return bufferCount(b)
	case ir.KindIndexedView:
		v, ok := d.(*ir.IndexedView)
		if !ok || v == nil {
			return nil, ir.NewUnresolvableShapeError("", "indexed view descriptor is nil")
		}
		if v.Base() == nil {
			return nil, ir.NewUnresolvableShapeError(v.String(), "indexed view has no base buffer")
		}
		return bufferCount(v.Base())
	default:
		return nil, ir.NewUnresolvableShapeError(d.Name(), fmt.Sprintf("unknown descriptor kind %s", d.Kind()))
	}
}

func bufferCount(b *ir.Buffer) (ir.Expr, error) {
	shape := b.Shape()
	for i, e := range shape {
		if e == nil {
			return nil, ir.NewUnresolvableShapeError(b.Name(), fmt.Sprintf("extent %d is unknown", i+1))
		}
	}
	coeff := int64(1)
	for _, e := range shape {
		lit, ok := e.(ir.Lit)
		if !ok {
			continue
		}
		if coeff, ok = ir.MulInt64(coeff, int64(lit)); !ok {
			return nil, ir.NewUnresolvableShapeError(b.Name(), "element count overflows int64")
		}
	}
	switch len(shape) {
	case 0:
		return ir.Lit(1), nil
	case 1:
		return shape[0], nil
	default:
		return ir.Product(shape...), nil
	}
}
