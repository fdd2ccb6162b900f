package ir

import (
	"fmt"
	"strings"
)

// DescriptorKind is the closed enumeration of descriptor kinds.
type DescriptorKind int

const (
	// KindBuffer is a whole variable (scalar or array).
	KindBuffer DescriptorKind = iota + 1
	// KindIndexedView is a reduced-rank access into a Buffer.
	KindIndexedView
)

func (k DescriptorKind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindIndexedView:
		return "indexed_view"
	default:
		return fmt.Sprintf("DescriptorKind(%d)", int(k))
	}
}

// Descriptor describes a communication buffer.
//
// This is a sealed interface - only *Buffer and *IndexedView implement it.
// Shape queries are resolved by switching over Kind().
type Descriptor interface {
	fmt.Stringer
	Kind() DescriptorKind
	Name() string
	ScalarType() ScalarType
	descriptor() // Marker method - seals interface to this package
}

// Buffer is a declared variable: a scalar when Shape is empty, an array otherwise.
type Buffer struct {
	name        string
	dtype       ScalarType
	shape       []Expr
	allocatable bool
}

// BufferOption customizes a Buffer at construction.
type BufferOption func(*Buffer)

// Allocatable marks the buffer as allocatable (deferred-shape in the emitted program).
func Allocatable() BufferOption {
	return func(b *Buffer) { b.allocatable = true }
}

// WithShape sets the buffer's extents, outermost first as declared.
func WithShape(extents ...Expr) BufferOption {
	return func(b *Buffer) {
		b.shape = append([]Expr(nil), extents...)
	}
}

// NewBuffer creates a buffer descriptor. Without WithShape the buffer is a scalar.
//
// Example (the matrix x(n,2) of doubles):
//
//	x := ir.NewBuffer("x", ir.Double, ir.WithShape(ir.Sym("n"), ir.Lit(2)), ir.Allocatable())
func NewBuffer(name string, dtype ScalarType, opts ...BufferOption) *Buffer {
	b := &Buffer{name: name, dtype: dtype}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (*Buffer) descriptor() {}

// Kind returns KindBuffer.
func (*Buffer) Kind() DescriptorKind { return KindBuffer }

// Name returns the variable name.
func (b *Buffer) Name() string { return b.name }

// ScalarType returns the element type.
func (b *Buffer) ScalarType() ScalarType { return b.dtype }

// Shape returns a copy of the extents. Nil for scalars.
func (b *Buffer) Shape() []Expr {
	if len(b.shape) == 0 {
		return nil
	}
	out := make([]Expr, len(b.shape))
	copy(out, b.shape)
	return out
}

// Rank returns the number of extents.
func (b *Buffer) Rank() int { return len(b.shape) }

// IsAllocatable reports whether the buffer was declared allocatable.
func (b *Buffer) IsAllocatable() bool { return b.allocatable }

func (b *Buffer) String() string {
	return b.name
}

// IndexedView is an access into a Buffer through one or more index
// expressions, e.g. x(i). Shape queries delegate to the base buffer.
type IndexedView struct {
	base    *Buffer
	indices []Expr
}

// NewIndexedView creates a view of base indexed by indices.
func NewIndexedView(base *Buffer, indices ...Expr) *IndexedView {
	return &IndexedView{base: base, indices: append([]Expr(nil), indices...)}
}

func (*IndexedView) descriptor() {}

// Kind returns KindIndexedView.
func (*IndexedView) Kind() DescriptorKind { return KindIndexedView }

// Base returns the viewed buffer.
func (v *IndexedView) Base() *Buffer { return v.base }

// Indices returns a copy of the index expressions.
func (v *IndexedView) Indices() []Expr {
	out := make([]Expr, len(v.indices))
	copy(out, v.indices)
	return out
}

// Name returns the base buffer's name, or "" without a base.
func (v *IndexedView) Name() string {
	if v.base == nil {
		return ""
	}
	return v.base.name
}

// ScalarType returns the base buffer's element type.
func (v *IndexedView) ScalarType() ScalarType {
	if v.base == nil {
		return 0
	}
	return v.base.dtype
}

func (v *IndexedView) String() string {
	idx := make([]string, len(v.indices))
	for i, e := range v.indices {
		if e == nil {
			idx[i] = ":"
			continue
		}
		idx[i] = e.String()
	}
	return fmt.Sprintf("%s(%s)", v.Name(), strings.Join(idx, ", "))
}
