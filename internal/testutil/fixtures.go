// Package testutil provides deterministic fixtures shared by package tests.
package testutil

import "github.com/roach88/mpilower/internal/ir"

// Matrix returns the double precision array x(n, 2), allocatable, as
// declared in the reference Fortran examples. Its count is "2*n".
func Matrix() *ir.Buffer {
	return ir.NewBuffer("x", ir.Double, ir.WithShape(ir.Sym("n"), ir.Lit(2)), ir.Allocatable())
}

// Vector returns a one-dimensional buffer name(n) of type t.
func Vector(name string, t ir.ScalarType) *ir.Buffer {
	return ir.NewBuffer(name, t, ir.WithShape(ir.Sym("n")))
}

// Scalar returns a scalar buffer of type t.
func Scalar(name string, t ir.ScalarType) *ir.Buffer {
	return ir.NewBuffer(name, t)
}

// Requests returns the integer request array requests(count).
func Requests(count int64) *ir.Buffer {
	return ir.NewBuffer("requests", ir.Integer, ir.WithShape(ir.Lit(count)))
}

// Request returns the view requests(i) into a request array.
func Request(requests *ir.Buffer, i int64) *ir.IndexedView {
	return ir.NewIndexedView(requests, ir.Lit(i))
}

// Statuses returns the status array stats(status_size, count) spelled with
// the StatusSize sentinel of ctx.
func Statuses(ctx *ir.Context, count int64) *ir.Buffer {
	return ir.NewBuffer("stats", ir.Integer,
		ir.WithShape(ir.Sym(ctx.StatusSize().Name()), ir.Lit(count)))
}

// Context returns an isolated Context with the canonical spellings.
func Context() *ir.Context {
	return ir.NewContext(ir.DefaultContextOptions())
}
