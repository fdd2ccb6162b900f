// Package render prints lowered calls in the reference syntax of the
// Fortran binding, e.g.
//
//	MPI_send (x, 2*n, MPI_DOUBLE, dest, tag, mpi_comm_world, i_mpi_error)
//	mpi_comm_world.barrier
//
// Rendering is a pure function of the call; the backend owns statement
// keywords and layout beyond one call per line.
package render

import (
	"fmt"
	"strings"

	"github.com/roach88/mpilower/internal/ir"
)

// Case controls the spelling of routine names.
type Case string

const (
	// CaseLower keeps routine names as lowered ("MPI_send").
	CaseLower Case = "lower"
	// CaseUpper upper-cases routine names ("MPI_SEND").
	CaseUpper Case = "upper"
)

// ParseCase validates a configured case. The empty string selects CaseLower.
func ParseCase(s string) (Case, error) {
	switch Case(strings.ToLower(strings.TrimSpace(s))) {
	case "", CaseLower:
		return CaseLower, nil
	case CaseUpper:
		return CaseUpper, nil
	default:
		return "", fmt.Errorf("invalid call case %q (expected lower or upper)", s)
	}
}

// Renderer prints calls.
type Renderer struct {
	nameCase Case
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCase selects the spelling of routine names.
func WithCase(c Case) Option {
	return func(r *Renderer) {
		r.nameCase = c
	}
}

// New creates a Renderer. The default case is CaseLower.
func New(opts ...Option) *Renderer {
	r := &Renderer{nameCase: CaseLower}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = New()

// Text renders c with the default Renderer.
func Text(c ir.Call) string {
	return defaultRenderer.Text(c)
}

// Text renders one call.
func (r *Renderer) Text(c ir.Call) string {
	if c.Form == ir.FormCommProperty {
		return c.Scope.String() + "." + c.Name
	}
	name := c.Name
	if r.nameCase == CaseUpper {
		name = strings.ToUpper(name)
	}
	return name + " (" + strings.Join(c.Texts(), ", ") + ")"
}

// Lines renders calls one per line, in order.
func (r *Renderer) Lines(calls []ir.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = r.Text(c)
	}
	return out
}

// Program renders the shared slot declarations followed by the calls,
// separated by a blank line, with a trailing newline.
func (r *Renderer) Program(ctx *ir.Context, calls []ir.Call) string {
	var sb strings.Builder
	for _, d := range Declarations(ctx) {
		sb.WriteString(d)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	for _, line := range r.Lines(calls) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Declarations returns the declarations the backend must emit once per
// scope for the shared slots of ctx: the error code and the status record.
func Declarations(ctx *ir.Context) []string {
	if ctx == nil {
		ctx = ir.DefaultContext()
	}
	return []string{
		fmt.Sprintf("integer :: %s", ctx.ErrorSlot()),
		fmt.Sprintf("integer, dimension(%s) :: %s", ctx.StatusSize(), ctx.StatusSlot()),
	}
}
