package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/opir"
)

// Operand keywords recognized in op args besides declared names.
const (
	KeywordWorld      = "world"
	KeywordProcNull   = "proc_null"
	KeywordStatusSize = "status_size"
)

// Manifest is a compiled operation manifest: the declared descriptors and
// communicators, and the operations in source order.
type Manifest struct {
	Communicators map[string]*ir.Communicator
	Buffers       map[string]*ir.Buffer
	Views         map[string]*ir.IndexedView

	// Ops are the operations in source order.
	Ops []opir.Op

	// Positions[i] is the CUE source position of Ops[i].
	Positions []token.Pos

	// Names lists declared buffers, views and communicators in source order.
	Names []string

	// used records declared names referenced by an op or view.
	used map[string]bool
}

// CompileManifest compiles a CUE manifest value against ctx.
//
// The manifest is first unified with the #Manifest schema so structural
// mistakes are reported by CUE with positions. Declarations are then
// resolved, and each op is built through opir.New. The first failure is
// returned as a *CompileError; a malformed operation wraps the
// ir.LowerError so ir.IsMalformedOperation sees it.
//
// Example:
//
//	cctx := cuecontext.New()
//	v := cctx.CompileString(`
//	    buffer: x: { type: "double", shape: ["n", 2] }
//	    ops: [{ kind: "send", args: ["x", "dest", "tag", "world"] }]
//	`)
//	m, err := CompileManifest(v, ir.DefaultContext())
func CompileManifest(v cue.Value, ctx *ir.Context) (*Manifest, error) {
	if ctx == nil {
		ctx = ir.DefaultContext()
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	// Values are read from the manifest itself so positions point into it.
	checked := manifestSchema(v.Context()).Unify(v)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	c := &manifestCompiler{
		ctx: ctx,
		m: &Manifest{
			Communicators: make(map[string]*ir.Communicator),
			Buffers:       make(map[string]*ir.Buffer),
			Views:         make(map[string]*ir.IndexedView),
			used:          make(map[string]bool),
		},
		declared: make(map[string]token.Pos),
	}

	if err := c.communicators(v.LookupPath(cue.ParsePath("communicator"))); err != nil {
		return nil, err
	}
	if err := c.buffers(v.LookupPath(cue.ParsePath("buffer"))); err != nil {
		return nil, err
	}
	if err := c.views(v.LookupPath(cue.ParsePath("view"))); err != nil {
		return nil, err
	}
	if err := c.ops(v.LookupPath(cue.ParsePath("ops"))); err != nil {
		return nil, err
	}
	return c.m, nil
}

type manifestCompiler struct {
	ctx      *ir.Context
	m        *Manifest
	declared map[string]token.Pos
}

func (c *manifestCompiler) declare(field, name string, pos token.Pos) error {
	if name == KeywordWorld || name == KeywordProcNull || name == KeywordStatusSize {
		return &CompileError{
			Code:    ErrCodeDuplicateName,
			Field:   field,
			Message: fmt.Sprintf("%q is a reserved operand name", name),
			Pos:     pos,
		}
	}
	if prev, ok := c.declared[name]; ok {
		msg := fmt.Sprintf("%q already declared", name)
		if prev.IsValid() {
			msg = fmt.Sprintf("%q already declared at %s:%d", name, prev.Filename(), prev.Line())
		}
		return &CompileError{Code: ErrCodeDuplicateName, Field: field, Message: msg, Pos: pos}
	}
	c.declared[name] = pos
	c.m.Names = append(c.m.Names, name)
	return nil
}

func (c *manifestCompiler) communicators(v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		if err := c.declare("communicator."+name, name, iter.Value().Pos()); err != nil {
			return err
		}
		c.m.Communicators[name] = ir.NewCommunicator(name)
	}
	return nil
}

func (c *manifestCompiler) buffers(v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		bv := iter.Value()
		field := "buffer." + name
		if err := c.declare(field, name, bv.Pos()); err != nil {
			return err
		}

		typeVal := bv.LookupPath(cue.ParsePath("type"))
		spelling, err := typeVal.String()
		if err != nil {
			return formatCUEError(err)
		}
		dtype, err := ir.ParseScalarType(spelling)
		if err != nil {
			return &CompileError{
				Code:    ErrCodeUnknownType,
				Field:   field + ".type",
				Message: err.Error(),
				Pos:     typeVal.Pos(),
			}
		}

		var opts []ir.BufferOption
		if shapeVal := bv.LookupPath(cue.ParsePath("shape")); shapeVal.Exists() {
			extents, err := c.extentList(shapeVal)
			if err != nil {
				return err
			}
			opts = append(opts, ir.WithShape(extents...))
		}
		if allocVal := bv.LookupPath(cue.ParsePath("allocatable")); allocVal.Exists() {
			alloc, err := allocVal.Bool()
			if err != nil {
				return formatCUEError(err)
			}
			if alloc {
				opts = append(opts, ir.Allocatable())
			}
		}
		c.m.Buffers[name] = ir.NewBuffer(name, dtype, opts...)
	}
	return nil
}

func (c *manifestCompiler) views(v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		vv := iter.Value()
		field := "view." + name
		if err := c.declare(field, name, vv.Pos()); err != nil {
			return err
		}

		// A view without a base is accepted; lowering reports it.
		var base *ir.Buffer
		if baseVal := vv.LookupPath(cue.ParsePath("base")); baseVal.Exists() {
			baseName, err := baseVal.String()
			if err != nil {
				return formatCUEError(err)
			}
			b, ok := c.m.Buffers[baseName]
			if !ok {
				return &CompileError{
					Code:    ErrCodeUndeclaredBase,
					Field:   field + ".base",
					Message: fmt.Sprintf("%q is not a declared buffer", baseName),
					Pos:     baseVal.Pos(),
				}
			}
			base = b
			c.m.used[baseName] = true
		}

		var indices []ir.Expr
		if indexVal := vv.LookupPath(cue.ParsePath("index")); indexVal.Exists() {
			indices, err = c.extentList(indexVal)
			if err != nil {
				return err
			}
		}
		c.m.Views[name] = ir.NewIndexedView(base, indices...)
	}
	return nil
}

func (c *manifestCompiler) ops(v cue.Value) error {
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		ov := iter.Value()
		field := fmt.Sprintf("ops[%d]", i)

		kindVal := ov.LookupPath(cue.ParsePath("kind"))
		spelling, err := kindVal.String()
		if err != nil {
			return formatCUEError(err)
		}
		kind, err := opir.ParseKind(spelling)
		if err != nil {
			return &CompileError{
				Code:    ErrCodeUnknownKind,
				Field:   field + ".kind",
				Message: err.Error(),
				Pos:     kindVal.Pos(),
			}
		}

		operands, err := c.operands(ov.LookupPath(cue.ParsePath("args")))
		if err != nil {
			return err
		}
		op, err := opir.New(kind, operands...)
		if err != nil {
			return &CompileError{
				Code:    ErrCodeMalformedOperation,
				Field:   field,
				Message: err.Error(),
				Pos:     ov.Pos(),
				Err:     err,
			}
		}
		c.m.Ops = append(c.m.Ops, op)
		c.m.Positions = append(c.m.Positions, ov.Pos())
	}
	if len(c.m.Ops) == 0 {
		return &CompileError{
			Code:    ErrCodeNoOperations,
			Field:   "ops",
			Message: "at least one operation is required",
			Pos:     v.Pos(),
		}
	}
	return nil
}

func (c *manifestCompiler) operands(v cue.Value) ([]any, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []any
	for iter.Next() {
		av := iter.Value()
		switch av.Kind() {
		case cue.IntKind:
			n, err := av.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			out = append(out, ir.Lit(n))
		case cue.StringKind:
			s, err := av.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			out = append(out, c.resolve(s))
		default:
			return nil, &CompileError{
				Code:    ErrCodeSchema,
				Field:   "args",
				Message: fmt.Sprintf("operand must be a string or int, got %s", av.Kind()),
				Pos:     av.Pos(),
			}
		}
	}
	return out, nil
}

// resolve maps a name operand to the entity it denotes. Unknown names are
// symbols of the host program.
func (c *manifestCompiler) resolve(name string) any {
	if b, ok := c.m.Buffers[name]; ok {
		c.m.used[name] = true
		return b
	}
	if v, ok := c.m.Views[name]; ok {
		c.m.used[name] = true
		return v
	}
	if cm, ok := c.m.Communicators[name]; ok {
		c.m.used[name] = true
		return cm
	}
	switch name {
	case KeywordWorld, c.ctx.World().Name():
		return c.ctx.World()
	case KeywordProcNull, c.ctx.ProcNull().Name():
		return c.ctx.ProcNull()
	case KeywordStatusSize, c.ctx.StatusSize().Name():
		return c.ctx.StatusSize()
	}
	return ir.Sym(name)
}

func (c *manifestCompiler) extentSym(name string) ir.Sym {
	switch name {
	case KeywordProcNull:
		return ir.Sym(c.ctx.ProcNull().Name())
	case KeywordStatusSize:
		return ir.Sym(c.ctx.StatusSize().Name())
	}
	return ir.Sym(name)
}

// extentList reads a list of extents or indices: string is a symbol, int
// a literal, null unknown. The proc_null and status_size keywords become
// symbols spelled the way the context spells those sentinels.
func (c *manifestCompiler) extentList(v cue.Value) ([]ir.Expr, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.Expr
	for iter.Next() {
		ev := iter.Value()
		switch ev.Kind() {
		case cue.NullKind:
			out = append(out, nil)
		case cue.IntKind:
			n, err := ev.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			out = append(out, ir.Lit(n))
		case cue.StringKind:
			s, err := ev.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			out = append(out, c.extentSym(s))
		default:
			return nil, &CompileError{
				Code:    ErrCodeSchema,
				Field:   "extent",
				Message: fmt.Sprintf("extent must be a string, int or null, got %s", ev.Kind()),
				Pos:     ev.Pos(),
			}
		}
	}
	return out, nil
}
