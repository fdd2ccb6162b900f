package opir

import (
	"fmt"

	"github.com/roach88/mpilower/internal/ir"
)

// New builds an operation of kind from positional operands.
//
// Operands are matched against Signature(kind) before the typed constructor
// runs. Value slots also accept Go integers (as ir.Lit) and strings (as
// ir.Sym) so front ends can pass literal ranks and tags directly.
func New(kind Kind, operands ...any) (Op, error) {
	sig, ok := signatures[kind]
	if !ok {
		return nil, ir.NewMalformedOperationError("kind", "a known operation kind", fmt.Sprintf("unknown kind %s", kind))
	}
	if len(operands) != len(sig) {
		return nil, fmt.Errorf("new %s: %w", kind, ir.NewMalformedOperationError(
			"operands",
			fmt.Sprintf("%d operands", len(sig)),
			fmt.Sprintf("got %d operands", len(operands)),
		))
	}

	a := &operandReader{kind: kind, sig: sig, operands: operands}
	switch kind {
	case KindSend:
		d, dest, tag, c := a.desc(0), a.value(1), a.value(2), a.comm(3)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewSend(d, dest, tag, c))
	case KindRecv:
		d, src, tag, c := a.desc(0), a.value(1), a.value(2), a.comm(3)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewRecv(d, src, tag, c))
	case KindAsyncSend:
		d, dest, tag, req, c := a.desc(0), a.value(1), a.value(2), a.desc(3), a.comm(4)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewAsyncSend(d, dest, tag, req, c))
	case KindAsyncRecv:
		d, src, tag, req, c := a.desc(0), a.value(1), a.value(2), a.desc(3), a.comm(4)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewAsyncRecv(d, src, tag, req, c))
	case KindSendRecv:
		sd, dest, stag := a.desc(0), a.value(1), a.value(2)
		rd, src, rtag, c := a.desc(3), a.value(4), a.value(5), a.comm(6)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewSendRecv(sd, dest, stag, rd, src, rtag, c))
	case KindSendRecvReplace:
		d, dest, stag, src, rtag, c := a.desc(0), a.value(1), a.value(2), a.value(3), a.value(4), a.comm(5)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewSendRecvReplace(d, dest, stag, src, rtag, c))
	case KindWaitAll:
		reqs, stats := a.desc(0), a.desc(1)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewWaitAll(reqs, stats))
	case KindBarrier:
		c := a.comm(0)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewBarrier(c))
	case KindBcast:
		d, root, c := a.desc(0), a.value(1), a.comm(2)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewBcast(d, root, c))
	case KindScatter:
		sd, rd, root, c := a.desc(0), a.desc(1), a.value(2), a.comm(3)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewScatter(sd, rd, root, c))
	case KindGather:
		sd, rd, root, c := a.desc(0), a.desc(1), a.value(2), a.comm(3)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewGather(sd, rd, root, c))
	case KindCommSize:
		c := a.comm(0)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewCommSize(c))
	case KindCommRank:
		c := a.comm(0)
		if a.err != nil {
			return nil, a.err
		}
		return build(NewCommRank(c))
	default:
		return nil, ir.NewMalformedOperationError("kind", "a known operation kind", fmt.Sprintf("unknown kind %s", kind))
	}
}

// build drops the typed nil a failed constructor returns so callers can
// compare the Op against nil.
func build[T Op](op T, err error) (Op, error) {
	if err != nil {
		return nil, err
	}
	return op, nil
}

// operandReader converts untyped operands slot by slot, keeping the first
// mismatch.
type operandReader struct {
	kind     Kind
	sig      []Slot
	operands []any
	err      error
}

func (r *operandReader) fail(i int, got any) {
	if r.err != nil {
		return
	}
	slot := r.sig[i]
	r.err = fmt.Errorf("new %s: %w", r.kind, ir.NewMalformedOperationError(
		slot.Name,
		slot.Kind.String(),
		fmt.Sprintf("operand %d has type %T", i, got),
	))
}

func (r *operandReader) desc(i int) ir.Descriptor {
	switch v := r.operands[i].(type) {
	case ir.Descriptor:
		return v
	case nil:
		// Left for checkDescriptor to report as nil.
		return nil
	default:
		r.fail(i, v)
		return nil
	}
}

func (r *operandReader) value(i int) ir.Value {
	switch v := r.operands[i].(type) {
	case ir.Value:
		return v
	case int:
		return ir.Lit(v)
	case int64:
		return ir.Lit(v)
	case string:
		return ir.Sym(v)
	case nil:
		return nil
	default:
		r.fail(i, v)
		return nil
	}
}

func (r *operandReader) comm(i int) *ir.Communicator {
	switch v := r.operands[i].(type) {
	case *ir.Communicator:
		return v
	case nil:
		return nil
	default:
		r.fail(i, v)
		return nil
	}
}
