package opir

import (
	"fmt"

	"github.com/roach88/mpilower/internal/ir"
)

// AnalysisResult reports operations that lower correctly but are likely to
// misbehave at run time.
type AnalysisResult struct {
	// Clean is true when no warnings were raised.
	Clean bool

	// Warnings lists the suspicious operands found.
	Warnings []string
}

// Analyze inspects a constructed operation for likely mistakes.
//
// Checks:
//  1. An indexed view as data: the count covers the whole base array
//  2. Send and receive buffers with different scalar types
//  3. A negative literal rank, tag or root
//  4. A collective rooted at the null process
//  5. A status array for waitall that is not shaped (status_size, n)
//
// Warnings never block lowering. Analyze is a pure function; ctx supplies the
// sentinel spellings and may be nil for the process-wide default.
func Analyze(op Op, ctx *ir.Context) AnalysisResult {
	if ctx == nil {
		ctx = ir.DefaultContext()
	}
	a := &analyzer{ctx: ctx, warnings: []string{}}
	a.analyze(op)
	return AnalysisResult{
		Clean:    len(a.warnings) == 0,
		Warnings: a.warnings,
	}
}

type analyzer struct {
	ctx      *ir.Context
	warnings []string
}

func (a *analyzer) addWarning(format string, args ...any) {
	a.warnings = append(a.warnings, fmt.Sprintf(format, args...))
}

func (a *analyzer) analyze(op Op) {
	switch o := op.(type) {
	case nil:
		a.addWarning("nil operation")
	case *Send:
		a.data("data", o.Data())
		a.rank("dest", o.Dest())
		a.tag("tag", o.Tag())
	case *Recv:
		a.data("data", o.Data())
		a.rank("source", o.Source())
		a.tag("tag", o.Tag())
	case *AsyncSend:
		a.data("data", o.Data())
		a.rank("dest", o.Dest())
		a.tag("tag", o.Tag())
	case *AsyncRecv:
		a.data("data", o.Data())
		a.rank("source", o.Source())
		a.tag("tag", o.Tag())
	case *SendRecv:
		a.data("send_data", o.SendData())
		a.data("recv_data", o.RecvData())
		a.sameType(o.SendData(), o.RecvData())
		a.rank("dest", o.Dest())
		a.tag("send_tag", o.SendTag())
		a.rank("source", o.Source())
		a.tag("recv_tag", o.RecvTag())
	case *SendRecvReplace:
		a.data("data", o.Data())
		a.rank("dest", o.Dest())
		a.tag("send_tag", o.SendTag())
		a.rank("source", o.Source())
		a.tag("recv_tag", o.RecvTag())
	case *WaitAll:
		a.waitAll(o)
	case *Bcast:
		a.data("data", o.Data())
		a.root(o.Kind(), o.Root())
	case *Scatter:
		a.collective(o.Kind(), o.collective)
	case *Gather:
		a.collective(o.Kind(), o.collective)
	case *Barrier, *CommSize, *CommRank:
		// Communicator only.
	default:
		a.addWarning("unknown operation type %T", op)
	}
}

func (a *analyzer) collective(k Kind, c collective) {
	a.data("send_data", c.SendData())
	a.data("recv_data", c.RecvData())
	a.sameType(c.SendData(), c.RecvData())
	a.root(k, c.Root())
}

func (a *analyzer) data(slot string, d ir.Descriptor) {
	v, ok := d.(*ir.IndexedView)
	if !ok || v.Base() == nil {
		return
	}
	a.addWarning("%s: indexed view %s sends the full extent of %s", slot, v, v.Base().Name())
}

func (a *analyzer) sameType(send, recv ir.Descriptor) {
	if send.ScalarType() != recv.ScalarType() {
		a.addWarning("send buffer %s is %s but receive buffer %s is %s",
			send.Name(), send.ScalarType(), recv.Name(), recv.ScalarType())
	}
}

func (a *analyzer) rank(slot string, v ir.Value) {
	if lit, ok := v.(ir.Lit); ok && lit < 0 {
		a.addWarning("%s: negative rank %d; use %s for no process", slot, int64(lit), a.ctx.ProcNull())
	}
}

func (a *analyzer) tag(slot string, v ir.Value) {
	if lit, ok := v.(ir.Lit); ok && lit < 0 {
		a.addWarning("%s: negative tag %d", slot, int64(lit))
	}
}

func (a *analyzer) root(k Kind, v ir.Value) {
	if s, ok := v.(*ir.Sentinel); ok && s.Kind() == ir.SentinelProcNull {
		a.addWarning("%s rooted at %s: no process sends", k, s)
		return
	}
	a.rank("root", v)
}

func (a *analyzer) waitAll(o *WaitAll) {
	if b, ok := o.Requests().(*ir.Buffer); ok && b.Rank() != 1 {
		a.addWarning("requests: %s has rank %d; expected a one-dimensional request array", b.Name(), b.Rank())
	}
	b, ok := o.Statuses().(*ir.Buffer)
	if !ok {
		a.addWarning("statuses: %s is not a whole array", o.Statuses())
		return
	}
	shape := b.Shape()
	if len(shape) < 2 {
		a.addWarning("statuses: %s has rank %d; expected (%s, n)", b.Name(), len(shape), a.ctx.StatusSize())
		return
	}
	if sym, ok := shape[0].(ir.Sym); !ok || string(sym) != a.ctx.StatusSize().Name() {
		a.addWarning("statuses: first extent of %s is %s; expected %s", b.Name(), shape[0], a.ctx.StatusSize())
	}
}
