package lower

import (
	"fmt"
	"log/slog"

	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/opir"
	"github.com/roach88/mpilower/internal/resolve"
)

// Lowerer lowers operations against one Context.
//
// A Lowerer holds only immutable references and is safe for concurrent use.
type Lowerer struct {
	ctx    *ir.Context
	logger *slog.Logger
}

// Option configures a Lowerer.
type Option func(*Lowerer)

// WithLogger routes lowering diagnostics to logger.
//
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lowerer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Lowerer. A nil ctx selects ir.DefaultContext().
func New(ctx *ir.Context, opts ...Option) *Lowerer {
	if ctx == nil {
		ctx = ir.DefaultContext()
	}
	l := &Lowerer{ctx: ctx, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Context returns the Context calls are lowered against.
func (l *Lowerer) Context() *ir.Context {
	return l.ctx
}

// Lower converts one operation into its call.
//
// Errors are ir.LowerError values wrapped with the variant and operand slot,
// e.g. "lower Send: data: UNRESOLVABLE_SHAPE: ...".
func (l *Lowerer) Lower(op opir.Op) (ir.Call, error) {
	if opir.IsNil(op) {
		return ir.Call{}, fmt.Errorf("lower: %w", ir.NewMalformedOperationError("op", "an operation", "operation is nil"))
	}

	call, err := l.lower(op)
	if err != nil {
		return ir.Call{}, err
	}
	l.logger.Debug("operation lowered",
		"kind", op.Kind().String(),
		"call", call.Name,
		"args", len(call.Args),
	)
	return call, nil
}

func (l *Lowerer) lower(op opir.Op) (ir.Call, error) {
	switch o := op.(type) {
	case *opir.Send:
		b := l.newBuilder(o.Kind())
		b.buffer("data", o.Data())
		b.value(o.Dest())
		b.value(o.Tag())
		b.comm(o.Comm())
		b.errorSlot()
		return b.call(NameSend)
	case *opir.Recv:
		b := l.newBuilder(o.Kind())
		b.buffer("data", o.Data())
		b.value(o.Source())
		b.value(o.Tag())
		b.comm(o.Comm())
		b.statusSlot()
		b.errorSlot()
		return b.call(NameRecv)
	case *opir.AsyncSend:
		b := l.newBuilder(o.Kind())
		b.buffer("data", o.Data())
		b.value(o.Dest())
		b.value(o.Tag())
		b.comm(o.Comm())
		b.request(o.Request())
		b.errorSlot()
		return b.call(NameAsyncSend)
	case *opir.AsyncRecv:
		b := l.newBuilder(o.Kind())
		b.buffer("data", o.Data())
		b.value(o.Source())
		b.value(o.Tag())
		b.comm(o.Comm())
		b.request(o.Request())
		b.errorSlot()
		return b.call(NameAsyncRecv)
	case *opir.SendRecv:
		b := l.newBuilder(o.Kind())
		b.buffer("send_data", o.SendData())
		b.value(o.Dest())
		b.value(o.SendTag())
		b.buffer("recv_data", o.RecvData())
		b.value(o.Source())
		b.value(o.RecvTag())
		b.comm(o.Comm())
		b.statusSlot()
		b.errorSlot()
		return b.call(NameSendRecv)
	case *opir.SendRecvReplace:
		b := l.newBuilder(o.Kind())
		b.buffer("data", o.Data())
		b.value(o.Dest())
		b.value(o.SendTag())
		b.value(o.Source())
		b.value(o.RecvTag())
		b.comm(o.Comm())
		b.statusSlot()
		b.errorSlot()
		return b.call(NameSendRecvReplace)
	case *opir.WaitAll:
		b := l.newBuilder(o.Kind())
		b.count("requests", o.Requests())
		b.handle(o.Requests())
		b.handle(o.Statuses())
		b.errorSlot()
		return b.call(NameWaitAll)
	case *opir.Bcast:
		b := l.newBuilder(o.Kind())
		b.buffer("data", o.Data())
		b.value(o.Root())
		b.comm(o.Comm())
		b.errorSlot()
		return b.call(NameBcast)
	case *opir.Scatter:
		return l.collective(o.Kind(), NameScatter, o.SendData(), o.RecvData(), o.Root(), o.Comm())
	case *opir.Gather:
		return l.collective(o.Kind(), NameGather, o.SendData(), o.RecvData(), o.Root(), o.Comm())
	case *opir.Barrier:
		return commProperty(NameBarrier, o.Comm()), nil
	case *opir.CommSize:
		return commProperty(NameCommSize, o.Comm()), nil
	case *opir.CommRank:
		return commProperty(NameCommRank, o.Comm()), nil
	default:
		return ir.Call{}, fmt.Errorf("lower: %w", ir.NewMalformedOperationError("op", "a registered operation", fmt.Sprintf("unsupported operation type %T", op)))
	}
}

func (l *Lowerer) collective(k opir.Kind, name string, sendData, recvData ir.Descriptor, root ir.Value, comm *ir.Communicator) (ir.Call, error) {
	b := l.newBuilder(k)
	b.buffer("send_data", sendData)
	b.buffer("recv_data", recvData)
	b.value(root)
	b.comm(comm)
	b.errorSlot()
	return b.call(name)
}

func commProperty(name string, comm *ir.Communicator) ir.Call {
	return ir.Call{
		Name:  name,
		Form:  ir.FormCommProperty,
		Scope: comm,
		Args:  []ir.Arg{},
	}
}

// builder appends arguments in order and keeps the first resolver error.
type builder struct {
	ctx  *ir.Context
	kind opir.Kind
	args []ir.Arg
	err  error
}

func (l *Lowerer) newBuilder(k opir.Kind) *builder {
	return &builder{ctx: l.ctx, kind: k}
}

func (b *builder) fail(slot string, err error) {
	if b.err == nil {
		b.err = fmt.Errorf("lower %s: %s: %w", variantName(b.kind), slot, err)
	}
}

// buffer appends the (buffer, count, datatype) triple for d.
func (b *builder) buffer(slot string, d ir.Descriptor) {
	if b.err != nil {
		return
	}
	count, err := resolve.Count(d)
	if err != nil {
		b.fail(slot, err)
		return
	}
	tag, err := resolve.DescriptorDatatype(d)
	if err != nil {
		b.fail(slot, err)
		return
	}
	b.args = append(b.args,
		ir.BufferArg{Desc: d},
		ir.CountArg{Count: count},
		ir.DatatypeArg{Tag: tag},
	)
}

func (b *builder) count(slot string, d ir.Descriptor) {
	if b.err != nil {
		return
	}
	count, err := resolve.Count(d)
	if err != nil {
		b.fail(slot, err)
		return
	}
	b.args = append(b.args, ir.CountArg{Count: count})
}

func (b *builder) handle(d ir.Descriptor) {
	b.args = append(b.args, ir.BufferArg{Desc: d})
}

func (b *builder) request(d ir.Descriptor) {
	b.args = append(b.args, ir.RequestArg{Handle: d})
}

func (b *builder) value(v ir.Value) {
	b.args = append(b.args, ir.ValueArg{Value: v})
}

func (b *builder) comm(c *ir.Communicator) {
	b.args = append(b.args, ir.CommArg{Comm: c})
}

func (b *builder) statusSlot() {
	b.args = append(b.args, ir.SlotArg{Slot: b.ctx.StatusSlot()})
}

func (b *builder) errorSlot() {
	b.args = append(b.args, ir.SlotArg{Slot: b.ctx.ErrorSlot()})
}

func (b *builder) call(name string) (ir.Call, error) {
	if b.err != nil {
		return ir.Call{}, b.err
	}
	return ir.Call{Name: name, Form: ir.FormCall, Args: b.args}, nil
}
