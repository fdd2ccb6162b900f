package opir

import (
	"reflect"

	"github.com/roach88/mpilower/internal/ir"
)

// Op is one communication operation awaiting lowering.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the lowering engine.
type Op interface {
	Kind() Kind
	operation() // Marker method - seals interface to this package
}

// IsNil reports whether op is nil, including a typed nil such as
// (*Send)(nil).
func IsNil(op Op) bool {
	if op == nil {
		return true
	}
	v := reflect.ValueOf(op)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Send is a blocking point-to-point send.
type Send struct {
	data      ir.Descriptor
	dest, tag ir.Value
	comm      *ir.Communicator
}

// NewSend validates the operands of a blocking send.
func NewSend(data ir.Descriptor, dest, tag ir.Value, comm *ir.Communicator) (*Send, error) {
	if err := firstError(KindSend,
		checkDescriptor("data", data),
		checkValue("dest", dest),
		checkValue("tag", tag),
		checkComm("comm", comm),
	); err != nil {
		return nil, err
	}
	return &Send{data: data, dest: dest, tag: tag, comm: comm}, nil
}

func (*Send) operation() {}
func (*Send) Kind() Kind { return KindSend }
func (o *Send) Data() ir.Descriptor { return o.data }
func (o *Send) Dest() ir.Value { return o.dest }
func (o *Send) Tag() ir.Value { return o.tag }
func (o *Send) Comm() *ir.Communicator { return o.comm }

// Recv is a blocking point-to-point receive.
type Recv struct {
	data        ir.Descriptor
	source, tag ir.Value
	comm        *ir.Communicator
}

// NewRecv validates the operands of a blocking receive.
func NewRecv(data ir.Descriptor, source, tag ir.Value, comm *ir.Communicator) (*Recv, error) {
	if err := firstError(KindRecv,
		checkDescriptor("data", data),
		checkValue("source", source),
		checkValue("tag", tag),
		checkComm("comm", comm),
	); err != nil {
		return nil, err
	}
	return &Recv{data: data, source: source, tag: tag, comm: comm}, nil
}

func (*Recv) operation() {}
func (*Recv) Kind() Kind { return KindRecv }
func (o *Recv) Data() ir.Descriptor { return o.data }
func (o *Recv) Source() ir.Value { return o.source }
func (o *Recv) Tag() ir.Value { return o.tag }
func (o *Recv) Comm() *ir.Communicator { return o.comm }

// AsyncSend is a non-blocking send. The request handle is completed by a
// later WaitAll.
type AsyncSend struct {
	data      ir.Descriptor
	dest, tag ir.Value
	request   ir.Descriptor
	comm      *ir.Communicator
}

// NewAsyncSend validates the operands of a non-blocking send.
func NewAsyncSend(data ir.Descriptor, dest, tag ir.Value, request ir.Descriptor, comm *ir.Communicator) (*AsyncSend, error) {
	if err := firstError(KindAsyncSend,
		checkDescriptor("data", data),
		checkValue("dest", dest),
		checkValue("tag", tag),
		checkDescriptor("request", request),
		checkComm("comm", comm),
	); err != nil {
		return nil, err
	}
	return &AsyncSend{data: data, dest: dest, tag: tag, request: request, comm: comm}, nil
}

func (*AsyncSend) operation() {}
func (*AsyncSend) Kind() Kind { return KindAsyncSend }
func (o *AsyncSend) Data() ir.Descriptor { return o.data }
func (o *AsyncSend) Dest() ir.Value { return o.dest }
func (o *AsyncSend) Tag() ir.Value { return o.tag }
func (o *AsyncSend) Request() ir.Descriptor { return o.request }
func (o *AsyncSend) Comm() *ir.Communicator { return o.comm }

// AsyncRecv is a non-blocking receive.
type AsyncRecv struct {
	data        ir.Descriptor
	source, tag ir.Value
	request     ir.Descriptor
	comm        *ir.Communicator
}

// NewAsyncRecv validates the operands of a non-blocking receive.
func NewAsyncRecv(data ir.Descriptor, source, tag ir.Value, request ir.Descriptor, comm *ir.Communicator) (*AsyncRecv, error) {
	if err := firstError(KindAsyncRecv,
		checkDescriptor("data", data),
		checkValue("source", source),
		checkValue("tag", tag),
		checkDescriptor("request", request),
		checkComm("comm", comm),
	); err != nil {
		return nil, err
	}
	return &AsyncRecv{data: data, source: source, tag: tag, request: request, comm: comm}, nil
}

func (*AsyncRecv) operation() {}
func (*AsyncRecv) Kind() Kind { return KindAsyncRecv }
func (o *AsyncRecv) Data() ir.Descriptor { return o.data }
func (o *AsyncRecv) Source() ir.Value { return o.source }
func (o *AsyncRecv) Tag() ir.Value { return o.tag }
func (o *AsyncRecv) Request() ir.Descriptor { return o.request }
func (o *AsyncRecv) Comm() *ir.Communicator { return o.comm }

// SendRecv sends one buffer and receives into another in a single call.
type SendRecv struct {
	sendData, recvData ir.Descriptor
	dest, sendTag      ir.Value
	source, recvTag    ir.Value
	comm               *ir.Communicator
}

// NewSendRecv validates the operands of a combined send and receive.
func NewSendRecv(sendData ir.Descriptor, dest, sendTag ir.Value, recvData ir.Descriptor, source, recvTag ir.Value, comm *ir.Communicator) (*SendRecv, error) {
	if err := firstError(KindSendRecv,
		checkDescriptor("send_data", sendData),
		checkValue("dest", dest),
		checkValue("send_tag", sendTag),
		checkDescriptor("recv_data", recvData),
		checkValue("source", source),
		checkValue("recv_tag", recvTag),
		checkComm("comm", comm),
	); err != nil {
		return nil, err
	}
	return &SendRecv{
		sendData: sendData, dest: dest, sendTag: sendTag,
		recvData: recvData, source: source, recvTag: recvTag,
		comm: comm,
	}, nil
}

func (*SendRecv) operation() {}
func (*SendRecv) Kind() Kind { return KindSendRecv }
func (o *SendRecv) SendData() ir.Descriptor { return o.sendData }
func (o *SendRecv) Dest() ir.Value { return o.dest }
func (o *SendRecv) SendTag() ir.Value { return o.sendTag }
func (o *SendRecv) RecvData() ir.Descriptor { return o.recvData }
func (o *SendRecv) Source() ir.Value { return o.source }
func (o *SendRecv) RecvTag() ir.Value { return o.recvTag }
func (o *SendRecv) Comm() *ir.Communicator { return o.comm }

// SendRecvReplace sends a buffer and overwrites it with the received data.
type SendRecvReplace struct {
	data            ir.Descriptor
	dest, sendTag   ir.Value
	source, recvTag ir.Value
	comm            *ir.Communicator
}

// NewSendRecvReplace validates the operands of an in-place send and receive.
func NewSendRecvReplace(data ir.Descriptor, dest, sendTag, source, recvTag ir.Value, comm *ir.Communicator) (*SendRecvReplace, error) {
	if err := firstError(KindSendRecvReplace,
		checkDescriptor("data", data),
		checkValue("dest", dest),
		checkValue("send_tag", sendTag),
		checkValue("source", source),
		checkValue("recv_tag", recvTag),
		checkComm("comm", comm),
	); err != nil {
		return nil, err
	}
	return &SendRecvReplace{data: data, dest: dest, sendTag: sendTag, source: source, recvTag: recvTag, comm: comm}, nil
}

func (*SendRecvReplace) operation() {}
func (*SendRecvReplace) Kind() Kind { return KindSendRecvReplace }
func (o *SendRecvReplace) Data() ir.Descriptor { return o.data }
func (o *SendRecvReplace) Dest() ir.Value { return o.dest }
func (o *SendRecvReplace) SendTag() ir.Value { return o.sendTag }
func (o *SendRecvReplace) Source() ir.Value { return o.source }
func (o *SendRecvReplace) RecvTag() ir.Value { return o.recvTag }
func (o *SendRecvReplace) Comm() *ir.Communicator { return o.comm }

// WaitAll completes every request in an array of request handles.
type WaitAll struct {
	requests, statuses ir.Descriptor
}

// NewWaitAll validates the operands of a wait on all requests.
func NewWaitAll(requests, statuses ir.Descriptor) (*WaitAll, error) {
	if err := firstError(KindWaitAll,
		checkDescriptor("requests", requests),
		checkDescriptor("statuses", statuses),
	); err != nil {
		return nil, err
	}
	return &WaitAll{requests: requests, statuses: statuses}, nil
}

func (*WaitAll) operation() {}
func (*WaitAll) Kind() Kind { return KindWaitAll }
func (o *WaitAll) Requests() ir.Descriptor { return o.requests }
func (o *WaitAll) Statuses() ir.Descriptor { return o.statuses }

// Barrier blocks until every process in the communicator has entered it.
type Barrier struct {
	comm *ir.Communicator
}

// NewBarrier validates the communicator of a barrier.
func NewBarrier(comm *ir.Communicator) (*Barrier, error) {
	if err := firstError(KindBarrier, checkComm("comm", comm)); err != nil {
		return nil, err
	}
	return &Barrier{comm: comm}, nil
}

func (*Barrier) operation() {}
func (*Barrier) Kind() Kind { return KindBarrier }
func (o *Barrier) Comm() *ir.Communicator { return o.comm }

// Bcast broadcasts a buffer from root to every process.
type Bcast struct {
	data ir.Descriptor
	root ir.Value
	comm *ir.Communicator
}

// NewBcast validates the operands of a broadcast.
func NewBcast(data ir.Descriptor, root ir.Value, comm *ir.Communicator) (*Bcast, error) {
	if err := firstError(KindBcast,
		checkDescriptor("data", data),
		checkValue("root", root),
		checkComm("comm", comm),
	); err != nil {
		return nil, err
	}
	return &Bcast{data: data, root: root, comm: comm}, nil
}

func (*Bcast) operation() {}
func (*Bcast) Kind() Kind { return KindBcast }
func (o *Bcast) Data() ir.Descriptor { return o.data }
func (o *Bcast) Root() ir.Value { return o.root }
func (o *Bcast) Comm() *ir.Communicator { return o.comm }

// collective is the operand set shared by Scatter and Gather.
type collective struct {
	sendData, recvData ir.Descriptor
	root               ir.Value
	comm               *ir.Communicator
}

func newCollective(k Kind, sendData, recvData ir.Descriptor, root ir.Value, comm *ir.Communicator) (collective, error) {
	if err := firstError(k,
		checkDescriptor("send_data", sendData),
		checkDescriptor("recv_data", recvData),
		checkValue("root", root),
		checkComm("comm", comm),
	); err != nil {
		return collective{}, err
	}
	return collective{sendData: sendData, recvData: recvData, root: root, comm: comm}, nil
}

func (c collective) SendData() ir.Descriptor { return c.sendData }
func (c collective) RecvData() ir.Descriptor { return c.recvData }
func (c collective) Root() ir.Value { return c.root }
func (c collective) Comm() *ir.Communicator { return c.comm }

// Scatter distributes chunks of the root's send buffer to every process.
type Scatter struct {
	collective
}

// NewScatter validates the operands of a scatter.
func NewScatter(sendData, recvData ir.Descriptor, root ir.Value, comm *ir.Communicator) (*Scatter, error) {
	c, err := newCollective(KindScatter, sendData, recvData, root, comm)
	if err != nil {
		return nil, err
	}
	return &Scatter{c}, nil
}

func (*Scatter) operation() {}
func (*Scatter) Kind() Kind { return KindScatter }

// Gather collects every process's send buffer into the root's receive buffer.
type Gather struct {
	collective
}

// NewGather validates the operands of a gather.
func NewGather(sendData, recvData ir.Descriptor, root ir.Value, comm *ir.Communicator) (*Gather, error) {
	c, err := newCollective(KindGather, sendData, recvData, root, comm)
	if err != nil {
		return nil, err
	}
	return &Gather{c}, nil
}

func (*Gather) operation() {}
func (*Gather) Kind() Kind { return KindGather }

// CommSize queries the number of processes in a communicator.
type CommSize struct {
	comm *ir.Communicator
}

// NewCommSize validates the communicator of a size query.
func NewCommSize(comm *ir.Communicator) (*CommSize, error) {
	if err := firstError(KindCommSize, checkComm("comm", comm)); err != nil {
		return nil, err
	}
	return &CommSize{comm: comm}, nil
}

func (*CommSize) operation() {}
func (*CommSize) Kind() Kind { return KindCommSize }
func (o *CommSize) Comm() *ir.Communicator { return o.comm }

// CommRank queries the calling process's rank in a communicator.
type CommRank struct {
	comm *ir.Communicator
}

// NewCommRank validates the communicator of a rank query.
func NewCommRank(comm *ir.Communicator) (*CommRank, error) {
	if err := firstError(KindCommRank, checkComm("comm", comm)); err != nil {
		return nil, err
	}
	return &CommRank{comm: comm}, nil
}

func (*CommRank) operation() {}
func (*CommRank) Kind() Kind { return KindCommRank }
func (o *CommRank) Comm() *ir.Communicator { return o.comm }
