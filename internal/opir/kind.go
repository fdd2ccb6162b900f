package opir

import (
	"fmt"
	"strings"
)

// Kind identifies an operation variant.
type Kind int

const (
	KindSend Kind = iota + 1
	KindRecv
	KindAsyncSend
	KindAsyncRecv
	KindSendRecv
	KindSendRecvReplace
	KindWaitAll
	KindBarrier
	KindBcast
	KindScatter
	KindGather
	KindCommSize
	KindCommRank
)

var kindNames = map[Kind]string{
	KindSend:            "send",
	KindRecv:            "recv",
	KindAsyncSend:       "isend",
	KindAsyncRecv:       "irecv",
	KindSendRecv:        "sendrecv",
	KindSendRecvReplace: "sendrecv_replace",
	KindWaitAll:         "waitall",
	KindBarrier:         "barrier",
	KindBcast:           "bcast",
	KindScatter:         "scatter",
	KindGather:          "gather",
	KindCommSize:        "comm_size",
	KindCommRank:        "comm_rank",
}

// String returns the manifest spelling of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a manifest spelling into a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown operation kind %q", s)
}

// Kinds returns every operation kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindSend; k <= KindCommRank; k++ {
		out = append(out, k)
	}
	return out
}

// OperandKind is the kind of value an operand slot accepts.
type OperandKind int

const (
	// OperandDescriptor accepts an ir.Descriptor (buffer or indexed view).
	OperandDescriptor OperandKind = iota + 1
	// OperandValue accepts an ir.Value (literal, symbol, product or sentinel).
	OperandValue
	// OperandComm accepts a valid *ir.Communicator.
	OperandComm
)

func (k OperandKind) String() string {
	switch k {
	case OperandDescriptor:
		return "descriptor"
	case OperandValue:
		return "value"
	case OperandComm:
		return "communicator"
	default:
		return "unknown"
	}
}

// Slot is one positional operand of an operation.
type Slot struct {
	Name string
	Kind OperandKind
}

var (
	data     = Slot{"data", OperandDescriptor}
	sendData = Slot{"send_data", OperandDescriptor}
	recvData = Slot{"recv_data", OperandDescriptor}
	request  = Slot{"request", OperandDescriptor}
	requests = Slot{"requests", OperandDescriptor}
	statuses = Slot{"statuses", OperandDescriptor}
	dest     = Slot{"dest", OperandValue}
	source   = Slot{"source", OperandValue}
	tag      = Slot{"tag", OperandValue}
	sendTag  = Slot{"send_tag", OperandValue}
	recvTag  = Slot{"recv_tag", OperandValue}
	root     = Slot{"root", OperandValue}
	comm     = Slot{"comm", OperandComm}
)

var signatures = map[Kind][]Slot{
	KindSend:            {data, dest, tag, comm},
	KindRecv:            {data, source, tag, comm},
	KindAsyncSend:       {data, dest, tag, request, comm},
	KindAsyncRecv:       {data, source, tag, request, comm},
	KindSendRecv:        {sendData, dest, sendTag, recvData, source, recvTag, comm},
	KindSendRecvReplace: {data, dest, sendTag, source, recvTag, comm},
	KindWaitAll:         {requests, statuses},
	KindBarrier:         {comm},
	KindBcast:           {data, root, comm},
	KindScatter:         {sendData, recvData, root, comm},
	KindGather:          {sendData, recvData, root, comm},
	KindCommSize:        {comm},
	KindCommRank:        {comm},
}

// Signature returns the ordered operand slots of kind, or nil for an unknown kind.
func Signature(k Kind) []Slot {
	sig, ok := signatures[k]
	if !ok {
		return nil
	}
	return append([]Slot(nil), sig...)
}

// Arity returns the number of operands kind takes, or -1 for an unknown kind.
func (k Kind) Arity() int {
	sig, ok := signatures[k]
	if !ok {
		return -1
	}
	return len(sig)
}
