package ir

import "fmt"

// ArgRole classifies a lowered argument by what it references.
type ArgRole string

const (
	RoleBuffer   ArgRole = "buffer"
	RoleCount    ArgRole = "count"
	RoleDatatype ArgRole = "datatype"
	RoleValue    ArgRole = "value"
	RoleComm     ArgRole = "comm"
	RoleRequest  ArgRole = "request"
	RoleSlot     ArgRole = "slot"
)

// Arg is one positional argument of a lowered call.
//
// This is a sealed interface - only the *Arg types in this package
// implement it. Every Arg is renderable through String.
type Arg interface {
	fmt.Stringer
	Role() ArgRole
	arg() // Marker method - seals interface to this package
}

// BufferArg passes a communication buffer by reference.
type BufferArg struct {
	Desc Descriptor
}

func (BufferArg) arg() {}
func (BufferArg) Role() ArgRole { return RoleBuffer }
func (a BufferArg) String() string { return a.Desc.String() }

// CountArg passes the element count derived from a descriptor.
type CountArg struct {
	Count Expr
}

func (CountArg) arg() {}
func (CountArg) Role() ArgRole { return RoleCount }
func (a CountArg) String() string { return a.Count.String() }

// DatatypeArg passes the wire datatype derived from a descriptor.
type DatatypeArg struct {
	Tag WireTag
}

func (DatatypeArg) arg() {}
func (DatatypeArg) Role() ArgRole { return RoleDatatype }
func (a DatatypeArg) String() string { return a.Tag.String() }

// ValueArg passes a scalar operand (rank, tag, root) unchanged.
type ValueArg struct {
	Value Value
}

func (ValueArg) arg() {}
func (ValueArg) Role() ArgRole { return RoleValue }
func (a ValueArg) String() string { return a.Value.String() }

// CommArg passes a communicator handle.
type CommArg struct {
	Comm *Communicator
}

func (CommArg) arg() {}
func (CommArg) Role() ArgRole { return RoleComm }
func (a CommArg) String() string { return a.Comm.String() }

// RequestArg passes the request handle of a non-blocking call.
// The handle is threaded through untouched; it is never inspected.
type RequestArg struct {
	Handle Descriptor
}

func (RequestArg) arg() {}
func (RequestArg) Role() ArgRole { return RoleRequest }
func (a RequestArg) String() string { return a.Handle.String() }

// SlotArg passes one of the Context's shared output slots.
type SlotArg struct {
	Slot *Slot
}

func (SlotArg) arg() {}
func (SlotArg) Role() ArgRole { return RoleSlot }
func (a SlotArg) String() string { return a.Slot.String() }
