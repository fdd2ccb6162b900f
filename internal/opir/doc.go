// Package opir provides the operation registry: the closed set of
// communication operations the lowering engine understands.
//
// ARCHITECTURE:
//
//	[front end] → [opir.Op] → [lower.Lowerer] → [ir.Call] → [backend]
//
// Each operation is an immutable record of typed operand slots. Operands are
// validated when the record is constructed (fail fast), so an Op that exists
// is always well formed. Construction errors are ir.LowerError values with
// code MALFORMED_OPERATION naming the slot and the expected operand kind.
//
// OPERATIONS:
//
//	Kind               Operands
//	----               --------
//	send               data, dest, tag, comm
//	recv               data, source, tag, comm
//	isend              data, dest, tag, request, comm
//	irecv              data, source, tag, request, comm
//	sendrecv           send_data, dest, send_tag, recv_data, source, recv_tag, comm
//	sendrecv_replace   data, dest, send_tag, source, recv_tag, comm
//	waitall            requests, statuses
//	barrier            comm
//	bcast              data, root, comm
//	scatter            send_data, recv_data, root, comm
//	gather             send_data, recv_data, root, comm
//	comm_size          comm
//	comm_rank          comm
//
// SEALED INTERFACE:
//
// Op is sealed with a marker method. Only the types in this package
// implement it, which lets the lowering engine switch over every variant:
//
//	switch o := op.(type) {
//	case *Send:
//	    // ...
//	case *Barrier:
//	    // ...
//	}
//
// Adding a variant means adding a Kind, a signature and a lowering case.
//
// CONSTRUCTION:
//
// Typed constructors (NewSend, NewBcast, ...) take Go-typed operands. The
// generic New(kind, operands...) is used by front ends that only know
// operands dynamically; it checks arity and operand kinds per slot before
// delegating to the typed constructor.
package opir
