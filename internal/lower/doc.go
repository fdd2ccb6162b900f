// Package lower turns opir operations into ir.Call values that follow the
// Fortran calling convention of the message-passing binding.
//
// Lowering is a pure function of the operation and the Context: the same
// operation lowered twice against the same Context yields identical calls.
// Every buffer operand expands to the triple (buffer, count, datatype), and
// every call except the communicator properties ends with the shared error
// slot. Receiving calls pass the shared status slot just before it.
//
// Canonical argument order:
//
//	send              MPI_send (data, count, type, dest, tag, comm, ERR)
//	recv              MPI_recv (data, count, type, source, tag, comm, STATUS, ERR)
//	isend             MPI_isend (data, count, type, dest, tag, comm, req, ERR)
//	irecv             MPI_irecv (data, count, type, source, tag, comm, req, ERR)
//	sendrecv          MPI_sendrecv (sdata, count, type, dest, stag,
//	                                rdata, count, type, source, rtag, comm, STATUS, ERR)
//	sendrecv_replace  MPI_sendrecv_replace (data, count, type, dest, stag,
//	                                        source, rtag, comm, STATUS, ERR)
//	waitall           MPI_waitall (count(requests), requests, statuses, ERR)
//	bcast             MPI_bcast (data, count, type, root, comm, ERR)
//	scatter, gather   MPI_scatter (sdata, count, type, rdata, count, type, root, comm, ERR)
//	barrier           comm.barrier
//	comm_size         comm.size
//	comm_rank         comm.rank
//
// A resolver failure aborts the operation; no partial call is returned.
package lower
