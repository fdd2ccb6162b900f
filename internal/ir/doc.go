// Package ir provides the data model of the MPI lowering layer.
//
// This package contains the records the front end builds (buffer descriptors,
// indexed views, communicators, scalar operands), the records the lowering
// engine produces (calls and their ordered arguments) and the process-wide
// context shared by every lowered call. All other internal packages import ir;
// ir imports nothing internal.
//
// Key design constraints:
//   - Every record is immutable after construction; fields are unexported and
//     read through accessors
//   - Element counts are symbolic expressions (Lit, Sym, Mul), never forced to
//     a number, so unresolved compile-time extents stay renderable
//   - Descriptor, Value, Expr and Arg are sealed interfaces using the marker
//     method pattern, so consumers can switch over them exhaustively
//   - Communicators, slots and sentinels are compared by identity
package ir
