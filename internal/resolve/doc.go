// Package resolve derives the count and wire datatype arguments of a lowered
// call from a buffer descriptor.
//
// Both resolvers are pure, total over the closed descriptor and scalar type
// enumerations, and never default: anything they cannot resolve is reported
// as an ir.LowerError (UNRESOLVABLE_SHAPE or UNSUPPORTED_TYPE).
package resolve
