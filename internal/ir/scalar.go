package ir

import (
	"fmt"
	"strings"
)

// ScalarType is the element type of a buffer descriptor.
type ScalarType int

// Scalar types known to the front end. Character has no wire mapping.
const (
	Bool ScalarType = iota + 1
	Integer
	Float
	Double
	Complex
	Character
)

var scalarNames = map[ScalarType]string{
	Bool:      "bool",
	Integer:   "int",
	Float:     "float",
	Double:    "double",
	Complex:   "complex",
	Character: "char",
}

// scalarAliases maps manifest spellings to scalar types. Both the Python-ish
// and the Fortran-ish spellings are accepted.
var scalarAliases = map[string]ScalarType{
	"bool":      Bool,
	"logical":   Bool,
	"int":       Integer,
	"integer":   Integer,
	"float":     Float,
	"real":      Float,
	"double":    Double,
	"complex":   Complex,
	"char":      Character,
	"character": Character,
}

// String returns the canonical spelling of the scalar type.
func (t ScalarType) String() string {
	if name, ok := scalarNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ScalarType(%d)", int(t))
}

// Valid reports whether t is one of the declared scalar types.
func (t ScalarType) Valid() bool {
	_, ok := scalarNames[t]
	return ok
}

// ParseScalarType converts a manifest spelling into a ScalarType.
// Matching is case-insensitive.
func ParseScalarType(s string) (ScalarType, error) {
	if t, ok := scalarAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown scalar type %q", s)
}

// WireTag identifies the memory layout of one transmitted element.
// The value is the spelling used by the Fortran binding.
type WireTag string

// The closed set of wire datatype tags. No derived datatypes exist.
const (
	WireInt     WireTag = "MPI_INT"
	WireReal32  WireTag = "MPI_REAL"
	WireReal64  WireTag = "MPI_DOUBLE"
	WireLogical WireTag = "MPI_LOGICAL"
	WireComplex WireTag = "MPI_COMPLEX"
)

// String returns the binding spelling of the tag.
func (w WireTag) String() string {
	return string(w)
}
