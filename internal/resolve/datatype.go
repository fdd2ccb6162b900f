package resolve

import (
	"fmt"

	"github.com/roach88/mpilower/internal/ir"
)

var wireTags = map[ir.ScalarType]ir.WireTag{
	ir.Integer: ir.WireInt,
	ir.Float:   ir.WireReal32,
	ir.Double:  ir.WireReal64,
	ir.Bool:    ir.WireLogical,
	ir.Complex: ir.WireComplex,
}

// Datatype maps a scalar type to its wire datatype tag.
func Datatype(t ir.ScalarType) (ir.WireTag, error) {
	tag, ok := wireTags[t]
	if !ok {
		return "", ir.NewUnsupportedTypeError("", t)
	}
	return tag, nil
}

// DescriptorDatatype maps the scalar type of d to its wire datatype tag. The
// error names the descriptor.
func DescriptorDatatype(d ir.Descriptor) (ir.WireTag, error) {
	if d == nil {
		return "", ir.NewUnsupportedTypeError("", 0)
	}
	tag, err := Datatype(d.ScalarType())
	if err != nil {
		return "", ir.NewUnsupportedTypeError(d.Name(), d.ScalarType())
	}
	return tag, nil
}

// Mappings returns every supported scalar type with its wire tag, ordered by
// scalar type.
func Mappings() []Mapping {
	out := make([]Mapping, 0, len(wireTags))
	for t := ir.Bool; t <= ir.Character; t++ {
		if tag, ok := wireTags[t]; ok {
			out = append(out, Mapping{Type: t, Tag: tag})
		}
	}
	return out
}

// Mapping is one row of the datatype table.
type Mapping struct {
	Type ir.ScalarType
	Tag  ir.WireTag
}

func (m Mapping) String() string {
	return fmt.Sprintf("%s -> %s", m.Type, m.Tag)
}
