package ir

import "encoding/json"

// CallForm distinguishes the two shapes a lowered operation can take.
type CallForm int

const (
	// FormCall is a subroutine call with positional arguments.
	FormCall CallForm = iota + 1
	// FormCommProperty is a zero-argument query or action scoped to a
	// communicator, e.g. comm.size or comm.barrier.
	FormCommProperty
)

func (f CallForm) String() string {
	switch f {
	case FormCall:
		return "call"
	case FormCommProperty:
		return "comm_property"
	default:
		return "unknown"
	}
}

// Call is the output of lowering one operation: the call name and the
// ordered arguments required by the calling convention.
type Call struct {
	// Name is the routine (FormCall) or property (FormCommProperty) name.
	Name string

	// Form selects how the backend renders the call.
	Form CallForm

	// Scope is the communicator a FormCommProperty call is scoped to.
	// Nil for FormCall.
	Scope *Communicator

	// Args are the positional arguments. Empty for FormCommProperty.
	Args []Arg
}

// Canonical returns the call as plain maps and slices suitable for
// MarshalCanonical: {"name", "form", "scope"?, "args": [{"role", "text"}]}.
func (c Call) Canonical() map[string]any {
	args := make([]any, len(c.Args))
	for i, a := range c.Args {
		args[i] = map[string]any{
			"role": string(a.Role()),
			"text": a.String(),
		}
	}
	out := map[string]any{
		"name": c.Name,
		"form": c.Form.String(),
		"args": args,
	}
	if c.Scope != nil {
		out["scope"] = c.Scope.Name()
	}
	return out
}

// MarshalJSON encodes the canonical form of the call.
func (c Call) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Canonical())
}

// ID returns the content-addressed identity of the call. See CallID.
func (c Call) ID() (string, error) {
	return CallID(c)
}

// Texts returns the rendered text of each argument, in order.
func (c Call) Texts() []string {
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		out[i] = a.String()
	}
	return out
}
