package ir

// Communicator is an opaque handle naming a fixed process group.
// Communicators are compared by pointer identity; two communicators with the
// same name are still different groups.
type Communicator struct {
	name string
}

// NewCommunicator creates a communicator handle with the given name.
func NewCommunicator(name string) *Communicator {
	return &Communicator{name: name}
}

// Name returns the variable name of the handle in the emitted program.
func (c *Communicator) Name() string { return c.name }

// Valid reports whether c is a usable handle (non-nil and named).
// The zero value is not valid.
func (c *Communicator) Valid() bool {
	return c != nil && c.name != ""
}

func (c *Communicator) String() string {
	if c == nil {
		return "<nil communicator>"
	}
	return c.name
}

// SlotKind identifies a shared output slot.
type SlotKind int

const (
	// SlotError receives the error code of every lowered call.
	SlotError SlotKind = iota + 1
	// SlotStatus receives the status record of receiving calls.
	SlotStatus
)

// Slot is a process-wide output variable written by lowered calls.
// There is one slot of each kind per Context.
type Slot struct {
	name string
	kind SlotKind
}

// Name returns the variable name of the slot.
func (s *Slot) Name() string { return s.name }

// Kind returns which shared slot this is.
func (s *Slot) Kind() SlotKind { return s.kind }

func (s *Slot) String() string {
	if s == nil {
		return "<nil slot>"
	}
	return s.name
}
