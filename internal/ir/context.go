package ir

// Default spellings of the process-wide names, as emitted by the Fortran binding.
const (
	DefaultWorldName      = "mpi_comm_world"
	DefaultErrorSlotName  = "i_mpi_error"
	DefaultStatusSlotName = "i_mpi_status"
	DefaultProcNullName   = "mpi_proc_null"
	DefaultStatusSizeName = "mpi_status_size"
)

// ContextOptions names the process-wide entities of a Context.
// Empty fields fall back to the Default* spellings.
type ContextOptions struct {
	World      string `json:"world"`
	ErrorSlot  string `json:"error_slot"`
	StatusSlot string `json:"status_slot"`
	ProcNull   string `json:"proc_null"`
	StatusSize string `json:"status_size"`
}

// DefaultContextOptions returns the canonical spellings.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		World:      DefaultWorldName,
		ErrorSlot:  DefaultErrorSlotName,
		StatusSlot: DefaultStatusSlotName,
		ProcNull:   DefaultProcNullName,
		StatusSize: DefaultStatusSizeName,
	}
}

// Context holds the process-wide entities referenced by every lowered call:
// the world communicator, the error and status slots, and the ProcNull and
// StatusSize sentinels.
//
// SHARED SLOTS CONTRACT:
// Every call lowered against the same Context writes through the same
// ErrorSlot and StatusSlot. Two calls in one emitted scope therefore share
// storage, and a read of a slot after a call observes that call's outcome
// only if the backend preserves emission order. The lowering layer assumes
// this ordering and does not enforce it.
//
// A Context is immutable and safe for concurrent use.
type Context struct {
	opts       ContextOptions
	world      *Communicator
	errorSlot  *Slot
	statusSlot *Slot
	procNull   *Sentinel
	statusSize *Sentinel
}

// NewContext creates an isolated Context. Tests should use their own
// Context rather than DefaultContext.
func NewContext(opts ContextOptions) *Context {
	opts = opts.withDefaults()
	return &Context{
		opts:       opts,
		world:      NewCommunicator(opts.World),
		errorSlot:  &Slot{name: opts.ErrorSlot, kind: SlotError},
		statusSlot: &Slot{name: opts.StatusSlot, kind: SlotStatus},
		procNull:   &Sentinel{name: opts.ProcNull, kind: SentinelProcNull},
		statusSize: &Sentinel{name: opts.StatusSize, kind: SentinelStatusSize},
	}
}

var defaultContext = NewContext(DefaultContextOptions())

// DefaultContext returns the process-wide Context, created once at start-up.
func DefaultContext() *Context {
	return defaultContext
}

// World returns the world communicator.
func (c *Context) World() *Communicator { return c.world }

// ErrorSlot returns the shared error-code slot.
func (c *Context) ErrorSlot() *Slot { return c.errorSlot }

// StatusSlot returns the shared status-record slot.
func (c *Context) StatusSlot() *Slot { return c.statusSlot }

// ProcNull returns the "no process" rank sentinel.
func (c *Context) ProcNull() *Sentinel { return c.procNull }

// StatusSize returns the status record size sentinel.
func (c *Context) StatusSize() *Sentinel { return c.statusSize }

// Options returns the spellings this Context was built with.
func (c *Context) Options() ContextOptions { return c.opts }

func (o ContextOptions) withDefaults() ContextOptions {
	d := DefaultContextOptions()
	if o.World == "" {
		o.World = d.World
	}
	if o.ErrorSlot == "" {
		o.ErrorSlot = d.ErrorSlot
	}
	if o.StatusSlot == "" {
		o.StatusSlot = d.StatusSlot
	}
	if o.ProcNull == "" {
		o.ProcNull = d.ProcNull
	}
	if o.StatusSize == "" {
		o.StatusSize = d.StatusSize
	}
	return o
}
