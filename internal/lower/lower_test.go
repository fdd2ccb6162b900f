package lower

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/opir"
	"github.com/roach88/mpilower/internal/testutil"
)

func mustOp(t *testing.T, kind opir.Kind, operands ...any) opir.Op {
	t.Helper()
	op, err := opir.New(kind, operands...)
	require.NoError(t, err)
	return op
}

func TestLower_ArgumentOrder(t *testing.T) {
	ctx := testutil.Context()
	world := ctx.World()
	x := testutil.Matrix()
	y := testutil.Vector("y", ir.Integer)
	reqs := testutil.Requests(4)
	req := testutil.Request(reqs, 1)
	stats := testutil.Statuses(ctx, 4)

	tests := []struct {
		name  string
		op    opir.Op
		call  string
		args  []string
		roles []ir.ArgRole
	}{
		{
			name: "send",
			op:   mustOp(t, opir.KindSend, x, "dest", "tag", world),
			call: "MPI_send",
			args: []string{"x", "2*n", "MPI_DOUBLE", "dest", "tag", "mpi_comm_world", "i_mpi_error"},
			roles: []ir.ArgRole{
				ir.RoleBuffer, ir.RoleCount, ir.RoleDatatype,
				ir.RoleValue, ir.RoleValue, ir.RoleComm, ir.RoleSlot,
			},
		},
		{
			name: "recv",
			op:   mustOp(t, opir.KindRecv, x, "source", "tag", world),
			call: "MPI_recv",
			args: []string{"x", "2*n", "MPI_DOUBLE", "source", "tag", "mpi_comm_world", "i_mpi_status", "i_mpi_error"},
		},
		{
			name: "isend",
			op:   mustOp(t, opir.KindAsyncSend, x, "right", "tag1", req, world),
			call: "MPI_isend",
			args: []string{"x", "2*n", "MPI_DOUBLE", "right", "tag1", "mpi_comm_world", "requests(1)", "i_mpi_error"},
			roles: []ir.ArgRole{
				ir.RoleBuffer, ir.RoleCount, ir.RoleDatatype,
				ir.RoleValue, ir.RoleValue, ir.RoleComm, ir.RoleRequest, ir.RoleSlot,
			},
		},
		{
			name: "irecv",
			op:   mustOp(t, opir.KindAsyncRecv, y, "left", "tag2", req, world),
			call: "MPI_irecv",
			args: []string{"y", "n", "MPI_INT", "left", "tag2", "mpi_comm_world", "requests(1)", "i_mpi_error"},
		},
		{
			name: "sendrecv",
			op:   mustOp(t, opir.KindSendRecv, x, "dest", 1, y, "source", 2, world),
			call: "MPI_sendrecv",
			args: []string{
				"x", "2*n", "MPI_DOUBLE", "dest", "1",
				"y", "n", "MPI_INT", "source", "2",
				"mpi_comm_world", "i_mpi_status", "i_mpi_error",
			},
		},
		{
			name: "sendrecv_replace",
			op:   mustOp(t, opir.KindSendRecvReplace, x, "dest", 1, "source", 2, world),
			call: "MPI_sendrecv_replace",
			args: []string{"x", "2*n", "MPI_DOUBLE", "dest", "1", "source", "2", "mpi_comm_world", "i_mpi_status", "i_mpi_error"},
		},
		{
			name:  "waitall",
			op:    mustOp(t, opir.KindWaitAll, reqs, stats),
			call:  "MPI_waitall",
			args:  []string{"4", "requests", "stats", "i_mpi_error"},
			roles: []ir.ArgRole{ir.RoleCount, ir.RoleBuffer, ir.RoleBuffer, ir.RoleSlot},
		},
		{
			name: "bcast",
			op:   mustOp(t, opir.KindBcast, x, 0, world),
			call: "MPI_bcast",
			args: []string{"x", "2*n", "MPI_DOUBLE", "0", "mpi_comm_world", "i_mpi_error"},
		},
		{
			name: "scatter",
			op:   mustOp(t, opir.KindScatter, x, x, "root", world),
			call: "MPI_scatter",
			args: []string{"x", "2*n", "MPI_DOUBLE", "x", "2*n", "MPI_DOUBLE", "root", "mpi_comm_world", "i_mpi_error"},
		},
		{
			name: "gather",
			op:   mustOp(t, opir.KindGather, y, y, 0, world),
			call: "MPI_gather",
			args: []string{"y", "n", "MPI_INT", "y", "n", "MPI_INT", "0", "mpi_comm_world", "i_mpi_error"},
		},
	}

	l := New(ctx)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := l.Lower(tt.op)
			require.NoError(t, err)

			assert.Equal(t, tt.call, call.Name)
			assert.Equal(t, ir.FormCall, call.Form)
			assert.Nil(t, call.Scope)
			assert.Equal(t, tt.args, call.Texts())
			if tt.roles != nil {
				roles := make([]ir.ArgRole, len(call.Args))
				for i, a := range call.Args {
					roles[i] = a.Role()
				}
				assert.Equal(t, tt.roles, roles)
			}
		})
	}
}

func TestLower_CommProperties(t *testing.T) {
	ctx := testutil.Context()
	row := ir.NewCommunicator("row")

	tests := []struct {
		kind opir.Kind
		comm *ir.Communicator
		name string
	}{
		{opir.KindBarrier, ctx.World(), "barrier"},
		{opir.KindCommSize, ctx.World(), "size"},
		{opir.KindCommRank, row, "rank"},
	}

	l := New(ctx)
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			call, err := l.Lower(mustOp(t, tt.kind, tt.comm))
			require.NoError(t, err)

			assert.Equal(t, tt.name, call.Name)
			assert.Equal(t, ir.FormCommProperty, call.Form)
			assert.Same(t, tt.comm, call.Scope)
			assert.Empty(t, call.Args)
		})
	}
}

func TestLower_SharedSlots(t *testing.T) {
	ctx := testutil.Context()
	x := testutil.Matrix()
	l := New(ctx)

	send, err := l.Lower(mustOp(t, opir.KindSend, x, 1, 0, ctx.World()))
	require.NoError(t, err)
	recv, err := l.Lower(mustOp(t, opir.KindRecv, x, 0, 0, ctx.World()))
	require.NoError(t, err)
	sr, err := l.Lower(mustOp(t, opir.KindSendRecvReplace, x, 1, 0, 0, 0, ctx.World()))
	require.NoError(t, err)

	last := func(c ir.Call, back int) *ir.Slot {
		return c.Args[len(c.Args)-back].(ir.SlotArg).Slot
	}
	assert.Same(t, ctx.ErrorSlot(), last(send, 1))
	assert.Same(t, ctx.ErrorSlot(), last(recv, 1))
	assert.Same(t, ctx.ErrorSlot(), last(sr, 1))
	assert.Same(t, ctx.StatusSlot(), last(recv, 2))
	assert.Same(t, ctx.StatusSlot(), last(sr, 2))
}

func TestLower_IsolatedContexts(t *testing.T) {
	a := testutil.Context()
	b := ir.NewContext(ir.ContextOptions{ErrorSlot: "ierr"})
	x := testutil.Matrix()

	callA, err := New(a).Lower(mustOp(t, opir.KindBcast, x, 0, a.World()))
	require.NoError(t, err)
	callB, err := New(b).Lower(mustOp(t, opir.KindBcast, x, 0, b.World()))
	require.NoError(t, err)

	assert.Equal(t, "i_mpi_error", callA.Texts()[len(callA.Args)-1])
	assert.Equal(t, "ierr", callB.Texts()[len(callB.Args)-1])
	assert.NotSame(t, a.ErrorSlot(), b.ErrorSlot())
}

func TestLower_NilContextUsesDefault(t *testing.T) {
	assert.Same(t, ir.DefaultContext(), New(nil).Context())
}

func TestLower_Deterministic(t *testing.T) {
	ctx := testutil.Context()
	op := mustOp(t, opir.KindSendRecv, testutil.Matrix(), "dest", 1, testutil.Matrix(), "source", 2, ctx.World())
	l := New(ctx)

	first, err := l.Lower(op)
	require.NoError(t, err)
	second, err := l.Lower(op)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	id1, err := first.ID()
	require.NoError(t, err)
	id2, err := second.ID()
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestLower_ConcurrentUse(t *testing.T) {
	ctx := testutil.Context()
	op := mustOp(t, opir.KindSend, testutil.Matrix(), "dest", "tag", ctx.World())
	l := New(ctx)
	want, err := l.Lower(op)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := l.Lower(op)
			assert.NoError(t, err)
			assert.Equal(t, want.Texts(), got.Texts())
		}()
	}
	wg.Wait()
}

func TestLower_RequestHandleThreadedThrough(t *testing.T) {
	ctx := testutil.Context()
	reqs := testutil.Requests(2)
	req := testutil.Request(reqs, 2)

	call, err := New(ctx).Lower(mustOp(t, opir.KindAsyncRecv, testutil.Matrix(), "left", 0, req, ctx.World()))
	require.NoError(t, err)

	ra, ok := call.Args[len(call.Args)-2].(ir.RequestArg)
	require.True(t, ok)
	assert.Same(t, req, ra.Handle)
}

func TestLower_Errors(t *testing.T) {
	ctx := testutil.Context()
	world := ctx.World()
	label := ir.NewBuffer("label", ir.Character, ir.WithShape(ir.Lit(8)))
	orphan := ir.NewIndexedView(nil, ir.Sym("i"))
	ragged := ir.NewBuffer("r", ir.Double, ir.WithShape(ir.Sym("n"), nil))

	tests := []struct {
		name    string
		op      opir.Op
		code    ir.ErrorCode
		message string
	}{
		{
			name:    "character buffer",
			op:      mustOp(t, opir.KindSend, label, 1, 0, world),
			code:    ir.ErrCodeUnsupportedType,
			message: "lower Send: data: UNSUPPORTED_TYPE: label",
		},
		{
			name:    "view without base",
			op:      mustOp(t, opir.KindBcast, orphan, 0, world),
			code:    ir.ErrCodeUnresolvableShape,
			message: "lower Bcast: data: UNRESOLVABLE_SHAPE",
		},
		{
			name:    "unknown extent in receive buffer",
			op:      mustOp(t, opir.KindSendRecv, testutil.Matrix(), 1, 0, ragged, 0, 0, world),
			code:    ir.ErrCodeUnresolvableShape,
			message: "lower SendRecv: recv_data:",
		},
		{
			name:    "unknown extent in request array",
			op:      mustOp(t, opir.KindWaitAll, ragged, testutil.Statuses(ctx, 2)),
			code:    ir.ErrCodeUnresolvableShape,
			message: "lower WaitAll: requests:",
		},
		{
			name:    "character gather",
			op:      mustOp(t, opir.KindGather, testutil.Matrix(), label, 0, world),
			code:    ir.ErrCodeUnsupportedType,
			message: "lower Gather: recv_data:",
		},
	}

	l := New(ctx)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := l.Lower(tt.op)
			require.Error(t, err)

			assert.Equal(t, ir.Call{}, call, "no partial call on failure")
			assert.Equal(t, tt.code, ir.CodeOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLower_NilOperation(t *testing.T) {
	tests := []struct {
		name string
		op   opir.Op
	}{
		{"untyped nil", nil},
		{"typed nil send", (*opir.Send)(nil)},
		{"typed nil waitall", (*opir.WaitAll)(nil)},
		{"typed nil barrier", (*opir.Barrier)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var call ir.Call
			var err error
			require.NotPanics(t, func() { call, err = New(nil).Lower(tt.op) })
			require.Error(t, err)
			assert.True(t, ir.IsMalformedOperation(err))
			assert.Equal(t, ir.Call{}, call)
		})
	}
}

func TestLowerAll_TypedNilOperation(t *testing.T) {
	x := testutil.Matrix()
	ops := []opir.Op{
		(*opir.Send)(nil),
		mustOp(t, opir.KindSend, x, ir.Sym("dest"), ir.Sym("tag"), ir.DefaultContext().World()),
	}

	res := New(nil).LowerAll(ops)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 0, res.Errors[0].Index)
	assert.Equal(t, opir.KindSend, res.Errors[0].Kind)
	assert.Equal(t, ir.ErrCodeMalformedOperation, res.Errors[0].Code())
	assert.Equal(t, []int{1}, res.Indices)
}
