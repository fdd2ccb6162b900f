package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/testutil"
)

// createTestStore creates a new on-disk store with sequential run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequenceIDGenerator("run")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCall builds a send of the reference matrix against ctx.
func createTestCall(ctx *ir.Context, dest string) ir.Call {
	return ir.Call{
		Name: "MPI_send",
		Form: ir.FormCall,
		Args: []ir.Arg{
			ir.BufferArg{Desc: testutil.Matrix()},
			ir.CountArg{Count: ir.Product(ir.Sym("n"), ir.Lit(2))},
			ir.DatatypeArg{Tag: ir.WireReal64},
			ir.ValueArg{Value: ir.Sym(dest)},
			ir.ValueArg{Value: ir.Sym("tag")},
			ir.CommArg{Comm: ctx.World()},
			ir.SlotArg{Slot: ctx.ErrorSlot()},
		},
	}
}

// createTestRun builds a run record with n calls to distinct destinations.
func createTestRun(t *testing.T, n int) (RunRecord, []CallRecord) {
	t.Helper()
	ctx := testutil.Context()
	calls := make([]CallRecord, n)
	for i := range calls {
		rec, err := NewCallRecord(i, i, createTestCall(ctx, string(rune('a'+i))), "rendered")
		if err != nil {
			t.Fatalf("NewCallRecord() failed: %v", err)
		}
		calls[i] = rec
	}
	run, err := NewRunRecord("ring.cue", ctx, calls, 0)
	if err != nil {
		t.Fatalf("NewRunRecord() failed: %v", err)
	}
	return run, calls
}
