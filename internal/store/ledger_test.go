package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/testutil"
)

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, calls := createTestRun(t, 3)
	diags := []DiagnosticRecord{{OpIndex: 3, Code: "UNSUPPORTED_TYPE", Message: "label"}}
	run.ErrorCount = 1

	id, err := s.WriteRun(ctx, run, calls, diags)
	require.NoError(t, err)
	assert.Equal(t, "run-0001", id)

	got, err := s.ReadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ring.cue", got.Manifest)
	assert.Equal(t, ir.DefaultContextOptions(), got.Context)
	assert.Equal(t, run.Digest, got.Digest)
	assert.Equal(t, ir.IRVersion, got.IRVersion)
	assert.Equal(t, 3, got.CallCount)
	assert.Equal(t, 1, got.ErrorCount)

	stored, err := s.ReadCalls(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, c := range stored {
		assert.Equal(t, id, c.RunID)
		assert.Equal(t, i, c.Seq)
		assert.Equal(t, calls[i].CallID, c.CallID)
		assert.Equal(t, calls[i].CallJSON, c.CallJSON)
	}

	gotDiags, err := s.ReadDiagnostics(ctx, id)
	require.NoError(t, err)
	require.Len(t, gotDiags, 1)
	assert.Equal(t, "UNSUPPORTED_TYPE", gotDiags[0].Code)
}

func TestWriteRun_StoresRowsUnderRunID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, calls := createTestRun(t, 2)
	for i := range calls {
		calls[i].RunID = "stale"
	}
	diags := []DiagnosticRecord{{RunID: "stale", OpIndex: 2, Code: "UNSUPPORTED_TYPE", Message: "label"}}

	id, err := s.WriteRun(ctx, run, calls, diags)
	require.NoError(t, err)

	stored, err := s.ReadCalls(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, c := range stored {
		assert.Equal(t, id, c.RunID)
	}
	gotDiags, err := s.ReadDiagnostics(ctx, id)
	require.NoError(t, err)
	require.Len(t, gotDiags, 1)
	assert.Equal(t, id, gotDiags[0].RunID)

	// The caller's records are not modified.
	assert.Equal(t, "stale", calls[0].RunID)
	assert.Equal(t, "stale", diags[0].RunID)
}

func TestWriteRun_KeepsExplicitID(t *testing.T) {
	s := createTestStore(t)
	run, calls := createTestRun(t, 1)
	run.ID = "explicit"

	id, err := s.WriteRun(context.Background(), run, calls, nil)
	require.NoError(t, err)
	assert.Equal(t, "explicit", id)
}

func TestWriteRun_DuplicateSeqRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, calls := createTestRun(t, 2)
	calls[1].Seq = 0

	_, err := s.WriteRun(ctx, run, calls, nil)
	require.Error(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs, "failed run must not leave a partial record")
}

func TestListRuns_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run, calls := createTestRun(t, i+1)
		_, err := s.WriteRun(ctx, run, calls, nil)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-0001", runs[0].ID)
	assert.Equal(t, "run-0003", runs[2].ID)
	assert.Equal(t, 3, runs[2].CallCount)
}

func TestListRuns_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestFindCall_AcrossRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run1, calls1 := createTestRun(t, 2)
	id1, err := s.WriteRun(ctx, run1, calls1, nil)
	require.NoError(t, err)
	run2, calls2 := createTestRun(t, 1)
	id2, err := s.WriteRun(ctx, run2, calls2, nil)
	require.NoError(t, err)

	// Identical calls in different runs share a content address.
	require.Equal(t, calls1[0].CallID, calls2[0].CallID)

	found, err := s.FindCall(ctx, calls1[0].CallID)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, id1, found[0].RunID)
	assert.Equal(t, id2, found[1].RunID)
}

func TestNewCallRecord(t *testing.T) {
	ctx := testutil.Context()
	call := createTestCall(ctx, "dest")

	rec, err := NewCallRecord(4, 7, call, "MPI_send (...)")
	require.NoError(t, err)

	assert.Equal(t, 4, rec.Seq)
	assert.Equal(t, 7, rec.OpIndex)
	assert.Equal(t, "MPI_send", rec.Name)
	assert.Equal(t, ir.MustCallID(call), rec.CallID)
	assert.Contains(t, rec.CallJSON, `"name":"MPI_send"`)
	assert.Contains(t, rec.CallJSON, `{"role":"count","text":"2*n"}`)
}

func TestNewRunRecord_DigestTracksOrder(t *testing.T) {
	ctx := testutil.Context()
	_, calls := createTestRun(t, 2)

	forward, err := NewRunRecord("m.cue", ctx, calls, 0)
	require.NoError(t, err)
	reversed, err := NewRunRecord("m.cue", ctx, []CallRecord{calls[1], calls[0]}, 0)
	require.NoError(t, err)

	assert.NotEqual(t, forward.Digest, reversed.Digest)
	assert.Equal(t, 2, forward.CallCount)
}

func TestOpen_ConcurrentSchemaSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := Open(path)
			if err != nil {
				errs <- err
				return
			}
			errs <- s.Close()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
