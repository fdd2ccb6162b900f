package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mpilower/internal/store"
)

const sendBarrierProgram = `integer :: i_mpi_error
integer, dimension(mpi_status_size) :: i_mpi_status

MPI_send (x, 2*n, MPI_DOUBLE, dest, tag, mpi_comm_world, i_mpi_error)
mpi_comm_world.barrier
`

func TestLowerCommand_TextOutput(t *testing.T) {
	manifest := writeFile(t, "ring.cue", sendBarrier)

	out := &bytes.Buffer{}
	cmd := NewLowerCommand(&RootOptions{Format: "text"})
	cmd.SetOut(out)
	cmd.SetArgs([]string{manifest, "--no-record"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, sendBarrierProgram, out.String())
}

func TestLowerCommand_RecordsRun(t *testing.T) {
	manifest := writeFile(t, "ring.cue", sendBarrier)
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	out, _, err := execute(t, "--format", "json", "lower", manifest, "--db", dbPath)
	require.NoError(t, err)

	resp := decodeLower(t, out)
	assert.Equal(t, "ok", resp.Status)
	require.NotEmpty(t, resp.RunID)
	assert.Equal(t, resp.RunID, resp.Data.RunID)
	require.Len(t, resp.Data.Calls, 2)
	assert.Equal(t, "MPI_send", resp.Data.Calls[0].Name)
	assert.Equal(t, "barrier", resp.Data.Calls[1].Name)
	assert.Empty(t, resp.Data.Failures)
	assert.Equal(t, []string{
		"integer :: i_mpi_error",
		"integer, dimension(mpi_status_size) :: i_mpi_status",
	}, resp.Data.Declarations)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(t.Context(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.CallCount)
	assert.Equal(t, 0, run.ErrorCount)
	assert.Equal(t, resp.Data.Digest, run.Digest)

	calls, err := st.ReadCalls(t.Context(), resp.RunID)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, resp.Data.Calls[0].CallID, calls[0].CallID)
	assert.Equal(t, "MPI_send (x, 2*n, MPI_DOUBLE, dest, tag, mpi_comm_world, i_mpi_error)", calls[0].Rendered)
}

func TestLowerCommand_NoRecordSkipsLedger(t *testing.T) {
	manifest := writeFile(t, "ring.cue", sendBarrier)
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	_, _, err := execute(t, "lower", manifest, "--db", dbPath, "--no-record")
	require.NoError(t, err)

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "ledger should not be created")
}

func TestLowerCommand_PartialFailure(t *testing.T) {
	manifest := writeFile(t, "label.cue", withLabel)

	out, errOut, err := execute(t, "lower", manifest, "--no-record")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 operation(s) not lowered")

	// The failing op is reported and the rest still lower.
	assert.Contains(t, out, "MPI_send (x, 2*n, MPI_DOUBLE, dest, tag, mpi_comm_world, i_mpi_error)")
	assert.NotContains(t, out, "label")
	assert.Contains(t, errOut, "✗ op 1 (send")
}

func TestLowerCommand_PartialFailureJSON(t *testing.T) {
	manifest := writeFile(t, "label.cue", withLabel)
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	out, _, err := execute(t, "--format", "json", "lower", manifest, "--db", dbPath)
	require.Error(t, err)

	resp := decodeLower(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_TYPE", resp.Error.Code)
	require.Len(t, resp.Data.Failures, 1)
	assert.Equal(t, 1, resp.Data.Failures[0].Index)
	assert.Equal(t, "send", resp.Data.Failures[0].Kind)
	assert.Positive(t, resp.Data.Failures[0].Line)
	require.Len(t, resp.Data.Calls, 1)
	assert.Equal(t, 0, resp.Data.Calls[0].OpIndex)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	diags, err := st.ReadDiagnostics(t.Context(), resp.RunID)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "UNSUPPORTED_TYPE", diags[0].Code)
}

func TestLowerCommand_OutputFile(t *testing.T) {
	manifest := writeFile(t, "ring.cue", sendBarrier)
	outPath := filepath.Join(t.TempDir(), "ring.f90")

	out, _, err := execute(t, "lower", manifest, "--no-record", "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote 2 call(s) to "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, sendBarrierProgram, string(data))
}

func TestLowerCommand_MalformedManifest(t *testing.T) {
	manifest := writeFile(t, "bad.cue", malformed)

	out, _, err := execute(t, "lower", manifest, "--no-record")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E105]")
}

func TestLowerCommand_MissingManifest(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "lower", "/nonexistent/ring.cue", "--no-record")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeLower(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestLowerCommand_ConfigOverrides(t *testing.T) {
	manifest := writeFile(t, "ring.cue", sendBarrier)
	cfg := writeFile(t, "mpilower.toml", `
[context]
world = "comm_world"

[render]
call_prefix_case = "upper"
`)

	out, _, err := execute(t, "--config", cfg, "lower", manifest, "--no-record")
	require.NoError(t, err)
	assert.Contains(t, out, "MPI_SEND (x, 2*n, MPI_DOUBLE, dest, tag, comm_world, i_mpi_error)")
	assert.Contains(t, out, "comm_world.barrier")
}

func TestLowerCommand_RequiresManifest(t *testing.T) {
	cmd := NewLowerCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
