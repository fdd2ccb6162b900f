package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mpilower/internal/store"
)

// lowerInto lowers manifest content into the ledger at dbPath and returns
// the decoded response.
func lowerInto(t *testing.T, dbPath, content string) lowerResponse {
	t.Helper()
	manifest := writeFile(t, "m.cue", content)
	out, _, _ := execute(t, "--format", "json", "lower", manifest, "--db", dbPath)
	resp := decodeLower(t, out)
	require.NotEmpty(t, resp.RunID)
	return resp
}

func TestHistory_MissingLedger(t *testing.T) {
	_, _, err := execute(t, "history", "runs", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "ledger not found")
}

func TestHistory_EmptyLedger(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "history", "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestHistory_Runs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	first := lowerInto(t, dbPath, sendBarrier)
	second := lowerInto(t, dbPath, withLabel)

	out, _, err := execute(t, "history", "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, first.RunID)
	assert.Contains(t, out, "calls=2 errors=0")
	assert.Contains(t, out, second.RunID)
	assert.Contains(t, out, "calls=1 errors=1")

	out, _, err = execute(t, "--format", "json", "history", "runs", "--db", dbPath)
	require.NoError(t, err)
	var resp struct {
		Status string            `json:"status"`
		Data   []store.RunRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, first.RunID, resp.Data[0].ID)
	assert.Equal(t, second.RunID, resp.Data[1].ID)
}

func TestHistory_Show(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	run := lowerInto(t, dbPath, withLabel)

	out, _, err := execute(t, "history", "show", run.RunID, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+run.RunID)
	assert.Contains(t, out, "digest: "+run.Data.Digest)
	assert.Contains(t, out, "[0] op 0: MPI_send (x, 2*n, MPI_DOUBLE, dest, tag, mpi_comm_world, i_mpi_error)")
	assert.Contains(t, out, "✗ op 1: UNSUPPORTED_TYPE:")

	out, _, err = execute(t, "--format", "json", "history", "show", run.RunID, "--db", dbPath)
	require.NoError(t, err)
	var resp struct {
		Data RunDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, run.RunID, resp.Data.Run.ID)
	assert.Len(t, resp.Data.Calls, 1)
	assert.Len(t, resp.Data.Diagnostics, 1)
}

func TestHistory_ShowUnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	lowerInto(t, dbPath, sendBarrier)

	_, _, err := execute(t, "history", "show", "no-such-run", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistory_Find(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	first := lowerInto(t, dbPath, sendBarrier)
	second := lowerInto(t, dbPath, withLabel)

	// Both runs emit the same send, so its call ID is shared.
	callID := first.Data.Calls[0].CallID
	require.Equal(t, callID, second.Data.Calls[0].CallID)

	out, _, err := execute(t, "history", "find", callID, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, first.RunID+"  [0] op 0:")
	assert.Contains(t, out, second.RunID+"  [0] op 0:")

	out, _, err = execute(t, "history", "find", "sha256:none", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No runs emitted call sha256:none\n", out)
}
