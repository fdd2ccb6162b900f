package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unusedBuffer = sendBarrier + `
buffer: y: { type: "int", shape: [4] }
`

func runValidateCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand_Valid(t *testing.T) {
	manifest := writeFile(t, "ring.cue", sendBarrier)

	out, err := runValidateCmd(t, "text", manifest)
	require.NoError(t, err)
	assert.Equal(t, "✓ Manifest valid\n", out)
}

func TestValidateCommand_UnusedWarning(t *testing.T) {
	manifest := writeFile(t, "ring.cue", unusedBuffer)

	out, err := runValidateCmd(t, "text", manifest)
	require.NoError(t, err, "warnings alone keep the manifest valid")
	assert.Contains(t, out, "✓ Manifest valid")
	assert.Contains(t, out, `  W202 warning: y: "y" is declared but never used`)
}

func TestValidateCommand_StrictFailsOnWarnings(t *testing.T) {
	manifest := writeFile(t, "ring.cue", unusedBuffer)

	out, err := runValidateCmd(t, "text", manifest, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, err.Error(), "0 error(s) and 1 warning(s)")
}

func TestValidateCommand_UnsupportedType(t *testing.T) {
	manifest := writeFile(t, "label.cue", withLabel)

	out, err := runValidateCmd(t, "text", manifest)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E110 error: ops[1].send:")
	assert.Contains(t, out, "line ")
}

func TestValidateCommand_JSON(t *testing.T) {
	manifest := writeFile(t, "label.cue", withLabel)

	out, err := runValidateCmd(t, "json", manifest)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "E110", resp.Data.Errors[0].Code)
	assert.Equal(t, "E110", resp.Error.Code)
}

func TestValidateCommand_NotFound(t *testing.T) {
	out, err := runValidateCmd(t, "text", "/nonexistent/manifest.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateCommand_CompileError(t *testing.T) {
	manifest := writeFile(t, "bad.cue", malformed)

	out, err := runValidateCmd(t, "text", manifest)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E105]")
}
