package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sendBarrier = `
buffer: x: { type: "double", shape: ["n", 2], allocatable: true }
ops: [
	{ kind: "send", args: ["x", "dest", "tag", "world"] },
	{ kind: "barrier", args: ["world"] },
]
`

const withLabel = `
buffer: x: { type: "double", shape: ["n", 2], allocatable: true }
buffer: label: { type: "char", shape: [8] }
ops: [
	{ kind: "send", args: ["x", "dest", "tag", "world"] },
	{ kind: "send", args: ["label", "dest", "tag", "world"] },
]
`

const malformed = `
buffer: x: { type: "double", shape: ["n", 2] }
ops: [
	{ kind: "send", args: ["x", "dest", "world"] },
]
`

// writeFile writes content to name inside a fresh temp dir.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// lowerResponse is a CLIResponse carrying a LowerResult.
type lowerResponse struct {
	Status string      `json:"status"`
	Data   LowerResult `json:"data"`
	Error  *CLIError   `json:"error"`
	RunID  string      `json:"run_id"`
}

func decodeLower(t *testing.T, out string) lowerResponse {
	t.Helper()
	var resp lowerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}
