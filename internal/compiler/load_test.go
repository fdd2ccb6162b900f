package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDir_MergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "decls.cue", "package ring\n\nbuffer: x: { type: \"double\", shape: [\"n\"] }\n")
	writeFile(t, dir, "ops.cue", "package ring\n\nops: [{ kind: \"bcast\", args: [\"x\", 0, \"world\"] }]\n")
	writeFile(t, dir, "notes.txt", "ignored")

	m, err := LoadDir(dir, nil)
	require.NoError(t, err)
	assert.Len(t, m.Ops, 1)
	assert.Contains(t, m.Buffers, "x")
}

func TestLoadDir_Errors(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)

	empty := t.TempDir()
	_, err = LoadDir(empty, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")

	file := writeFile(t, t.TempDir(), "m.cue", "ops: []\n")
	_, err = LoadDir(file, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestLoad_DispatchesOnPathKind(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.cue", "package m\n\nops: [{ kind: \"barrier\", args: [\"world\"] }]\n")

	fromFile, err := Load(path, nil)
	require.NoError(t, err)
	fromDir, err := Load(dir, nil)
	require.NoError(t, err)

	assert.Len(t, fromFile.Ops, 1)
	assert.Len(t, fromDir.Ops, 1)
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", "")
	writeFile(t, dir, "b.yaml", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	writeFile(t, filepath.Join(dir, "sub"), "c.cue", "")

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.cue")}, files)
}
