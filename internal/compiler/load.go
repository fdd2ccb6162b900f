package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/mpilower/internal/ir"
)

// CompileString compiles manifest source held in memory. filename is only
// used in error positions.
func CompileString(src, filename string, ctx *ir.Context) (*Manifest, error) {
	cctx := cuecontext.New()
	v := cctx.CompileString(src, cue.Filename(filename))
	return CompileManifest(v, ctx)
}

// LoadDir loads every .cue file of the package in dir with cue/load and
// compiles the result as one manifest.
func LoadDir(dir string, ctx *ir.Context) (*Manifest, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("manifest directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("manifest directory: not a directory: %s", dir)
	}
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	return CompileManifest(v, ctx)
}

// LoadFile compiles a single manifest file.
func LoadFile(path string, ctx *ir.Context) (*Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return CompileString(string(src), path, ctx)
}

// Load compiles path as a directory of CUE files or a single file.
func Load(path string, ctx *ir.Context) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path, ctx)
	}
	return LoadFile(path, ctx)
}

// FindCUEFiles returns the .cue files directly inside dir. cue/load only
// reads the top-level package, so subdirectories are not scanned.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
