// Package config loads the optional mpilower.toml project file.
//
// Example:
//
//	[context]
//	world = "mpi_comm_world"
//	error_slot = "ierr"
//
//	[render]
//	call_prefix_case = "upper"
//
//	[store]
//	path = ".mpilower/ledger.db"
//
// Every key is optional; missing keys keep their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/render"
)

// FileName is the project config file looked up by Discover.
const FileName = "mpilower.toml"

// DefaultStorePath is the ledger database used when [store] path is unset.
const DefaultStorePath = ".mpilower/ledger.db"

// Config is the decoded project file.
type Config struct {
	Names  ContextNames  `toml:"context"`
	Render RenderOptions `toml:"render"`
	Store  StoreOptions  `toml:"store"`
}

// ContextNames overrides the spellings of the process-wide entities.
type ContextNames struct {
	World      string `toml:"world,omitempty"`
	ErrorSlot  string `toml:"error_slot,omitempty"`
	StatusSlot string `toml:"status_slot,omitempty"`
	ProcNull   string `toml:"proc_null,omitempty"`
	StatusSize string `toml:"status_size,omitempty"`
}

// RenderOptions controls text rendering.
type RenderOptions struct {
	CallPrefixCase string `toml:"call_prefix_case,omitempty"`
}

// StoreOptions locates the lowering ledger.
type StoreOptions struct {
	Path string `toml:"path,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Render: RenderOptions{CallPrefixCase: string(render.CaseLower)},
		Store:  StoreOptions{Path: DefaultStorePath},
	}
}

// Parse decodes TOML data over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, describe(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads dir/mpilower.toml if it exists and returns the defaults
// otherwise. The returned path is empty when no file was found.
func Discover(dir string) (*Config, string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	if _, err := render.ParseCase(c.Render.CallPrefixCase); err != nil {
		return fmt.Errorf("render.call_prefix_case: %w", err)
	}
	return nil
}

// ContextOptions converts the [context] section.
func (c *Config) ContextOptions() ir.ContextOptions {
	return ir.ContextOptions{
		World:      c.Names.World,
		ErrorSlot:  c.Names.ErrorSlot,
		StatusSlot: c.Names.StatusSlot,
		ProcNull:   c.Names.ProcNull,
		StatusSize: c.Names.StatusSize,
	}
}

// Context builds the lowering Context. Without overrides it returns the
// process-wide ir.DefaultContext so pointer identity with it is kept.
func (c *Config) Context() *ir.Context {
	if c.Names == (ContextNames{}) {
		return ir.DefaultContext()
	}
	return ir.NewContext(c.ContextOptions())
}

// Renderer builds the text renderer. Validate has already checked the case.
func (c *Config) Renderer() *render.Renderer {
	nameCase, err := render.ParseCase(c.Render.CallPrefixCase)
	if err != nil {
		nameCase = render.CaseLower
	}
	return render.New(render.WithCase(nameCase))
}

// Encode writes the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// describe adds the line and column to decode errors.
func describe(err error) error {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		return fmt.Errorf("line %d, column %d: %w", row, col, err)
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		return fmt.Errorf("unknown keys: %s", strictErr.String())
	}
	return err
}
