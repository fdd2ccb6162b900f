package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mpilower/internal/ir"
)

// Scenario defines a conformance test scenario.
// A scenario compiles one manifest, lowers every operation and checks the
// rendered calls, the failed operations and the recorded ledger.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Manifest is inline CUE manifest source.
	Manifest string `yaml:"manifest,omitempty"`

	// ManifestDir is a directory holding a CUE manifest package.
	// Relative paths are resolved against the scenario file location.
	ManifestDir string `yaml:"manifest_dir,omitempty"`

	// Context overrides the spellings of the process-wide names.
	// Empty fields keep the defaults.
	Context ContextNames `yaml:"context,omitempty"`

	// Expect lists the rendered calls in emission order.
	// Nil skips the comparison; an empty list expects no calls.
	Expect []string `yaml:"expect,omitempty"`

	// Errors lists the operations expected to fail lowering.
	// Any failure not listed here fails the scenario.
	Errors []ExpectedError `yaml:"errors,omitempty"`

	// CompileError is the compiler code the manifest is expected to fail
	// with (e.g. "E105"). Lowering is skipped when set.
	CompileError string `yaml:"compile_error,omitempty"`

	// Assertions validate the lowered calls and the ledger.
	// Supported types: call_contains, call_order, call_count, ledger_row
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed ledger ID for deterministic tests.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// ContextNames mirrors ir.ContextOptions for YAML.
type ContextNames struct {
	World      string `yaml:"world,omitempty"`
	ErrorSlot  string `yaml:"error_slot,omitempty"`
	StatusSlot string `yaml:"status_slot,omitempty"`
	ProcNull   string `yaml:"proc_null,omitempty"`
	StatusSize string `yaml:"status_size,omitempty"`
}

// Options converts the names to ir.ContextOptions.
func (n ContextNames) Options() ir.ContextOptions {
	return ir.ContextOptions{
		World:      n.World,
		ErrorSlot:  n.ErrorSlot,
		StatusSlot: n.StatusSlot,
		ProcNull:   n.ProcNull,
		StatusSize: n.StatusSize,
	}
}

// ExpectedError names an operation expected to fail lowering.
type ExpectedError struct {
	// Index is the position of the operation in the manifest's ops.
	Index int `yaml:"index"`

	// Code is the expected error code (e.g. "UNSUPPORTED_TYPE").
	Code string `yaml:"code"`
}

// Assertion validates the lowered calls or the ledger.
type Assertion struct {
	// Type specifies the assertion type:
	// - "call_contains": Check the call at Index contains a substring
	// - "call_order": Check call names appear in order
	// - "call_count": Check exactly Count calls were emitted
	// - "ledger_row": Query a ledger table and verify expected values
	Type string `yaml:"type"`

	// Index is the emission position (used by call_contains).
	Index int `yaml:"index,omitempty"`

	// Contains is the expected substring (used by call_contains).
	Contains string `yaml:"contains,omitempty"`

	// Names is the expected call name order (used by call_order).
	Names []string `yaml:"names,omitempty"`

	// Count is the expected number of calls (used by call_count).
	Count int `yaml:"count,omitempty"`

	// Table is the ledger table name (used by ledger_row).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by ledger_row).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by ledger_row).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertCallContains = "call_contains"
	AssertCallOrder    = "call_order"
	AssertCallCount    = "call_count"
	AssertLedgerRow    = "ledger_row"
)

// LoadScenario reads and parses a scenario YAML file.
// A relative manifest_dir is resolved against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving manifest_dir relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve manifest_dir relative to base path BEFORE validation
	if scenario.ManifestDir != "" && !filepath.IsAbs(scenario.ManifestDir) && basePath != "" {
		scenario.ManifestDir = filepath.Join(basePath, scenario.ManifestDir)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Manifest == "" && s.ManifestDir == "":
		return fmt.Errorf("one of manifest or manifest_dir is required")
	case s.Manifest != "" && s.ManifestDir != "":
		return fmt.Errorf("manifest and manifest_dir are mutually exclusive")
	}

	if s.ManifestDir != "" {
		if _, err := os.Stat(s.ManifestDir); os.IsNotExist(err) {
			return fmt.Errorf("manifest directory not found: %s", s.ManifestDir)
		}
	}

	if s.Expect == nil && len(s.Errors) == 0 && s.CompileError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("scenario checks nothing: add expect, errors, compile_error or assertions")
	}

	if s.CompileError != "" && (s.Expect != nil || len(s.Errors) > 0 || len(s.Assertions) > 0) {
		return fmt.Errorf("compile_error cannot be combined with expect, errors or assertions")
	}

	seen := make(map[int]bool)
	for i, e := range s.Errors {
		if e.Code == "" {
			return fmt.Errorf("errors[%d]: code is required", i)
		}
		if e.Index < 0 {
			return fmt.Errorf("errors[%d]: index must be non-negative", i)
		}
		if seen[e.Index] {
			return fmt.Errorf("errors[%d]: duplicate index %d", i, e.Index)
		}
		seen[e.Index] = true
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCallContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for call_contains", index)
		}
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for call_contains", index)
		}
	case AssertCallOrder:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for call_order", index)
		}
	case AssertCallCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	case AssertLedgerRow:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for ledger_row", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for ledger_row", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
