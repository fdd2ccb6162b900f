package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mpilower/internal/ir"
)

// Snapshot captures the observable output of a scenario execution.
// Call IDs are left out so snapshots stay readable; the run digest
// already covers them.
type Snapshot struct {
	ScenarioName string      `json:"scenario_name"`
	Calls        []CallEvent `json:"calls"`
	Failures     []Failure   `json:"failures"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles maps, slices and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	calls := make([]any, len(s.Calls))
	for i, c := range s.Calls {
		calls[i] = map[string]any{
			"seq":      c.Seq,
			"op_index": c.OpIndex,
			"name":     c.Name,
			"rendered": c.Rendered,
		}
	}
	failures := make([]any, len(s.Failures))
	for i, f := range s.Failures {
		failures[i] = map[string]any{
			"index": f.Index,
			"code":  f.Code,
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"calls":         calls,
		"failures":      failures,
	}
}

// SnapshotJSON marshals the snapshot of result as canonical JSON, the
// format of golden files.
func SnapshotJSON(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: name,
		Calls:        result.Calls,
		Failures:     result.Failures,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
