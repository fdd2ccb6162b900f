package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/mpilower/internal/compiler"
	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/lower"
	"github.com/roach88/mpilower/internal/render"
	"github.com/roach88/mpilower/internal/store"
	"github.com/roach88/mpilower/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against an isolated Context and an in-memory ledger.
type Harness struct {
	store    *store.Store
	ctx      *ir.Context
	lowerer  *lower.Lowerer
	renderer *render.Renderer
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs with its own ir.Context and a fresh in-memory
// database, so scenarios never share slots or ledger rows.
//
// Execution flow:
// 1. Compile the manifest (inline source or directory)
// 2. Lower every operation, collecting failures
// 3. Record the run in the ledger under a fixed run ID
// 4. Read the calls back and compare them with the expectations
// 5. Evaluate assertions
//
// An error is returned only when the harness itself cannot run; a scenario
// whose expectations do not hold returns a failed Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryPath,
		store.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.RunID)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	irctx := ir.NewContext(scenario.Context.Options())
	h := &Harness{
		store:    st,
		ctx:      irctx,
		lowerer:  lower.New(irctx, lower.WithLogger(logger)),
		renderer: render.New(),
		logger:   logger,
	}

	result := NewResult()
	ctx := context.Background()

	m, err := h.compile(scenario)
	if err != nil {
		var cerr *compiler.CompileError
		if !errors.As(err, &cerr) {
			return nil, fmt.Errorf("failed to load manifest: %w", err)
		}
		result.CompileError = cerr.Code
		if scenario.CompileError == "" {
			result.AddError(fmt.Sprintf("unexpected compile error: %v", err))
		} else if cerr.Code != scenario.CompileError {
			result.AddError(fmt.Sprintf("compile error: expected %s, got %s (%v)",
				scenario.CompileError, cerr.Code, err))
		}
		return result, nil
	}
	if scenario.CompileError != "" {
		result.AddError(fmt.Sprintf("compile error: expected %s, manifest compiled", scenario.CompileError))
		return result, nil
	}

	if err := h.execute(ctx, scenario, m, result); err != nil {
		return nil, err
	}

	checkExpect(scenario.Expect, result)
	checkErrors(scenario.Errors, result)

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) compile(scenario *Scenario) (*compiler.Manifest, error) {
	if scenario.ManifestDir != "" {
		return compiler.LoadDir(scenario.ManifestDir, h.ctx)
	}
	return compiler.CompileString(scenario.Manifest, scenario.Name+".cue", h.ctx)
}

// execute lowers the manifest, records the run and reads the calls back
// from the ledger into result.
func (h *Harness) execute(ctx context.Context, scenario *Scenario, m *compiler.Manifest, result *Result) error {
	lowered := h.lowerer.LowerAll(m.Ops)

	calls := make([]store.CallRecord, len(lowered.Calls))
	for seq, call := range lowered.Calls {
		rec, err := store.NewCallRecord(seq, lowered.Indices[seq], call, h.renderer.Text(call))
		if err != nil {
			return fmt.Errorf("record call %d: %w", seq, err)
		}
		calls[seq] = rec
	}

	diags := make([]store.DiagnosticRecord, len(lowered.Errors))
	for i, opErr := range lowered.Errors {
		diags[i] = store.DiagnosticRecord{
			OpIndex: opErr.Index,
			Code:    string(opErr.Code()),
			Message: opErr.Err.Error(),
		}
		result.Failures = append(result.Failures, Failure{
			Index:   opErr.Index,
			Code:    string(opErr.Code()),
			Message: opErr.Err.Error(),
		})
	}

	run, err := store.NewRunRecord(scenario.Name, h.ctx, calls, len(diags))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	runID, err := h.store.WriteRun(ctx, run, calls, diags)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	result.RunID = runID
	result.Digest = run.Digest

	stored, err := h.store.ReadCalls(ctx, runID)
	if err != nil {
		return fmt.Errorf("read back run %s: %w", runID, err)
	}
	for _, c := range stored {
		result.Calls = append(result.Calls, CallEvent{
			Seq:      c.Seq,
			OpIndex:  c.OpIndex,
			Name:     c.Name,
			Rendered: c.Rendered,
			CallID:   c.CallID,
		})
	}

	h.logger.Info("scenario lowered",
		"scenario", scenario.Name,
		"run_id", runID,
		"calls", len(result.Calls),
		"failures", len(result.Failures),
	)
	return nil
}

// checkExpect compares the rendered calls with the expected list.
func checkExpect(expect []string, result *Result) {
	if expect == nil {
		return
	}
	got := result.Rendered()
	for i := 0; i < len(expect) || i < len(got); i++ {
		switch {
		case i >= len(got):
			result.AddError(fmt.Sprintf("call %d: expected %q, no call emitted", i, expect[i]))
		case i >= len(expect):
			result.AddError(fmt.Sprintf("call %d: unexpected %q", i, got[i]))
		case got[i] != expect[i]:
			result.AddError(fmt.Sprintf("call %d: expected %q, got %q", i, expect[i], got[i]))
		}
	}
}

// checkErrors matches failed operations against the expected errors in
// both directions.
func checkErrors(expected []ExpectedError, result *Result) {
	failed := make(map[int]Failure, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.Index] = f
	}

	want := make(map[int]bool, len(expected))
	for _, e := range expected {
		want[e.Index] = true
		f, ok := failed[e.Index]
		switch {
		case !ok:
			result.AddError(fmt.Sprintf("op %d: expected %s, operation lowered", e.Index, e.Code))
		case f.Code != e.Code:
			result.AddError(fmt.Sprintf("op %d: expected %s, got %s (%s)", e.Index, e.Code, f.Code, f.Message))
		}
	}

	for _, f := range result.Failures {
		if !want[f.Index] {
			result.AddError(fmt.Sprintf("op %d: unexpected %s: %s", f.Index, f.Code, f.Message))
		}
	}
}
