package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/mpilower/internal/compiler"
	"github.com/roach88/mpilower/internal/ir"
	"github.com/roach88/mpilower/internal/lower"
	"github.com/roach88/mpilower/internal/render"
	"github.com/roach88/mpilower/internal/store"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	Output   string // write the rendered program to this file
	Database string // ledger path; [store] path from the config when empty
	NoRecord bool   // skip writing the run to the ledger
}

// LoweredCall is one emitted call in command output.
type LoweredCall struct {
	Seq      int    `json:"seq"`
	OpIndex  int    `json:"op_index"`
	Name     string `json:"name"`
	Rendered string `json:"rendered"`
	CallID   string `json:"call_id"`
}

// LowerFailure is one operation that did not lower.
type LowerFailure struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// LowerResult is the output of the lower command.
type LowerResult struct {
	Manifest     string         `json:"manifest"`
	RunID        string         `json:"run_id,omitempty"`
	Digest       string         `json:"run_digest"`
	Declarations []string       `json:"declarations"`
	Calls        []LoweredCall  `json:"calls"`
	Failures     []LowerFailure `json:"failures"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <manifest>",
		Short: "Lower a manifest to MPI calls",
		Long: `Compile a CUE operation manifest and lower every operation to a call.

The manifest is a .cue file or a directory holding one CUE package.
Operations that cannot be lowered are reported and skipped; the rest
are still emitted. The run is recorded in the ledger unless --no-record
is given.

Exit codes:
  0 - All operations lowered
  1 - One or more operations failed to lower
  2 - Command error (manifest does not compile, ledger error, etc.)

Examples:
  mpilower lower ring.cue
  mpilower lower ./manifests/halo --output halo.f90
  mpilower lower ring.cue --db /tmp/ledger.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the rendered program to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the ledger database (default: [store] path)")
	cmd.Flags().BoolVar(&opts.NoRecord, "no-record", false, "do not record the run in the ledger")

	return cmd
}

func runLower(opts *LowerOptions, manifestPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.settings()
	irctx := cfg.Context()

	m, err := LoadManifest(manifestPath, irctx)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Compiled %d operation(s) from %s", len(m.Ops), manifestPath)

	l := lower.New(irctx, lower.WithLogger(opts.log()))
	lowered := l.LowerAll(m.Ops)
	renderer := cfg.Renderer()

	calls, diags, err := ledgerRecords(lowered, renderer)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record calls", err)
	}
	run, err := store.NewRunRecord(manifestPath, irctx, calls, len(diags))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	if !opts.NoRecord {
		run.ID, err = recordRun(cmd.Context(), opts.ledgerPath(), run, calls, diags)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		formatter.VerboseLog("Recorded run %s", run.ID)
	}

	if opts.Output != "" {
		program := renderer.Program(irctx, lowered.Calls)
		if err := os.WriteFile(opts.Output, []byte(program), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	}

	result := buildLowerResult(manifestPath, irctx, m, run, calls, lowered.Errors)
	if err := outputLowerResult(formatter, renderer, irctx, lowered.Calls, result, opts.Output); err != nil {
		return err
	}

	if len(result.Failures) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d operation(s) not lowered", len(result.Failures)))
	}
	return nil
}

// ledgerPath resolves --db against the configured store path.
func (o *LowerOptions) ledgerPath() string {
	if o.Database != "" {
		return o.Database
	}
	return o.settings().Store.Path
}

// ledgerRecords converts a lowering result into ledger rows.
func ledgerRecords(lowered lower.Result, renderer *render.Renderer) ([]store.CallRecord, []store.DiagnosticRecord, error) {
	calls := make([]store.CallRecord, len(lowered.Calls))
	for seq, call := range lowered.Calls {
		rec, err := store.NewCallRecord(seq, lowered.Indices[seq], call, renderer.Text(call))
		if err != nil {
			return nil, nil, err
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
	}
	return calls, diags, nil
}

// recordRun writes one run to the ledger at path and returns its ID.
func recordRun(ctx context.Context, path string, run store.RunRecord, calls []store.CallRecord, diags []store.DiagnosticRecord) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer st.Close()
	return st.WriteRun(ctx, run, calls, diags)
}

func buildLowerResult(manifestPath string, irctx *ir.Context, m *compiler.Manifest, run store.RunRecord, calls []store.CallRecord, opErrs []*lower.OpError) LowerResult {
	result := LowerResult{
		Manifest:     filepath.ToSlash(manifestPath),
		RunID:        run.ID,
		Digest:       run.Digest,
		Declarations: render.Declarations(irctx),
		Calls:        make([]LoweredCall, len(calls)),
		Failures:     make([]LowerFailure, len(opErrs)),
	}
	for i, c := range calls {
		result.Calls[i] = LoweredCall{
			Seq:      c.Seq,
			OpIndex:  c.OpIndex,
			Name:     c.Name,
			Rendered: c.Rendered,
			CallID:   c.CallID,
		}
	}
	for i, e := range opErrs {
		f := LowerFailure{
			Index:   e.Index,
			Kind:    e.Kind.String(),
			Code:    string(e.Code()),
			Message: e.Err.Error(),
		}
		if e.Index < len(m.Positions) && m.Positions[e.Index].IsValid() {
			f.Line = m.Positions[e.Index].Line()
		}
		result.Failures[i] = f
	}
	return result
}

// outputLowerResult writes the rendered program (text) or the result (json).
func outputLowerResult(formatter *OutputFormatter, renderer *render.Renderer, irctx *ir.Context, calls []ir.Call, result LowerResult, outputPath string) error {
	if formatter.Format == "json" {
		if len(result.Failures) == 0 {
			return formatter.Success(result, WithRunID(result.RunID))
		}
		msg := fmt.Sprintf("%d operation(s) not lowered", len(result.Failures))
		return formatter.Error(result.Failures[0].Code, msg, nil, WithData(result), WithRunID(result.RunID))
	}

	w := formatter.Writer
	if outputPath == "" {
		fmt.Fprint(w, renderer.Program(irctx, calls))
	} else {
		fmt.Fprintf(w, "✓ Wrote %d call(s) to %s\n", len(calls), outputPath)
	}
	for _, f := range result.Failures {
		if f.Line > 0 {
			fmt.Fprintf(formatter.GetErrWriter(), "✗ op %d (%s, line %d): %s\n", f.Index, f.Kind, f.Line, f.Message)
		} else {
			fmt.Fprintf(formatter.GetErrWriter(), "✗ op %d (%s): %s\n", f.Index, f.Kind, f.Message)
		}
	}
	return nil
}

// outputLoadError reports a manifest that failed to load. Load failures
// are command errors (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	var details interface{}
	if line := loadErr.Line(); line > 0 {
		details = map[string]interface{}{"file": loadErr.Pos.Filename(), "line": line}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, details)
	return NewExitError(ExitCommandError, loadErr.Error())
}
