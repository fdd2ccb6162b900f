package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/mpilower/internal/ir"
)

// RunRecord is one lowering run.
type RunRecord struct {
	ID          string            `json:"id"`
	Manifest    string            `json:"manifest"`
	Context     ir.ContextOptions `json:"context"`
	Digest      string            `json:"run_digest"`
	IRVersion   string            `json:"ir_version"`
	ToolVersion string            `json:"tool_version"`
	CallCount   int               `json:"call_count"`
	ErrorCount  int               `json:"error_count"`
}

// CallRecord is one lowered call of a run.
type CallRecord struct {
	RunID    string `json:"run_id"`
	Seq      int    `json:"seq"`
	OpIndex  int    `json:"op_index"`
	CallID   string `json:"call_id"`
	Name     string `json:"name"`
	Rendered string `json:"rendered"`
	CallJSON string `json:"call_json"`
}

// DiagnosticRecord is one operation of a run that failed to lower.
type DiagnosticRecord struct {
	RunID   string `json:"run_id"`
	OpIndex int    `json:"op_index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewCallRecord content-addresses call and serializes it to canonical JSON.
// seq is the emission position, opIndex the source operation.
func NewCallRecord(seq, opIndex int, call ir.Call, rendered string) (CallRecord, error) {
	id, err := ir.CallID(call)
	if err != nil {
		return CallRecord{}, fmt.Errorf("call %d: %w", seq, err)
	}
	canonical, err := ir.MarshalCanonical(call.Canonical())
	if err != nil {
		return CallRecord{}, fmt.Errorf("call %d: %w", seq, err)
	}
	return CallRecord{
		Seq:      seq,
		OpIndex:  opIndex,
		CallID:   id,
		Name:     call.Name,
		Rendered: rendered,
		CallJSON: string(canonical),
	}, nil
}

// NewRunRecord stamps a run with the current versions and the digest over
// the IDs of calls, in order.
func NewRunRecord(manifest string, ctx *ir.Context, calls []CallRecord, errorCount int) (RunRecord, error) {
	ids := make([]string, len(calls))
	for i, c := range calls {
		ids[i] = c.CallID
	}
	digest, err := ir.RunDigest(ids)
	if err != nil {
		return RunRecord{}, err
	}
	return RunRecord{
		Manifest:    manifest,
		Context:     ctx.Options(),
		Digest:      digest,
		IRVersion:   ir.IRVersion,
		ToolVersion: ir.ToolVersion,
		CallCount:   len(calls),
		ErrorCount:  errorCount,
	}, nil
}

func marshalContext(opts ir.ContextOptions) (string, error) {
	data, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("marshal context: %w", err)
	}
	return string(data), nil
}

func unmarshalContext(data string) (ir.ContextOptions, error) {
	var opts ir.ContextOptions
	if err := json.Unmarshal([]byte(data), &opts); err != nil {
		return ir.ContextOptions{}, fmt.Errorf("unmarshal context: %w", err)
	}
	return opts, nil
}
