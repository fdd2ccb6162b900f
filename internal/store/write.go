package store

import (
	"context"
	"fmt"
)

// WriteRun records a run with its calls and diagnostics in one transaction
// and returns the run ID.
//
// If run.ID is empty an ID is drawn from the store's IDGenerator. Every call
// and diagnostic row is stored under that ID; the RunID fields of calls and
// diags are ignored and the slices are left untouched. Calls are stored with
// the Seq they carry, so a duplicate seq fails the whole run.
func (s *Store) WriteRun(ctx context.Context, run RunRecord, calls []CallRecord, diags []DiagnosticRecord) (string, error) {
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}

	contextJSON, err := marshalContext(run.Context)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, manifest, context_json, run_digest, ir_version, tool_version, call_count, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Manifest,
		contextJSON,
		run.Digest,
		run.IRVersion,
		run.ToolVersion,
		run.CallCount,
		run.ErrorCount,
	)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	for _, c := range calls {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO calls
			(run_id, seq, op_index, call_id, name, rendered, call_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			c.Seq,
			c.OpIndex,
			c.CallID,
			c.Name,
			c.Rendered,
			c.CallJSON,
		)
		if err != nil {
			return "", fmt.Errorf("write call %d: %w", c.Seq, err)
		}
	}

	for _, d := range diags {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics
			(run_id, op_index, code, message)
			VALUES (?, ?, ?, ?)
		`,
			run.ID,
			d.OpIndex,
			d.Code,
			d.Message,
		)
		if err != nil {
			return "", fmt.Errorf("write diagnostic %d: %w", d.OpIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: commit: %w", err)
	}
	return run.ID, nil
}
