package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, manifest, context_json, run_digest, ir_version, tool_version, call_count, error_count`

const callColumns = `run_id, seq, op_index, call_id, name, rendered, call_json`

// ListRuns returns every run in insertion order.
//
// Returns an empty slice (not nil) if the ledger is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run by ID.
func (s *Store) ReadRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ReadCalls returns the calls of a run in emission order.
//
// Returns an empty slice (not nil) if the run has no calls.
func (s *Store) ReadCalls(ctx context.Context, runID string) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+callColumns+`
		FROM calls
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	return collectCalls(rows)
}

// FindCall returns every stored occurrence of a call ID, ordered by run
// insertion then seq.
func (s *Store) FindCall(ctx context.Context, callID string) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.run_id, c.seq, c.op_index, c.call_id, c.name, c.rendered, c.call_json
		FROM calls c
		JOIN runs r ON r.id = c.run_id
		WHERE c.call_id = ?
		ORDER BY r.rowid ASC, c.seq ASC
	`, callID)
	if err != nil {
		return nil, fmt.Errorf("query call %s: %w", callID, err)
	}
	return collectCalls(rows)
}

// ReadDiagnostics returns the failed operations of a run by op index.
func (s *Store) ReadDiagnostics(ctx context.Context, runID string) ([]DiagnosticRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, op_index, code, message
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY op_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []DiagnosticRecord{}
	for rows.Next() {
		var d DiagnosticRecord
		if err := rows.Scan(&d.RunID, &d.OpIndex, &d.Code, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var run RunRecord
	var contextJSON string
	err := row.Scan(
		&run.ID,
		&run.Manifest,
		&contextJSON,
		&run.Digest,
		&run.IRVersion,
		&run.ToolVersion,
		&run.CallCount,
		&run.ErrorCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, err
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	run.Context, err = unmarshalContext(contextJSON)
	if err != nil {
		return RunRecord{}, err
	}
	return run, nil
}

func collectCalls(rows *sql.Rows) ([]CallRecord, error) {
	defer rows.Close()

	calls := []CallRecord{}
	for rows.Next() {
		var c CallRecord
		err := rows.Scan(&c.RunID, &c.Seq, &c.OpIndex, &c.CallID, &c.Name, &c.Rendered, &c.CallJSON)
		if err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}
