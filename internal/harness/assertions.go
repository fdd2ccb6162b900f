package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/mpilower/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ledgerTables are the tables a ledger_row assertion may query.
var ledgerTables = map[string]bool{
	"runs":        true,
	"calls":       true,
	"diagnostics": true,
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Calls    []CallEvent // Emitted calls for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Calls) > 0 {
		fmt.Fprintf(&buf, "\nEmitted calls:\n")
		for _, c := range e.Calls {
			fmt.Fprintf(&buf, "  [%d] op %d: %s\n", c.Seq, c.OpIndex, c.Rendered)
		}
	}

	return buf.String()
}

// assertCallContains checks that the call at the given emission position
// contains the expected text.
func assertCallContains(calls []CallEvent, assertion Assertion) error {
	if assertion.Index >= len(calls) {
		return &AssertionError{
			Type:     AssertCallContains,
			Expected: fmt.Sprintf("call %d containing %q", assertion.Index, assertion.Contains),
			Actual:   fmt.Sprintf("only %d calls emitted", len(calls)),
			Calls:    calls,
		}
	}

	rendered := calls[assertion.Index].Rendered
	if !strings.Contains(rendered, assertion.Contains) {
		return &AssertionError{
			Type:     AssertCallContains,
			Expected: fmt.Sprintf("call %d containing %q", assertion.Index, assertion.Contains),
			Actual:   rendered,
			Calls:    calls,
		}
	}
	return nil
}

// assertCallOrder checks that call names appear in the specified order.
// Names don't need to be consecutive (intervening calls are allowed).
func assertCallOrder(calls []CallEvent, assertion Assertion) error {
	next := 0
	for _, c := range calls {
		if next < len(assertion.Names) && c.Name == assertion.Names[next] {
			next++
		}
	}

	if next < len(assertion.Names) {
		return &AssertionError{
			Type:     AssertCallOrder,
			Expected: fmt.Sprintf("calls in order: %v", assertion.Names),
			Actual:   fmt.Sprintf("%s not found after %v", assertion.Names[next], assertion.Names[:next]),
			Calls:    calls,
		}
	}
	return nil
}

// assertCallCount checks that exactly the specified number of calls were
// emitted.
func assertCallCount(calls []CallEvent, assertion Assertion) error {
	if len(calls) != assertion.Count {
		return &AssertionError{
			Type:     AssertCallCount,
			Expected: fmt.Sprintf("%d calls", assertion.Count),
			Actual:   fmt.Sprintf("%d calls", len(calls)),
			Calls:    calls,
		}
	}
	return nil
}

// assertLedgerRow queries a ledger table and validates the expected values.
//
// Security: table and column names are validated against validIdentifier
// and the table must be a ledger table. Values are passed as parameters.
func assertLedgerRow(ctx context.Context, st *store.Store, assertion Assertion) error {
	if !validIdentifier.MatchString(assertion.Table) || !ledgerTables[assertion.Table] {
		return fmt.Errorf("invalid ledger table %q: must be one of runs, calls, diagnostics", assertion.Table)
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err // Identifier validation failed
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertLedgerRow,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertLedgerRow,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	if rows.Next() {
		return &AssertionError{
			Type:     AssertLedgerRow,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]interface{})
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	keys := sortedKeys(assertion.Expect)
	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertLedgerRow,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}

		if !columnValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertLedgerRow,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs a parameterized WHERE clause, with keys
// sorted for deterministic queries.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, where[key])
	}

	return strings.Join(clauses, " AND "), args, nil
}

// formatWhereClause renders a where map for error messages.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no filter)"
	}
	parts := make([]string, 0, len(where))
	for _, key := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, where[key]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// columnValuesEqual compares a YAML value with a scanned SQLite value.
// SQLite returns int64 for integers and string or []byte for text.
func columnValuesEqual(expected, actual interface{}) bool {
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		s, ok := actual.(string)
		return ok && exp == s
	case int:
		n, ok := actual.(int64)
		return ok && int64(exp) == n
	case int64:
		n, ok := actual.(int64)
		return ok && exp == n
	case bool:
		// SQLite stores booleans as integers (0/1)
		if b, ok := actual.(bool); ok {
			return exp == b
		}
		if n, ok := actual.(int64); ok {
			return exp == (n != 0)
		}
		return false
	}

	// Fallback to DeepEqual for complex types
	return reflect.DeepEqual(expected, actual)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for ledger_row assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCallContains:
			err = assertCallContains(result.Calls, assertion)
		case AssertCallOrder:
			err = assertCallOrder(result.Calls, assertion)
		case AssertCallCount:
			err = assertCallCount(result.Calls, assertion)
		case AssertLedgerRow:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: ledger_row requires database context", i)
			} else {
				err = assertLedgerRow(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
