// Package harness provides conformance testing for operation manifests.
//
// The harness compiles a manifest, lowers every operation, records the run
// in an in-memory ledger and checks the rendered calls against the
// scenario's expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	manifest: |
//	  buffer: x: { type: "double", shape: ["n", 2] }
//	  ops: [{ kind: "send", args: ["x", "dest", "tag", "world"] }]
//	expect:
//	  - "MPI_send (x, 2*n, MPI_DOUBLE, dest, tag, mpi_comm_world, i_mpi_error)"
//	errors:
//	  - index: 3
//	    code: UNSUPPORTED_TYPE
//	assertions:
//	  - type: call_contains
//	    index: 0
//	    contains: "2*n"
//	  - type: ledger_row
//	    table: runs
//	    where: { id: test-run-default }
//	    expect: { call_count: 1 }
//
// manifest_dir may replace manifest to load a CUE package directory.
// compile_error expects compilation to fail with the given compiler code.
//
// # Assertion Types
//
//   - call_contains: Verifies the call at an emission index contains a substring
//   - call_order: Verifies call names appear in the specified order
//   - call_count: Verifies exactly N calls were emitted
//   - ledger_row: Queries a ledger table and verifies expected values
//
// # Deterministic Testing
//
// Every scenario runs with:
//   - Its own ir.Context built from the scenario's context overrides
//   - A fixed run ID (scenario.run_id, or "test-run-default")
//   - An in-memory SQLite ledger (isolated per run)
//
// The calls are read back from the ledger, so the result reflects what was
// recorded, and golden snapshots compare byte for byte.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/ring_exchange.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
