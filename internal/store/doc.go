// Package store provides the SQLite-backed lowering ledger.
//
// Every invocation of `mpilower lower --db` records one run:
//   - Runs: the manifest path, Context spellings, version stamps and a
//     digest over the call IDs of the run
//   - Calls: each lowered call in emission order, with its content address,
//     rendered text and canonical JSON
//   - Diagnostics: each operation that failed to lower, by op index
//
// # Critical Patterns
//
// Emission order:
//   - calls are keyed UNIQUE(run_id, seq) and always read ORDER BY seq
//   - runs are listed in insertion order (rowid), never by wall time
//
// Content addressing:
//   - call_id is ir.CallID: sha256 over a domain prefix and the RFC 8785
//     canonical JSON of the call, so identical calls across runs share an ID
//
// Schema setup:
//   - Open takes an advisory file lock on <path>.lock while applying pragmas
//     and the schema, so concurrent processes do not race on migrations
//   - in-memory databases skip the lock
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s for locks
//   - foreign_keys=ON: Enforce referential integrity
package store
