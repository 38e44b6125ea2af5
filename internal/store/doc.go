// Package store provides the local SQLite database of the harness.
//
// It holds two things:
//   - Documents: replication documents addressed by space and path, the
//     offline stand-in for the cluster repository
//   - The run ledger: one row per scenario run plus every change request
//     status observed while the run waited
//
// # Ordering
//
// Runs are listed newest first by started_at, then id. Polls are listed
// by insertion order, which is the order they were observed in.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Polls are deleted with their run
package store
