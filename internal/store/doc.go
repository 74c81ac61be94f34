// Package store records test runs in SQLite.
//
// Each saved run writes three kinds of rows in one transaction:
//   - runs: one row per run with its summary counts
//   - cases: one row per test case in execution order
//   - exports: the export store's final contents as canonical JSON
//
// Cases are ordered by their seq column, the position of the case within
// its run, never by timestamps.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
