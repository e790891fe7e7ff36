// Package store keeps the remindsync run ledger in SQLite.
//
// Every finished run is appended with its summary counts, one row per
// synchronized partition and one row per contact outcome of each pass
// (upsert, tag). The full report is also kept as JSON.
//
// The ledger is for operators: `remindsync history` lists runs and the
// outcomes recorded for a phone. A run never consults it, so losing the
// database changes nothing about what gets synchronized.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: partition and outcome rows belong to a run
package store
