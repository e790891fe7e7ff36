// Package engine runs one reminder synchronization.
//
// A run has two phases:
//
//  1. Plan: every export row is evaluated against the reference tables and
//     the target date, the selection is checked for reference integrity, and
//     the selected rows are projected into per-destination partitions. No
//     remote call happens here; an integrity failure ends the run.
//  2. Sync: each non-empty partition is pushed to its remote. Contacts are
//     upserted with at most Options.Concurrency requests in flight, then the
//     successfully upserted phones are tagged in a second bounded wave.
//
// A contact that fails is recorded in the PartitionReport and never stops
// its siblings. There are no retries: re-running the same export is safe
// because an upsert of an existing contact is an update.
//
// The engine never reads the wall clock or generates ids on its own; both
// come from the injected Clock and RunIDGenerator so runs are reproducible
// in tests.
package engine
