// Package domain holds the data model shared by every stage of a reminder run.
//
// Lifecycle of one run:
//   - AppointmentRow: one line of the clinic export, read-only input
//   - ReminderContact: the normalized projection of an eligible row
//   - Partition: the contacts routed to one destination workspace
//   - SyncOutcome: the per-contact result of pushing a contact to the remote API
//
// None of these types are persisted by the engine. The run ledger in
// internal/store keeps a copy of outcomes for operator history only.
package domain
