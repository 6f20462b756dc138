// Package store provides persistent storage for the conversation audit log
// using SQLite.
//
// # Data Models
//
//   - Session: one recorded conversation; ended_at is null while open
//   - Message: append-only message rows with per-session sequence numbers
//   - AccessRecord: append-only log of export/archive operations
//   - Project, Ticket: minimal records for session linkage and display names
//   - Settings: key-value store for the retention default and fingerprint secret
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// All timestamps are stored as UTC RFC3339 TEXT, so lexicographic
// comparison in SQL matches chronological order.
//
// # Transactional Paths
//
// Two operations run in explicit transactions: AppendMessage (sequence
// assignment and insert must be atomic) and DeleteSessionsBefore
// (message and session deletes must both land or neither). Every delete
// statement in the archival path repeats the legal-hold exclusion in its
// WHERE clause, so held sessions are unreachable rather than filtered.
//
// # Error Handling
//
// Common errors:
//
//   - ErrSessionNotFound, ErrProjectNotFound, ErrTicketNotFound
//   - ErrSettingNotFound: settings key has no value
//   - ErrDuplicateID: primary key collision on insert
//
// All methods accept context.Context for cancellation support.
package store
