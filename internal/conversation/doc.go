// Package conversation implements the audit log engine for AI-assisted
// development sessions.
//
// # Overview
//
// The Service records every message exchanged during a session, makes the
// records tamper-evident, and supports regulated retention workflows:
//
//   - Start / End / SetLegalHold: session lifecycle
//   - LogMessage: append-only logging with fingerprints and secret flags
//   - List: filtered session summaries with derived message counts
//   - Export: structured compliance export with integrity verification
//   - Archive: retention-based deletion behind a dry-run/confirm protocol
//
// # Collaborators
//
// Environment detection and secret scanning are injected as single-method
// interfaces (EnvironmentDetector, SecretScanner) with func adapters for
// tests. The engine calls them; it never implements them.
//
// # Tamper Evidence
//
// Each message stores a keyed fingerprint of its content (see the
// fingerprint package). Export recomputes fingerprints and reports
// mismatches per message; a failed verification is reported, not fatal.
//
// # Errors
//
// Missing entities surface the store's sentinel errors wrapped with
// context (use errors.Is). Domain rule violations are *ValidationError
// values carrying a stable code. There are no retries: storage failures
// propagate unchanged, and LogMessage in particular must not be blindly
// retried since a retry claims a new sequence slot.
//
// Every export and archive invocation writes a best-effort entry to the
// access log; those writes are never allowed to fail the operation they
// describe.
package conversation
