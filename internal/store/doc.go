// Package store provides SQLite-backed storage for model checking state.
//
// The store keeps two tables:
//   - checkpoints: the latest exploration Path per model, so a long search
//     resumes where it stopped
//   - runs: one row per finished check, with its outcome and the
//     fingerprint of any violation found
//
// # Ordering
//
// Rows are stamped with seq, a logical clock kept in the database and
// advanced on every write. Listings order by seq ASC, id ASC COLLATE
// BINARY and never by wall time.
//
// # Connections
//
// Every connection runs in WAL mode with synchronous=NORMAL, a five second
// busy timeout and foreign keys enforced. The pool holds one connection.
//
// Schema upgrades are numbered migrations tracked in PRAGMA user_version.
package store
