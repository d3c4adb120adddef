// Package store provides SQLite-backed storage for collection snapshots.
//
// A snapshot holds everything needed to rebuild a collection with
// graph.Restore:
//   - Relations: the relation registry, one row per name (reverse NULL for
//     one-way relations)
//   - Items: id, document (NULL when unset), placeholder flag, content and
//     attributes as canonical JSON
//   - Targets: every target of every item, with its implicit flag
//
// # Ordering
//
// Snapshots are ordered by seq, a logical counter assigned at write time,
// never by timestamps. Every read uses ORDER BY ... COLLATE BINARY so the
// same database always yields the same records in the same order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
