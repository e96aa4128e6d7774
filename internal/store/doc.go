// Package store provides SQLite-backed durable storage for the signature
// registry and equivalence links. These two tables are the only durable
// state snapledger owns; families and epochs are recomputed per request.
//
// # Critical Patterns
//
// Insert-once registry
//   - PRIMARY KEY(owner_id, content_address)
//   - ON CONFLICT DO NOTHING: the first write wins, later writes are no-ops
//
// Append-only equivalence
//   - Rows are never deleted; deactivation sets active = 0 and records who/why
//   - Partial UNIQUE index on (owner_id, pair_lo, pair_hi) WHERE active = 1
//     makes re-creating an active link idempotent regardless of direction
//
// Deterministic reads
//   - Registry listings: ORDER BY created_at DESC, content_address ASC COLLATE BINARY
//   - Link listings: ORDER BY created_at ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One connection: writes are serialized; ":memory:" stays one database
//
// # Migrations
//
// schema.sql is version 0. Later changes are appended to the migrations
// list and applied in one transaction, tracked by PRAGMA user_version.
package store
