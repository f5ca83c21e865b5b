// Package store provides SQLite-backed durable storage for the docpulse
// analytics tables.
//
// Four tables, created idempotently on every Open:
//   - raw_events: every admitted event exactly once, keyed by event_id
//   - users: derived entity table with first/last-seen timestamp range
//   - documents: derived entity table with payload-extracted metadata
//   - events: flattened fact table with derived fields
//
// # Write policies
//
// Insert-if-absent (ON CONFLICT DO NOTHING): Event rows and Document
// descriptive fields are created once and never overwritten.
//
// Insert-then-refresh: User and Document timestamp ranges are recomputed
// from raw_events on every normalization run.
//
// # Transaction discipline
//
// All ingestion and normalization writes go through a single transaction
// per pipeline run via WithTx. A failed run rolls back completely; the
// checkpoint is appended only after commit.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Standard connection setup; references between the
//     derived tables are logical only (see schema.sql)
package store
