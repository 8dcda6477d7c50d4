// Package store provides SQLite-backed storage for comptonseq runs.
//
// A run is one simulation or reconstruction pass. The store keeps:
//   - Interactions: the records a run's stream builder emitted
//   - Session: future events, the isotope inventory and pending skips
//   - Orderings: the search engine result for each readout event
//
// # Identity
//
// Records and orderings are content-addressed (internal/ir/hash.go) and
// inserted with ON CONFLICT DO NOTHING, so writing the same run twice is a
// no-op. Reads order by record id or insertion sequence, never by wall
// time, so two reads of one run are identical.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//
// ":memory:" opens a private in-memory database, used by the harness.
package store
