package testutil

import "github.com/roach88/comptonseq/internal/session"

// DefaultRunID is used when a fixed generator is created without an id.
const DefaultRunID = "scenario-run-default"

// FixedRunID returns the same run id on every call, so that every run of a
// scenario hashes its records identically.
//
// Unlike session.FixedGenerator, which hands out a list of ids once, it
// never runs out.
//
// Thread-safety: FixedRunID is immutable and safe for concurrent use.
type FixedRunID struct {
	id string
}

var _ session.RunIDGenerator = FixedRunID{}

// NewFixedRunID creates a generator for id, or DefaultRunID when id is
// empty.
func NewFixedRunID(id string) FixedRunID {
	if id == "" {
		id = DefaultRunID
	}
	return FixedRunID{id: id}
}

// Generate returns the fixed id.
func (g FixedRunID) Generate() string {
	return g.id
}
