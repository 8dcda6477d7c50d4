// Package stream turns the per-step callbacks of a particle-transport engine
// into an ordered, cross-referenced list of interaction records.
//
// One Builder serves one simulation run. Steps of an event must be fed in
// the order the engine produced them; that order is the order of physical
// causality and the builder never reorders it.
//
// Track bookkeeping lives in a side table keyed by engine track id. The
// engine's track lifetime hooks translate to StartPrimary, the implicit
// insert of a secondary's information when the step that spawned it is
// classified, and EndTrack.
//
// Nothing in the builder returns an error for physics anomalies. Engine
// quirks, unexpected secondary counts and guard trips are reported through
// Outcome and the logger. Step only fails for caller contract violations
// such as an unknown track.
package stream
