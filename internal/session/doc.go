// Package session holds the run-level state shared across the events of one
// simulation run: the build-up future-event list, the activation isotope
// inventory and the per-volume skip list.
//
// A State is created once per run and passed explicitly to the stream
// builder. It is append-only while the run is active.
package session
