// Package classify maps physics-engine process names to process classes.
//
// The lookup table is the fixed list of process names the simulation is known
// to emit. Lookups run against a frequency-ordered linear table that
// periodically re-sorts itself so the hottest names are checked first; the
// result of a lookup never depends on the table order.
package classify
