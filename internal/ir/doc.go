// Package ir provides the record types shared by the stream builder and the
// sequence search engine.
//
// This package contains type definitions and pure lookup tables only. All
// other internal packages import ir; ir imports nothing internal.
//
// Conventions:
//   - Energies are in keV, positions in cm, times in seconds
//   - Vectors are gonum r3.Vec values, never pointers
//   - Interaction ids are int64 and strictly increasing within a run
//   - All JSON tags use snake_case
package ir
