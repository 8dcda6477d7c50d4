package csr

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OriginTester decides whether a reconstructed first scatter can come from
// a known source.
type OriginTester interface {
	// OriginatesFrom reports whether a photon scattering at first towards
	// second by the Compton angle phi is consistent with a known origin.
	OriginatesFrom(first, second r3.Vec, phi float64) bool
}

// PointSources is an OriginTester for a set of point-like sources.
type PointSources struct {
	Positions []r3.Vec
	// Tolerance is the accepted deviation from the Compton cone, radians.
	Tolerance float64
}

// OriginatesFrom implements OriginTester. A source matches when the angle
// between the incoming direction (from the source to first) and the
// scattered direction (first to second) is phi within Tolerance.
func (p PointSources) OriginatesFrom(first, second r3.Vec, phi float64) bool {
	out := r3.Sub(second, first)
	if r3.Norm(out) == 0 {
		return false
	}
	for _, src := range p.Positions {
		in := r3.Sub(first, src)
		if r3.Norm(in) == 0 {
			continue
		}
		if math.Abs(angle(in, out)-phi) <= p.Tolerance {
			return true
		}
	}
	return false
}
