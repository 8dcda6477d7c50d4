package input

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a three-vector written as a YAML sequence [x, y, z].
type Vec [3]float64

// R3 converts v to a gonum vector.
func (v Vec) R3() r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// FromR3 converts a gonum vector to a Vec.
func FromR3(p r3.Vec) Vec {
	return Vec{p.X, p.Y, p.Z}
}
