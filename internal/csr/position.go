package csr

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// positionError propagates the position resolutions of three consecutive
// sites a, b, c into an uncertainty of the cosine of the angle between
// a-b and b-c. Where the analytic derivative vanishes, as for sites on one
// line, a geometric approximation is used instead.
func positionError(a, b, c r3.Vec, ra, rb, rc r3.Vec) float64 {
	v := r3.Sub(a, b)
	u := r3.Sub(b, c)
	uv := r3.Dot(u, v)
	lv2 := r3.Dot(v, v)
	lu2 := r3.Dot(u, u)
	lv := math.Sqrt(lv2)
	lu := math.Sqrt(lu2)

	vu := lv * lu
	v3u := lv2 * vu
	vu3 := vu * lu2

	// Derivatives of cos(theta) with respect to the coordinates of b (mid),
	// c (last) and a (first).
	dMid := func(vi, ui float64) float64 { return (vi-ui)/vu - ui*uv/vu3 + vi*uv/v3u }
	dLast := func(vi, ui float64) float64 { return ui*uv/vu3 - vi/vu }
	dFirst := func(vi, ui float64) float64 { return -vi*uv/v3u + ui/vu }

	sq := func(x float64) float64 { return x * x }
	deltaF := math.Sqrt(
		sq(dMid(v.X, u.X))*sq(rb.X) + sq(dMid(v.Y, u.Y))*sq(rb.Y) + sq(dMid(v.Z, u.Z))*sq(rb.Z) +
			sq(dLast(v.X, u.X))*sq(rc.X) + sq(dLast(v.Y, u.Y))*sq(rc.Y) + sq(dLast(v.Z, u.Z))*sq(rc.Z) +
			sq(dFirst(v.X, u.X))*sq(ra.X) + sq(dFirst(v.Y, u.Y))*sq(ra.Y) + sq(dFirst(v.Z, u.Z))*sq(ra.Z))

	if deltaF == 0 {
		avgA, avgB, avgC := r3.Norm(ra), r3.Norm(rb), r3.Norm(rc)
		deltaF = math.Abs(math.Cos(math.Atan((avgA+avgB)/lv) + math.Atan((avgB+avgC)/lu)))
	}
	return deltaF
}

// cosAngle returns the cosine of the angle between p and q.
func cosAngle(p, q r3.Vec) float64 {
	return r3.Dot(p, q) / (r3.Norm(p) * r3.Norm(q))
}

// angle returns the angle between p and q in radians.
func angle(p, q r3.Vec) float64 {
	return math.Acos(clampUnit(cosAngle(p, q)))
}
