package csr

import (
	"math"
)

// ElectronRestEnergy is the electron rest energy in keV used by the
// kinematics helpers.
const ElectronRestEnergy = 510.999

// classicalElectronRadius in m, as used by the Klein-Nishina helpers.
const classicalElectronRadius = 2.8e-15

func insideUnit(v float64) bool {
	return v > -1 && v < 1
}

// IsKinematicsOK reports whether a Compton scatter depositing ee with a
// scattered photon of energy eg is physically possible. The photon, electron
// and total scatter cosines must all lie strictly inside (-1, 1).
func IsKinematicsOK(ee, eg float64) bool {
	if !(ee > 0) || !(eg > 0) {
		return false
	}
	ei := ee + eg
	if !insideUnit(1 - ElectronRestEnergy*(1/eg-1/ei)) {
		return false
	}
	root := math.Sqrt(ee * (ee + 2*ElectronRestEnergy))
	if !insideUnit(ee * (ei + ElectronRestEnergy) / (ei * root)) {
		return false
	}
	return insideUnit(ee * (eg - ElectronRestEnergy) / (eg * root))
}

// ComputePhiViaEeEg returns the photon scatter angle in radians. The cosine
// is clamped to [-1, 1], so kinematically forbidden inputs yield 0 or pi.
func ComputePhiViaEeEg(ee, eg float64) float64 {
	c := 1 - ElectronRestEnergy*(1/eg-1/(ee+eg))
	return math.Acos(clampUnit(c))
}

// EpsilonViaEnergies returns the electron recoil angle relative to the
// incoming photon direction, or NaN when it is not defined.
func EpsilonViaEnergies(ee, eg float64) float64 {
	if !(ee > 0) || !(eg > 0) {
		return math.NaN()
	}
	ei := ee + eg
	c := ee * (ei + ElectronRestEnergy) / (ei * math.Sqrt(ee*(ee+2*ElectronRestEnergy)))
	if !insideUnit(c) {
		return math.NaN()
	}
	return math.Acos(c)
}

// ThetaViaEnergies returns the total scatter angle between the recoil
// electron and the scattered photon, or NaN when it is not defined.
func ThetaViaEnergies(ee, eg float64) float64 {
	if !(ee > 0) || !(eg > 0) {
		return math.NaN()
	}
	c := ee * (eg - ElectronRestEnergy) / (eg * math.Sqrt(ee*(ee+2*ElectronRestEnergy)))
	if !insideUnit(c) {
		return math.NaN()
	}
	return math.Acos(c)
}

// ElectronDirectionOK tests a track that starts a sequence: with e1 deposited
// in the track and e2 carried on, both the photon and the electron angle
// must exist and the electron must move forward.
func ElectronDirectionOK(e1, e2 float64) bool {
	if !(e1 > 0) || !(e2 > 0) {
		return false
	}
	if !insideUnit(1 - ElectronRestEnergy*(1/e2-1/(e1+e2))) {
		return false
	}
	eps := EpsilonViaEnergies(e1, e2)
	return !math.IsNaN(eps) && eps <= math.Pi/2
}

// KleinNishina returns the differential Klein-Nishina cross section for a
// photon of energy ei scattering by phi, weighted with sin(phi). It is 0
// outside the physical domain.
func KleinNishina(ei, phi float64) float64 {
	if !(ei > 0) || phi < 0 || phi > math.Pi {
		return 0
	}
	sinPhi := math.Sin(phi)
	eg := -ElectronRestEnergy * ei / (math.Cos(phi)*ei - ei - ElectronRestEnergy)
	r := classicalElectronRadius
	return 0.5 * r * r * eg * eg / (ei * ei) * (eg/ei + ei/eg - sinPhi*sinPhi) * sinPhi
}

// KleinNishinaNormalizedByArea returns KleinNishina divided by the total
// cross section at ei, so that it integrates to one over phi.
func KleinNishinaNormalizedByArea(ei, phi float64) float64 {
	if !(ei > 0) {
		return 0
	}
	e0 := ElectronRestEnergy
	r := classicalElectronRadius
	a := 2 * ei * (ei*ei*ei + 9*ei*ei*e0 + 8*ei*e0*e0 + 2*e0*e0*e0)
	b := (2*ei + e0) * (2*ei + e0) * (ei*ei - 2*ei*e0 - 2*e0*e0) *
		(math.Log(e0/(ei+e0)) - math.Log((2*ei+e0)/(ei+e0)))
	norm := 0.5 * e0 * e0 * r * r * (a - b) / (ei * ei * ei * e0 * (2*ei + e0) * (2*ei + e0))
	if !(norm > 0) {
		return 0
	}
	return KleinNishina(ei, phi) / norm
}

func clampUnit(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
