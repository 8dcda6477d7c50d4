package csr

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Geometry answers the material questions of the search.
type Geometry interface {
	// CrossSectionsPresent reports whether PhotoAbsorptionProbability is
	// backed by cross-section data.
	CrossSectionsPresent() bool

	// PhotoAbsorptionProbability returns the probability that a photon of
	// the given energy is photo-absorbed between start and stop.
	PhotoAbsorptionProbability(start, stop r3.Vec, energy float64) float64
}

// UniformMedium is a Geometry filled with one material whose photo
// absorption coefficient falls with the cube of the energy.
type UniformMedium struct {
	// Mu is the photo absorption coefficient in 1/cm at RefEnergy keV.
	Mu        float64 `json:"mu" koanf:"mu"`
	RefEnergy float64 `json:"ref_energy" koanf:"ref_energy"`
}

// CrossSectionsPresent implements Geometry.
func (m UniformMedium) CrossSectionsPresent() bool {
	return m.Mu > 0 && m.RefEnergy > 0
}

// PhotoAbsorptionProbability implements Geometry.
func (m UniformMedium) PhotoAbsorptionProbability(start, stop r3.Vec, energy float64) float64 {
	if !m.CrossSectionsPresent() || !(energy > 0) {
		return 0
	}
	mu := m.Mu * math.Pow(energy/m.RefEnergy, -3)
	return 1 - math.Exp(-mu*r3.Norm(r3.Sub(stop, start)))
}
