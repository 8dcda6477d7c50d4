package testutil

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/ir"
)

// Default resolutions of the site builders.
var (
	PositionResolution = r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}
	EnergyResolution   = 2.0
)

// Hit builds a single-hit site at (x, y, z) with the default resolutions.
func Hit(det ir.DetectorType, energy, x, y, z float64) ir.Site {
	return ir.Site{
		Position:           r3.Vec{X: x, Y: y, Z: z},
		PositionResolution: PositionResolution,
		Energy:             energy,
		EnergyResolution:   EnergyResolution,
		Detector:           det,
		Kind:               ir.SiteHit,
	}
}

// Track builds an electron-track site whose electron moves along dir.
func Track(det ir.DetectorType, energy float64, pos, dir r3.Vec) ir.Site {
	s := Hit(det, energy, pos.X, pos.Y, pos.Z)
	s.Kind = ir.SiteTrack
	s.ElectronDirection = dir
	return s
}

// Event wraps sites into a search input.
func Event(id string, sites ...ir.Site) csr.Event {
	return csr.Event{ID: id, Sites: sites}
}

// ComptonPhoto is a tracker Compton scatter of a 662 keV photon followed
// by photo absorption in the calorimeter 20 cm below, the canonical
// two-site event.
func ComptonPhoto(id string) csr.Event {
	ev := Event(id,
		Hit(ir.DetectorStrip2D, 150, 0, 0, 0),
		Hit(ir.DetectorCalorimeter, 512, 0, 0, -20),
	)
	ev.IncidentEnergy = 662
	return ev
}
