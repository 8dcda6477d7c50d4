package ir

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// InteractionRecord is one classified physics interaction.
//
// Records are created once by the stream builder and are immutable after
// creation except for Digitized, which is set when a sensitive detector
// consumed the step's deposit.
type InteractionRecord struct {
	Category     Category     `json:"category"`
	ID           int64        `json:"id"`
	OriginID     int64        `json:"origin_id"`
	DetectorType DetectorType `json:"detector_type"`
	Time         float64      `json:"time"`
	Position     r3.Vec       `json:"position"`

	InType         ParticleCode `json:"in_type"`
	InDirection    r3.Vec       `json:"in_direction"`
	InPolarization r3.Vec       `json:"in_polarization"`
	InEnergy       float64      `json:"in_energy"`

	OutType         ParticleCode `json:"out_type"`
	OutDirection    r3.Vec       `json:"out_direction"`
	OutPolarization r3.Vec       `json:"out_polarization"`
	OutEnergy       float64      `json:"out_energy"`

	// Deposit is the energy left locally by sub-threshold Compton and
	// ionization steps.
	Deposit   float64 `json:"deposit"`
	Digitized bool    `json:"digitized"`
}

// TrackInformation is the per-track bookkeeping the stream builder keeps in
// its side table.
type TrackInformation struct {
	ID        int64 `json:"id"`
	OriginID  int64 `json:"origin_id"`
	Digitized bool  `json:"digitized"`
}

// SiteKind distinguishes single hits, merged clusters and electron tracks.
type SiteKind int

const (
	SiteHit SiteKind = iota
	SiteCluster
	SiteTrack
)

func (k SiteKind) String() string {
	switch k {
	case SiteHit:
		return "hit"
	case SiteCluster:
		return "cluster"
	case SiteTrack:
		return "track"
	default:
		return "unknown"
	}
}

// ParseSiteKind resolves a site kind name; the empty string is a hit.
func ParseSiteKind(s string) (SiteKind, bool) {
	switch s {
	case "", "hit":
		return SiteHit, true
	case "cluster":
		return SiteCluster, true
	case "track":
		return SiteTrack, true
	default:
		return SiteHit, false
	}
}

// Site is one measured interaction site of a readout event.
type Site struct {
	Position           r3.Vec       `json:"position"`
	PositionResolution r3.Vec       `json:"position_resolution"`
	Energy             float64      `json:"energy"`
	EnergyResolution   float64      `json:"energy_resolution"`
	Detector           DetectorType `json:"detector"`
	Kind               SiteKind     `json:"kind"`

	// ElectronDirection is the measured recoil electron direction of a
	// track site. Zero for hits and clusters.
	ElectronDirection r3.Vec `json:"electron_direction"`

	// RecordID links the site back to the interaction that produced it,
	// 0 when unknown.
	RecordID int64 `json:"record_id,omitempty"`
}

// IsTrack reports whether the site is an electron track.
func (s Site) IsTrack() bool {
	return s.Kind == SiteTrack
}
