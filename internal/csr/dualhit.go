package csr

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/ir"
)

// analyzeDualHit decides which of two sites came first without a search.
//
// A tracker/calorimeter pair or a track/hit pair gives an estimated first
// site. Kinematics usually rules out one of the two orders; if both are
// possible, a measured electron direction or the undecided policy breaks
// the tie.
func (e *Engine) analyzeDualHit(ev Event, res Result) Result {
	s := e.settings
	sites := ev.Sites
	if sites[0].IsTrack() && sites[1].IsTrack() {
		return reject(res, ReasonTwoTracksOnly)
	}

	first := estimateFirst(sites)
	seq1, seq2 := 0, 1
	hasTrack := false
	var theta float64
	if first >= 0 {
		seq1, seq2 = first, 1-first
		if sites[seq1].IsTrack() {
			hasTrack = true
			theta = angle(sites[seq1].ElectronDirection, r3.Sub(sites[seq2].Position, sites[seq1].Position))
		}
	}
	if !hasTrack && !s.UseComptelTypeEvents {
		return reject(res, ReasonComptelType)
	}

	e1, e2 := sites[seq1].Energy, sites[seq2].Energy
	chosen := -1
	var shares *[2]float64

	bothD1 := sites[0].Detector == ir.DetectorStrip2D && sites[1].Detector == ir.DetectorStrip2D
	bothD5 := sites[0].Detector == ir.DetectorDriftChamber && sites[1].Detector == ir.DetectorDriftChamber
	if !s.GuaranteeStartD1 || bothD1 || bothD5 {
		ok1, ok2 := IsKinematicsOK(e1, e2), IsKinematicsOK(e2, e1)
		switch {
		case ok1 && !ok2:
			chosen = seq1
		case ok2 && !ok1:
			chosen = seq2
		case !ok1 && !ok2:
			return reject(res, ReasonKinematicsBad)
		case !hasTrack:
			var reason Reason
			chosen, shares, reason = e.undecided(sites, seq1, seq2)
			if reason != ReasonNone {
				return reject(res, reason)
			}
		default:
			// The electron cannot move backwards by more than the photon
			// scatter angle.
			if theta > math.Pi/2+ComputePhiViaEeEg(e1, e2) {
				return reject(res, ReasonTrackNotValid)
			}
			chosen = seq1
		}
	} else {
		if first < 0 {
			return reject(res, ReasonNoHitsInTracker)
		}
		if !IsKinematicsOK(e1, e2) {
			return reject(res, ReasonStartNotD1)
		}
		chosen = seq1
	}

	other := 1 - chosen
	res.Order = []int{chosen, other}
	if s.GuaranteeStartD1 && !sites[chosen].Detector.StartsSequence() {
		return reject(res, ReasonStartNotD1)
	}
	if hasTrack && !ElectronDirectionOK(sites[chosen].Energy, sites[other].Energy) {
		return reject(res, ReasonTrackNotValid)
	}

	if shares != nil {
		res.Quality = 1 - shares[0]
		res.SecondQuality = 1 - shares[1]
	} else {
		res.Quality = e.metric.Score(sites, res.Order, ev.IncidentEnergy)
		res.SecondQuality = Failed
		if res.Quality >= Failed {
			return reject(res, ReasonNoGoodCombination)
		}
	}
	res.NCandidates = 1
	if res.SecondQuality < Failed {
		res.NCandidates = 2
	}
	res.Status = StatusGood
	res.Type = EventCompton
	return res
}

// estimateFirst returns the index of the site that should start the
// sequence from detector type or track information alone, or -1.
func estimateFirst(sites []ir.Site) int {
	d0, d1 := sites[0].Detector.StartsSequence(), sites[1].Detector.StartsSequence()
	t0, t1 := sites[0].IsTrack(), sites[1].IsTrack()
	switch {
	case d0 && !d1:
		return 0
	case d1 && !d0:
		return 1
	case t0 && !t1:
		return 0
	case t1 && !t0:
		return 1
	}
	return -1
}

// undecided applies the undecided policy to two kinematically valid
// orders. For the share policies it returns the weight of the chosen and
// of the other order. Ties choose seq2.
func (e *Engine) undecided(sites []ir.Site, seq1, seq2 int) (int, *[2]float64, Reason) {
	e1, e2 := sites[seq1].Energy, sites[seq2].Energy
	var w1, w2 float64
	switch e.settings.Undecided {
	case UndecidedAssumeStartD1:
		return seq1, nil, ReasonNone
	case UndecidedLargerKleinNishina:
		w1 = KleinNishinaNormalizedByArea(e1+e2, ComputePhiViaEeEg(e1, e2))
		w2 = KleinNishinaNormalizedByArea(e1+e2, ComputePhiViaEeEg(e2, e1))
	case UndecidedLargerKleinNishinaTimesPhoto:
		p1, p2 := sites[seq1].Position, sites[seq2].Position
		w1 = KleinNishinaNormalizedByArea(e1+e2, ComputePhiViaEeEg(e1, e2)) *
			e.geometry.PhotoAbsorptionProbability(p1, p2, e2)
		w2 = KleinNishinaNormalizedByArea(e1+e2, ComputePhiViaEeEg(e2, e1)) *
			e.geometry.PhotoAbsorptionProbability(p2, p1, e1)
	case UndecidedLargerEnergyDeposit:
		w1, w2 = e1, e2
	default:
		return -1, nil, ReasonStartUndecided
	}

	total := w1 + w2
	if !(total > 0) {
		return -1, nil, ReasonStartUndecided
	}
	if w1 > w2 {
		return seq1, &[2]float64{w1 / total, w2 / total}, ReasonNone
	}
	return seq2, &[2]float64{w2 / total, w1 / total}, ReasonNone
}
