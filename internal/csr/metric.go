package csr

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/ir"
)

// Failed is the quality of an ordering that cannot be scored. It ranks
// after every finite quality.
const Failed = math.MaxFloat64 / 2

const (
	// qualityRestEnergy is the electron rest energy of the quality factor.
	// It is not ElectronRestEnergy; existing quality cuts depend on it.
	qualityRestEnergy = 511.044

	// cosLimit widens the accepted range of the energy cosine by this many
	// standard deviations.
	cosLimit = 100.5
)

// QualityMetric scores one ordering of the sites of an event. Lower is
// better for every variant.
type QualityMetric struct {
	Kind             Metric
	GuaranteeStartD1 bool
	MinLeverArm      float64
	Origins          OriginTester
}

// Score returns the quality factor of sites visited in the given order,
// or Failed. incident is the expected total energy, or 0 when unknown.
func (q QualityMetric) Score(sites []ir.Site, order []int, incident float64) float64 {
	ts, _ := q.score(sites, order, incident)
	return ts
}

// score returns the quality factor and its uncertainty.
func (q QualityMetric) score(sites []ir.Site, order []int, incident float64) (float64, float64) {
	n := len(order)
	if n < 2 {
		return Failed, 0
	}
	seq := make([]ir.Site, n)
	for i, idx := range order {
		seq[i] = sites[idx]
	}
	for i := 1; i < n; i++ {
		if seq[i].Position == seq[i-1].Position {
			return Failed, 0
		}
	}
	if q.GuaranteeStartD1 && !seq[0].Detector.StartsSequence() {
		return Failed, 0
	}
	if n == 2 {
		if !IsKinematicsOK(seq[0].Energy, seq[1].Energy) {
			return Failed, 0
		}
		return 0, 0
	}

	var ts, dts float64
	terms := 0
	for i := 1; i < n-1; i++ {
		ee := seq[i].Energy
		dee := seq[i].EnergyResolution
		var eg, vareg float64
		for _, s := range seq[i+1:] {
			eg += s.Energy
			vareg += s.EnergyResolution * s.EnergyResolution
		}
		ei := ee + eg
		if !(eg > 0) || !(ei > 0) || vareg < 0 {
			return Failed, 0
		}

		e0 := qualityRestEnergy
		cosE := 1 - e0/eg + e0/ei
		d := e0/(eg*eg) - e0/(ei*ei)
		varE := e0*e0/(ei*ei*ei*ei)*dee*dee + d*d*vareg
		if cosE < -1-cosLimit*math.Sqrt(varE) || cosE > 1+cosLimit*math.Sqrt(varE) {
			return Failed, 0
		}

		if i == 1 && q.Origins != nil && !q.originOK(seq) {
			return Failed, 0
		}

		cosA := cosAngle(r3.Sub(seq[i].Position, seq[i-1].Position), r3.Sub(seq[i+1].Position, seq[i].Position))
		pe := positionError(seq[i-1].Position, seq[i].Position, seq[i+1].Position,
			seq[i-1].PositionResolution, seq[i].PositionResolution, seq[i+1].PositionResolution)
		varA := pe * pe
		if !(varA > 0) || !(varE > 0) {
			return Failed, 0
		}

		delta := cosA - cosE
		dts += 2 * math.Abs(delta) * math.Sqrt(varE+varA)
		if q.Kind == MetricSimple {
			ts += delta * delta
		} else {
			ts += delta * delta / (varE + varA)
		}
		terms++
	}
	if terms == 0 {
		return Failed, 0
	}
	ts /= float64(terms)
	dts /= float64(terms)

	if q.Kind == MetricChiSquare {
		if !(ts > 0) || !(dts > 0) {
			return Failed, 0
		}
		ts += energyTerm(seq, incident)
		ts += q.leverArmTerm(seq)
	}

	if math.IsNaN(ts) || math.IsInf(ts, 0) || ts >= Failed {
		return Failed, 0
	}
	return ts, dts
}

// originOK tests the first scatter of seq against the known origins.
func (q QualityMetric) originOK(seq []ir.Site) bool {
	ee := seq[0].Energy
	var eg float64
	for _, s := range seq[1:] {
		eg += s.Energy
	}
	if !IsKinematicsOK(ee, eg) {
		return false
	}
	return q.Origins.OriginatesFrom(seq[0].Position, seq[1].Position, ComputePhiViaEeEg(ee, eg))
}

// energyTerm is the squared, normalized difference between the summed
// deposits and the expected incident energy.
func energyTerm(seq []ir.Site, incident float64) float64 {
	if !(incident > 0) {
		return 0
	}
	var sum, variance float64
	for _, s := range seq {
		sum += s.Energy
		variance += s.EnergyResolution * s.EnergyResolution
	}
	if !(variance > 0) {
		return 0
	}
	r := sum - incident
	return r * r / variance
}

// leverArmTerm penalizes orderings whose shortest step is below
// MinLeverArm.
func (q QualityMetric) leverArmTerm(seq []ir.Site) float64 {
	if !(q.MinLeverArm > 0) {
		return 0
	}
	shortest := math.Inf(1)
	for i := 1; i < len(seq); i++ {
		shortest = math.Min(shortest, r3.Norm(r3.Sub(seq[i].Position, seq[i-1].Position)))
	}
	if shortest >= q.MinLeverArm {
		return 0
	}
	r := (q.MinLeverArm - shortest) / q.MinLeverArm
	return r * r
}
