package stream

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultMaxSteps is the runaway guard: a track taking more steps than
	// this is killed.
	DefaultMaxSteps = 10_000_000

	// DefaultMaxStillSteps is the stuck-track guard: a track whose position
	// did not change for more than this many consecutive steps is killed.
	DefaultMaxStillSteps = 1000
)

// StepGuard tracks the liveness counters of one track.
//
// Each track has its own StepGuard. Check is called once per step before
// classification.
type StepGuard struct {
	maxSteps int
	maxStill int

	steps    int
	still    int
	last     r3.Vec
	haveLast bool
}

// NewStepGuard creates a guard with the given limits.
func NewStepGuard(maxSteps, maxStill int) *StepGuard {
	return &StepGuard{maxSteps: maxSteps, maxStill: maxStill}
}

// Check counts one step ending at pos and reports the first guard that
// trips, or KillNone.
func (g *StepGuard) Check(pos r3.Vec) KillReason {
	g.steps++
	if !finite(pos) {
		return KillNonFinite
	}
	if g.steps > g.maxSteps {
		return KillRunaway
	}
	if g.haveLast && pos == g.last {
		g.still++
		if g.still > g.maxStill {
			return KillStuck
		}
	} else {
		g.still = 0
	}
	g.last = pos
	g.haveLast = true
	return KillNone
}

// Steps returns the number of steps counted so far.
func (g *StepGuard) Steps() int {
	return g.steps
}

// Still returns the current run of steps without movement.
func (g *StepGuard) Still() int {
	return g.still
}

func finite(v r3.Vec) bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
