package decay

import (
	"fmt"
	"math"
)

// DefaultTimeConstant is the detector time constant in seconds below which
// a decay counts as prompt.
const DefaultTimeConstant = 1e-9

// Input is the timing context of one radioactive decay.
type Input struct {
	// TimeDelay is the time between the parent's step and the creation of
	// its earliest secondary, in seconds.
	TimeDelay float64

	// IsPrimaryDecay is set when the decaying track descends directly from
	// one of the run's initial particles.
	IsPrimaryDecay bool

	// IsInitialParticleFromBuildUpSource is set when the decaying track is
	// itself an initial particle of a build-up source.
	IsInitialParticleFromBuildUpSource bool
}

// Decision holds the four disposition flags of a decay.
type Decision struct {
	Keep        bool `json:"keep"`
	Store       bool `json:"store"`
	FutureEvent bool `json:"future_event"`
	DoNotStart  bool `json:"do_not_start"`
}

func (d Decision) String() string {
	return fmt.Sprintf("keep=%t store=%t future_event=%t do_not_start=%t",
		d.Keep, d.Store, d.FutureEvent, d.DoNotStart)
}

// Scheduler applies the decay decision table for one mode and threshold.
// It is immutable and safe for concurrent use.
type Scheduler struct {
	mode      Mode
	threshold float64
}

// NewScheduler validates the configuration and returns a Scheduler.
// The threshold must be a finite, positive time in seconds.
func NewScheduler(mode Mode, threshold float64) (*Scheduler, error) {
	if mode < ModeNormal || mode > ModeActivationDelayedDecay {
		return nil, &ModeError{Value: mode.String()}
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold <= 0 {
		return nil, fmt.Errorf("detector time constant must be positive, got %v", threshold)
	}
	return &Scheduler{mode: mode, threshold: threshold}, nil
}

// Mode returns the configured mode.
func (s *Scheduler) Mode() Mode { return s.mode }

// Threshold returns the configured detector time constant.
func (s *Scheduler) Threshold() float64 { return s.threshold }

// Delayed reports whether a time delay exceeds the threshold. The
// comparison is strict: a delay equal to the threshold is prompt.
func (s *Scheduler) Delayed(timeDelay float64) bool {
	return timeDelay > s.threshold
}

// Decide returns the disposition of one decay.
//
//	Mode                    Condition                          K S F D
//	Normal                  always                             T F F F
//	Ignore                  always                             F F F F
//	BuildUp                 initial build-up source particle   T F F F
//	BuildUp                 else, delayed                      F F T F
//	BuildUp                 else, prompt                       T F F F
//	ActivationBuildUp       delayed                            F T F F
//	ActivationBuildUp       prompt                             T F F F
//	ActivationDelayedDecay  primary decay                      T F F F
//	ActivationDelayedDecay  else, delayed                      F F T F
//	ActivationDelayedDecay  else, prompt                       T F F T
func (s *Scheduler) Decide(in Input) Decision {
	delayed := s.Delayed(in.TimeDelay)

	switch s.mode {
	case ModeIgnore:
		return Decision{}
	case ModeBuildUp:
		if in.IsInitialParticleFromBuildUpSource || !delayed {
			return Decision{Keep: true}
		}
		return Decision{FutureEvent: true}
	case ModeActivationBuildUp:
		if delayed {
			return Decision{Store: true}
		}
		return Decision{Keep: true}
	case ModeActivationDelayedDecay:
		if in.IsPrimaryDecay {
			return Decision{Keep: true}
		}
		if delayed {
			return Decision{FutureEvent: true}
		}
		return Decision{Keep: true, DoNotStart: true}
	default:
		return Decision{Keep: true}
	}
}
