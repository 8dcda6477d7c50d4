package stream

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/ir"
)

// VolumeRef names one level of a touchable history.
type VolumeRef struct {
	Physical string `yaml:"physical" json:"physical"`
	Logical  string `yaml:"logical" json:"logical"`
}

// StepPoint is the state of a track at one end of a step.
type StepPoint struct {
	Position      r3.Vec  `json:"position"`
	GlobalTime    float64 `json:"global_time"`
	Direction     r3.Vec  `json:"direction"`
	Polarization  r3.Vec  `json:"polarization"`
	KineticEnergy float64 `json:"kinetic_energy"`

	// Volume is the physical volume the point lies in. Empty means the
	// point is outside the world.
	Volume string `json:"volume"`

	// Touchables is the touchable history, innermost volume first.
	Touchables []VolumeRef     `json:"touchables,omitempty"`
	Detector   ir.DetectorType `json:"detector"`
	Region     string          `json:"region,omitempty"`
	Material   string          `json:"material,omitempty"`
	Sensitive  bool            `json:"sensitive,omitempty"`
}

// InnermostLogical returns the logical name of the innermost touchable, or
// the empty string when the history is empty.
func (p StepPoint) InnermostLogical() string {
	if len(p.Touchables) == 0 {
		return ""
	}
	return p.Touchables[0].Logical
}

// Secondary is a particle spawned during a step.
type Secondary struct {
	TrackID       int             `json:"track_id"`
	Particle      ir.ParticleCode `json:"particle"`
	Position      r3.Vec          `json:"position"`
	Direction     r3.Vec          `json:"direction"`
	Polarization  r3.Vec          `json:"polarization"`
	KineticEnergy float64         `json:"kinetic_energy"`
	GlobalTime    float64         `json:"global_time"`
}

// Step is one transport step of one track.
type Step struct {
	TrackID  int             `json:"track_id"`
	Particle ir.ParticleCode `json:"particle"`

	// Excitation is the excitation energy of a nucleus track, in keV.
	Excitation float64 `json:"excitation,omitempty"`

	// Process is the engine's name for the process that limited the step.
	// Empty when no process defined the step.
	Process string    `json:"process"`
	Pre     StepPoint `json:"pre"`
	Post    StepPoint `json:"post"`

	// Deposit is the total energy deposited along the step.
	Deposit float64 `json:"deposit"`

	// Secondaries are the particles generated during this step only.
	Secondaries []Secondary `json:"secondaries,omitempty"`
}

// KillReason explains why a track was terminated.
type KillReason int

const (
	KillNone KillReason = iota
	KillEventAborted
	KillNonFinite
	KillStuck
	KillRunaway
	KillBlackAbsorber
	KillDecayDiscarded
)

var killReasonNames = [...]string{
	KillNone:           "none",
	KillEventAborted:   "event_aborted",
	KillNonFinite:      "non_finite_position",
	KillStuck:          "stuck",
	KillRunaway:        "runaway",
	KillBlackAbsorber:  "black_absorber",
	KillDecayDiscarded: "decay_discarded",
}

func (k KillReason) String() string {
	if k < 0 || int(k) >= len(killReasonNames) {
		return "unknown"
	}
	return killReasonNames[k]
}

// MarshalText encodes the reason by name.
func (k KillReason) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SecondaryOutcome reports what happened to one secondary of a step.
type SecondaryOutcome struct {
	TrackID int                 `json:"track_id"`
	Info    ir.TrackInformation `json:"info"`

	// Terminated secondaries must not be transported further.
	Terminated bool `json:"terminated,omitempty"`

	// GlobalTime is the secondary's time after any decay-mode reset.
	GlobalTime float64 `json:"global_time"`
	TimeReset  bool    `json:"time_reset,omitempty"`
}

// Outcome is everything the builder decided for one step.
type Outcome struct {
	// Records are the records emitted this step, in emission order.
	Records []ir.InteractionRecord `json:"records"`

	Kill            bool       `json:"kill,omitempty"`
	KillReason      KillReason `json:"kill_reason,omitempty"`
	KillSecondaries bool       `json:"kill_secondaries,omitempty"`

	// Err carries guard diagnostics such as StepsExceededError.
	Err error `json:"-"`

	// Secondaries lists every secondary of the step in input order.
	Secondaries []SecondaryOutcome `json:"secondaries,omitempty"`

	// Digitized is true when a sensitive detector consumed the deposit.
	Digitized bool `json:"digitized,omitempty"`
}

// Terminated returns the track ids of secondaries that must not propagate.
func (o Outcome) Terminated() []int {
	var out []int
	for _, s := range o.Secondaries {
		if s.Terminated || o.KillSecondaries {
			out = append(out, s.TrackID)
		}
	}
	return out
}

// TimeResets returns the track ids of secondaries whose time was reset.
func (o Outcome) TimeResets() []int {
	var out []int
	for _, s := range o.Secondaries {
		if s.TimeReset {
			out = append(out, s.TrackID)
		}
	}
	return out
}
