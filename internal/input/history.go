package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/stream"
)

// History is a step-history file.
type History struct {
	// Levels is the nuclear level table of the activation modes.
	Levels []LevelSpec `yaml:"levels,omitempty"`

	Events []HistoryEvent `yaml:"events"`
}

// HistoryEvent is the step sequence of one simulated event.
type HistoryEvent struct {
	ID string `yaml:"id"`

	// InitialParticles are the particle names of the event's primaries.
	InitialParticles []string `yaml:"initial_particles"`

	// Primaries map track ids to initial-particle indices (1-based). When
	// empty, track i is primary i for every initial particle.
	Primaries []Primary `yaml:"primaries,omitempty"`

	// AbortAfter aborts the event after this many steps; 0 never aborts.
	AbortAfter int `yaml:"abort_after,omitempty"`

	Steps []StepSpec `yaml:"steps"`
}

// Primary binds a track to an initial particle.
type Primary struct {
	Track int `yaml:"track"`
	Index int `yaml:"index"`
}

// StepSpec is one transport step.
type StepSpec struct {
	Track       int             `yaml:"track"`
	Particle    string          `yaml:"particle"`
	Excitation  float64         `yaml:"excitation,omitempty"`
	Process     string          `yaml:"process,omitempty"`
	Pre         PointSpec       `yaml:"pre"`
	Post        PointSpec       `yaml:"post"`
	Deposit     float64         `yaml:"deposit,omitempty"`
	Secondaries []SecondarySpec `yaml:"secondaries,omitempty"`

	// End marks the last step of the track.
	End bool `yaml:"end,omitempty"`
}

// PointSpec is one end of a step. An empty volume is outside the world.
type PointSpec struct {
	Position     Vec     `yaml:"position"`
	Time         float64 `yaml:"time,omitempty"`
	Direction    Vec     `yaml:"direction,omitempty"`
	Polarization Vec     `yaml:"polarization,omitempty"`
	Energy       float64 `yaml:"energy,omitempty"`
	Volume       string  `yaml:"volume,omitempty"`

	// Touchables is the touchable history, innermost first. It defaults to
	// the volume with a "Log" logical name.
	Touchables []stream.VolumeRef `yaml:"touchables,omitempty"`

	Detector  string `yaml:"detector,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Material  string `yaml:"material,omitempty"`
	Sensitive bool   `yaml:"sensitive,omitempty"`
}

// SecondarySpec is a particle spawned during a step.
type SecondarySpec struct {
	Track        int     `yaml:"track"`
	Particle     string  `yaml:"particle"`
	Position     Vec     `yaml:"position"`
	Direction    Vec     `yaml:"direction,omitempty"`
	Polarization Vec     `yaml:"polarization,omitempty"`
	Energy       float64 `yaml:"energy,omitempty"`
	Time         float64 `yaml:"time,omitempty"`
}

// LoadHistory reads and validates a history file.
func LoadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	h, err := DecodeHistory(bytes.NewReader(data))
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	return h, nil
}

// DecodeHistory parses and validates a history document.
func DecodeHistory(r io.Reader) (*History, error) {
	var h History
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if _, err := LevelTable(h.Levels); err != nil {
		return nil, err
	}
	for i := range h.Events {
		if err := h.Events[i].Validate(fmt.Sprintf("events[%d]", i)); err != nil {
			return nil, err
		}
	}
	return &h, nil
}

// Validate checks the event; errors are located at where.
func (ev *HistoryEvent) Validate(where string) error {
	if len(ev.InitialParticles) == 0 {
		return formatErrorf(where, "initial_particles is required")
	}
	if _, err := ev.Initial(); err != nil {
		return formatErrorf(where, "%v", err)
	}
	for i, p := range ev.Primaries {
		if p.Index < 1 || p.Index > len(ev.InitialParticles) {
			return formatErrorf(fmt.Sprintf("%s.primaries[%d]", where, i),
				"index %d outside 1..%d", p.Index, len(ev.InitialParticles))
		}
	}
	for i, st := range ev.Steps {
		if _, err := st.Step(); err != nil {
			return formatErrorf(fmt.Sprintf("%s.steps[%d]", where, i), "%v", err)
		}
	}
	return nil
}

// Initial returns the particle codes of the initial particles.
func (ev *HistoryEvent) Initial() ([]ir.ParticleCode, error) {
	out := make([]ir.ParticleCode, len(ev.InitialParticles))
	for i, name := range ev.InitialParticles {
		code, ok := ir.ParseParticleName(name)
		if !ok {
			return nil, fmt.Errorf("unknown particle %q", name)
		}
		out[i] = code
	}
	return out, nil
}

// PrimaryTracks returns the explicit primaries, or the default binding of
// track i to initial particle i.
func (ev *HistoryEvent) PrimaryTracks() []Primary {
	if len(ev.Primaries) > 0 {
		return ev.Primaries
	}
	out := make([]Primary, len(ev.InitialParticles))
	for i := range out {
		out[i] = Primary{Track: i + 1, Index: i + 1}
	}
	return out
}

// Step converts the spec into a builder step.
func (s StepSpec) Step() (stream.Step, error) {
	if s.Track <= 0 {
		return stream.Step{}, errors.New("track must be positive")
	}
	particle, ok := ir.ParseParticleName(s.Particle)
	if !ok {
		return stream.Step{}, fmt.Errorf("unknown particle %q", s.Particle)
	}
	pre, err := s.Pre.point()
	if err != nil {
		return stream.Step{}, fmt.Errorf("pre: %w", err)
	}
	post, err := s.Post.point()
	if err != nil {
		return stream.Step{}, fmt.Errorf("post: %w", err)
	}

	step := stream.Step{
		TrackID:    s.Track,
		Particle:   particle,
		Excitation: s.Excitation,
		Process:    s.Process,
		Pre:        pre,
		Post:       post,
		Deposit:    s.Deposit,
	}
	for i, sec := range s.Secondaries {
		code, ok := ir.ParseParticleName(sec.Particle)
		if !ok {
			return stream.Step{}, fmt.Errorf("secondaries[%d]: unknown particle %q", i, sec.Particle)
		}
		if sec.Track <= 0 {
			return stream.Step{}, fmt.Errorf("secondaries[%d]: track must be positive", i)
		}
		step.Secondaries = append(step.Secondaries, stream.Secondary{
			TrackID:       sec.Track,
			Particle:      code,
			Position:      sec.Position.R3(),
			Direction:     sec.Direction.R3(),
			Polarization:  sec.Polarization.R3(),
			KineticEnergy: sec.Energy,
			GlobalTime:    sec.Time,
		})
	}
	return step, nil
}

func (p PointSpec) point() (stream.StepPoint, error) {
	det := ir.DetectorNone
	if p.Detector != "" {
		d, err := ir.ParseDetectorType(p.Detector)
		if err != nil {
			return stream.StepPoint{}, err
		}
		det = d
	}
	touchables := p.Touchables
	if len(touchables) == 0 && p.Volume != "" {
		touchables = []stream.VolumeRef{{Physical: p.Volume, Logical: p.Volume + "Log"}}
	}
	return stream.StepPoint{
		Position:      p.Position.R3(),
		GlobalTime:    p.Time,
		Direction:     p.Direction.R3(),
		Polarization:  p.Polarization.R3(),
		KineticEnergy: p.Energy,
		Volume:        p.Volume,
		Touchables:    touchables,
		Detector:      det,
		Region:        p.Region,
		Material:      p.Material,
		Sensitive:     p.Sensitive,
	}, nil
}
