package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/ir"
)

// Readout is a readout-event file.
type Readout struct {
	Events []EventSpec `yaml:"events"`
}

// EventSpec is the measured content of one readout event.
type EventSpec struct {
	ID             string     `yaml:"id"`
	IncidentEnergy float64    `yaml:"incident_energy,omitempty"`
	Sites          []SiteSpec `yaml:"sites"`
}

// SiteSpec is one measured interaction site.
type SiteSpec struct {
	Position           Vec     `yaml:"position"`
	PositionResolution *Vec    `yaml:"position_resolution,omitempty"`
	Energy             float64 `yaml:"energy"`
	EnergyResolution   float64 `yaml:"energy_resolution,omitempty"`
	Detector           string  `yaml:"detector"`
	Kind               string  `yaml:"kind,omitempty"`
	ElectronDirection  Vec     `yaml:"electron_direction,omitempty"`
	Record             int64   `yaml:"record,omitempty"`
}

// Resolution is the measurement resolution given to sites that do not
// state their own.
type Resolution struct {
	Position Vec     `json:"position" koanf:"position"`
	Energy   float64 `json:"energy" koanf:"energy"`
}

// DefaultResolution is a germanium strip detector: 1 mm and 2 keV.
var DefaultResolution = Resolution{Position: Vec{0.1, 0.1, 0.1}, Energy: 2}

// LoadReadout reads and validates a readout file.
func LoadReadout(path string) (*Readout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read readout file: %w", err)
	}
	r, err := DecodeReadout(bytes.NewReader(data))
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	return r, nil
}

// DecodeReadout parses and validates a readout document.
func DecodeReadout(r io.Reader) (*Readout, error) {
	var out Readout
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for i, ev := range out.Events {
		if _, err := ev.Event(DefaultResolution); err != nil {
			return nil, formatErrorf(fmt.Sprintf("events[%d]", i), "%v", err)
		}
	}
	return &out, nil
}

// Convert converts every event, filling missing resolutions from res.
// Events without an id are named by their position in the file.
func (r *Readout) Convert(res Resolution) ([]csr.Event, error) {
	out := make([]csr.Event, 0, len(r.Events))
	for i, spec := range r.Events {
		ev, err := spec.Event(res)
		if err != nil {
			return nil, formatErrorf(fmt.Sprintf("events[%d]", i), "%v", err)
		}
		if ev.ID == "" {
			ev.ID = fmt.Sprintf("event-%d", i+1)
		}
		out = append(out, ev)
	}
	return out, nil
}

// Event converts the spec into a search input.
func (e EventSpec) Event(res Resolution) (csr.Event, error) {
	ev := csr.Event{ID: e.ID, IncidentEnergy: e.IncidentEnergy}
	for i, s := range e.Sites {
		site, err := s.site(res)
		if err != nil {
			return csr.Event{}, fmt.Errorf("sites[%d]: %w", i, err)
		}
		ev.Sites = append(ev.Sites, site)
	}
	return ev, nil
}

func (s SiteSpec) site(res Resolution) (ir.Site, error) {
	det, err := ir.ParseDetectorType(s.Detector)
	if err != nil {
		return ir.Site{}, err
	}
	kind, ok := ir.ParseSiteKind(s.Kind)
	if !ok {
		return ir.Site{}, fmt.Errorf("unknown site kind %q", s.Kind)
	}
	if !(s.Energy > 0) {
		return ir.Site{}, fmt.Errorf("energy must be positive, got %g", s.Energy)
	}
	posRes := res.Position
	if s.PositionResolution != nil {
		posRes = *s.PositionResolution
	}
	energyRes := s.EnergyResolution
	if energyRes == 0 {
		energyRes = res.Energy
	}
	return ir.Site{
		Position:           s.Position.R3(),
		PositionResolution: posRes.R3(),
		Energy:             s.Energy,
		EnergyResolution:   energyRes,
		Detector:           det,
		Kind:               kind,
		ElectronDirection:  s.ElectronDirection.R3(),
		RecordID:           s.Record,
	}, nil
}

// SitesFromRecords turns the measurable interactions of a simulated event
// into readout sites: Compton recoils and photo absorptions with a
// detector. The site energy is the electron's energy, or the local
// deposit when the electron stayed below threshold.
func SitesFromRecords(records []ir.InteractionRecord, res Resolution) []ir.Site {
	var out []ir.Site
	for _, r := range records {
		if r.DetectorType == ir.DetectorNone {
			continue
		}
		if r.Category != ir.CategoryCompton && r.Category != ir.CategoryPhoto {
			continue
		}
		energy := r.Deposit
		if r.OutType == ir.ParticleElectron && r.OutEnergy > 0 {
			energy = r.OutEnergy
		}
		if !(energy > 0) {
			continue
		}
		out = append(out, ir.Site{
			Position:           r.Position,
			PositionResolution: res.Position.R3(),
			Energy:             energy,
			EnergyResolution:   res.Energy,
			Detector:           r.DetectorType,
			Kind:               ir.SiteHit,
			RecordID:           r.ID,
		})
	}
	return out
}
