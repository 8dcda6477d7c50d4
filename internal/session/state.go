package session

import (
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/decay"
	"github.com/roach88/comptonseq/internal/ir"
)

// FutureEvent is a synthetic event scheduled by a delayed decay.
type FutureEvent struct {
	// Offset is the position offset of the injected event; decays always
	// schedule at the nucleus position, so it is zero.
	Offset       float64         `json:"offset"`
	Position     r3.Vec          `json:"position"`
	MomentumPre  r3.Vec          `json:"momentum_pre"`
	MomentumPost r3.Vec          `json:"momentum_post"`
	GlobalTime   float64         `json:"global_time"`
	Species      ir.ParticleCode `json:"species"`
	Volume       string          `json:"volume"`
}

// IsotopeEntry is one activation-inventory bucket.
type IsotopeEntry struct {
	Key    decay.IsotopeKey `json:"key"`
	Volume string           `json:"volume"`
	Count  int              `json:"count"`
}

// SkipEntry counts pending skips for one (species, volume) pair.
type SkipEntry struct {
	Species ir.ParticleCode `json:"species"`
	Volume  string          `json:"volume"`
	Count   int             `json:"count"`
}

type isotopeKey struct {
	key    decay.IsotopeKey
	volume string
}

type skipKey struct {
	species ir.ParticleCode
	volume  string
}

// State is the run-level session state.
//
// Thread-safety: State is safe for concurrent use via internal mutex.
type State struct {
	mu sync.Mutex

	runID        string
	futureEvents []FutureEvent
	isotopes     map[isotopeKey]int
	skips        map[skipKey]int
}

// NewState creates an empty session for a run.
func NewState(runID string) *State {
	return &State{
		runID:    runID,
		isotopes: make(map[isotopeKey]int),
		skips:    make(map[skipKey]int),
	}
}

// RunID returns the run this session belongs to.
func (s *State) RunID() string {
	return s.runID
}

// AddIsotope adds one nucleus to the activation inventory of a volume.
func (s *State) AddIsotope(key decay.IsotopeKey, volume string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isotopes[isotopeKey{key: key, volume: norm.NFC.String(volume)}]++
}

// AddToBuildUpEventList appends a synthetic future event.
func (s *State) AddToBuildUpEventList(ev FutureEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.Volume = norm.NFC.String(ev.Volume)
	s.futureEvents = append(s.futureEvents, ev)
}

// SkipOneEvent marks that the next event of species started in volume must
// be skipped.
func (s *State) SkipOneEvent(species ir.ParticleCode, volume string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skips[skipKey{species: species, volume: norm.NFC.String(volume)}]++
}

// ConsumeSkip reports whether an event of species in volume should be
// skipped, and if so uses up one pending skip.
func (s *State) ConsumeSkip(species ir.ParticleCode, volume string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := skipKey{species: species, volume: norm.NFC.String(volume)}
	if s.skips[k] == 0 {
		return false
	}
	s.skips[k]--
	if s.skips[k] == 0 {
		delete(s.skips, k)
	}
	return true
}

// FutureEvents returns a copy of the future-event list in insertion order.
func (s *State) FutureEvents() []FutureEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FutureEvent(nil), s.futureEvents...)
}

// Isotopes returns the inventory sorted by volume, nucleus and excitation.
func (s *State) Isotopes() []IsotopeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]IsotopeEntry, 0, len(s.isotopes))
	for k, n := range s.isotopes {
		out = append(out, IsotopeEntry{Key: k.key, Volume: k.volume, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Volume != b.Volume {
			return a.Volume < b.Volume
		}
		if a.Key.Nucleus != b.Key.Nucleus {
			return a.Key.Nucleus < b.Key.Nucleus
		}
		if a.Key.Excitation != b.Key.Excitation {
			return a.Key.Excitation < b.Key.Excitation
		}
		return a.Key.FloatLevel < b.Key.FloatLevel
	})
	return out
}

// Skips returns the pending skips sorted by volume and species.
func (s *State) Skips() []SkipEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SkipEntry, 0, len(s.skips))
	for k, n := range s.skips {
		out = append(out, SkipEntry{Species: k.species, Volume: k.volume, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Volume != out[j].Volume {
			return out[i].Volume < out[j].Volume
		}
		return out[i].Species < out[j].Species
	})
	return out
}

// Counts summarizes the session.
type Counts struct {
	FutureEvents int `json:"future_events"`
	Isotopes     int `json:"isotopes"`
	Skips        int `json:"skips"`
}

// Counts returns the number of future events, stored nuclei and pending
// skips.
func (s *State) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Counts{FutureEvents: len(s.futureEvents)}
	for _, n := range s.isotopes {
		c.Isotopes += n
	}
	for _, n := range s.skips {
		c.Skips += n
	}
	return c
}

// TruncateVolumeName strips the three-character logical-volume suffix
// (such as "Log") from a volume name. Shorter names become empty.
func TruncateVolumeName(name string) string {
	r := []rune(name)
	if len(r) <= 3 {
		return ""
	}
	return string(r[:len(r)-3])
}
