package decay

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/roach88/comptonseq/internal/ir"
)

// LifetimeNotFound is the sentinel a level lookup returns when no level
// with the requested energy and float-level variant is tabulated.
const LifetimeNotFound = -1001.0

// GroundStateCutoff is the excitation in keV at or below which a nucleus is
// treated as being in its ground state.
const GroundStateCutoff = 1.0

// FloatLevel labels near-degenerate nuclear levels of the same isotope.
type FloatLevel int

const (
	FloatNone FloatLevel = iota
	FloatX
	FloatY
	FloatZ
	FloatU
	FloatV
	FloatW
	FloatR
	FloatS
	FloatT
	FloatA
	FloatB
	FloatC
	FloatD
	FloatE
)

var floatLevelNames = [...]string{
	"no_Float", "plus_X", "plus_Y", "plus_Z", "plus_U", "plus_V", "plus_W",
	"plus_R", "plus_S", "plus_T", "plus_A", "plus_B", "plus_C", "plus_D", "plus_E",
}

func (f FloatLevel) String() string {
	if f < 0 || int(f) >= len(floatLevelNames) {
		return fmt.Sprintf("float(%d)", int(f))
	}
	return floatLevelNames[f]
}

// ParseFloatLevel resolves a float-level label such as "plus_X".
func ParseFloatLevel(s string) (FloatLevel, error) {
	if s == "" {
		return FloatNone, nil
	}
	for i, n := range floatLevelNames {
		if n == s {
			return FloatLevel(i), nil
		}
	}
	return FloatNone, fmt.Errorf("unknown float level %q", s)
}

// FloatLevelOrder is the order in which variants are tried when resolving
// a lifetime. The first variant that resolves wins.
var FloatLevelOrder = []FloatLevel{
	FloatNone, FloatX, FloatY, FloatZ, FloatU, FloatV, FloatW,
	FloatR, FloatS, FloatT, FloatA, FloatB, FloatC, FloatD, FloatE,
}

// NuclearLevels is the nuclear-level data collaborator.
type NuclearLevels interface {
	// NearestLevelEnergy returns the tabulated level energy of (z, a)
	// closest to excitation, in keV.
	NearestLevelEnergy(z, a int, excitation float64) float64

	// LifeTime returns the lifetime in seconds of the level of (z, a) at
	// energy with the given float-level variant, or LifetimeNotFound.
	LifeTime(z, a int, energy float64, variant FloatLevel) float64
}

// ErrLevelNotResolved is returned by Canonicalize when no float-level
// variant resolves a lifetime.
var ErrLevelNotResolved = errors.New("nuclear level not resolved")

// IsotopeKey is the canonical activation-inventory key of a nucleus.
type IsotopeKey struct {
	Nucleus    ir.ParticleCode `json:"nucleus"`
	Excitation float64         `json:"excitation"`
	FloatLevel FloatLevel      `json:"float_level"`
	Lifetime   float64         `json:"lifetime"`
}

func (k IsotopeKey) String() string {
	return fmt.Sprintf("%s[%g]%s", k.Nucleus, k.Excitation, floatSuffix(k.FloatLevel))
}

func floatSuffix(f FloatLevel) string {
	if f == FloatNone {
		return ""
	}
	return "(" + f.String() + ")"
}

// Canonicalize snaps a nucleus excitation onto a tabulated level and
// resolves its lifetime across FloatLevelOrder.
func Canonicalize(nucleus ir.ParticleCode, excitation float64, levels NuclearLevels) (IsotopeKey, error) {
	if !nucleus.IsNucleus() {
		return IsotopeKey{}, fmt.Errorf("canonicalize %s: not a nucleus", nucleus)
	}
	z, a := nucleus.Z(), nucleus.A()

	energy := 0.0
	if excitation > GroundStateCutoff {
		energy = levels.NearestLevelEnergy(z, a, excitation)
	}

	for _, variant := range FloatLevelOrder {
		lifetime := levels.LifeTime(z, a, energy, variant)
		if lifetime != LifetimeNotFound {
			return IsotopeKey{
				Nucleus:    nucleus,
				Excitation: energy,
				FloatLevel: variant,
				Lifetime:   lifetime,
			}, nil
		}
	}
	return IsotopeKey{}, fmt.Errorf("%s at %g keV: %w", nucleus, energy, ErrLevelNotResolved)
}

// Level is one tabulated nuclear level.
type Level struct {
	Energy     float64
	Lifetime   float64
	FloatLevel FloatLevel
}

// TableLevels is an in-memory NuclearLevels implementation keyed by
// nucleus code. Lookups match energies within Tolerance keV.
//
// Thread-safety: TableLevels is safe for concurrent use.
type TableLevels struct {
	mu        sync.RWMutex
	levels    map[ir.ParticleCode][]Level
	Tolerance float64
}

// NewTableLevels creates an empty level table.
func NewTableLevels() *TableLevels {
	return &TableLevels{
		levels:    make(map[ir.ParticleCode][]Level),
		Tolerance: 1e-3,
	}
}

// Add tabulates a level for a nucleus.
func (t *TableLevels) Add(nucleus ir.ParticleCode, l Level) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ls := append(t.levels[nucleus], l)
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].Energy < ls[j].Energy })
	t.levels[nucleus] = ls
}

// Len returns the number of tabulated levels.
func (t *TableLevels) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, ls := range t.levels {
		n += len(ls)
	}
	return n
}

// NearestLevelEnergy returns the closest tabulated energy. With no levels
// for the nucleus the excitation is returned unchanged.
func (t *TableLevels) NearestLevelEnergy(z, a int, excitation float64) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ls := t.levels[ir.NucleusCode(z, a)]
	if len(ls) == 0 {
		return excitation
	}
	best := ls[0].Energy
	for _, l := range ls[1:] {
		if math.Abs(l.Energy-excitation) < math.Abs(best-excitation) {
			best = l.Energy
		}
	}
	return best
}

// LifeTime implements NuclearLevels.
func (t *TableLevels) LifeTime(z, a int, energy float64, variant FloatLevel) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, l := range t.levels[ir.NucleusCode(z, a)] {
		if l.FloatLevel == variant && math.Abs(l.Energy-energy) <= t.Tolerance {
			return l.Lifetime
		}
	}
	return LifetimeNotFound
}
