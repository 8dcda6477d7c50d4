package classify

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/comptonseq/internal/ir"
)

// DefaultResortInterval is the number of lookups before the first re-sort.
// Each later re-sort waits ten times longer than the gap before it.
const DefaultResortInterval = 1000

// knownProcesses is the fixed name table, grouped by process class.
var knownProcesses = []struct {
	name    string
	process ir.Process
}{
	{"polarLowEnCompt", ir.ProcessCompton},
	{"PenCompton", ir.ProcessCompton},
	{"LowEnCompton", ir.ProcessCompton},
	{"compt", ir.ProcessCompton},

	{"conv", ir.ProcessPair},
	{"hPairProd", ir.ProcessPair},
	{"PenConversion", ir.ProcessPair},
	{"LowEnConversion", ir.ProcessPair},
	{"LowEnPolarizConversion", ir.ProcessPair},

	{"annihil", ir.ProcessAnnihilation},
	{"PenAnnih", ir.ProcessAnnihilation},

	{"eBrem", ir.ProcessBrem},
	{"hBrems", ir.ProcessBrem},
	{"PenelopeBrem", ir.ProcessBrem},
	{"LowEnBrem", ir.ProcessBrem},

	{"Rayl", ir.ProcessRayleigh},
	{"PenRayleigh", ir.ProcessRayleigh},
	{"LowEnRayleigh", ir.ProcessRayleigh},

	{"LowEnPhotoElec", ir.ProcessPhoto},
	{"PenPhotoElec", ir.ProcessPhoto},
	{"phot", ir.ProcessPhoto},

	{"hadElastic", ir.ProcessElastic},

	{"nFission", ir.ProcessFission},

	{"PhotonInelastic", ir.ProcessInelastic},
	{"NeutronInelastic", ir.ProcessInelastic},
	{"AntiNeutronInelastic", ir.ProcessInelastic},
	{"ProtonInelastic", ir.ProcessInelastic},
	{"AntiProtonInelastic", ir.ProcessInelastic},
	{"PionPlusInelastic", ir.ProcessInelastic},
	{"PionMinusInelastic", ir.ProcessInelastic},
	{"dInelastic", ir.ProcessInelastic},
	{"tInelastic", ir.ProcessInelastic},
	{"KaonZeroLInelastic", ir.ProcessInelastic},
	{"KaonZeroSInelastic", ir.ProcessInelastic},
	{"KaonPlusInelastic", ir.ProcessInelastic},
	{"KaonMinusInelastic", ir.ProcessInelastic},
	{"LambdaInelastic", ir.ProcessInelastic},
	{"AntiLambdaInelastic", ir.ProcessInelastic},
	{"SigmaMinusInelastic", ir.ProcessInelastic},
	{"SigmaPlusInelastic", ir.ProcessInelastic},
	{"He3Inelastic", ir.ProcessInelastic},
	{"alphaInelastic", ir.ProcessInelastic},
	{"PositronNuclear", ir.ProcessInelastic},
	{"ElectroNuclear", ir.ProcessInelastic},
	{"ionInelastic", ir.ProcessInelastic},

	{"HadronCapture", ir.ProcessCapture},
	{"nCapture", ir.ProcessCapture},
	{"CHIPSNuclearCaptureAtRest", ir.ProcessCapture},
	{"muMinusCaptureAtRest", ir.ProcessCapture},
	{"hBertiniCaptureAtRest", ir.ProcessCapture},

	{"Decay", ir.ProcessDecay},

	{"RadioactiveDecay", ir.ProcessRadioactiveDecay},

	{"LowEnergyIoni", ir.ProcessIonization},
	{"hLowEIoni", ir.ProcessIonization},
	{"ionIoni", ir.ProcessIonization},
	{"eIoni", ir.ProcessIonization},
	{"hIoni", ir.ProcessIonization},
	{"muIoni", ir.ProcessIonization},
	{"muMsc", ir.ProcessIonization},
	{"msc", ir.ProcessIonization},
	{"PenelopeIoni", ir.ProcessIonization},
	{"CoulombScat", ir.ProcessIonization},

	{"Transportation", ir.ProcessTransportation},
}

// KnownNames returns the fixed process name table in declaration order.
func KnownNames() map[string]ir.Process {
	out := make(map[string]ir.Process, len(knownProcesses))
	for _, kp := range knownProcesses {
		out[kp.name] = kp.process
	}
	return out
}

// Classifier resolves process names with a self-tuning linear table.
//
// Thread-safety: Classifier is safe for concurrent use via internal mutex.
// In the stream builder it is called from a single goroutine.
type Classifier struct {
	mu sync.Mutex

	// Parallel arrays, kept jointly sorted by descending frequency.
	names     []string
	processes []ir.Process
	freq      []uint64

	lookups     uint64
	resortEvery uint64 // gap until the next re-sort
	nextResort  uint64 // lookup count that triggers it
	resorts     int

	warned map[string]struct{}
	logger *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for unknown-process warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// WithResortInterval sets the number of lookups before the first re-sort.
func WithResortInterval(n uint64) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.resortEvery = n
		}
	}
}

// New creates a classifier loaded with the known process table.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		names:       make([]string, len(knownProcesses)),
		processes:   make([]ir.Process, len(knownProcesses)),
		freq:        make([]uint64, len(knownProcesses)),
		resortEvery: DefaultResortInterval,
		warned:      make(map[string]struct{}),
		logger:      slog.Default(),
	}
	for i, kp := range knownProcesses {
		c.names[i] = kp.name
		c.processes[i] = kp.process
	}
	for _, opt := range opts {
		opt(c)
	}
	c.nextResort = c.resortEvery
	return c
}

// Classify maps a process name to its process class. Unknown names return
// ir.ProcessUncovered and log one warning per distinct name.
func (c *Classifier) Classify(name string) ir.Process {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++
	if c.lookups == c.nextResort {
		c.resort()
	}

	for i, n := range c.names {
		if n == name {
			c.freq[i]++
			return c.processes[i]
		}
	}

	if _, seen := c.warned[name]; !seen {
		c.warned[name] = struct{}{}
		c.logger.Warn("uncovered process, record will be missing from the stream",
			"process", name)
	}
	return ir.ProcessUncovered
}

// resort reorders the table by descending frequency. Equal frequencies
// keep their relative order. Caller must hold mu.
func (c *Classifier) resort() {
	order := make([]int, len(c.names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return c.freq[order[a]] > c.freq[order[b]]
	})

	names := make([]string, len(order))
	processes := make([]ir.Process, len(order))
	freq := make([]uint64, len(order))
	for i, o := range order {
		names[i] = c.names[o]
		processes[i] = c.processes[o]
		freq[i] = c.freq[o]
	}
	c.names, c.processes, c.freq = names, processes, freq

	c.resortEvery *= 10
	c.nextResort = c.lookups + c.resortEvery
	c.resorts++
	c.logger.Debug("process table resorted",
		"lookups", c.lookups,
		"next_resort", c.nextResort,
		"hottest", c.names[0])
}

// Frequencies returns a snapshot of the per-name hit counters.
func (c *Classifier) Frequencies() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.names))
	for i, n := range c.names {
		out[n] = c.freq[i]
	}
	return out
}

// Order returns the current table order, hottest first.
func (c *Classifier) Order() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

// Lookups returns the total number of Classify calls.
func (c *Classifier) Lookups() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups
}

// Resorts returns how many times the table has been re-sorted.
func (c *Classifier) Resorts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resorts
}
