package stream

import (
	"sync"

	"github.com/roach88/comptonseq/internal/decay"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/session"
)

// EventSink receives the records and bookkeeping of the current event.
type EventSink interface {
	AddIA(r ir.InteractionRecord)
	AddDepositPassiveMaterial(energy float64, material string)
	AddComment(text string)
	AddEnergyLoss(energy float64)
	IsAborted() bool
}

// SensitiveDetector digitizes the deposit of a step in an instrumented
// volume. It reports whether a hit was produced.
type SensitiveDetector interface {
	PostProcessHits(step Step) bool
}

// SessionState is the run-level state the decay handling writes to.
// *session.State implements it.
type SessionState interface {
	AddIsotope(key decay.IsotopeKey, volume string)
	AddToBuildUpEventList(ev session.FutureEvent)
	SkipOneEvent(species ir.ParticleCode, volume string)
}

var _ SessionState = (*session.State)(nil)

// Collector is an in-memory EventSink.
//
// Thread-safety: Collector is safe for concurrent use via internal mutex.
type Collector struct {
	mu sync.Mutex

	records  []ir.InteractionRecord
	passive  map[string]float64
	comments []string
	loss     float64
	aborted  bool
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{passive: make(map[string]float64)}
}

func (c *Collector) AddIA(r ir.InteractionRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

func (c *Collector) AddDepositPassiveMaterial(energy float64, material string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passive[material] += energy
}

func (c *Collector) AddComment(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.comments = append(c.comments, text)
}

func (c *Collector) AddEnergyLoss(energy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loss += energy
}

func (c *Collector) IsAborted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aborted
}

// Abort sets the event-abort flag.
func (c *Collector) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aborted = true
}

// Records returns a copy of the collected records.
func (c *Collector) Records() []ir.InteractionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ir.InteractionRecord(nil), c.records...)
}

// PassiveDeposits returns a copy of the passive-material deposits by
// material name.
func (c *Collector) PassiveDeposits() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]float64, len(c.passive))
	for k, v := range c.passive {
		out[k] = v
	}
	return out
}

// Comments returns a copy of the comments.
func (c *Collector) Comments() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.comments...)
}

// EnergyLoss returns the accumulated energy loss.
func (c *Collector) EnergyLoss() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loss
}

// Reset clears the collector for the next event.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.passive = make(map[string]float64)
	c.comments = nil
	c.loss = 0
	c.aborted = false
}
