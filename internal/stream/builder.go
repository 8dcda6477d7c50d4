package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/decay"
	"github.com/roach88/comptonseq/internal/ir"
)

// ionizationDepositFloor is the smallest deposit, in keV, for which a
// transportation step is treated as a hidden ionization.
const ionizationDepositFloor = 1e-9

// Classifier maps an engine process name to a process class.
// *classify.Classifier implements it.
type Classifier interface {
	Classify(name string) ir.Process
}

// Builder is the interaction stream builder of one run.
//
// Thread-safety: Builder serializes Step calls via internal mutex. Steps
// of one event must still be fed in causal order by a single caller.
type Builder struct {
	mu sync.Mutex

	cfg        Config
	classifier Classifier
	scheduler  *decay.Scheduler
	levels     decay.NuclearLevels
	session    SessionState
	sink       EventSink
	detector   SensitiveDetector
	ids        *IDCounter
	tracks     *TrackTable
	logger     *slog.Logger

	initial []ir.ParticleCode
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithIDCounter shares an interaction id counter, for example across the
// builders of consecutive runs that must not reuse ids.
func WithIDCounter(ids *IDCounter) Option {
	return func(b *Builder) {
		b.ids = ids
	}
}

// WithSensitiveDetector sets the hit-digitization hook called for steps
// starting in a sensitive volume.
func WithSensitiveDetector(sd SensitiveDetector) Option {
	return func(b *Builder) {
		b.detector = sd
	}
}

// WithNuclearLevels sets the level data used to canonicalize stored
// isotopes. Without it, stores are logged and skipped.
func WithNuclearLevels(levels decay.NuclearLevels) Option {
	return func(b *Builder) {
		b.levels = levels
	}
}

// NewBuilder creates a builder. The classifier, scheduler, session and sink
// are required.
func NewBuilder(cfg Config, classifier Classifier, scheduler *decay.Scheduler, session SessionState, sink EventSink, opts ...Option) (*Builder, error) {
	if classifier == nil || scheduler == nil || session == nil || sink == nil {
		return nil, errors.New("stream: classifier, scheduler, session and sink are required")
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.MaxStillSteps <= 0 {
		cfg.MaxStillSteps = DefaultMaxStillSteps
	}

	b := &Builder{
		cfg:        cfg,
		classifier: classifier,
		scheduler:  scheduler,
		session:    session,
		sink:       sink,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.ids == nil {
		b.ids = NewIDCounter()
	}
	b.tracks = NewTrackTable(cfg.MaxSteps, cfg.MaxStillSteps)
	return b, nil
}

// BeginEvent starts a new event with the given initial particle types.
// Live tracks of the previous event are dropped. The id counter is moved
// past the initial-particle indices so that ids and indices never collide.
func (b *Builder) BeginEvent(initial []ir.ParticleCode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initial = append([]ir.ParticleCode(nil), initial...)
	b.tracks.Clear()
	b.ids.AdvanceTo(int64(len(initial)))
}

// StartPrimary registers the track of the index-th initial particle
// (1-based). Its id and origin are the index.
func (b *Builder) StartPrimary(trackID, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 1 || index > len(b.initial) {
		return &StreamError{
			Code:    ErrCodeBadPrimary,
			Message: fmt.Sprintf("primary index %d outside 1..%d", index, len(b.initial)),
			TrackID: trackID,
		}
	}
	if b.tracks.Has(trackID) {
		return &StreamError{Code: ErrCodeDuplicateTrack, Message: "track already started", TrackID: trackID}
	}
	b.tracks.Insert(trackID, ir.TrackInformation{ID: int64(index), OriginID: int64(index)})
	return nil
}

// EndTrack forgets a finished track.
func (b *Builder) EndTrack(trackID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tracks.Remove(trackID)
}

// TrackInfo returns the current information of a live track.
func (b *Builder) TrackInfo(trackID int) (ir.TrackInformation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tracks.Get(trackID)
}

// LiveTracks returns the ids of tracks that have not ended.
func (b *Builder) LiveTracks() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tracks.IDs()
}

// IDs returns the interaction id counter.
func (b *Builder) IDs() *IDCounter {
	return b.ids
}

// Step classifies one step of a live track and emits its records.
//
// The only error is a step for a track the builder does not know. Every
// physics anomaly is reported in the Outcome.
func (b *Builder) Step(ctx context.Context, step Step) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	row := b.tracks.row(step.TrackID)
	if row == nil {
		return Outcome{}, &StreamError{Code: ErrCodeUnknownTrack, Message: "step for unknown track", TrackID: step.TrackID}
	}

	st := &stepState{
		b:        b,
		step:     &step,
		row:      row,
		assigned: make([]bool, len(step.Secondaries)),
	}
	st.out.Secondaries = make([]SecondaryOutcome, len(step.Secondaries))
	for i, sec := range step.Secondaries {
		st.out.Secondaries[i] = SecondaryOutcome{TrackID: sec.TrackID, GlobalTime: sec.GlobalTime}
	}

	// An aborted event ends every remaining track without classifying the
	// step. Leaving the world is still recorded.
	if ctx.Err() != nil || b.sink.IsAborted() {
		st.kill(KillEventAborted, true)
		st.escape()
		return st.finish(), nil
	}

	if reason := row.guard.Check(step.Post.Position); reason != KillNone {
		st.kill(reason, false)
		switch reason {
		case KillRunaway:
			st.out.Err = &StepsExceededError{TrackID: step.TrackID, Steps: row.guard.Steps(), Limit: b.cfg.MaxSteps}
			b.logger.Error("aborting runaway track", "track", step.TrackID, "error", st.out.Err)
		case KillStuck:
			b.logger.Error("aborting stuck track", "track", step.TrackID, "still_steps", row.guard.Still())
		case KillNonFinite:
			b.logger.Error("aborting track with non-finite position", "track", step.TrackID)
		}
		// The track's remaining energy leaves the event unrecorded.
		b.sink.AddComment(fmt.Sprintf("track %d killed (%s) after %d steps", step.TrackID, reason, row.guard.Steps()))
		if e := step.Post.KineticEnergy; e > 0 && !math.IsInf(e, 0) {
			b.sink.AddEnergyLoss(e)
		}
		return st.finish(), nil
	}

	if step.Process != "" {
		st.classify(b.classifier.Classify(step.Process))
	}
	st.inheritUnassigned()

	st.escape()
	st.watchVolumes()
	st.checkBlackAbsorbers()

	if b.cfg.cutsAllSecondaries(step.Pre.Region) {
		for i := range st.out.Secondaries {
			st.out.Secondaries[i].Terminated = true
		}
	}

	if step.Pre.Sensitive && b.detector != nil && b.detector.PostProcessHits(step) {
		row.info.Digitized = true
		st.out.Digitized = true
	}

	// Passive bookkeeping must see the digitized flag set above.
	if row.info.Digitized {
		row.info.Digitized = false
	} else if step.Deposit != 0 {
		b.sink.AddDepositPassiveMaterial(step.Deposit, step.Pre.Material)
	}

	return st.finish(), nil
}

// stepState is the scratch state of one Step call.
type stepState struct {
	b        *Builder
	step     *Step
	row      *trackEntry
	assigned []bool
	out      Outcome
}

func (st *stepState) kill(reason KillReason, secondaries bool) {
	if st.out.Kill {
		return
	}
	st.out.Kill = true
	st.out.KillReason = reason
	st.out.KillSecondaries = st.out.KillSecondaries || secondaries
}

func (st *stepState) finish() Outcome {
	for i := range st.out.Secondaries {
		if info, ok := st.b.tracks.Get(st.out.Secondaries[i].TrackID); ok {
			st.out.Secondaries[i].Info = info
		}
		if st.out.KillSecondaries {
			st.out.Secondaries[i].Terminated = true
		}
	}
	return st.out
}

// record starts a record attributed to the current track.
func (st *stepState) record(cat ir.Category, id int64, pos r3.Vec) ir.InteractionRecord {
	return ir.InteractionRecord{
		Category:     cat,
		ID:           id,
		OriginID:     st.row.info.OriginID,
		DetectorType: st.step.Pre.Detector,
		Time:         st.step.Post.GlobalTime,
		Position:     pos,
	}
}

// escape records a track leaving the world volume.
func (st *stepState) escape() {
	if st.step.Post.Volume == "" && st.b.cfg.StoreSimulationInfo {
		st.emitBoundary(ir.CategoryEscape, st.step.Pre.Detector, st.step.Post.Position, st.step.Post)
	}
}

func (st *stepState) emit(r ir.InteractionRecord) {
	st.out.Records = append(st.out.Records, r)
	st.b.sink.AddIA(r)
}

// inheritUnassigned gives every secondary the step did not classify the
// parent's information, so that its deposits stay attributed.
func (st *stepState) inheritUnassigned() {
	for i, sec := range st.step.Secondaries {
		if st.assigned[i] || st.b.tracks.Has(sec.TrackID) {
			continue
		}
		st.b.tracks.Insert(sec.TrackID, ir.TrackInformation{ID: st.row.info.ID, OriginID: st.row.info.OriginID})
		st.assigned[i] = true
	}
}
