package csr

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/roach88/comptonseq/internal/ir"
)

// nearTieTolerance is the relative distance to the best quality within
// which another ordering counts as a near tie.
const nearTieTolerance = 1e-9

// Event is the input of one search: the measured sites of a readout event.
type Event struct {
	ID    string    `json:"id"`
	Sites []ir.Site `json:"sites"`

	// IncidentEnergy is the expected total energy in keV, 0 when unknown.
	IncidentEnergy float64 `json:"incident_energy,omitempty"`
}

// Status is the outcome of a search.
type Status string

const (
	StatusGood     Status = "good"
	StatusRejected Status = "rejected"
)

// EventType is the reconstructed event type.
type EventType string

const (
	EventUnknown EventType = "unknown"
	EventCompton EventType = "compton"
	EventPhoto   EventType = "photo"
)

// Reason explains a rejected event.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonTooManyHits       Reason = "too_many_hits"
	ReasonNoHits            Reason = "no_hits"
	ReasonOneTrackOnly      Reason = "one_track_only"
	ReasonTooFewSites       Reason = "too_few_sites"
	ReasonOneDetectorType   Reason = "one_detector_type"
	ReasonNoGoodCombination Reason = "no_good_combination"
	ReasonQualityWindow     Reason = "quality_window"
	ReasonStartNotD1        Reason = "start_not_d1"
	ReasonElectronDirection Reason = "electron_direction"
	ReasonTwoTracksOnly     Reason = "two_tracks_only"
	ReasonComptelType       Reason = "comptel_type"
	ReasonKinematicsBad     Reason = "kinematics_bad"
	ReasonStartUndecided    Reason = "start_undecided"
	ReasonTrackNotValid     Reason = "track_not_valid"
	ReasonNoHitsInTracker   Reason = "no_hits_in_tracker"
)

// Candidate is one scored ordering of the event's sites.
type Candidate struct {
	Order       []int   `json:"order"`
	Quality     float64 `json:"quality"`
	Uncertainty float64 `json:"uncertainty"`
}

// Result is the outcome of Analyze.
type Result struct {
	EventID string    `json:"event_id"`
	Status  Status    `json:"status"`
	Type    EventType `json:"type"`
	Reason  Reason    `json:"reason,omitempty"`

	// Order lists site indices from first to last interaction.
	Order         []int   `json:"order,omitempty"`
	Quality       float64 `json:"quality"`
	SecondQuality float64 `json:"second_quality"`

	// NCandidates counts orderings with a finite quality.
	NCandidates int `json:"n_candidates"`
	// NearTies counts finite orderings other than the best whose quality
	// is within nearTieTolerance of it.
	NearTies int `json:"near_ties"`

	// Candidates holds every ordering when KeepCandidates or
	// CreateOnlyPermutations is set.
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Good reports whether the event was reconstructed.
func (r Result) Good() bool {
	return r.Status == StatusGood
}

// Sequence returns the sites of ev in the reconstructed order.
func (r Result) Sequence(ev Event) []ir.Site {
	out := make([]ir.Site, 0, len(r.Order))
	for _, idx := range r.Order {
		out = append(out, ev.Sites[idx])
	}
	return out
}

// Engine searches the most probable interaction order of readout events.
//
// Thread-safety: Engine is immutable after New and safe for concurrent use.
type Engine struct {
	settings Settings
	geometry Geometry
	origins  OriginTester
	logger   *slog.Logger
	metric   QualityMetric
}

// New creates an engine. It fails with a *ConfigError when the options can
// never produce a meaningful search.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		settings: DefaultSettings(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	s := e.settings
	switch {
	case s.QualityMin > s.QualityMax:
		return nil, &ConfigError{Code: ErrCodeInvalidWindow,
			Message: fmt.Sprintf("quality window min %g > max %g", s.QualityMin, s.QualityMax)}
	case !s.Metric.valid():
		return nil, &ConfigError{Code: ErrCodeUnknownMetric, Message: fmt.Sprintf("unknown metric %d", int(s.Metric))}
	case !s.Undecided.valid():
		return nil, &ConfigError{Code: ErrCodeUnknownUndecided, Message: fmt.Sprintf("unknown undecided policy %d", int(s.Undecided))}
	case s.MaxNInteractions < 1:
		return nil, &ConfigError{Code: ErrCodeInvalidMaxInteractions,
			Message: fmt.Sprintf("max interactions %d < 1", s.MaxNInteractions)}
	case s.Undecided == UndecidedLargerKleinNishinaTimesPhoto && (e.geometry == nil || !e.geometry.CrossSectionsPresent()):
		return nil, &ConfigError{Code: ErrCodeMissingGeometry,
			Message: "undecided policy larger_klein_nishina_times_photo needs a geometry with cross sections"}
	}

	e.metric = QualityMetric{
		Kind:             s.Metric,
		GuaranteeStartD1: s.GuaranteeStartD1,
		MinLeverArm:      s.MinLeverArm,
		Origins:          e.origins,
	}
	return e, nil
}

// Settings returns the engine configuration.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Metric returns the quality metric the engine ranks with.
func (e *Engine) Metric() QualityMetric {
	return e.metric
}

// Analyze searches the best ordering of ev. Rejections are reported in the
// Result; the only error is cancellation of ctx.
func (e *Engine) Analyze(ctx context.Context, ev Event) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := e.analyze(ctx, ev)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if res.Good() {
		e.logger.Debug("event reconstructed", "event", ev.ID, "type", res.Type, "order", res.Order, "quality", res.Quality)
	} else {
		e.logger.Debug("event rejected", "event", ev.ID, "reason", res.Reason)
	}
	return res, nil
}

func (e *Engine) analyze(ctx context.Context, ev Event) Result {
	s := e.settings
	n := len(ev.Sites)
	res := Result{EventID: ev.ID, Type: EventUnknown, Quality: Failed, SecondQuality: Failed}

	switch {
	case n > s.MaxNInteractions:
		return reject(res, ReasonTooManyHits)
	case n == 0:
		return reject(res, ReasonNoHits)
	case n == 1:
		if ev.Sites[0].IsTrack() {
			return reject(res, ReasonOneTrackOnly)
		}
		// A lone hit has nothing to order. It is tagged as a photo
		// absorption but still fails the search.
		res.Type = EventPhoto
		return reject(res, ReasonTooFewSites)
	}

	if s.RejectOneDetectorTypeOnlyEvents && oneDetectorType(ev.Sites) {
		return reject(res, ReasonOneDetectorType)
	}

	if s.CreateOnlyPermutations {
		res.Status = StatusGood
		for _, order := range permutations(n) {
			res.Candidates = append(res.Candidates, Candidate{Order: order})
		}
		return res
	}

	if n == 2 {
		return e.analyzeDualHit(ev, res)
	}
	return e.search(ctx, ev, res)
}

// search scores every ordering of three or more sites.
func (e *Engine) search(ctx context.Context, ev Event, res Result) Result {
	s := e.settings
	var good []Candidate
	for _, order := range permutations(len(ev.Sites)) {
		if ctx.Err() != nil {
			return reject(res, ReasonNoGoodCombination)
		}
		q, dq := e.metric.score(ev.Sites, order, ev.IncidentEnergy)
		c := Candidate{Order: order, Quality: q, Uncertainty: dq}
		if s.KeepCandidates {
			res.Candidates = append(res.Candidates, c)
		}
		if q < Failed {
			good = append(good, c)
		}
	}
	e.logger.Debug("scored orderings", "event", ev.ID, "finite", len(good), "sites", len(ev.Sites))

	sort.SliceStable(good, func(i, j int) bool { return good[i].Quality < good[j].Quality })
	res.NCandidates = len(good)
	if len(good) == 0 {
		return reject(res, ReasonNoGoodCombination)
	}

	best := good[0]
	res.Order = best.Order
	res.Quality = best.Quality
	if len(good) > 1 {
		res.SecondQuality = good[1].Quality
	}
	limit := nearTieTolerance * math.Max(math.Abs(best.Quality), 1)
	for _, c := range good[1:] {
		if c.Quality-best.Quality <= limit {
			res.NearTies++
		}
	}

	seq := res.Sequence(ev)
	switch {
	case best.Quality < s.QualityMin || best.Quality > s.QualityMax:
		return reject(res, ReasonQualityWindow)
	case s.GuaranteeStartD1 && !seq[0].Detector.StartsSequence():
		return reject(res, ReasonStartNotD1)
	case seq[0].IsTrack() && !ElectronDirectionOK(seq[0].Energy, sumEnergy(seq[1:])):
		return reject(res, ReasonElectronDirection)
	}
	res.Status = StatusGood
	res.Type = EventCompton
	return res
}

func reject(res Result, reason Reason) Result {
	res.Status = StatusRejected
	res.Reason = reason
	return res
}

func oneDetectorType(sites []ir.Site) bool {
	for _, s := range sites[1:] {
		if s.Detector != sites[0].Detector {
			return false
		}
	}
	return true
}

func sumEnergy(sites []ir.Site) float64 {
	var sum float64
	for _, s := range sites {
		sum += s.Energy
	}
	return sum
}
