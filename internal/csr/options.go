package csr

import (
	"fmt"
	"log/slog"
	"strings"
)

// Metric selects the quality factor used to rank orderings.
type Metric int

const (
	// MetricSimple sums squared cosine residuals.
	MetricSimple Metric = iota
	// MetricSimpleWithErrors normalizes each residual by its variance.
	MetricSimpleWithErrors
	// MetricChiSquare is MetricSimpleWithErrors plus the energy and lever
	// arm terms.
	MetricChiSquare
)

var metricNames = []string{"simple", "simple_with_errors", "chi_square"}

func (m Metric) String() string {
	if m < 0 || int(m) >= len(metricNames) {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

func (m Metric) valid() bool {
	return m >= MetricSimple && m <= MetricChiSquare
}

// ParseMetric resolves a metric name; matching ignores case, dashes and
// underscores.
func ParseMetric(s string) (Metric, error) {
	key := normalizeName(s)
	for i, name := range metricNames {
		if normalizeName(name) == key {
			return Metric(i), nil
		}
	}
	return 0, &ConfigError{Code: ErrCodeUnknownMetric, Message: fmt.Sprintf("unknown metric %q", s)}
}

// Undecided is the policy for two-site events where both orderings are
// kinematically valid and no track breaks the tie.
type Undecided int

const (
	UndecidedIgnore Undecided = iota
	UndecidedAssumeStartD1
	UndecidedLargerKleinNishina
	UndecidedLargerKleinNishinaTimesPhoto
	UndecidedLargerEnergyDeposit
)

var undecidedNames = []string{
	"ignore",
	"assume_start_d1",
	"larger_klein_nishina",
	"larger_klein_nishina_times_photo",
	"larger_energy_deposit",
}

func (u Undecided) String() string {
	if u < 0 || int(u) >= len(undecidedNames) {
		return fmt.Sprintf("Undecided(%d)", int(u))
	}
	return undecidedNames[u]
}

func (u Undecided) valid() bool {
	return u >= UndecidedIgnore && u <= UndecidedLargerEnergyDeposit
}

// ParseUndecided resolves an undecided-case policy name.
func ParseUndecided(s string) (Undecided, error) {
	key := normalizeName(s)
	for i, name := range undecidedNames {
		if normalizeName(name) == key {
			return Undecided(i), nil
		}
	}
	return 0, &ConfigError{Code: ErrCodeUnknownUndecided, Message: fmt.Sprintf("unknown undecided policy %q", s)}
}

func normalizeName(s string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(r.Replace(s))
}

// Defaults of a new Engine.
const (
	DefaultQualityMin       = 0.0
	DefaultQualityMax       = 1000.0
	DefaultMaxNInteractions = 5
)

// Settings holds the engine configuration. The zero value is not usable;
// start from DefaultSettings.
type Settings struct {
	Metric                          Metric
	QualityMin                      float64
	QualityMax                      float64
	MaxNInteractions                int
	GuaranteeStartD1                bool
	CreateOnlyPermutations          bool
	UseComptelTypeEvents            bool
	Undecided                       Undecided
	RejectOneDetectorTypeOnlyEvents bool

	// MinLeverArm, in cm, enables the ChiSquare lever-arm penalty when
	// positive.
	MinLeverArm float64

	// KeepCandidates makes Analyze return every scored ordering.
	KeepCandidates bool
}

// DefaultSettings returns the settings of an Engine built without options.
func DefaultSettings() Settings {
	return Settings{
		Metric:               MetricChiSquare,
		QualityMin:           DefaultQualityMin,
		QualityMax:           DefaultQualityMax,
		MaxNInteractions:     DefaultMaxNInteractions,
		UseComptelTypeEvents: true,
		Undecided:            UndecidedIgnore,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithSettings replaces all settings at once.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithMetric selects the quality metric.
func WithMetric(m Metric) Option {
	return func(e *Engine) {
		e.settings.Metric = m
	}
}

// WithQualityWindow sets the accepted quality range [min, max].
func WithQualityWindow(min, max float64) Option {
	return func(e *Engine) {
		e.settings.QualityMin = min
		e.settings.QualityMax = max
	}
}

// WithMaxNInteractions bounds the number of sites searched.
func WithMaxNInteractions(n int) Option {
	return func(e *Engine) {
		e.settings.MaxNInteractions = n
	}
}

// WithGuaranteeStartD1 requires sequences to start in a D1 or D5 detector.
func WithGuaranteeStartD1(on bool) Option {
	return func(e *Engine) {
		e.settings.GuaranteeStartD1 = on
	}
}

// WithCreateOnlyPermutations makes Analyze list orderings without scoring.
func WithCreateOnlyPermutations(on bool) Option {
	return func(e *Engine) {
		e.settings.CreateOnlyPermutations = on
	}
}

// WithUseComptelTypeEvents accepts two-site events without a track.
func WithUseComptelTypeEvents(on bool) Option {
	return func(e *Engine) {
		e.settings.UseComptelTypeEvents = on
	}
}

// WithUndecided sets the policy for undecidable two-site events.
func WithUndecided(u Undecided) Option {
	return func(e *Engine) {
		e.settings.Undecided = u
	}
}

// WithRejectOneDetectorTypeOnlyEvents rejects events whose sites all share
// one detector type.
func WithRejectOneDetectorTypeOnlyEvents(on bool) Option {
	return func(e *Engine) {
		e.settings.RejectOneDetectorTypeOnlyEvents = on
	}
}

// WithMinLeverArm enables the ChiSquare lever-arm penalty below l cm.
func WithMinLeverArm(l float64) Option {
	return func(e *Engine) {
		e.settings.MinLeverArm = l
	}
}

// WithKeepCandidates returns every scored ordering in the Result.
func WithKeepCandidates(on bool) Option {
	return func(e *Engine) {
		e.settings.KeepCandidates = on
	}
}

// WithGeometry sets the geometry used by the photo-absorption policy.
func WithGeometry(g Geometry) Option {
	return func(e *Engine) {
		e.geometry = g
	}
}

// WithOrigins restricts the first Compton scatter to known origins.
func WithOrigins(o OriginTester) Option {
	return func(e *Engine) {
		e.origins = o
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}
