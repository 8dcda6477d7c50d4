package config

import (
	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/decay"
	"github.com/roach88/comptonseq/internal/input"
	"github.com/roach88/comptonseq/internal/stream"
)

// DecayMode returns the configured decay mode.
func (c *Config) DecayMode() (decay.Mode, error) {
	return decay.ParseMode(c.Decay.Mode)
}

// Scheduler builds the decay scheduler of a run.
func (c *Config) Scheduler() (*decay.Scheduler, error) {
	mode, err := c.DecayMode()
	if err != nil {
		return nil, err
	}
	return decay.NewScheduler(mode, c.Decay.TimeConstant)
}

// StreamConfig returns the stream builder configuration.
func (c *Config) StreamConfig() stream.Config {
	s := c.Stream
	return stream.Config{
		StoreIonization:     s.StoreIonization,
		StoreSimulationInfo: s.StoreSimulationInfo,
		WatchedVolumes:      append([]string(nil), s.WatchedVolumes...),
		BlackAbsorbers:      append([]string(nil), s.BlackAbsorbers...),
		Regions:             append([]stream.Region(nil), s.Regions...),
		BuildUpSource:       s.BuildUpSource,
		MaxSteps:            s.MaxSteps,
		MaxStillSteps:       s.MaxStillSteps,
	}
}

// Settings returns the search engine settings.
func (c *Config) Settings() (csr.Settings, error) {
	r := c.Reconstruction
	metric, err := csr.ParseMetric(r.Metric)
	if err != nil {
		return csr.Settings{}, err
	}
	undecided, err := csr.ParseUndecided(r.Undecided)
	if err != nil {
		return csr.Settings{}, err
	}
	return csr.Settings{
		Metric:                          metric,
		QualityMin:                      r.QualityMin,
		QualityMax:                      r.QualityMax,
		MaxNInteractions:                r.MaxInteractions,
		GuaranteeStartD1:                r.GuaranteeStartD1,
		CreateOnlyPermutations:          r.CreateOnlyPermutations,
		UseComptelTypeEvents:            r.UseComptelTypeEvents,
		Undecided:                       undecided,
		RejectOneDetectorTypeOnlyEvents: r.RejectOneDetectorTypeOnly,
		MinLeverArm:                     r.MinLeverArm,
		KeepCandidates:                  r.KeepCandidates,
	}, nil
}

// EngineOptions returns the options that configure a search engine.
func (c *Config) EngineOptions() ([]csr.Option, error) {
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	opts := []csr.Option{csr.WithSettings(settings)}
	if g := c.Reconstruction.Geometry; g != nil {
		opts = append(opts, csr.WithGeometry(*g))
	}
	if o := c.Reconstruction.Origins; o != nil && len(o.Positions) > 0 {
		src := csr.PointSources{Tolerance: o.Tolerance}
		for _, p := range o.Positions {
			src.Positions = append(src.Positions, p.R3())
		}
		opts = append(opts, csr.WithOrigins(src))
	}
	return opts, nil
}

// Engine builds a search engine; extra options are applied last.
func (c *Config) Engine(extra ...csr.Option) (*csr.Engine, error) {
	opts, err := c.EngineOptions()
	if err != nil {
		return nil, err
	}
	return csr.New(append(opts, extra...)...)
}

// Summary creates an empty quality summary over the configured window.
func (c *Config) Summary() *csr.Summary {
	r := c.Reconstruction
	return csr.NewSummary(r.SummaryBins, r.QualityMin, r.QualityMax)
}

// SiteResolution returns the default measurement resolution of sites.
func (c *Config) SiteResolution() input.Resolution {
	return c.Resolution
}
