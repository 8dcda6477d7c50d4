package stream

// Region is a named group of volumes with its own secondary policy.
type Region struct {
	Name              string `koanf:"name" json:"name"`
	CutAllSecondaries bool   `koanf:"cut_all_secondaries" json:"cut_all_secondaries"`
}

// Config holds the run parameters the builder reads once at construction.
type Config struct {
	// StoreIonization emits IONI records for ionization steps and for
	// transportation steps that hide an ionization.
	StoreIonization bool

	// StoreSimulationInfo enables ESCP records.
	StoreSimulationInfo bool

	WatchedVolumes []string
	BlackAbsorbers []string
	Regions        []Region

	// BuildUpSource marks the run's initial particles as a build-up source.
	BuildUpSource bool

	MaxSteps      int
	MaxStillSteps int
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		StoreSimulationInfo: true,
		MaxSteps:            DefaultMaxSteps,
		MaxStillSteps:       DefaultMaxStillSteps,
	}
}

func (c Config) cutsAllSecondaries(region string) bool {
	if region == "" {
		return false
	}
	for _, r := range c.Regions {
		if r.Name == region && r.CutAllSecondaries {
			return true
		}
	}
	return false
}
