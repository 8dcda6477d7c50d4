package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/input"
	"github.com/roach88/comptonseq/internal/stream"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "COMPTONSEQ_"

// Config is the run configuration.
type Config struct {
	Decay          DecayConfig          `koanf:"decay"`
	Stream         StreamConfig         `koanf:"stream"`
	Reconstruction ReconstructionConfig `koanf:"reconstruction"`
	Resolution     input.Resolution     `koanf:"resolution"`
	Storage        StorageConfig        `koanf:"storage"`
}

type DecayConfig struct {
	Mode string `koanf:"mode"`

	// TimeConstant is the detector time constant: decays delayed by more
	// than this are separate events.
	TimeConstant float64 `koanf:"time_constant"`
}

type StreamConfig struct {
	StoreIonization     bool            `koanf:"store_ionization"`
	StoreSimulationInfo bool            `koanf:"store_simulation_info"`
	WatchedVolumes      []string        `koanf:"watched_volumes"`
	BlackAbsorbers      []string        `koanf:"black_absorbers"`
	Regions             []stream.Region `koanf:"regions"`
	BuildUpSource       bool            `koanf:"buildup_source"`
	MaxSteps            int             `koanf:"max_steps"`
	MaxStillSteps       int             `koanf:"max_still_steps"`
}

type ReconstructionConfig struct {
	Metric                    string              `koanf:"metric"`
	QualityMin                float64             `koanf:"quality_min"`
	QualityMax                float64             `koanf:"quality_max"`
	MaxInteractions           int                 `koanf:"max_interactions"`
	GuaranteeStartD1          bool                `koanf:"guarantee_start_d1"`
	CreateOnlyPermutations    bool                `koanf:"create_only_permutations"`
	UseComptelTypeEvents      bool                `koanf:"use_comptel_type_events"`
	Undecided                 string              `koanf:"undecided"`
	RejectOneDetectorTypeOnly bool                `koanf:"reject_one_detector_type_only"`
	MinLeverArm               float64             `koanf:"min_lever_arm"`
	KeepCandidates            bool                `koanf:"keep_candidates"`
	SummaryBins               int                 `koanf:"summary_bins"`
	Geometry                  *csr.UniformMedium  `koanf:"geometry"`
	Origins                   *OriginsConfig      `koanf:"origins"`
}

// OriginsConfig lists known point sources.
type OriginsConfig struct {
	Positions []input.Vec `koanf:"positions"`
	Tolerance float64     `koanf:"tolerance"`
}

type StorageConfig struct {
	// Path is the SQLite database; empty disables persistence.
	Path string `koanf:"path"`
}

// defaults are applied for every key no source set.
var defaults = map[string]any{
	"decay.mode":          "normal",
	"decay.time_constant": 1e-6,

	"stream.store_ionization":      false,
	"stream.store_simulation_info": true,
	"stream.buildup_source":        false,
	"stream.max_steps":             stream.DefaultMaxSteps,
	"stream.max_still_steps":       stream.DefaultMaxStillSteps,

	"reconstruction.metric":                        "chi_square",
	"reconstruction.quality_min":                   csr.DefaultQualityMin,
	"reconstruction.quality_max":                   csr.DefaultQualityMax,
	"reconstruction.max_interactions":              csr.DefaultMaxNInteractions,
	"reconstruction.guarantee_start_d1":            false,
	"reconstruction.create_only_permutations":      false,
	"reconstruction.use_comptel_type_events":       true,
	"reconstruction.undecided":                     "ignore",
	"reconstruction.reject_one_detector_type_only": false,
	"reconstruction.min_lever_arm":                 0.0,
	"reconstruction.keep_candidates":               false,
	"reconstruction.summary_bins":                  csr.DefaultSummaryBins,

	"resolution.position": []any{
		input.DefaultResolution.Position[0],
		input.DefaultResolution.Position[1],
		input.DefaultResolution.Position[2],
	},
	"resolution.energy": input.DefaultResolution.Energy,
}

// Load reads the configuration from path, which may be empty, and the
// environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if err := loadEnv(k); err != nil {
		return nil, err
	}
	return finish(k)
}

// FromMap builds a configuration from an already decoded document, such
// as the config block of a harness scenario. The environment is ignored.
func FromMap(raw map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(mapProvider(raw), nil); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return finish(k)
}

// Default returns the configuration with every key at its default.
func Default() *Config {
	cfg, err := FromMap(nil)
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
}

func loadEnv(k *koanf.Koanf) error {
	// Values are parsed as YAML scalars so that numbers and booleans keep
	// their types through schema validation.
	provider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		name = strings.ReplaceAll(name, "__", ".")
		var v any
		if err := yamlv3.Unmarshal([]byte(value), &v); err != nil || v == nil {
			return name, value
		}
		return name, v
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	return nil
}

func finish(k *koanf.Koanf) (*Config, error) {
	for key, v := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("failed to set default %s: %w", key, err)
			}
		}
	}
	if err := validate(k.Raw()); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// mapProvider is a koanf provider over an in-memory document.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: map provider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}
