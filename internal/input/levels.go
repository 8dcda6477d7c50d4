package input

import (
	"fmt"

	"github.com/roach88/comptonseq/internal/decay"
	"github.com/roach88/comptonseq/internal/ir"
)

// LevelSpec is one entry of a nuclear level table.
type LevelSpec struct {
	Z          int     `yaml:"z"`
	A          int     `yaml:"a"`
	Energy     float64 `yaml:"energy"`
	Lifetime   float64 `yaml:"lifetime"`
	FloatLevel string  `yaml:"float_level,omitempty"`
}

// LevelTable builds the table stored isotopes are canonicalized with.
func LevelTable(specs []LevelSpec) (*decay.TableLevels, error) {
	levels := decay.NewTableLevels()
	for i, l := range specs {
		where := fmt.Sprintf("levels[%d]", i)
		if l.Z <= 0 || l.A <= 0 {
			return nil, formatErrorf(where, "z and a must be positive")
		}
		if l.Energy < 0 || l.Lifetime < 0 {
			return nil, formatErrorf(where, "energy and lifetime must not be negative")
		}
		variant, err := decay.ParseFloatLevel(l.FloatLevel)
		if err != nil {
			return nil, formatErrorf(where, "%v", err)
		}
		levels.Add(ir.NucleusCode(l.Z, l.A), decay.Level{Energy: l.Energy, Lifetime: l.Lifetime, FloatLevel: variant})
	}
	return levels, nil
}
