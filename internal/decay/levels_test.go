package decay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comptonseq/internal/ir"
)

func cobalt60Levels() *TableLevels {
	levels := NewTableLevels()
	co60 := ir.NucleusCode(27, 60)
	levels.Add(co60, Level{Energy: 0, Lifetime: 2.4e8})
	levels.Add(co60, Level{Energy: 58.59, Lifetime: 902, FloatLevel: FloatX})
	return levels
}

func TestCanonicalizeGroundState(t *testing.T) {
	co60 := ir.NucleusCode(27, 60)
	for _, exc := range []float64{0, 0.3, GroundStateCutoff} {
		key, err := Canonicalize(co60, exc, cobalt60Levels())
		require.NoError(t, err)
		assert.Equal(t, 0.0, key.Excitation, "excitation %v snaps to ground", exc)
		assert.Equal(t, FloatNone, key.FloatLevel)
		assert.Equal(t, 2.4e8, key.Lifetime)
	}
}

func TestCanonicalizeSnapsAndFallsBackAcrossVariants(t *testing.T) {
	co60 := ir.NucleusCode(27, 60)
	key, err := Canonicalize(co60, 58.6031, cobalt60Levels())
	require.NoError(t, err)

	assert.Equal(t, 58.59, key.Excitation)
	assert.Equal(t, FloatX, key.FloatLevel, "no_Float misses, plus_X resolves")
	assert.Equal(t, 902.0, key.Lifetime)
	assert.Equal(t, "Co60[58.59](plus_X)", key.String())
}

func TestCanonicalizeNotResolved(t *testing.T) {
	_, err := Canonicalize(ir.NucleusCode(55, 137), 661.657, NewTableLevels())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLevelNotResolved))
}

func TestCanonicalizeRejectsNonNucleus(t *testing.T) {
	_, err := Canonicalize(ir.ParticleGamma, 0, NewTableLevels())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrLevelNotResolved))
}

// recordingLevels remembers the variants it was asked for.
type recordingLevels struct {
	asked []FloatLevel
}

func (r *recordingLevels) NearestLevelEnergy(z, a int, excitation float64) float64 {
	return excitation
}

func (r *recordingLevels) LifeTime(z, a int, energy float64, variant FloatLevel) float64 {
	r.asked = append(r.asked, variant)
	return LifetimeNotFound
}

func TestCanonicalizeTriesVariantsInOrder(t *testing.T) {
	rec := &recordingLevels{}
	_, err := Canonicalize(ir.NucleusCode(26, 56), 846.8, rec)
	require.ErrorIs(t, err, ErrLevelNotResolved)

	assert.Equal(t, FloatLevelOrder, rec.asked)
	require.Len(t, rec.asked, 15)
	assert.Equal(t, "no_Float", rec.asked[0].String())
	assert.Equal(t, "plus_E", rec.asked[14].String())
}

func TestTableLevelsNearest(t *testing.T) {
	levels := cobalt60Levels()
	assert.Equal(t, 58.59, levels.NearestLevelEnergy(27, 60, 40))
	assert.Equal(t, 0.0, levels.NearestLevelEnergy(27, 60, 20))
	assert.Equal(t, 123.0, levels.NearestLevelEnergy(1, 3, 123), "no levels leaves energy unchanged")
	assert.Equal(t, 2, levels.Len())
}

func TestParseFloatLevel(t *testing.T) {
	f, err := ParseFloatLevel("plus_T")
	require.NoError(t, err)
	assert.Equal(t, FloatT, f)

	f, err = ParseFloatLevel("")
	require.NoError(t, err)
	assert.Equal(t, FloatNone, f)

	_, err = ParseFloatLevel("plus_Q")
	assert.Error(t, err)
}
