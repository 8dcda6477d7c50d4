package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/decay"
	"github.com/roach88/comptonseq/internal/ir"
)

func TestAddIsotopeBuckets(t *testing.T) {
	s := NewState("run-1")
	co60 := decay.IsotopeKey{Nucleus: ir.NucleusCode(27, 60), Lifetime: 2.4e8}
	na22 := decay.IsotopeKey{Nucleus: ir.NucleusCode(11, 22), Lifetime: 1.2e8}

	s.AddIsotope(co60, "Crystal")
	s.AddIsotope(co60, "Crystal")
	s.AddIsotope(na22, "Crystal")
	s.AddIsotope(co60, "Shield")

	got := s.Isotopes()
	require.Len(t, got, 3)
	assert.Equal(t, IsotopeEntry{Key: na22, Volume: "Crystal", Count: 1}, got[0])
	assert.Equal(t, IsotopeEntry{Key: co60, Volume: "Crystal", Count: 2}, got[1])
	assert.Equal(t, IsotopeEntry{Key: co60, Volume: "Shield", Count: 1}, got[2])
	assert.Equal(t, 4, s.Counts().Isotopes)
}

func TestFutureEventsKeepOrder(t *testing.T) {
	s := NewState("run-1")
	s.AddToBuildUpEventList(FutureEvent{GlobalTime: 5, Species: 27060, Volume: "Crystal", Position: r3.Vec{X: 1}})
	s.AddToBuildUpEventList(FutureEvent{GlobalTime: 1, Species: 11022, Volume: "Shield"})

	got := s.FutureEvents()
	require.Len(t, got, 2)
	assert.Equal(t, 5.0, got[0].GlobalTime)
	assert.Equal(t, r3.Vec{X: 1}, got[0].Position)
	assert.Equal(t, "Shield", got[1].Volume)

	got[0].Volume = "mutated"
	assert.Equal(t, "Crystal", s.FutureEvents()[0].Volume, "FutureEvents returns a copy")
}

func TestSkipOneEventConsume(t *testing.T) {
	s := NewState("run-1")
	s.SkipOneEvent(27060, "Crystal")
	s.SkipOneEvent(27060, "Crystal")

	assert.Equal(t, []SkipEntry{{Species: 27060, Volume: "Crystal", Count: 2}}, s.Skips())
	assert.False(t, s.ConsumeSkip(27060, "Shield"))
	assert.True(t, s.ConsumeSkip(27060, "Crystal"))
	assert.True(t, s.ConsumeSkip(27060, "Crystal"))
	assert.False(t, s.ConsumeSkip(27060, "Crystal"))
	assert.Empty(t, s.Skips())
}

func TestVolumeNamesAreNFCNormalized(t *testing.T) {
	s := NewState("run-1")
	s.SkipOneEvent(27060, "Cafe\u0301")
	assert.True(t, s.ConsumeSkip(27060, "Caf\u00e9"))
}

func TestStateConcurrentAppends(t *testing.T) {
	s := NewState("run-1")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.AddToBuildUpEventList(FutureEvent{GlobalTime: float64(j)})
				s.SkipOneEvent(1, "V")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, Counts{FutureEvents: 800, Skips: 800}, s.Counts())
}

func TestTruncateVolumeName(t *testing.T) {
	assert.Equal(t, "Crystal", TruncateVolumeName("CrystalLog"))
	assert.Equal(t, "D", TruncateVolumeName("DLog"))
	assert.Equal(t, "", TruncateVolumeName("Log"))
	assert.Equal(t, "", TruncateVolumeName(""))
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("run-a", "run-b")
	assert.Equal(t, "run-a", g.Generate())
	assert.Equal(t, "run-b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
