package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/ir"
)

func TestSequence_StartsAtZero(t *testing.T) {
	s := NewSequence()
	assert.Equal(t, int64(0), s.Current())
	assert.Equal(t, int64(1), s.Next())
	assert.Equal(t, int64(2), s.Next())
	assert.Equal(t, int64(2), s.Current())
}

func TestSequence_Reset(t *testing.T) {
	s := NewSequence()
	s.Next()
	s.Next()
	s.Reset()
	assert.Equal(t, int64(0), s.Current())
	assert.Equal(t, int64(1), s.Next())
}

func TestSequence_ThreadSafe(t *testing.T) {
	s := NewSequence()
	const goroutines, calls = 50, 100

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				v := s.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*calls)
	for i := int64(1); i <= goroutines*calls; i++ {
		assert.True(t, seen[i], "missing value %d", i)
	}
}

func TestFixedRunID(t *testing.T) {
	g := NewFixedRunID("run-42")
	assert.Equal(t, "run-42", g.Generate())
	assert.Equal(t, "run-42", g.Generate())
	assert.Equal(t, DefaultRunID, NewFixedRunID("").Generate())
}

func TestSiteBuilders(t *testing.T) {
	h := Hit(ir.DetectorCalorimeter, 300, 1, 2, 3)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, h.Position)
	assert.Equal(t, PositionResolution, h.PositionResolution)
	assert.False(t, h.IsTrack())

	tr := Track(ir.DetectorStrip2D, 100, r3.Vec{}, r3.Vec{Y: 1})
	assert.True(t, tr.IsTrack())
	assert.Equal(t, r3.Vec{Y: 1}, tr.ElectronDirection)

	ev := ComptonPhoto("e1")
	assert.Equal(t, "e1", ev.ID)
	require.Len(t, ev.Sites, 2)
	assert.Equal(t, 662.0, ev.IncidentEnergy)
}
