package csr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/ir"
)

var defaultResolution = r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}

func hit(det ir.DetectorType, energy float64, pos r3.Vec) ir.Site {
	return ir.Site{
		Position:           pos,
		PositionResolution: defaultResolution,
		Energy:             energy,
		EnergyResolution:   2,
		Detector:           det,
		Kind:               ir.SiteHit,
	}
}

// comptonChain is a three-site event whose middle scatter angle has
// cos 0.3 while the energies imply cos 0.3186.
func comptonChain() []ir.Site {
	c := 0.3
	s := math.Sqrt(1 - c*c)
	return []ir.Site{
		hit(ir.DetectorStrip2D, 100, r3.Vec{}),
		hit(ir.DetectorStrip2D, 200, r3.Vec{Z: -5}),
		hit(ir.DetectorCalorimeter, 300, r3.Vec{X: 5 * s, Z: -5 - 5*c}),
	}
}

// ===========================================================================
// Sentinel handling
// ===========================================================================

func TestScoreIdenticalPositionsFail(t *testing.T) {
	sites := []ir.Site{
		hit(ir.DetectorStrip2D, 100, r3.Vec{}),
		hit(ir.DetectorStrip2D, 200, r3.Vec{}),
		hit(ir.DetectorCalorimeter, 300, r3.Vec{X: 3, Z: -9}),
	}
	for _, kind := range []Metric{MetricSimple, MetricSimpleWithErrors, MetricChiSquare} {
		q := QualityMetric{Kind: kind}
		assert.Equal(t, Failed, q.Score(sites, []int{0, 1, 2}, 0), kind.String())
		assert.Equal(t, Failed, q.Score(sites, []int{2, 1, 0}, 0), kind.String())
		assert.Less(t, q.Score(sites, []int{0, 2, 1}, 0), Failed, kind.String())
	}

	two := sites[:2]
	assert.Equal(t, Failed, QualityMetric{}.Score(two, []int{0, 1}, 0))
}

func TestScoreTwoSites(t *testing.T) {
	sites := []ir.Site{
		hit(ir.DetectorStrip2D, 150, r3.Vec{}),
		hit(ir.DetectorCalorimeter, 512, r3.Vec{Z: -5}),
	}
	q := QualityMetric{Kind: MetricChiSquare}
	assert.Equal(t, 0.0, q.Score(sites, []int{0, 1}, 0))
	assert.Equal(t, Failed, q.Score(sites, []int{1, 0}, 0))
	assert.Equal(t, Failed, q.Score(sites, []int{0}, 0))
}

func TestScoreGuaranteeStartD1(t *testing.T) {
	sites := comptonChain()
	q := QualityMetric{Kind: MetricChiSquare, GuaranteeStartD1: true}
	assert.Equal(t, Failed, q.Score(sites, []int{2, 1, 0}, 0))
	assert.Less(t, q.Score(sites, []int{0, 1, 2}, 0), Failed)
}

func TestScoreNoEnergyResolutionFails(t *testing.T) {
	sites := comptonChain()
	for i := range sites {
		sites[i].EnergyResolution = 0
	}
	assert.Equal(t, Failed, QualityMetric{Kind: MetricSimple}.Score(sites, []int{0, 1, 2}, 0))
}

func TestScoreNonPositiveRemainderFails(t *testing.T) {
	sites := comptonChain()
	sites[2].Energy = 0
	assert.Equal(t, Failed, QualityMetric{Kind: MetricChiSquare}.Score(sites, []int{0, 1, 2}, 0))
}

// ===========================================================================
// Ranking
// ===========================================================================

func TestScoreRanksTrueOrderFirst(t *testing.T) {
	sites := comptonChain()
	for _, kind := range []Metric{MetricSimple, MetricSimpleWithErrors, MetricChiSquare} {
		q := QualityMetric{Kind: kind}
		best := q.Score(sites, []int{0, 1, 2}, 0)
		for _, order := range permutations(3) {
			if order[0] == 0 && order[1] == 1 {
				continue
			}
			assert.Less(t, best, q.Score(sites, order, 0), "%s %v", kind, order)
		}
	}

	assert.InDelta(t, 0.000346, QualityMetric{Kind: MetricSimple}.Score(sites, []int{0, 1, 2}, 0), 1e-5)
	assert.InDelta(t, 0.1985, QualityMetric{Kind: MetricChiSquare}.Score(sites, []int{0, 1, 2}, 0), 1e-3)
}

func TestScoreChiSquareOptionalTerms(t *testing.T) {
	sites := comptonChain()
	order := []int{0, 1, 2}
	base := QualityMetric{Kind: MetricChiSquare}.Score(sites, order, 0)

	// Sum is 600 keV with sigma sqrt(12).
	withHint := QualityMetric{Kind: MetricChiSquare}.Score(sites, order, 610)
	assert.InDelta(t, base+100.0/12, withHint, 1e-9)
	assert.InDelta(t, base, QualityMetric{Kind: MetricChiSquare}.Score(sites, order, 600), 1e-9)

	// Shortest step is 5 cm.
	lever := QualityMetric{Kind: MetricChiSquare, MinLeverArm: 10}.Score(sites, order, 0)
	assert.InDelta(t, base+0.25, lever, 1e-9)
	assert.InDelta(t, base, QualityMetric{Kind: MetricChiSquare, MinLeverArm: 2}.Score(sites, order, 0), 1e-12)

	simple := QualityMetric{Kind: MetricSimpleWithErrors}.Score(sites, order, 610)
	assert.InDelta(t, base, simple, 1e-9, "hint only applies to chi square")
}

func TestScoreOrigins(t *testing.T) {
	sites := comptonChain()
	order := []int{0, 1, 2}

	phi := ComputePhiViaEeEg(100, 500)
	// A source on the incoming ray that scatters by phi at site 0 towards
	// site 1 (straight down).
	src := r3.Vec{X: -10 * math.Sin(phi), Z: -10 * math.Cos(phi)}
	src = r3.Scale(-1, src)

	match := QualityMetric{Kind: MetricChiSquare, Origins: PointSources{Positions: []r3.Vec{src}, Tolerance: 0.01}}
	assert.Less(t, match.Score(sites, order, 0), Failed)

	miss := QualityMetric{Kind: MetricChiSquare, Origins: PointSources{Positions: []r3.Vec{{Z: 100}}, Tolerance: 0.01}}
	assert.Equal(t, Failed, miss.Score(sites, order, 0))
}

// ===========================================================================
// Position error
// ===========================================================================

func TestPositionErrorCollinearFallback(t *testing.T) {
	a, b, c := r3.Vec{}, r3.Vec{Z: -5}, r3.Vec{Z: -10}
	got := positionError(a, b, c, defaultResolution, defaultResolution, defaultResolution)
	r := r3.Norm(defaultResolution)
	want := math.Abs(math.Cos(math.Atan(2*r/5) + math.Atan(2*r/5)))
	require.False(t, math.IsNaN(got))
	assert.InDelta(t, want, got, 1e-12)
}

func TestPositionErrorBent(t *testing.T) {
	a, b, c := r3.Vec{}, r3.Vec{Z: -5}, r3.Vec{X: 5, Z: -5}
	got := positionError(a, b, c, defaultResolution, defaultResolution, defaultResolution)
	assert.Greater(t, got, 0.0)
	assert.Equal(t, 1.0, positionError(a, b, c, r3.Vec{}, r3.Vec{}, r3.Vec{}), "no resolution falls back to |cos 0|")
}
