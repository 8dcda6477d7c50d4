package csr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKinematicsOK(t *testing.T) {
	assert.True(t, IsKinematicsOK(150, 512), "forward order of a 662 keV scatter")
	assert.False(t, IsKinematicsOK(512, 150), "reverse order implies cos(phi) < -1")
	assert.True(t, IsKinematicsOK(200, 250))
	assert.True(t, IsKinematicsOK(250, 200))

	assert.False(t, IsKinematicsOK(0, 500))
	assert.False(t, IsKinematicsOK(100, -1))
	assert.False(t, IsKinematicsOK(math.NaN(), 100))
}

func TestComputePhiViaEeEg(t *testing.T) {
	want := math.Acos(1 - ElectronRestEnergy*(1/512.0-1/662.0))
	assert.InDelta(t, want, ComputePhiViaEeEg(150, 512), 1e-12)
	assert.InDelta(t, 0.7741, math.Cos(ComputePhiViaEeEg(150, 512)), 1e-3)

	assert.Equal(t, math.Pi, ComputePhiViaEeEg(512, 150), "clamped to -1")
}

func TestElectronAngles(t *testing.T) {
	eps := EpsilonViaEnergies(150, 512)
	assert.InDelta(t, math.Acos(0.6339), eps, 1e-3)
	assert.Less(t, eps, math.Pi/2)

	theta := ThetaViaEnergies(150, 512)
	assert.False(t, math.IsNaN(theta))
	assert.True(t, math.IsNaN(EpsilonViaEnergies(0, 100)))
	assert.True(t, math.IsNaN(ThetaViaEnergies(100, 0)))
}

func TestElectronDirectionOK(t *testing.T) {
	assert.True(t, ElectronDirectionOK(150, 512))
	assert.True(t, ElectronDirectionOK(100, 500))
	assert.False(t, ElectronDirectionOK(500, 100), "no photon angle")
	assert.False(t, ElectronDirectionOK(0, 100))
}

func TestKleinNishinaDomain(t *testing.T) {
	assert.Equal(t, 0.0, KleinNishina(0, 1))
	assert.Equal(t, 0.0, KleinNishina(662, -0.1))
	assert.Equal(t, 0.0, KleinNishina(662, math.Pi+0.1))
	assert.Greater(t, KleinNishina(662, 1), 0.0)
	assert.Equal(t, 0.0, KleinNishinaNormalizedByArea(-5, 1))
}

func TestKleinNishinaNormalizedIntegratesToOne(t *testing.T) {
	for _, ei := range []float64{100, 662, 2000} {
		const n = 20000
		var sum float64
		for i := 0; i < n; i++ {
			phi := (float64(i) + 0.5) * math.Pi / n
			sum += KleinNishinaNormalizedByArea(ei, phi)
		}
		assert.InDelta(t, 1.0, sum*math.Pi/n, 1e-6, "Ei=%v", ei)
	}
}
