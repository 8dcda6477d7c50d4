package classify

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comptonseq/internal/ir"
)

func TestClassifyKnownNames(t *testing.T) {
	c := New()
	for name, want := range KnownNames() {
		assert.Equal(t, want, c.Classify(name), name)
	}
}

func TestClassifySpotChecks(t *testing.T) {
	c := New()
	tests := []struct {
		name string
		want ir.Process
	}{
		{"compt", ir.ProcessCompton},
		{"phot", ir.ProcessPhoto},
		{"conv", ir.ProcessPair},
		{"annihil", ir.ProcessAnnihilation},
		{"eBrem", ir.ProcessBrem},
		{"Rayl", ir.ProcessRayleigh},
		{"hadElastic", ir.ProcessElastic},
		{"NeutronInelastic", ir.ProcessInelastic},
		{"nFission", ir.ProcessFission},
		{"nCapture", ir.ProcessCapture},
		{"Decay", ir.ProcessDecay},
		{"RadioactiveDecay", ir.ProcessRadioactiveDecay},
		{"eIoni", ir.ProcessIonization},
		{"msc", ir.ProcessIonization},
		{"Transportation", ir.ProcessTransportation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.name))
		})
	}
}

func TestClassifyUnknownWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := New(WithLogger(logger))

	for i := 0; i < 5; i++ {
		assert.Equal(t, ir.ProcessUncovered, c.Classify("StepLimiter"))
	}
	assert.Equal(t, ir.ProcessUncovered, c.Classify("COMPT"), "lookup is case sensitive")
	assert.Equal(t, ir.ProcessUncovered, c.Classify(""))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "process=StepLimiter"))
	assert.Equal(t, 1, strings.Count(out, "process=COMPT"))
}

func TestResortOrdersByFrequency(t *testing.T) {
	c := New(WithResortInterval(10))

	// "Transportation" is last in the declaration order.
	for i := 0; i < 9; i++ {
		c.Classify("Transportation")
	}
	assert.Equal(t, 0, c.Resorts())

	// The 10th lookup triggers the first re-sort before matching.
	assert.Equal(t, ir.ProcessIonization, c.Classify("eIoni"))
	require.Equal(t, 1, c.Resorts())
	assert.Equal(t, "Transportation", c.Order()[0])

	// The next re-sort comes 100 lookups after the first.
	for i := 0; i < 99; i++ {
		c.Classify("eIoni")
	}
	assert.Equal(t, 1, c.Resorts())
	c.Classify("eIoni")
	assert.Equal(t, 2, c.Resorts())
	assert.Equal(t, "eIoni", c.Order()[0])
}

func TestResortGapGrowsTenfold(t *testing.T) {
	c := New(WithResortInterval(2))

	var at []uint64
	for i := 0; i < 300; i++ {
		before := c.Resorts()
		c.Classify("phot")
		if c.Resorts() > before {
			at = append(at, c.Lookups())
		}
	}
	// Gaps of 2, 20, 200 counted from the previous re-sort.
	assert.Equal(t, []uint64{2, 22, 222}, at)
}

func TestResortIsStableForTies(t *testing.T) {
	c := New(WithResortInterval(1))
	c.Classify("compt")
	order := c.Order()
	// Nothing had been counted before the first re-sort, so the
	// declaration order is preserved.
	assert.Equal(t, "polarLowEnCompt", order[0])
	assert.Equal(t, "compt", order[3])
}

func TestResultIndependentOfOrder(t *testing.T) {
	c := New(WithResortInterval(3))
	names := []string{"phot", "compt", "phot", "eIoni", "phot", "Rayl", "conv", "phot"}
	want := KnownNames()
	for round := 0; round < 50; round++ {
		for _, n := range names {
			require.Equal(t, want[n], c.Classify(n))
		}
	}
	freq := c.Frequencies()
	assert.Equal(t, uint64(200), freq["phot"])
	assert.Equal(t, uint64(50), freq["compt"])
	assert.Equal(t, uint64(400), c.Lookups())
}
