package elements

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownElements(t *testing.T) {
	for _, sym := range []string{"H", "C", "N", "O", "S", "Cl", "Br", "Fe"} {
		e, ok := Lookup(sym)
		require.Truef(t, ok, "element %s missing from the table", sym)
		assert.Equal(t, sym, e.Symbol)
		assert.NotEmpty(t, e.Isotopes)
	}
	_, ok := Lookup("Xx")
	assert.False(t, ok)
}

func TestAbundancesSumToOne(t *testing.T) {
	for _, e := range All() {
		sum := 0.0
		for _, iso := range e.Isotopes {
			assert.Greater(t, iso.Abundance, 0.0, "%s abundance must be positive", e.Symbol)
			assert.LessOrEqual(t, iso.Abundance, 1.0)
			sum += iso.Abundance
		}
		assert.InDeltaf(t, 1.0, sum, 1e-4, "%s abundances sum to %v", e.Symbol, sum)
	}
}

func TestIsotopesOrderedByMass(t *testing.T) {
	for _, e := range All() {
		for i := 1; i < len(e.Isotopes); i++ {
			assert.Lessf(t, e.Isotopes[i-1].Mass, e.Isotopes[i].Mass,
				"%s isotopes out of mass order", e.Symbol)
		}
	}
}

func TestLogAbundancesPrecomputed(t *testing.T) {
	for _, e := range All() {
		for _, iso := range e.Isotopes {
			require.False(t, iso.LogAbundance > 0, "log-abundance must be <= 0")
			if iso.Abundance == 1.0 {
				assert.Zero(t, iso.LogAbundance)
				continue
			}
			assert.InDelta(t, math.Log(iso.Abundance), iso.LogAbundance, 1e-12)
			// Upward rounding: never below the libm value.
			assert.GreaterOrEqual(t, iso.LogAbundance, math.Log(iso.Abundance))
		}
	}
}

func TestCarbonMonoisotopic(t *testing.T) {
	c, ok := Lookup("C")
	require.True(t, ok)
	assert.Equal(t, 12.0, c.MonoisotopicMass())
}

func TestSymbolsSortedAndComplete(t *testing.T) {
	syms := Symbols()
	assert.Len(t, syms, 19)
	for i := 1; i < len(syms); i++ {
		assert.Less(t, syms[i-1], syms[i])
	}
}
