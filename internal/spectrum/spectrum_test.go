package spectrum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMolecule(t *testing.T) {
	mol, err := NewMolecule("C6H12O6")
	require.NoError(t, err)
	assert.InDelta(t, 180.063, mol.MonoisotopicMass(), 1e-3)
	assert.InDelta(t, 180.156, mol.AvgMass(), 1e-2)

	// Well-formed formulas with symbols missing from the isotope table are
	// rejected here, one layer above the lexical parser.
	_, err = NewMolecule("C6X2")
	assert.Error(t, err)
	_, err = NewMolecule("C6Xx2")
	assert.Error(t, err)
	_, err = NewMolecule("")
	assert.Error(t, err)
}

func TestWaterFineStructure(t *testing.T) {
	mol, err := NewMolecule("H2O")
	require.NoError(t, err)

	peaks, err := Threshold(mol, 1e-12, true, nil)
	require.NoError(t, err)
	require.NotEmpty(t, peaks)

	// Descending probability, all-light peak first.
	top := peaks[0]
	assert.InDelta(t, 18.0106, top.Mass, 1e-4)
	want := 0.99757 * 0.999885 * 0.999885
	assert.InDelta(t, want, top.Prob, 1e-6)

	var sum float64
	for i, p := range peaks {
		sum += p.Prob
		if i > 0 {
			assert.LessOrEqual(t, p.Prob, peaks[i-1].Prob)
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestThresholdRelativeMode(t *testing.T) {
	mol, err := NewMolecule("C100")
	require.NoError(t, err)

	abs, err := Threshold(mol, 1e-3, true, nil)
	require.NoError(t, err)
	rel, err := Threshold(mol, 1e-3, false, nil)
	require.NoError(t, err)

	// The relative cutoff sits below the absolute one whenever the top peak
	// is below 1, so it keeps at least as many peaks.
	assert.GreaterOrEqual(t, len(rel), len(abs))
	for _, p := range rel {
		assert.GreaterOrEqual(t, p.Prob, 1e-3*rel[0].Prob*0.999999)
	}
}

func TestThresholdRejectsBadInput(t *testing.T) {
	mol, err := NewMolecule("H2O")
	require.NoError(t, err)

	_, err = Threshold(mol, 0, true, nil)
	assert.ErrorIs(t, err, ErrBadThreshold)
	_, err = Threshold(mol, 1.5, true, nil)
	assert.ErrorIs(t, err, ErrBadThreshold)
}

func TestThresholdKeepsConfigurations(t *testing.T) {
	mol, err := NewMolecule("C2H5Br")
	require.NoError(t, err)

	peaks, err := Threshold(mol, 1e-4, true, &Options{KeepConfigurations: true})
	require.NoError(t, err)
	require.NotEmpty(t, peaks)

	counts := mol.ElementCounts()
	for _, p := range peaks {
		require.Len(t, p.Configs, len(counts))
		for e, conf := range p.Configs {
			var sum int32
			for _, c := range conf {
				sum += c
			}
			assert.EqualValues(t, counts[e].Count, sum,
				"element %s configuration must sum to its atom count", counts[e].Symbol)
		}
	}

	// Bromine splits nearly 50/50, so the two top peaks are close.
	assert.InDelta(t, peaks[0].Prob, peaks[1].Prob, 0.05)
}

func TestTotalProbCoverage(t *testing.T) {
	mol, err := NewMolecule("C6H12O6")
	require.NoError(t, err)

	for _, coverage := range []float64{0.5, 0.99, 0.9999} {
		peaks, err := TotalProb(mol, coverage, nil)
		require.NoError(t, err)

		var sum float64
		for i, p := range peaks {
			sum += p.Prob
			if i > 0 {
				assert.LessOrEqual(t, p.Prob, peaks[i-1].Prob)
			}
		}
		assert.GreaterOrEqualf(t, sum, coverage, "coverage %v not reached: %v", coverage, sum)

		// Minimality of the prefix: dropping the last peak must undershoot.
		if len(peaks) > 1 {
			assert.Less(t, sum-peaks[len(peaks)-1].Prob, coverage)
		}
	}
}

func TestTotalProbRejectsBadCoverage(t *testing.T) {
	mol, err := NewMolecule("H2O")
	require.NoError(t, err)

	_, err = TotalProb(mol, 0, nil)
	assert.ErrorIs(t, err, ErrBadCoverage)
	_, err = TotalProb(mol, 1.0, nil)
	assert.ErrorIs(t, err, ErrBadCoverage)
}

func TestSingleIsotopeMolecule(t *testing.T) {
	mol, err := NewMolecule("P4")
	require.NoError(t, err)

	peaks, err := TotalProb(mol, 0.5, nil)
	require.NoError(t, err)
	require.Len(t, peaks, 1)
	assert.Equal(t, 1.0, peaks[0].Prob)
	assert.InDelta(t, 4*30.97376151, peaks[0].Mass, 1e-9)
}

func TestThresholdDeterministic(t *testing.T) {
	build := func() []Peak {
		mol, err := NewMolecule("C20H30N4O8S2")
		require.NoError(t, err)
		peaks, err := Threshold(mol, 1e-6, true, nil)
		require.NoError(t, err)
		return peaks
	}
	a, b := build(), build()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Mass, b[i].Mass)
		assert.Equal(t, a[i].LogProb, b[i].LogProb)
	}
}
