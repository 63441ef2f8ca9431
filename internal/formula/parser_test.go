package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGlucose(t *testing.T) {
	got, err := Parse("C6H12O6")
	require.NoError(t, err)
	assert.Equal(t, []ElementCount{{"C", 6}, {"H", 12}, {"O", 6}}, got)
}

func TestParseImplicitCounts(t *testing.T) {
	got, err := Parse("CH4")
	require.NoError(t, err)
	assert.Equal(t, []ElementCount{{"C", 1}, {"H", 4}}, got)

	got, err = Parse("H2O")
	require.NoError(t, err)
	assert.Equal(t, []ElementCount{{"H", 2}, {"O", 1}}, got)
}

func TestParseTwoLetterSymbols(t *testing.T) {
	got, err := Parse("C2H3Cl3O2")
	require.NoError(t, err)
	assert.Equal(t, []ElementCount{{"C", 2}, {"H", 3}, {"Cl", 3}, {"O", 2}}, got)
}

func TestParseAccumulatesRepeats(t *testing.T) {
	got, err := Parse("CH3COOH")
	require.NoError(t, err)
	assert.Equal(t, []ElementCount{{"C", 2}, {"H", 4}, {"O", 2}}, got)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "6C", "c6", "C0", "C 6", "C6H12O6!", "(CH3)2"} {
		_, err := Parse(bad)
		assert.Errorf(t, err, "expected %q to be rejected", bad)
	}
}

func TestParseUnknownSymbolIsCallerProblem(t *testing.T) {
	// The parser is lexical only; "X" and "Xx" are well-formed even though
	// no such elements exist. Resolution happens against the isotope table
	// in spectrum.NewMolecule.
	got, err := Parse("C6X2")
	require.NoError(t, err)
	assert.Equal(t, []ElementCount{{"C", 6}, {"X", 2}}, got)

	got, err = Parse("Xx2")
	require.NoError(t, err)
	assert.Equal(t, []ElementCount{{"Xx", 2}}, got)
}
