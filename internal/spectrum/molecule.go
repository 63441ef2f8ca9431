// Package spectrum convolves per-element marginal distributions into the
// isotopic fine structure of a whole molecule. Peaks are produced either
// above a probability threshold or as a minimal set covering a requested
// total probability; in both cases the per-element work is delegated to the
// marginal enumerators and the cross-element product is pruned with
// mode-derived bounds.
package spectrum

import (
	"fmt"

	"github.com/rawblock/isospec-engine/internal/elements"
	"github.com/rawblock/isospec-engine/internal/formula"
	"github.com/rawblock/isospec-engine/internal/marginal"
)

// Molecule is a parsed molecular formula resolved against the isotope table.
type Molecule struct {
	Formula string
	counts  []formula.ElementCount
	elems   []*elements.Element
}

// NewMolecule parses a formula and resolves every symbol.
func NewMolecule(f string) (*Molecule, error) {
	counts, err := formula.Parse(f)
	if err != nil {
		return nil, err
	}
	mol := &Molecule{Formula: f, counts: counts}
	for _, ec := range counts {
		e, ok := elements.Lookup(ec.Symbol)
		if !ok {
			return nil, fmt.Errorf("spectrum: unknown element %q in %q", ec.Symbol, f)
		}
		mol.elems = append(mol.elems, e)
	}
	return mol, nil
}

// ElementCounts returns the parsed composition.
func (m *Molecule) ElementCounts() []formula.ElementCount {
	return append([]formula.ElementCount(nil), m.counts...)
}

// MonoisotopicMass is the mass with every atom on its most abundant isotope.
func (m *Molecule) MonoisotopicMass() float64 {
	mass := 0.0
	for i, ec := range m.counts {
		mass += float64(ec.Count) * m.elems[i].MonoisotopicMass()
	}
	return mass
}

// AvgMass is the abundance-weighted expected mass of the molecule.
func (m *Molecule) AvgMass() float64 {
	mass := 0.0
	for i, ec := range m.counts {
		atomAvg := 0.0
		for _, iso := range m.elems[i].Isotopes {
			atomAvg += iso.Abundance * iso.Mass
		}
		mass += float64(ec.Count) * atomAvg
	}
	return mass
}

// marginals builds one fresh base marginal per element, reusing the table's
// precomputed log-abundances so repeated builds are bit-identical.
func (m *Molecule) marginals() ([]*marginal.Marginal, error) {
	out := make([]*marginal.Marginal, len(m.counts))
	for i, ec := range m.counts {
		e := m.elems[i]
		mg, err := marginal.NewWithLogProbs(e.Masses(), e.Abundances(), e.LogAbundances(), ec.Count)
		if err != nil {
			return nil, fmt.Errorf("spectrum: element %s x%d: %w", ec.Symbol, ec.Count, err)
		}
		out[i] = mg
	}
	return out, nil
}
