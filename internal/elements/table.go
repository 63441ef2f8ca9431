// Package elements carries the isotope table: per-element isotope masses
// and natural abundances, with upward-rounded log-abundances precomputed at
// startup so every marginal built from the table sees bit-identical
// log-probabilities.
//
// Masses are in daltons, abundances from the IUPAC/NIST standard atomic
// weights tables. The set covers the elements routinely seen in small-
// molecule and peptide mass spectrometry.
package elements

import (
	"sort"

	"github.com/rawblock/isospec-engine/internal/marginal"
)

// Isotope is one stable isotope of an element.
type Isotope struct {
	Mass         float64 `json:"mass"`      // Da
	Abundance    float64 `json:"abundance"` // natural abundance in (0, 1]
	LogAbundance float64 `json:"-"`         // upward-rounded log, filled at init
}

// Element is a chemical element with its stable isotopes, ordered by mass.
type Element struct {
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name"`
	Isotopes []Isotope `json:"isotopes"`
}

// Masses returns the isotope masses as a fresh slice.
func (e *Element) Masses() []float64 {
	out := make([]float64, len(e.Isotopes))
	for i, iso := range e.Isotopes {
		out[i] = iso.Mass
	}
	return out
}

// Abundances returns the isotope abundances as a fresh slice.
func (e *Element) Abundances() []float64 {
	out := make([]float64, len(e.Isotopes))
	for i, iso := range e.Isotopes {
		out[i] = iso.Abundance
	}
	return out
}

// LogAbundances returns the precomputed log-abundances as a fresh slice.
func (e *Element) LogAbundances() []float64 {
	out := make([]float64, len(e.Isotopes))
	for i, iso := range e.Isotopes {
		out[i] = iso.LogAbundance
	}
	return out
}

// MonoisotopicMass is the mass of the most abundant isotope.
func (e *Element) MonoisotopicMass() float64 {
	best := 0
	for i, iso := range e.Isotopes {
		if iso.Abundance > e.Isotopes[best].Abundance {
			best = i
		}
	}
	return e.Isotopes[best].Mass
}

var table = map[string]*Element{
	"H": {Symbol: "H", Name: "hydrogen", Isotopes: []Isotope{
		{Mass: 1.0078250319, Abundance: 0.999885},
		{Mass: 2.0141017779, Abundance: 0.000115},
	}},
	"C": {Symbol: "C", Name: "carbon", Isotopes: []Isotope{
		{Mass: 12.0, Abundance: 0.9893},
		{Mass: 13.0033548352, Abundance: 0.0107},
	}},
	"N": {Symbol: "N", Name: "nitrogen", Isotopes: []Isotope{
		{Mass: 14.0030740052, Abundance: 0.99636},
		{Mass: 15.0001088984, Abundance: 0.00364},
	}},
	"O": {Symbol: "O", Name: "oxygen", Isotopes: []Isotope{
		{Mass: 15.9949146221, Abundance: 0.99757},
		{Mass: 16.9991315, Abundance: 0.00038},
		{Mass: 17.9991604, Abundance: 0.00205},
	}},
	"F": {Symbol: "F", Name: "fluorine", Isotopes: []Isotope{
		{Mass: 18.9984032, Abundance: 1.0},
	}},
	"Na": {Symbol: "Na", Name: "sodium", Isotopes: []Isotope{
		{Mass: 22.98976928, Abundance: 1.0},
	}},
	"Mg": {Symbol: "Mg", Name: "magnesium", Isotopes: []Isotope{
		{Mass: 23.9850417, Abundance: 0.7899},
		{Mass: 24.98583692, Abundance: 0.1000},
		{Mass: 25.982592929, Abundance: 0.1101},
	}},
	"Si": {Symbol: "Si", Name: "silicon", Isotopes: []Isotope{
		{Mass: 27.9769265327, Abundance: 0.92223},
		{Mass: 28.97649472, Abundance: 0.04685},
		{Mass: 29.97377022, Abundance: 0.03092},
	}},
	"P": {Symbol: "P", Name: "phosphorus", Isotopes: []Isotope{
		{Mass: 30.97376151, Abundance: 1.0},
	}},
	"S": {Symbol: "S", Name: "sulfur", Isotopes: []Isotope{
		{Mass: 31.97207069, Abundance: 0.9499},
		{Mass: 32.9714585, Abundance: 0.0075},
		{Mass: 33.96786683, Abundance: 0.0425},
		{Mass: 35.96708088, Abundance: 0.0001},
	}},
	"Cl": {Symbol: "Cl", Name: "chlorine", Isotopes: []Isotope{
		{Mass: 34.96885271, Abundance: 0.7576},
		{Mass: 36.9659026, Abundance: 0.2424},
	}},
	"K": {Symbol: "K", Name: "potassium", Isotopes: []Isotope{
		{Mass: 38.9637069, Abundance: 0.932581},
		{Mass: 39.96399867, Abundance: 0.000117},
		{Mass: 40.96182597, Abundance: 0.067302},
	}},
	"Ca": {Symbol: "Ca", Name: "calcium", Isotopes: []Isotope{
		{Mass: 39.9625912, Abundance: 0.96941},
		{Mass: 41.9586183, Abundance: 0.00647},
		{Mass: 42.9587668, Abundance: 0.00135},
		{Mass: 43.9554811, Abundance: 0.02086},
		{Mass: 45.9536928, Abundance: 0.00004},
		{Mass: 47.952534, Abundance: 0.00187},
	}},
	"Fe": {Symbol: "Fe", Name: "iron", Isotopes: []Isotope{
		{Mass: 53.9396148, Abundance: 0.05845},
		{Mass: 55.9349421, Abundance: 0.91754},
		{Mass: 56.9353987, Abundance: 0.02119},
		{Mass: 57.9332805, Abundance: 0.00282},
	}},
	"Cu": {Symbol: "Cu", Name: "copper", Isotopes: []Isotope{
		{Mass: 62.9296011, Abundance: 0.6917},
		{Mass: 64.9277937, Abundance: 0.3083},
	}},
	"Zn": {Symbol: "Zn", Name: "zinc", Isotopes: []Isotope{
		{Mass: 63.9291466, Abundance: 0.4863},
		{Mass: 65.9260368, Abundance: 0.2790},
		{Mass: 66.9271309, Abundance: 0.0410},
		{Mass: 67.9248476, Abundance: 0.1875},
		{Mass: 69.925325, Abundance: 0.0062},
	}},
	"Se": {Symbol: "Se", Name: "selenium", Isotopes: []Isotope{
		{Mass: 73.9224766, Abundance: 0.0089},
		{Mass: 75.9192141, Abundance: 0.0937},
		{Mass: 76.9199146, Abundance: 0.0763},
		{Mass: 77.9173095, Abundance: 0.2377},
		{Mass: 79.9165218, Abundance: 0.4961},
		{Mass: 81.9167, Abundance: 0.0873},
	}},
	"Br": {Symbol: "Br", Name: "bromine", Isotopes: []Isotope{
		{Mass: 78.9183376, Abundance: 0.5069},
		{Mass: 80.916291, Abundance: 0.4931},
	}},
	"I": {Symbol: "I", Name: "iodine", Isotopes: []Isotope{
		{Mass: 126.904468, Abundance: 1.0},
	}},
}

func init() {
	for _, e := range table {
		for i := range e.Isotopes {
			e.Isotopes[i].LogAbundance = marginal.LogUp(e.Isotopes[i].Abundance)
		}
	}
}

// Lookup returns the element for a symbol, if the table knows it.
func Lookup(symbol string) (*Element, bool) {
	e, ok := table[symbol]
	return e, ok
}

// Symbols lists the known element symbols in alphabetical order.
func Symbols() []string {
	out := make([]string, 0, len(table))
	for s := range table {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// All returns the known elements ordered by symbol.
func All() []*Element {
	syms := Symbols()
	out := make([]*Element, len(syms))
	for i, s := range syms {
		out[i] = table[s]
	}
	return out
}
