package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rawblock/isospec-engine/internal/elements"
	"github.com/rawblock/isospec-engine/internal/spectrum"
)

var (
	calcFormula   string
	calcThreshold float64
	calcAbsolute  bool
	calcCoverage  float64
	calcJSON      bool
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute the fine structure of a molecule",
	Example: `  isocalc calc --formula C6H12O6 --threshold 1e-6
  isocalc calc --formula C254H377N65O75S6 --coverage 0.999 --json`,
	RunE: runCalc,
}

var elementsCmd = &cobra.Command{
	Use:   "elements",
	Short: "List the elements in the isotope table",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, e := range elements.All() {
			fmt.Printf("%-3s %-12s %d isotopes\n", e.Symbol, e.Name, len(e.Isotopes))
			if verbose {
				for _, iso := range e.Isotopes {
					fmt.Printf("      %12.7f Da  %8.5f%%\n", iso.Mass, 100*iso.Abundance)
				}
			}
		}
		return nil
	},
}

func init() {
	calcCmd.Flags().StringVarP(&calcFormula, "formula", "f", "", "molecular formula, e.g. C6H12O6 (required)")
	calcCmd.Flags().Float64VarP(&calcThreshold, "threshold", "t", 1e-6, "peak probability threshold")
	calcCmd.Flags().BoolVar(&calcAbsolute, "absolute", false, "threshold is absolute instead of relative to the top peak")
	calcCmd.Flags().Float64VarP(&calcCoverage, "coverage", "c", 0, "total probability to cover in (0,1); overrides --threshold")
	calcCmd.Flags().BoolVar(&calcJSON, "json", false, "print peaks as JSON")
	_ = calcCmd.MarkFlagRequired("formula")
}

func runCalc(cmd *cobra.Command, args []string) error {
	mol, err := spectrum.NewMolecule(calcFormula)
	if err != nil {
		return err
	}

	var peaks []spectrum.Peak
	if calcCoverage > 0 {
		peaks, err = spectrum.TotalProb(mol, calcCoverage, nil)
	} else {
		peaks, err = spectrum.Threshold(mol, calcThreshold, calcAbsolute, nil)
	}
	if err != nil {
		return err
	}

	if calcJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(peaks)
	}

	if verbose {
		fmt.Printf("# %s  monoisotopic %.6f Da  average %.6f Da\n",
			calcFormula, mol.MonoisotopicMass(), mol.AvgMass())
	}
	total := 0.0
	for _, p := range peaks {
		total += p.Prob
		fmt.Printf("%14.7f Da  %.6e\n", p.Mass, p.Prob)
	}
	fmt.Printf("# %d peaks, total probability %.9f\n", len(peaks), total)
	return nil
}
