package spectrum

import (
	"errors"
	"log"
	"math"
	"sort"

	"github.com/rawblock/isospec-engine/internal/marginal"
)

var (
	// ErrBadThreshold reports a peak threshold outside (0, 1].
	ErrBadThreshold = errors.New("spectrum: threshold must be in (0, 1]")

	// ErrBadCoverage reports a coverage target outside (0, 1).
	ErrBadCoverage = errors.New("spectrum: coverage must be in (0, 1)")

	// ErrTooManyPeaks reports that a generator hit the peak-count guardrail.
	ErrTooManyPeaks = errors.New("spectrum: peak count guardrail exceeded, raise the threshold")
)

// maxPeaks bounds a single generator run. Fine structures past this size
// indicate a threshold far below anything a spectrometer resolves.
const maxPeaks = 5_000_000

// Peak is one isotopologue of the molecule: total mass, probability and
// log-probability, optionally with the per-element configurations.
type Peak struct {
	Mass    float64   `json:"mass"`
	Prob    float64   `json:"prob"`
	LogProb float64   `json:"logProb"`
	Configs [][]int32 `json:"configs,omitempty"`
}

// Options tune a generator run. The zero value is sensible.
type Options struct {
	KeepConfigurations bool             // attach per-element configurations to peaks
	Tuning             *marginal.Tuning // forwarded to the enumerators
}

func (o *Options) keep() bool {
	return o != nil && o.KeepConfigurations
}

func (o *Options) tuning() *marginal.Tuning {
	if o == nil {
		return nil
	}
	return o.Tuning
}

// Threshold returns every isotopologue whose probability clears the
// threshold: absolute, or relative to the most probable peak. Peaks come
// back sorted by descending probability.
//
// A subisotopologue of element e can only participate in a surviving peak
// if its own log-probability clears lcut minus the sum of the other
// elements' mode log-probabilities; that bound drives the per-element
// cutoffs, and the product DFS prunes with best-remaining suffix sums over
// the descending-sorted marginals.
func Threshold(mol *Molecule, threshold float64, absolute bool, opts *Options) ([]Peak, error) {
	if !(threshold > 0) || threshold > 1 {
		return nil, ErrBadThreshold
	}
	ms, err := mol.marginals()
	if err != nil {
		return nil, err
	}

	totalMode := 0.0
	for _, m := range ms {
		totalMode += m.ModeLogProb()
	}
	lcut := math.Log(threshold)
	if !absolute {
		lcut += totalMode
	}

	pcs := make([]*marginal.Precalculated, len(ms))
	for i, m := range ms {
		pcs[i] = marginal.NewPrecalculated(m, lcut-(totalMode-m.ModeLogProb()), true, opts.tuning())
		if pcs[i].Len() == 0 {
			return []Peak{}, nil
		}
	}

	peaks, err := productPeaks(pcs, lcut, opts.keep())
	if err != nil {
		return nil, err
	}
	sortPeaks(peaks)
	return peaks, nil
}

// TotalProb returns a minimal-by-prefix peak set whose probabilities sum to
// at least the coverage target. Per-element layered marginals are extended
// with geometrically lowered thresholds until the product covers; earlier
// layers are reused across rounds.
func TotalProb(mol *Molecule, coverage float64, opts *Options) ([]Peak, error) {
	if !(coverage > 0) || coverage >= 1 {
		return nil, ErrBadCoverage
	}
	ms, err := mol.marginals()
	if err != nil {
		return nil, err
	}

	totalMode := 0.0
	for _, m := range ms {
		totalMode += m.ModeLogProb()
	}

	layers := make([]*marginal.Layered, len(ms))
	modeLps := make([]float64, len(ms))
	for i, m := range ms {
		modeLps[i] = m.ModeLogProb()
		layers[i] = marginal.NewLayered(m, opts.tuning())
	}

	// Start just below the top peak and lower by a decade per round. The
	// 64-round cap bounds the loop even without the fringe check.
	lcut := totalMode - 1.0
	for round := 0; round < 64; round++ {
		exhausted := true
		for i, l := range layers {
			l.Extend(lcut - (totalMode - modeLps[i]))
			if l.FringeSize() > 0 {
				exhausted = false
			}
		}

		peaks, err := layeredProductPeaks(layers, lcut, opts.keep())
		if err != nil {
			return nil, err
		}
		var acc float64
		for _, p := range peaks {
			acc += p.Prob
		}
		if acc >= coverage {
			sortPeaks(peaks)
			return trimToCoverage(peaks, coverage), nil
		}
		if exhausted {
			// Every subisotopologue is enumerated; drop the product filter
			// and let the prefix trim pick the covering set.
			peaks, err = layeredProductPeaks(layers, math.Inf(-1), opts.keep())
			if err != nil {
				return nil, err
			}
			sortPeaks(peaks)
			return trimToCoverage(peaks, coverage), nil
		}
		lcut -= math.Ln10
	}

	log.Printf("[Spectrum] Coverage %v unreached for %s after 64 rounds. Returning the accumulated structure.", coverage, mol.Formula)
	peaks, err := layeredProductPeaks(layers, math.Inf(-1), opts.keep())
	if err != nil {
		return nil, err
	}
	sortPeaks(peaks)
	return peaks, nil
}

// subSpectrum is one element's enumerated marginal snapshot, sorted by
// descending log-probability for the pruned product walk.
type subSpectrum struct {
	lprobs []float64
	masses []float64
	confs  [][]int32
}

func precalcSnapshot(pc *marginal.Precalculated) subSpectrum {
	n := pc.Len()
	s := subSpectrum{
		lprobs: make([]float64, n),
		masses: make([]float64, n),
		confs:  make([][]int32, n),
	}
	for i := 0; i < n; i++ {
		s.lprobs[i] = pc.LogProb(i)
		s.masses[i] = pc.Mass(i)
		s.confs[i] = pc.Configuration(i)
	}
	return s
}

func layeredSnapshot(l *marginal.Layered) subSpectrum {
	n := l.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// Layers are only sorted within themselves; the product walk needs a
	// globally descending view.
	sort.Slice(order, func(a, b int) bool {
		return l.LogProb(order[a]) > l.LogProb(order[b])
	})
	s := subSpectrum{
		lprobs: make([]float64, n),
		masses: make([]float64, n),
		confs:  make([][]int32, n),
	}
	for i, idx := range order {
		s.lprobs[i] = l.LogProb(idx)
		s.masses[i] = l.Mass(idx)
		s.confs[i] = l.Configuration(idx)
	}
	return s
}

func productPeaks(pcs []*marginal.Precalculated, lcut float64, keep bool) ([]Peak, error) {
	subs := make([]subSpectrum, len(pcs))
	for i, pc := range pcs {
		subs[i] = precalcSnapshot(pc)
	}
	return walkProduct(subs, lcut, keep)
}

func layeredProductPeaks(layers []*marginal.Layered, lcut float64, keep bool) ([]Peak, error) {
	subs := make([]subSpectrum, len(layers))
	for i, l := range layers {
		if l.Len() == 0 {
			return []Peak{}, nil
		}
		subs[i] = layeredSnapshot(l)
	}
	return walkProduct(subs, lcut, keep)
}

// walkProduct enumerates the cross-element product in depth-first order.
// suffixBest[d] is the best log-probability the elements from d onward can
// still contribute; because each sub-spectrum is sorted descending, the
// inner loop breaks as soon as the optimistic bound falls below the cutoff,
// so only viable branches are visited.
func walkProduct(subs []subSpectrum, lcut float64, keep bool) ([]Peak, error) {
	suffixBest := make([]float64, len(subs)+1)
	for d := len(subs) - 1; d >= 0; d-- {
		suffixBest[d] = suffixBest[d+1] + subs[d].lprobs[0]
	}

	var peaks []Peak
	pick := make([]int, len(subs))
	var overflow bool

	var rec func(d int, lp, mass float64)
	rec = func(d int, lp, mass float64) {
		if overflow {
			return
		}
		if d == len(subs) {
			p := Peak{Mass: mass, LogProb: lp, Prob: math.Exp(lp)}
			if keep {
				p.Configs = make([][]int32, len(subs))
				for e, idx := range pick {
					p.Configs[e] = subs[e].confs[idx]
				}
			}
			peaks = append(peaks, p)
			if len(peaks) > maxPeaks {
				overflow = true
			}
			return
		}
		sub := subs[d]
		for i := 0; i < len(sub.lprobs); i++ {
			clp := sub.lprobs[i]
			if lp+clp+suffixBest[d+1] < lcut {
				break
			}
			pick[d] = i
			rec(d+1, lp+clp, mass+sub.masses[i])
		}
	}
	rec(0, 0, 0)

	if overflow {
		log.Printf("[Spectrum] Fine structure exceeded %d peaks. Bailing out.", maxPeaks)
		return nil, ErrTooManyPeaks
	}
	return peaks, nil
}

func sortPeaks(peaks []Peak) {
	sort.Slice(peaks, func(a, b int) bool {
		if peaks[a].LogProb != peaks[b].LogProb {
			return peaks[a].LogProb > peaks[b].LogProb
		}
		return peaks[a].Mass < peaks[b].Mass
	})
}

// trimToCoverage keeps the shortest descending-probability prefix whose sum
// reaches the target. Peaks must already be sorted descending.
func trimToCoverage(peaks []Peak, coverage float64) []Peak {
	acc := 0.0
	for i, p := range peaks {
		acc += p.Prob
		if acc >= coverage {
			return peaks[:i+1]
		}
	}
	return peaks
}
