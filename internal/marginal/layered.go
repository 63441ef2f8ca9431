package marginal

import (
	"math"
	"sort"
)

// Layered is the threshold enumeration made incrementally extendable: the
// cutoff may be lowered any number of times, and each Extend only explores
// the slice of the simplex between the old and the new threshold. The
// configurations that fell below the threshold during an extension are kept
// as the fringe and seed the next one.
//
// The guarded log-probability array holds +Inf before index 0 and -Inf past
// the last entry, so LogProb(-1) and LogProb(Len()) are both legal reads.
type Layered struct {
	Marginal

	arena  *Arena
	capVis int

	confs     [][]int32
	fringe    [][]int32
	threshold float64 // current cutoff; +Inf before the first Extend
	sortedTo  int     // confs[:sortedTo] are sorted within their layers

	lprobs []float64 // guarded: [0] = +Inf, then values, last = -Inf
	probs  []float64
	masses []float64
	total  kahan

	scratch []int32
	keyBuf  []byte
}

// NewLayered prepares an extendable enumeration. Nothing is accepted yet:
// the threshold starts at +Inf and the fringe holds only the mode.
// Construction consumes the Marginal.
func NewLayered(m *Marginal, cfg *Tuning) *Layered {
	l := &Layered{
		Marginal:  *m,
		arena:     NewArena(m.isotopeNo, cfg.blockSlots()),
		capVis:    cfg.visitedCap(),
		threshold: math.Inf(1),
		lprobs:    []float64{math.Inf(1), math.Inf(-1)},
		scratch:   make([]int32, m.isotopeNo),
		keyBuf:    make([]byte, 0, 4*m.isotopeNo),
	}
	l.fringe = append(l.fringe, l.arena.Copy(m.modeConf))
	return l
}

// Extend lowers the cutoff to newThreshold, accepting every configuration
// with logP >= newThreshold that is not already stored. Returns false if
// the fringe is empty, i.e. the whole marginal has been enumerated.
//
// Expansion only ever walks downhill (or sideways on exact ties, when the
// receiving index is larger than the source index): a neighbor more probable than its parent is already
// accepted or on the fringe, and the tiebreak stops equal-probability pairs
// from re-adding each other forever.
func (l *Layered) Extend(newThreshold float64) bool {
	if len(l.fringe) == 0 {
		return false
	}

	visited := make(map[string]struct{}, l.capVis)
	var key string
	for _, c := range l.fringe {
		key, l.keyBuf = confKey(c, l.keyBuf)
		visited[key] = struct{}{}
	}

	var newFringe [][]int32
	for len(l.fringe) > 0 {
		c := l.fringe[len(l.fringe)-1]
		l.fringe = l.fringe[:len(l.fringe)-1]

		opc := l.ConfLogProb(c)
		if opc < newThreshold {
			newFringe = append(newFringe, c)
			continue
		}
		l.confs = append(l.confs, c)

		for j, cj := range c {
			if cj == 0 {
				continue
			}
			for i := range c {
				if i == j {
					continue
				}
				copy(l.scratch, c)
				l.scratch[i]++
				l.scratch[j]--
				key, l.keyBuf = confKey(l.scratch, l.keyBuf)
				if _, seen := visited[key]; seen {
					continue
				}
				lpc := l.ConfLogProb(l.scratch)
				if lpc >= l.threshold {
					// Accepted in a prior layer.
					continue
				}
				if !(opc > lpc || (opc == lpc && i > j)) {
					continue
				}
				stored := l.arena.Copy(l.scratch)
				visited[key] = struct{}{}
				if lpc >= newThreshold {
					l.fringe = append(l.fringe, stored)
				} else {
					newFringe = append(newFringe, stored)
				}
			}
		}
	}

	l.fringe = newFringe
	l.threshold = newThreshold

	// Sort the new layer by descending log-probability and extend the
	// parallel arrays. Older layers stay in place, sorted within themselves.
	layer := l.confs[l.sortedTo:]
	layerLps := make([]float64, len(layer))
	for i, c := range layer {
		layerLps[i] = l.ConfLogProb(c)
	}
	order := make([]int, len(layer))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if layerLps[ia] != layerLps[ib] {
			return layerLps[ia] > layerLps[ib]
		}
		return lexLess(layer[ia], layer[ib])
	})
	sortedLayer := make([][]int32, len(layer))
	for i, idx := range order {
		sortedLayer[i] = layer[idx]
	}
	copy(layer, sortedLayer)

	l.lprobs = l.lprobs[:len(l.lprobs)-1] // drop the -Inf guardian
	for _, idx := range order {
		lp := layerLps[idx]
		l.lprobs = append(l.lprobs, lp)
		p := math.Exp(lp)
		l.probs = append(l.probs, p)
		l.total.add(p)
	}
	for _, c := range sortedLayer {
		l.masses = append(l.masses, l.ConfMass(c))
	}
	l.lprobs = append(l.lprobs, math.Inf(-1))
	l.sortedTo = len(l.confs)
	return true
}

// Len returns the number of accepted configurations.
func (l *Layered) Len() int { return len(l.confs) }

// Threshold returns the current cutoff (+Inf before the first Extend).
func (l *Layered) Threshold() float64 { return l.threshold }

// LogProb returns the log-probability of configuration i. The guarded
// backing array makes i == -1 (+Inf) and i == Len() (-Inf) legal reads.
func (l *Layered) LogProb(i int) float64 { return l.lprobs[i+1] }

// Prob returns the probability of configuration i.
func (l *Layered) Prob(i int) float64 { return l.probs[i] }

// Mass returns the mass of configuration i in daltons.
func (l *Layered) Mass(i int) float64 { return l.masses[i] }

// Configuration returns configuration i; the slice lives in the arena and
// must not be modified.
func (l *Layered) Configuration(i int) []int32 { return l.confs[i] }

// TotalProb returns the compensated probability sum of the accepted set.
func (l *Layered) TotalProb() float64 { return l.total.value() }

// FringeSize reports how many boundary configurations await the next Extend.
func (l *Layered) FringeSize() int { return len(l.fringe) }
