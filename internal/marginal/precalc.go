package marginal

import (
	"math"
	"sort"
)

// Precalculated eagerly materializes every configuration whose
// log-probability clears a fixed cutoff. The feasible set is connected in
// the unit-transfer neighbor graph (the multinomial density is unimodal on
// the simplex), so a breadth-first walk from the mode visits all of it.
// Construction consumes the Marginal; once built the result is immutable
// and safe for shared reads.
type Precalculated struct {
	Marginal

	arena  *Arena
	cutoff float64

	confs  [][]int32
	lprobs []float64 // length Len()+1; the extra slot holds -Inf
	probs  []float64
	masses []float64
	total  float64
}

// NewPrecalculated enumerates all configurations with logP >= lcutoff.
// When sorted is true the result is ordered by descending log-probability,
// ties broken by ascending lexicographic configuration order.
func NewPrecalculated(m *Marginal, lcutoff float64, sorted bool, cfg *Tuning) *Precalculated {
	p := &Precalculated{
		Marginal: *m,
		arena:    NewArena(m.isotopeNo, cfg.blockSlots()),
		cutoff:   lcutoff,
	}

	visited := make(map[string]struct{}, cfg.visitedCap())
	scratch := make([]int32, m.isotopeNo)
	keyBuf := make([]byte, 0, 4*m.isotopeNo)

	// The seed is checked against the cutoff like everything else; an empty
	// result is legal.
	if m.modeLprob >= lcutoff {
		mode := p.arena.Copy(m.modeConf)
		var key string
		key, keyBuf = confKey(mode, keyBuf)
		visited[key] = struct{}{}
		p.confs = append(p.confs, mode)
	}

	// The result vector doubles as the BFS queue.
	for next := 0; next < len(p.confs); next++ {
		cur := p.confs[next]
		for j, cj := range cur {
			if cj == 0 {
				continue
			}
			for i := range cur {
				if i == j {
					continue
				}
				copy(scratch, cur)
				scratch[i]++
				scratch[j]--
				var key string
				key, keyBuf = confKey(scratch, keyBuf)
				if _, seen := visited[key]; seen {
					continue
				}
				if p.ConfLogProb(scratch) < lcutoff {
					continue
				}
				stored := p.arena.Copy(scratch)
				visited[key] = struct{}{}
				p.confs = append(p.confs, stored)
			}
		}
	}

	n := len(p.confs)
	p.lprobs = make([]float64, n, n+1)
	for i, c := range p.confs {
		p.lprobs[i] = p.ConfLogProb(c)
	}

	if sorted {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			ia, ib := order[a], order[b]
			if p.lprobs[ia] != p.lprobs[ib] {
				return p.lprobs[ia] > p.lprobs[ib]
			}
			return lexLess(p.confs[ia], p.confs[ib])
		})
		confs := make([][]int32, n)
		lprobs := make([]float64, n, n+1)
		for i, idx := range order {
			confs[i] = p.confs[idx]
			lprobs[i] = p.lprobs[idx]
		}
		p.confs = confs
		p.lprobs = lprobs
	}

	p.probs = make([]float64, n)
	p.masses = make([]float64, n)
	var acc kahan
	for i, c := range p.confs {
		p.probs[i] = math.Exp(p.lprobs[i])
		p.masses[i] = p.ConfMass(c)
		acc.add(p.probs[i])
	}
	p.total = acc.value()

	// Guardian slot: LogProb(Len()) reads -Inf, letting consumers compare
	// one past the end without a bounds branch.
	p.lprobs = append(p.lprobs, math.Inf(-1))
	return p
}

// Len returns the number of stored configurations.
func (p *Precalculated) Len() int { return len(p.confs) }

// Cutoff returns the log-probability bound the enumeration was built with.
func (p *Precalculated) Cutoff() float64 { return p.cutoff }

// LogProb returns the log-probability of configuration i. i == Len() is
// legal and reads the -Inf guardian.
func (p *Precalculated) LogProb(i int) float64 { return p.lprobs[i] }

// Prob returns the probability of configuration i.
func (p *Precalculated) Prob(i int) float64 { return p.probs[i] }

// Mass returns the mass of configuration i in daltons.
func (p *Precalculated) Mass(i int) float64 { return p.masses[i] }

// Configuration returns configuration i; the slice lives in the arena and
// must not be modified.
func (p *Precalculated) Configuration(i int) []int32 { return p.confs[i] }

// TotalProb returns the compensated probability sum of the stored set.
func (p *Precalculated) TotalProb() float64 { return p.total }
