package marginal

import (
	"container/heap"
	"math"
)

// trekItem pairs an arena-resident configuration with its log-probability,
// cached so the heap never recomputes it.
type trekItem struct {
	conf  []int32
	lprob float64
}

// trekHeap is a max-heap on log-probability. Ties break by ascending
// lexicographic configuration order, keeping the emitted sequence
// reproducible across runs and allocators.
type trekHeap []trekItem

func (h trekHeap) Len() int { return len(h) }

func (h trekHeap) Less(i, j int) bool {
	if h[i].lprob != h[j].lprob {
		return h[i].lprob > h[j].lprob
	}
	return lexLess(h[i].conf, h[j].conf)
}

func (h trekHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *trekHeap) Push(x any) { *h = append(*h, x.(trekItem)) }

func (h *trekHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = trekItem{}
	*h = old[:n-1]
	return it
}

// Trek enumerates a marginal lazily in strictly non-increasing
// log-probability order, expanding the simplex neighbor graph best-first
// from the mode. Construction consumes the Marginal.
type Trek struct {
	Marginal

	arena   *Arena
	heap    trekHeap
	visited map[string]struct{}

	confs  [][]int32
	lprobs []float64
	masses []float64
	total  kahan

	scratch []int32
	keyBuf  []byte
}

// NewTrek starts a best-first enumeration seeded at the mode. The first
// configuration (index 0, the mode) is available immediately.
func NewTrek(m *Marginal, cfg *Tuning) *Trek {
	t := &Trek{
		Marginal: *m,
		arena:    NewArena(m.isotopeNo, cfg.blockSlots()),
		visited:  make(map[string]struct{}, cfg.visitedCap()),
		scratch:  make([]int32, m.isotopeNo),
		keyBuf:   make([]byte, 0, 4*m.isotopeNo),
	}
	mode := t.arena.Copy(m.modeConf)
	var key string
	key, t.keyBuf = confKey(mode, t.keyBuf)
	t.visited[key] = struct{}{}
	heap.Push(&t.heap, trekItem{conf: mode, lprob: m.modeLprob})
	t.Advance()
	return t
}

// Advance pops the most probable unvisited configuration, records it, and
// pushes its unvisited neighbors. Returns false once the space is exhausted.
func (t *Trek) Advance() bool {
	if t.heap.Len() == 0 {
		return false
	}
	it := heap.Pop(&t.heap).(trekItem)
	t.confs = append(t.confs, it.conf)
	t.lprobs = append(t.lprobs, it.lprob)
	t.masses = append(t.masses, t.ConfMass(it.conf))
	t.total.add(math.Exp(it.lprob))

	for j, cj := range it.conf {
		if cj == 0 {
			continue
		}
		for i := range it.conf {
			if i == j {
				continue
			}
			copy(t.scratch, it.conf)
			t.scratch[i]++
			t.scratch[j]--
			var key string
			key, t.keyBuf = confKey(t.scratch, t.keyBuf)
			if _, seen := t.visited[key]; seen {
				continue
			}
			stored := t.arena.Copy(t.scratch)
			t.visited[key] = struct{}{}
			heap.Push(&t.heap, trekItem{conf: stored, lprob: t.ConfLogProb(stored)})
		}
	}
	return true
}

// Count returns how many configurations have been emitted so far.
func (t *Trek) Count() int { return len(t.confs) }

// LogProb returns the log-probability of the i-th emitted configuration.
func (t *Trek) LogProb(i int) float64 { return t.lprobs[i] }

// Prob returns the probability of the i-th emitted configuration.
func (t *Trek) Prob(i int) float64 { return math.Exp(t.lprobs[i]) }

// Mass returns the mass of the i-th emitted configuration in daltons.
func (t *Trek) Mass(i int) float64 { return t.masses[i] }

// Configuration returns the i-th emitted configuration. The slice lives in
// the trek's arena and must not be modified.
func (t *Trek) Configuration(i int) []int32 { return t.confs[i] }

// TotalProb returns the compensated sum of all emitted probabilities.
func (t *Trek) TotalProb() float64 { return t.total.value() }

// EnsureIndex expands until configuration idx exists, reporting whether the
// marginal is large enough.
func (t *Trek) EnsureIndex(idx int) bool {
	for len(t.confs) <= idx {
		if !t.Advance() {
			return false
		}
	}
	return true
}

// ProcessUntilCutoff expands until the accumulated probability reaches
// target, first checking whether an already-emitted prefix suffices. It
// returns the number of configurations covering the target (all of them if
// the marginal ran dry first).
func (t *Trek) ProcessUntilCutoff(target float64) int {
	var acc kahan
	for i, lp := range t.lprobs {
		acc.add(math.Exp(lp))
		if acc.value() >= target {
			return i + 1
		}
	}
	for t.total.value() < target {
		if !t.Advance() {
			break
		}
	}
	return len(t.confs)
}
