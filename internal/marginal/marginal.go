// Package marginal implements the subisotopologue engine: for a single
// chemical element with n atoms and k stable isotopes it enumerates the
// multinomial configurations (a1, ..., ak) with sum(ai) = n, ordered or
// filtered by their multinomial log-probability.
//
// The probability of a configuration c is
//
//	P(c) = n! * prod_i( p_i^c_i / c_i! )
//
// and everything is carried in log space: logP(c) = log(n!) +
// sum_i( c_i*log(p_i) - log(c_i!) ). Logarithms are rounded upward and
// log-factorials tabulated, so identical inputs give bit-identical outputs.
//
// A Marginal is consumed by one of three enumerators: Trek (lazy best-first
// in decreasing log-probability), Precalculated (eager above a fixed cutoff)
// and Layered (eager, with a cutoff that can be lowered incrementally).
// None of them is safe for concurrent mutation; a fully built Precalculated
// may be read from multiple goroutines.
package marginal

import "math"

// Marginal holds the per-element parameters and the mode configuration.
// Construct with New, then hand off to NewTrek / NewPrecalculated /
// NewLayered; the enumerators absorb the Marginal by value and the source
// must not be used afterwards.
type Marginal struct {
	isotopeNo int
	atomCnt   int

	masses       []float64
	probs        []float64
	atomLogProbs []float64 // upward-rounded log(p_i)
	mlf          []float64 // mlf[x] = -log(x!), x <= atomCnt
	logFactorial float64   // log(atomCnt!)

	modeConf  []int32
	modeLprob float64
}

// Tuning carries the allocation knobs shared by the enumerators. A nil
// Tuning or a zero field selects the defaults.
type Tuning struct {
	BlockSlots int // configurations per arena block
	VisitedCap int // initial visited-set capacity
}

const (
	defaultBlockSlots = 1 << 10
	defaultVisitedCap = 1 << 10
)

func (t *Tuning) blockSlots() int {
	if t == nil || t.BlockSlots <= 0 {
		return defaultBlockSlots
	}
	return t.BlockSlots
}

func (t *Tuning) visitedCap() int {
	if t == nil || t.VisitedCap <= 0 {
		return defaultVisitedCap
	}
	return t.VisitedCap
}

// New builds the marginal distribution of atomCount atoms over the given
// isotopes. probs are natural abundances in (0, 1]; they are expected to sum
// to 1 but this is not enforced. Fails with ErrProbOutOfRange or
// ErrAtomCountTooLarge on invalid input.
func New(masses, probs []float64, atomCount int) (*Marginal, error) {
	if len(masses) != len(probs) {
		return nil, ErrLengthMismatch
	}
	if len(probs) == 0 {
		return nil, ErrNoIsotopes
	}
	if atomCount < 0 || atomCount >= MaxAtomCount {
		return nil, ErrAtomCountTooLarge
	}
	logProbs := make([]float64, len(probs))
	for i, p := range probs {
		if !(p > 0) || p > 1 {
			return nil, ErrProbOutOfRange
		}
		logProbs[i] = LogUp(p)
	}
	return newWithLogProbs(masses, probs, logProbs, atomCount), nil
}

// NewWithLogProbs builds a marginal from abundances whose logarithms were
// precomputed (the element table stores upward-rounded logs alongside the
// abundances). Validation is the same as New; the supplied logs are trusted.
func NewWithLogProbs(masses, probs, logProbs []float64, atomCount int) (*Marginal, error) {
	if len(masses) != len(probs) || len(probs) != len(logProbs) {
		return nil, ErrLengthMismatch
	}
	if len(probs) == 0 {
		return nil, ErrNoIsotopes
	}
	if atomCount < 0 || atomCount >= MaxAtomCount {
		return nil, ErrAtomCountTooLarge
	}
	for _, p := range probs {
		if !(p > 0) || p > 1 {
			return nil, ErrProbOutOfRange
		}
	}
	return newWithLogProbs(masses, probs, append([]float64(nil), logProbs...), atomCount), nil
}

func newWithLogProbs(masses, probs, logProbs []float64, atomCount int) *Marginal {
	m := &Marginal{
		isotopeNo:    len(probs),
		atomCnt:      atomCount,
		masses:       append([]float64(nil), masses...),
		probs:        append([]float64(nil), probs...),
		atomLogProbs: logProbs,
		mlf:          minusLogFactorials(atomCount),
	}
	m.logFactorial = -m.mlf[atomCount]
	m.modeConf = m.findMode()
	m.modeLprob = m.ConfLogProb(m.modeConf)
	return m
}

// IsotopeCount returns k, the number of isotopes.
func (m *Marginal) IsotopeCount() int { return m.isotopeNo }

// AtomCount returns n, the number of atoms of this element.
func (m *Marginal) AtomCount() int { return m.atomCnt }

// unnormalizedLogProb is sum_i( c_i*log(p_i) - log(c_i!) ); the log(n!)
// prefactor is added by ConfLogProb.
func (m *Marginal) unnormalizedLogProb(conf []int32) float64 {
	lp := 0.0
	for i, c := range conf {
		lp += float64(c)*m.atomLogProbs[i] + m.mlf[c]
	}
	return lp
}

// ConfLogProb returns the multinomial log-probability of a configuration.
func (m *Marginal) ConfLogProb(conf []int32) float64 {
	return m.logFactorial + m.unnormalizedLogProb(conf)
}

// ConfMass returns the total mass of a configuration in daltons.
func (m *Marginal) ConfMass(conf []int32) float64 {
	mass := 0.0
	for i, c := range conf {
		mass += float64(c) * m.masses[i]
	}
	return mass
}

// findMode locates a configuration maximizing the multinomial log-density.
// The seed rounds the mean up per isotope and repairs the total; the climb
// moves single atoms between isotopes until no transfer improves the
// (log-probability, source-index) order. On ties the transfer with the
// larger source index wins, which keeps the mode deterministic for
// symmetric abundances.
func (m *Marginal) findMode() []int32 {
	n := int32(m.atomCnt)
	conf := make([]int32, m.isotopeNo)

	var s int32
	for i, p := range m.probs {
		conf[i] = int32(float64(n)*p) + 1
		s += conf[i]
	}
	if s < n {
		conf[0] += n - s
	}
	for i := 0; s > n && i < len(conf); i++ {
		sub := conf[i]
		if sub > s-n {
			sub = s - n
		}
		conf[i] -= sub
		s -= sub
	}

	cur := m.unnormalizedLogProb(conf)
	for improved := true; improved; {
		improved = false
		for i := range conf {
			for j := range conf {
				if i == j || conf[i] == 0 {
					continue
				}
				conf[i]--
				conf[j]++
				next := m.unnormalizedLogProb(conf)
				if next > cur || (next == cur && i > j) {
					cur = next
					improved = true
				} else {
					conf[i]++
					conf[j]--
				}
			}
		}
	}
	return conf
}

// ModeConfiguration returns the mode. The slice is owned by the marginal
// and must not be modified.
func (m *Marginal) ModeConfiguration() []int32 { return m.modeConf }

// ModeLogProb returns logP of the mode configuration.
func (m *Marginal) ModeLogProb() float64 { return m.modeLprob }

// LightestMass is the mass with every atom on the lightest isotope.
func (m *Marginal) LightestMass() float64 {
	low := m.masses[0]
	for _, x := range m.masses[1:] {
		if x < low {
			low = x
		}
	}
	return float64(m.atomCnt) * low
}

// HeaviestMass is the mass with every atom on the heaviest isotope.
func (m *Marginal) HeaviestMass() float64 {
	high := m.masses[0]
	for _, x := range m.masses[1:] {
		if x > high {
			high = x
		}
	}
	return float64(m.atomCnt) * high
}

// MonoisotopicMass is the mass with every atom on the most abundant isotope.
func (m *Marginal) MonoisotopicMass() float64 {
	best := 0
	for i, p := range m.probs {
		if p > m.probs[best] {
			best = i
		}
	}
	return float64(m.atomCnt) * m.masses[best]
}

// AtomAvgMass is the abundance-weighted mass of a single atom.
func (m *Marginal) AtomAvgMass() float64 {
	avg := 0.0
	for i, p := range m.probs {
		avg += p * m.masses[i]
	}
	return avg
}

// TheoreticalAvgMass is the expected total mass of the element.
func (m *Marginal) TheoreticalAvgMass() float64 {
	return float64(m.atomCnt) * m.AtomAvgMass()
}

// Variance is the variance of the total mass.
func (m *Marginal) Variance() float64 {
	avg := m.AtomAvgMass()
	v := 0.0
	for i, p := range m.probs {
		d := m.masses[i] - avg
		v += p * d * d
	}
	return float64(m.atomCnt) * v
}

// SmallestLogProb is a lower bound on any configuration's log-probability:
// all atoms on the rarest isotope.
func (m *Marginal) SmallestLogProb() float64 {
	low := m.atomLogProbs[0]
	for _, lp := range m.atomLogProbs[1:] {
		if lp < low {
			low = lp
		}
	}
	return float64(m.atomCnt) * low
}

// LogSizeEstimate estimates log |{c : logP(c) >= logP(mode) - r}| from the
// volume ratio of the probability ellipsoid of radius r and the simplex,
// scaled by the lattice-point count of the simplex. Returns -Inf for a
// single-isotope element, whose marginal has exactly one configuration.
func (m *Marginal) LogSizeEstimate(r float64) float64 {
	if m.isotopeNo <= 1 {
		return math.Inf(-1)
	}
	n := float64(m.atomCnt)
	k := float64(m.isotopeNo)

	logSimplexVol := (k-1)*math.Log(n) - lgamma(k)
	logNSimplex := lgamma(n+k) - lgamma(n+1) - lgamma(k)

	sumLogProbs := 0.0
	for _, lp := range m.atomLogProbs {
		sumLogProbs += lp
	}
	logEllipsoidVol := 0.5*((k-1)*(math.Log(n)+math.Log(math.Pi)+r)+sumLogProbs) - lgamma((k+1)/2)

	return logNSimplex + logEllipsoidVol - logSimplexVol
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// confKey encodes a configuration as the little-endian bytes of its entries,
// reusing buf. The resulting string keys the visited sets: positional, so
// permuted configurations never collide, and hashed with the runtime's
// per-process map seed.
func confKey(conf []int32, buf []byte) (string, []byte) {
	buf = buf[:0]
	for _, c := range conf {
		buf = append(buf, byte(c), byte(c>>8), byte(c>>16), byte(c>>24))
	}
	return string(buf), buf
}

// lexLess orders configurations lexicographically; it breaks log-probability
// ties so enumeration order does not depend on allocation order.
func lexLess(a, b []int32) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
