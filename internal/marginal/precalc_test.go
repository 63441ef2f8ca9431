package marginal

import (
	"math"
	"testing"
)

func TestPrecalculatedCarbon100(t *testing.T) {
	m := mustNew(t, []float64{12.0, 13.003355}, []float64{0.9893, 0.0107}, 100)
	pc := NewPrecalculated(m, math.Log(1e-6), true, nil)

	if pc.Len() < 5 || pc.Len() > 12 {
		t.Fatalf("Expected a handful of configurations above 1e-6 for C100. Got: %d", pc.Len())
	}
	// Everything above 1e-6 at n=100 keeps the heavy-isotope count small.
	for i := 0; i < pc.Len(); i++ {
		if c1 := pc.Configuration(i)[1]; c1 > 10 {
			t.Errorf("Unexpectedly heavy configuration above the cutoff: c1=%d", c1)
		}
	}
	if math.Abs(pc.TotalProb()-1.0) > 1e-4 {
		t.Errorf("Expected near-total coverage above 1e-6. Got: %v", pc.TotalProb())
	}
	// Sorted descending, mode first.
	if pc.Configuration(0)[0] != 99 || pc.Configuration(0)[1] != 1 {
		t.Errorf("Expected the mode [99 1] first. Got: %v", pc.Configuration(0))
	}
	for i := 1; i < pc.Len(); i++ {
		if pc.LogProb(i) > pc.LogProb(i-1) {
			t.Errorf("Sorted output not descending at %d", i)
		}
	}
}

func TestPrecalculatedSentinel(t *testing.T) {
	m := mustNew(t, []float64{1.0, 2.0}, []float64{0.5, 0.5}, 4)
	pc := NewPrecalculated(m, math.Log(0.01), true, nil)

	if got := pc.LogProb(pc.Len()); !math.IsInf(got, -1) {
		t.Errorf("Expected -Inf sentinel at index Len(). Got: %v", got)
	}
}

func TestPrecalculatedMatchesBruteForce(t *testing.T) {
	masses := []float64{1.0, 2.0, 3.0}
	probs := []float64{0.6, 0.3, 0.1}
	cutoff := math.Log(1e-4)

	m := mustNew(t, masses, probs, 10)
	pc := NewPrecalculated(m, cutoff, false, nil)

	ref := mustNew(t, masses, probs, 10)
	want := make(map[string]struct{})
	buf := make([]byte, 0, 16)
	var key string
	for _, conf := range enumerateAll(3, 10) {
		if ref.ConfLogProb(conf) >= cutoff {
			key, buf = confKey(conf, buf)
			want[key] = struct{}{}
		}
	}

	if pc.Len() != len(want) {
		t.Fatalf("Expected %d configurations above the cutoff. Got: %d", len(want), pc.Len())
	}
	for i := 0; i < pc.Len(); i++ {
		key, buf = confKey(pc.Configuration(i), buf)
		if _, ok := want[key]; !ok {
			t.Errorf("Enumerated configuration %v is below the cutoff or duplicated", pc.Configuration(i))
		}
		delete(want, key)
	}
}

func TestPrecalculatedSortedAndUnsortedAgree(t *testing.T) {
	masses := []float64{1.0, 2.0, 3.0}
	probs := []float64{0.5, 0.35, 0.15}
	cutoff := math.Log(1e-3)

	a := NewPrecalculated(mustNew(t, masses, probs, 12), cutoff, true, nil)
	b := NewPrecalculated(mustNew(t, masses, probs, 12), cutoff, false, nil)

	if a.Len() != b.Len() {
		t.Fatalf("Sorted and unsorted sets differ in size: %d vs %d", a.Len(), b.Len())
	}
	setB := make(map[string]struct{}, b.Len())
	buf := make([]byte, 0, 16)
	var key string
	for i := 0; i < b.Len(); i++ {
		key, buf = confKey(b.Configuration(i), buf)
		setB[key] = struct{}{}
	}
	for i := 0; i < a.Len(); i++ {
		key, buf = confKey(a.Configuration(i), buf)
		if _, ok := setB[key]; !ok {
			t.Errorf("Configuration %v present only in the sorted variant", a.Configuration(i))
		}
	}
}

func TestPrecalculatedEmptyWhenCutoffAboveMode(t *testing.T) {
	m := mustNew(t, []float64{1.0, 2.0}, []float64{0.5, 0.5}, 4)
	pc := NewPrecalculated(m, m.ModeLogProb()+1.0, true, nil)

	if pc.Len() != 0 {
		t.Fatalf("Expected an empty enumeration above the mode. Got: %d entries", pc.Len())
	}
	if got := pc.LogProb(0); !math.IsInf(got, -1) {
		t.Errorf("Expected the sentinel to be the only slot. Got: %v", got)
	}
	if pc.TotalProb() != 0 {
		t.Errorf("Expected zero total probability. Got: %v", pc.TotalProb())
	}
}

func TestPrecalculatedDegenerate(t *testing.T) {
	m := mustNew(t, []float64{12.0}, []float64{1.0}, 10)
	pc := NewPrecalculated(m, math.Log(0.5), true, nil)

	if pc.Len() != 1 {
		t.Fatalf("Expected exactly one configuration. Got: %d", pc.Len())
	}
	if pc.Prob(0) != 1.0 {
		t.Errorf("Expected probability 1. Got: %v", pc.Prob(0))
	}
	if pc.Mass(0) != 120.0 {
		t.Errorf("Expected mass 120. Got: %v", pc.Mass(0))
	}
}
