package genospace

import (
	"math/rand"
	"testing"

	"metis/internal/model"
	"metis/internal/randvar"
)

// steppingSource yields a fixed sequence of draws, repeating the last one.
type steppingSource struct {
	draws []float64
	next  int
}

func (s *steppingSource) Next() float64 {
	if s.next >= len(s.draws) {
		return s.draws[len(s.draws)-1]
	}
	v := s.draws[s.next]
	s.next++
	return v
}

func TestRecombinationRejectsLengthMismatch(t *testing.T) {
	rv := randvar.Const{Value: 0.5}
	if err := IntermediateRecombination(model.Genotype{1, 2}, model.Genotype{1}, rv); err == nil {
		t.Fatal("expected intermediate length mismatch error")
	}
	if err := LineRecombination(model.Genotype{1}, model.Genotype{1, 2}, rv); err == nil {
		t.Fatal("expected line length mismatch error")
	}
}

func TestLineRecombinationSharesOneCoefficientPair(t *testing.T) {
	// alpha=1 keeps g1, beta=0 moves g2 onto the original g1; every later
	// draw would blend to the midpoint, so any midpoint result means the
	// operator drew more than once.
	rv := &steppingSource{draws: []float64{1, 0, 0.5}}
	g1 := model.Genotype{10, 20, 30}
	g2 := model.Genotype{0, 0, 0}
	if err := LineRecombination(g1, g2, rv); err != nil {
		t.Fatalf("line recombination: %v", err)
	}
	for i, want := range []int{10, 20, 30} {
		if g1[i] != want {
			t.Fatalf("g1[%d]: got=%d want=%d", i, g1[i], want)
		}
		if g2[i] != want {
			t.Fatalf("g2[%d]: got=%d want=%d", i, g2[i], want)
		}
	}
}

func TestIntermediateRecombinationDrawsPerGene(t *testing.T) {
	// First gene keeps both parents (alpha=1, beta=0 maps g2 onto g1);
	// second gene midpoints both. A single shared pair could not produce
	// both effects.
	rv := &steppingSource{draws: []float64{1, 0, 0.5, 0.5}}
	g1 := model.Genotype{10, 20}
	g2 := model.Genotype{0, 0}
	if err := IntermediateRecombination(g1, g2, rv); err != nil {
		t.Fatalf("intermediate recombination: %v", err)
	}
	if g1[0] != 10 || g2[0] != 10 {
		t.Fatalf("first gene: g1=%d g2=%d", g1[0], g2[0])
	}
	if g1[1] != 10 || g2[1] != 10 {
		t.Fatalf("second gene midpoint: g1=%d g2=%d", g1[1], g2[1])
	}
}

func TestRecombinationKeepsIntegerGenes(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	rv := randvar.Uniform{Rand: rng, Min: 0, Max: 1}
	for i := 0; i < 100; i++ {
		g1 := model.Genotype{rng.Intn(100), rng.Intn(100), rng.Intn(100)}
		g2 := model.Genotype{rng.Intn(100), rng.Intn(100), rng.Intn(100)}
		if err := IntermediateRecombination(g1, g2, rv); err != nil {
			t.Fatalf("intermediate recombination: %v", err)
		}
		if len(g1) != 3 || len(g2) != 3 {
			t.Fatalf("length changed: %d, %d", len(g1), len(g2))
		}
	}
}

func TestBlendRoundsHalfUp(t *testing.T) {
	// 0.5*1 + 0.5*2 = 1.5 rounds up to 2 for both outputs.
	a, b := blend(1, 2, 0.5, 0.5)
	if a != 2 || b != 2 {
		t.Fatalf("expected round-half-up to 2, got %d and %d", a, b)
	}
}
