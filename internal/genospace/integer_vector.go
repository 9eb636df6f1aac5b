// Package genospace implements the integer-vector genotype space the genetic
// algorithm solver breeds in: constrained random sampling, delta mutation,
// recombination, and constraint repair.
package genospace

import (
	"fmt"
	"math/rand"
	"time"

	"metis/internal/model"
	"metis/internal/randvar"
)

// RecombinationType selects one of the closed set of recombination operators.
// The operator is bound once at construction.
type RecombinationType int

const (
	// RecombinationIntermediate blends every gene pair with fresh per-gene
	// coefficients.
	RecombinationIntermediate RecombinationType = iota
	// RecombinationLine blends all gene pairs with a single coefficient pair.
	RecombinationLine
)

// ParseRecombinationType maps a config string to a RecombinationType.
func ParseRecombinationType(s string) (RecombinationType, error) {
	switch s {
	case "intermediate":
		return RecombinationIntermediate, nil
	case "line":
		return RecombinationLine, nil
	default:
		return 0, fmt.Errorf("unsupported recombination type: %s", s)
	}
}

func (t RecombinationType) String() string {
	switch t {
	case RecombinationIntermediate:
		return "intermediate"
	case RecombinationLine:
		return "line"
	default:
		return fmt.Sprintf("recombination(%d)", int(t))
	}
}

// Options configures an IntegerVector space.
type Options struct {
	// Dimensions is the fixed genotype length. Required, must be > 0.
	Dimensions int
	// Recombination selects the operator applied during Reproduce.
	Recombination RecombinationType
	// Constraints, when present, must have exactly one entry per dimension.
	Constraints []model.Constraint
	// RandomGenotype, when set, overrides constrained sampling in Random.
	RandomGenotype func() (model.Genotype, error)
	// Rand drives mutation coin flips. Defaults to a time-seeded source.
	Rand *rand.Rand
}

type recombineFunc func(g1, g2 model.Genotype, rv randvar.Source) error

// IntegerVector is a genotype space over fixed-length integer vectors.
type IntegerVector struct {
	dimensions  int
	recombine   recombineFunc
	constraints []model.Constraint
	randomFn    func() (model.Genotype, error)
	rng         *rand.Rand
}

// NewIntegerVector validates the options and binds the recombination
// operator. Configuration errors here are fatal; an invalid space must never
// reach a solver.
func NewIntegerVector(opts Options) (*IntegerVector, error) {
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be > 0, got %d", opts.Dimensions)
	}
	var recombine recombineFunc
	switch opts.Recombination {
	case RecombinationIntermediate:
		recombine = IntermediateRecombination
	case RecombinationLine:
		recombine = LineRecombination
	default:
		return nil, fmt.Errorf("unsupported recombination type: %d", opts.Recombination)
	}
	if opts.Constraints != nil && len(opts.Constraints) != opts.Dimensions {
		return nil, fmt.Errorf("constraint count mismatch: got=%d want=%d", len(opts.Constraints), opts.Dimensions)
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &IntegerVector{
		dimensions:  opts.Dimensions,
		recombine:   recombine,
		constraints: opts.Constraints,
		randomFn:    opts.RandomGenotype,
		rng:         rng,
	}, nil
}

// Dimensions reports the fixed genotype length of the space.
func (s *IntegerVector) Dimensions() int {
	return s.dimensions
}

// Random produces a fresh genotype. An explicit generator takes priority;
// otherwise each gene is sampled independently and uniformly from its
// dimension's [From, To) range using a cryptographically strong source.
// Unconstrained sampling without an explicit generator is unsupported.
func (s *IntegerVector) Random() (model.Genotype, error) {
	if s.randomFn != nil {
		return s.randomFn()
	}
	if s.constraints == nil {
		return nil, fmt.Errorf("random genotype requires constraints or an explicit generator")
	}
	genotype := make(model.Genotype, s.dimensions)
	for i, c := range s.constraints {
		width := c.To - c.From
		if width <= 0 {
			return nil, fmt.Errorf("constraint %d has empty range [%d, %d)", i, c.From, c.To)
		}
		offset, err := randvar.CryptoIntn(width)
		if err != nil {
			return nil, fmt.Errorf("sample gene %d: %w", i, err)
		}
		genotype[i] = c.From + offset
	}
	return genotype, nil
}

// Reproduce breeds two children from two parents: both parents are cloned,
// each clone is delta-mutated gene by gene, the bound recombination operator
// blends the pair in place, and constrained spaces repair the results.
func (s *IntegerVector) Reproduce(parent1, parent2 model.Genotype, mutation, recombination randvar.Source) (model.Genotype, model.Genotype, error) {
	child1 := parent1.Clone()
	child2 := parent2.Clone()

	s.mutate(child1, mutation)
	s.mutate(child2, mutation)

	if err := s.recombine(child1, child2, recombination); err != nil {
		return nil, nil, err
	}

	if s.constraints != nil {
		s.Repair(child1)
		s.Repair(child2)
	}
	return child1, child2, nil
}

// mutate perturbs every gene by a delta drawn from rv, added or subtracted
// with equal probability.
func (s *IntegerVector) mutate(g model.Genotype, rv randvar.Source) {
	for i := range g {
		delta := int(rv.Next())
		if s.rng.Float64() < 0.5 {
			g[i] += delta
		} else {
			g[i] -= delta
		}
	}
}

// Repair clamps every gene into its dimension's [From, To]. It is idempotent
// and never moves an in-bounds gene.
func (s *IntegerVector) Repair(g model.Genotype) {
	for i := range g {
		if i >= len(s.constraints) {
			return
		}
		c := s.constraints[i]
		if g[i] < c.From {
			g[i] = c.From
		}
		if g[i] > c.To {
			g[i] = c.To
		}
	}
}
