// Package swarm implements a quantum-behaved particle swarm: the collaborator
// the multi-swarm solver drives. A swarm owns its particles, advances their
// positions one iteration at a time, and exposes a single attractor — its
// best-known point. Heights are maximized.
package swarm

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"metis/internal/logging"
)

// contractionExpansion scales the quantum position update. Values near 0.75
// balance convergence against exploration for most landscapes.
const contractionExpansion = 0.75

// Particle is one candidate point with its current and best-known state.
type Particle struct {
	Position   []float64
	Height     float64
	BestPos    []float64
	BestHeight float64
	evaluated  bool
}

// Attractor is a swarm's current best point.
type Attractor struct {
	Position []float64
	Height   float64
}

// Config parameterizes a Swarm.
type Config struct {
	// Size is the particle count. Required, positive.
	Size int
	// InitialPositions seeds the particles. Required; the multiswarm solver
	// owns the seeding recipe. Must have Size entries.
	InitialPositions [][]float64
	// Min and Max are parallel per-dimension bounds; empty disables clamping.
	Min []float64
	Max []float64
	// Rand drives the quantum draws. Defaults to a time-seeded source.
	Rand *rand.Rand
	// Logger receives per-iteration progress. Nil disables logging.
	Logger *logging.Logger
}

// Swarm is a group of quantum-behaved particles.
type Swarm struct {
	particles []*Particle
	attractor Attractor
	attracted bool
	min, max  []float64
	rng       *rand.Rand
	logger    *logging.Logger
}

// New validates cfg and builds a swarm around the supplied positions.
func New(cfg Config) (*Swarm, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("swarm size must be > 0, got %d", cfg.Size)
	}
	if len(cfg.InitialPositions) != cfg.Size {
		return nil, fmt.Errorf("initial positions mismatch: got=%d want=%d", len(cfg.InitialPositions), cfg.Size)
	}
	if len(cfg.Min) != len(cfg.Max) {
		return nil, fmt.Errorf("constraint vectors mismatch: min=%d max=%d", len(cfg.Min), len(cfg.Max))
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	particles := make([]*Particle, cfg.Size)
	for i, position := range cfg.InitialPositions {
		p := append([]float64(nil), position...)
		particles[i] = &Particle{
			Position: p,
			BestPos:  append([]float64(nil), p...),
		}
	}
	return &Swarm{
		particles: particles,
		min:       cfg.Min,
		max:       cfg.Max,
		rng:       rng,
		logger:    cfg.Logger,
	}, nil
}

// Particles exposes the swarm's particle collection.
func (s *Swarm) Particles() []*Particle {
	return s.particles
}

// Evaluate scores every particle and folds the result into each particle's
// personal best.
func (s *Swarm) Evaluate(f func(position []float64) float64) {
	for _, p := range s.particles {
		p.Height = f(p.Position)
		if !p.evaluated || p.Height > p.BestHeight {
			p.BestHeight = p.Height
			p.BestPos = append(p.BestPos[:0], p.Position...)
		}
		p.evaluated = true
	}
}

// UpdateAttractor recomputes and returns the swarm's best-known point: the
// highest personal best across all particles.
func (s *Swarm) UpdateAttractor() Attractor {
	best := s.particles[0]
	for _, p := range s.particles[1:] {
		if p.BestHeight > best.BestHeight {
			best = p
		}
	}
	if !s.attracted || best.BestHeight > s.attractor.Height {
		s.attractor = Attractor{
			Position: append([]float64(nil), best.BestPos...),
			Height:   best.BestHeight,
		}
		s.attracted = true
	}
	return s.attractor
}

// Mutate advances the particle dynamics one iteration: every coordinate moves
// to a stochastic blend of its personal best and the attractor, displaced by
// the contraction-expansion term around the swarm's mean best position.
func (s *Swarm) Mutate() {
	mean := s.meanBest()
	attractor := s.attractor
	if !s.attracted {
		attractor = s.UpdateAttractor()
	}

	for _, p := range s.particles {
		for d := range p.Position {
			phi := s.rng.Float64()
			local := phi*p.BestPos[d] + (1-phi)*attractor.Position[d]

			u := s.rng.Float64()
			for u == 0 {
				u = s.rng.Float64()
			}
			spread := contractionExpansion * math.Abs(mean[d]-p.Position[d]) * math.Log(1/u)
			if s.rng.Float64() < 0.5 {
				p.Position[d] = local + spread
			} else {
				p.Position[d] = local - spread
			}

			if len(s.min) > 0 {
				if p.Position[d] < s.min[d] {
					p.Position[d] = s.min[d]
				}
				if p.Position[d] > s.max[d] {
					p.Position[d] = s.max[d]
				}
			}
		}
	}
	s.logger.Debugf("swarm mutated size=%d spread_center=%v", len(s.particles), mean)
}

// Diameter is the largest pairwise particle distance, used by the multiswarm
// convergence test.
func (s *Swarm) Diameter() float64 {
	diameter := 0.0
	for i := 0; i < len(s.particles); i++ {
		for j := i + 1; j < len(s.particles); j++ {
			d := floats.Distance(s.particles[i].Position, s.particles[j].Position, 2)
			if d > diameter {
				diameter = d
			}
		}
	}
	return diameter
}

// meanBest averages the personal-best positions across the swarm.
func (s *Swarm) meanBest() []float64 {
	mean := make([]float64, len(s.particles[0].BestPos))
	for _, p := range s.particles {
		floats.Add(mean, p.BestPos)
	}
	floats.Scale(1/float64(len(s.particles)), mean)
	return mean
}
