// Package mswarm implements the multi-swarm QPSO solver: a dynamically sized
// collection of particle swarms kept diverse through anti-convergence
// spawning, exclusion between attractors, and in-slot reinitialization, so
// the collection can track multiple optima at once.
//
// The solver maximizes: the tracked best is the highest attractor height seen.
package mswarm

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"metis/internal/logging"
	"metis/internal/swarm"
)

// ExclusionRadius is the minimum allowed distance between two swarm
// attractors before the lower one is reinitialized.
const ExclusionRadius = 0.5

// defaultSwarmSize is the particle count per swarm when unspecified.
const defaultSwarmSize = 20

// maxDiverged caps how many not-converged swarms are tolerated before the
// worst of them is removed.
const maxDiverged = 3

// EvaluationFunc scores a position. Higher is better.
type EvaluationFunc func(position []float64) float64

// ExitFunc reports whether the run should stop after the given iteration.
// A nil predicate means unbounded iteration.
type ExitFunc func(iteration int, best swarm.Attractor) bool

// Config parameterizes a Solver.
type Config struct {
	// SwarmSize is the particle count per swarm. Defaults to 20.
	SwarmSize int
	// NumSwarms is the initial swarm count. Required, positive.
	NumSwarms int
	// Min and Max are parallel per-dimension bounds.
	Min []float64
	Max []float64
	// StartingPositions seeds the initial swarms; outer length NumSwarms,
	// inner length SwarmSize. Highest seeding priority.
	StartingPositions [][][]float64
	// RandomPosition, when set, generates seed positions for new and
	// reinitialized swarms. Second seeding priority.
	RandomPosition func() []float64
	// Exit stops the run; nil runs unboundedly.
	Exit ExitFunc
	// Seed drives the swarm dynamics and uniform seeding.
	Seed int64
	// Logger receives per-iteration progress. Nil disables logging.
	Logger *logging.Logger
}

// Solver drives iterations over a dynamic collection of swarms.
type Solver struct {
	cfg       Config
	rng       *rand.Rand
	swarms    []*swarm.Swarm
	iteration int
}

// New validates cfg and builds a solver. Positions must be seedable through
// explicit starting positions, an explicit generator, or uniform sampling
// within constraints; the absence of all three is a configuration error.
func New(cfg Config) (*Solver, error) {
	if cfg.NumSwarms <= 0 {
		return nil, fmt.Errorf("swarm count must be > 0, got %d", cfg.NumSwarms)
	}
	if cfg.SwarmSize <= 0 {
		cfg.SwarmSize = defaultSwarmSize
	}
	if len(cfg.Min) != len(cfg.Max) {
		return nil, fmt.Errorf("constraint vectors mismatch: min=%d max=%d", len(cfg.Min), len(cfg.Max))
	}
	if len(cfg.StartingPositions) > 0 && len(cfg.StartingPositions) != cfg.NumSwarms {
		return nil, fmt.Errorf("starting positions mismatch: got=%d want=%d", len(cfg.StartingPositions), cfg.NumSwarms)
	}
	if len(cfg.StartingPositions) == 0 && cfg.RandomPosition == nil && len(cfg.Min) == 0 {
		return nil, fmt.Errorf("position seeding requires starting positions, a generator, or constraints")
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Solver{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Solve iterates the swarm collection until the exit condition fires and
// returns the overall best attractor.
func (s *Solver) Solve(evaluate EvaluationFunc) (swarm.Attractor, error) {
	if evaluate == nil {
		return swarm.Attractor{}, fmt.Errorf("evaluation function is required")
	}

	if err := s.buildInitialSwarms(); err != nil {
		return swarm.Attractor{}, err
	}
	best := swarm.Attractor{}
	for i, sw := range s.swarms {
		sw.Evaluate(evaluate)
		attractor := sw.UpdateAttractor()
		if i == 0 || attractor.Height > best.Height {
			best = attractor
		}
	}

	for {
		s.iteration++

		if err := s.antiConvergence(evaluate); err != nil {
			return swarm.Attractor{}, err
		}

		for _, sw := range s.swarms {
			sw.Mutate()
			sw.Evaluate(evaluate)
		}

		for _, sw := range s.swarms {
			attractor := sw.UpdateAttractor()
			if attractor.Height > best.Height {
				best = attractor
			}
		}

		if err := s.exclusion(evaluate); err != nil {
			return swarm.Attractor{}, err
		}

		s.cfg.Logger.Debugf("mswarm iteration=%d swarms=%d best=%v", s.iteration, len(s.swarms), best.Height)
		if s.cfg.Exit != nil && s.cfg.Exit(s.iteration, best) {
			return best, nil
		}
	}
}

// SwarmCount reports the current size of the swarm collection.
func (s *Solver) SwarmCount() int {
	return len(s.swarms)
}

// Iteration reports the number of completed iterations.
func (s *Solver) Iteration() int {
	return s.iteration
}

// antiConvergence counts swarms whose particles still span more than twice
// the exclusion radius. When every swarm has converged a fresh swarm is
// spawned to keep exploring; when more than maxDiverged have not, the
// not-converged swarm with the lowest attractor height is removed.
func (s *Solver) antiConvergence(evaluate EvaluationFunc) error {
	notConverged := 0
	worst := -1
	for i, sw := range s.swarms {
		if sw.Diameter() > 2*ExclusionRadius {
			notConverged++
			if worst == -1 || sw.UpdateAttractor().Height < s.swarms[worst].UpdateAttractor().Height {
				worst = i
			}
		}
	}

	if notConverged == 0 {
		fresh, err := s.newSwarm()
		if err != nil {
			return err
		}
		fresh.Evaluate(evaluate)
		fresh.UpdateAttractor()
		s.swarms = append(s.swarms, fresh)
		return nil
	}
	if notConverged > maxDiverged {
		s.swarms = append(s.swarms[:worst], s.swarms[worst+1:]...)
	}
	return nil
}

// exclusion scans every unordered pair of swarms; when two attractors fall
// within the exclusion radius the lower-height swarm of the pair is marked,
// then every marked swarm is replaced in its slot by a freshly seeded one.
// Exactly one swarm of a too-close pair is reinitialized, never both.
func (s *Solver) exclusion(evaluate EvaluationFunc) error {
	marked := make([]bool, len(s.swarms))
	for i := 0; i < len(s.swarms); i++ {
		for j := i + 1; j < len(s.swarms); j++ {
			if marked[i] || marked[j] {
				continue
			}
			a := s.swarms[i].UpdateAttractor()
			b := s.swarms[j].UpdateAttractor()
			if floats.Distance(a.Position, b.Position, 2) >= ExclusionRadius {
				continue
			}
			if a.Height <= b.Height {
				marked[i] = true
			} else {
				marked[j] = true
			}
		}
	}

	for i, m := range marked {
		if !m {
			continue
		}
		fresh, err := s.newSwarm()
		if err != nil {
			return err
		}
		fresh.Evaluate(evaluate)
		fresh.UpdateAttractor()
		s.swarms[i] = fresh
	}
	return nil
}

func (s *Solver) buildInitialSwarms() error {
	s.swarms = make([]*swarm.Swarm, 0, s.cfg.NumSwarms)
	for i := 0; i < s.cfg.NumSwarms; i++ {
		var sw *swarm.Swarm
		var err error
		if len(s.cfg.StartingPositions) > 0 {
			sw, err = s.swarmFromPositions(s.cfg.StartingPositions[i])
		} else {
			sw, err = s.newSwarm()
		}
		if err != nil {
			return fmt.Errorf("build swarm %d: %w", i, err)
		}
		s.swarms = append(s.swarms, sw)
	}
	return nil
}

// newSwarm builds a swarm with freshly seeded positions: the explicit
// generator when configured, else uniform sampling within constraints.
func (s *Solver) newSwarm() (*swarm.Swarm, error) {
	positions := make([][]float64, s.cfg.SwarmSize)
	for i := range positions {
		if s.cfg.RandomPosition != nil {
			positions[i] = append([]float64(nil), s.cfg.RandomPosition()...)
			continue
		}
		if len(s.cfg.Min) == 0 {
			return nil, fmt.Errorf("cannot seed positions without a generator or constraints")
		}
		position := make([]float64, len(s.cfg.Min))
		for d := range position {
			position[d] = s.cfg.Min[d] + s.rng.Float64()*(s.cfg.Max[d]-s.cfg.Min[d])
		}
		positions[i] = position
	}
	return s.swarmFromPositions(positions)
}

func (s *Solver) swarmFromPositions(positions [][]float64) (*swarm.Swarm, error) {
	return swarm.New(swarm.Config{
		Size:             len(positions),
		InitialPositions: positions,
		Min:              s.cfg.Min,
		Max:              s.cfg.Max,
		Rand:             rand.New(rand.NewSource(s.rng.Int63())),
		Logger:           s.cfg.Logger,
	})
}

// MaxIterations builds an exit condition that stops after n iterations.
func MaxIterations(n int) ExitFunc {
	return func(iteration int, _ swarm.Attractor) bool {
		return iteration >= n
	}
}

// HeightAtLeast builds an exit condition that stops once the overall best
// height reaches target.
func HeightAtLeast(target float64) ExitFunc {
	return func(_ int, best swarm.Attractor) bool {
		return best.Height >= target
	}
}
