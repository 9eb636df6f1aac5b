// Package gwo implements the grey wolf optimizer: a fixed population of
// continuous positions updated each iteration toward the three current
// leaders (alpha, beta, delta) under a linearly decaying exploration
// coefficient.
//
// The GWO minimizes: the tracked best is the lowest fitness seen. This is a
// per-solver contract; ga and mswarm maximize.
package gwo

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"metis/internal/logging"
)

// EvaluationFunc scores a position. Lower is better.
type EvaluationFunc func(position []float64) float64

// ExitFunc reports whether the run should stop after the given iteration.
// A nil predicate means unbounded iteration.
type ExitFunc func(iteration int, best Best) bool

// Best is the lowest-fitness position observed so far.
type Best struct {
	Fitness  float64
	Position []float64
}

const defaultMaxIterations = 100

// Config parameterizes a Solver.
type Config struct {
	// PopulationSize is the fixed wolf count. Required, positive, even.
	PopulationSize int
	// Dimensions is the position length. Required, positive.
	Dimensions int
	// Min and Max are parallel per-dimension bounds. Either both are empty or
	// both have Dimensions entries.
	Min []float64
	Max []float64
	// MaxIterations governs the exploration-coefficient decay. Defaults to
	// 100.
	MaxIterations int
	// Starting, when present, seeds the initial positions.
	Starting [][]float64
	// Exit stops the run; nil runs unboundedly.
	Exit ExitFunc
	// Seed drives the position-update draws.
	Seed int64
	// Logger receives per-iteration progress; Quiet suppresses console echo.
	Logger *logging.Logger
	Quiet  bool
}

// Solver drives iterations of a grey wolf optimizer.
type Solver struct {
	cfg         Config
	rng         *rand.Rand
	iteration   int
	bestHistory []float64
}

// New validates cfg and builds a solver.
func New(cfg Config) (*Solver, error) {
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0, got %d", cfg.PopulationSize)
	}
	if cfg.PopulationSize%2 != 0 {
		return nil, fmt.Errorf("population size must be even, got %d", cfg.PopulationSize)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be > 0, got %d", cfg.Dimensions)
	}
	if len(cfg.Min) != len(cfg.Max) {
		return nil, fmt.Errorf("constraint vectors mismatch: min=%d max=%d", len(cfg.Min), len(cfg.Max))
	}
	if len(cfg.Min) != 0 && len(cfg.Min) != cfg.Dimensions {
		return nil, fmt.Errorf("constraint count mismatch: got=%d want=%d", len(cfg.Min), cfg.Dimensions)
	}
	if len(cfg.Starting) > 0 && len(cfg.Starting) != cfg.PopulationSize {
		return nil, fmt.Errorf("starting population mismatch: got=%d want=%d", len(cfg.Starting), cfg.PopulationSize)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Quiet {
		cfg.Logger.SetQuiet(true)
	}
	return &Solver{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Solve iterates the pack until the exit condition fires and returns the
// overall best position. When concurrent is set, fitness evaluations run as
// independent goroutines collected positionally before the loop proceeds.
func (s *Solver) Solve(evaluate EvaluationFunc, concurrent bool) (Best, error) {
	if evaluate == nil {
		return Best{}, fmt.Errorf("evaluation function is required")
	}

	positions := s.initializePopulation()
	fitness := s.evaluateAll(positions, evaluate, concurrent)

	best := snapshotBest(positions, fitness)
	for {
		s.iteration++

		next, err := s.updatePositions(positions, fitness, s.iteration)
		if err != nil {
			return Best{}, err
		}
		positions = next
		fitness = s.evaluateAll(positions, evaluate, concurrent)

		iterationBest := snapshotBest(positions, fitness)
		if iterationBest.Fitness < best.Fitness {
			best = iterationBest
		}
		s.bestHistory = append(s.bestHistory, iterationBest.Fitness)
		s.cfg.Logger.Debugf("gwo iteration=%d best=%v overall=%v", s.iteration, iterationBest.Fitness, best.Fitness)

		if s.cfg.Exit != nil && s.cfg.Exit(s.iteration, best) {
			return best, nil
		}
	}
}

// BestHistory returns the per-iteration best fitness log.
func (s *Solver) BestHistory() []float64 {
	return append([]float64(nil), s.bestHistory...)
}

// initializePopulation samples each wolf per-dimension uniformly within
// [Min_i, Max_i]. Without constraints every coordinate is uniform in [0, 1).
func (s *Solver) initializePopulation() [][]float64 {
	if len(s.cfg.Starting) > 0 {
		positions := make([][]float64, len(s.cfg.Starting))
		for i, p := range s.cfg.Starting {
			positions[i] = append([]float64(nil), p...)
		}
		return positions
	}
	positions := make([][]float64, s.cfg.PopulationSize)
	for i := range positions {
		position := make([]float64, s.cfg.Dimensions)
		for d := range position {
			if len(s.cfg.Min) > 0 {
				position[d] = s.cfg.Min[d] + s.rng.Float64()*(s.cfg.Max[d]-s.cfg.Min[d])
			} else {
				position[d] = s.rng.Float64()
			}
		}
		positions[i] = position
	}
	return positions
}

// evaluateAll scores every position. Concurrent evaluations write by index so
// completion order is irrelevant; all results are collected before returning.
func (s *Solver) evaluateAll(positions [][]float64, evaluate EvaluationFunc, concurrent bool) []float64 {
	fitness := make([]float64, len(positions))
	if !concurrent {
		for i, p := range positions {
			fitness[i] = evaluate(p)
		}
		return fitness
	}

	var wg sync.WaitGroup
	wg.Add(len(positions))
	for i := range positions {
		go func(i int) {
			defer wg.Done()
			fitness[i] = evaluate(positions[i])
		}(i)
	}
	wg.Wait()
	return fitness
}

// updatePositions recomputes every wolf from the same pre-update snapshot and
// replaces the population wholesale. The exploration coefficient decays
// linearly from 2 to 0 as iteration approaches MaxIterations.
func (s *Solver) updatePositions(positions [][]float64, fitness []float64, iteration int) ([][]float64, error) {
	alpha, beta, delta, err := findAlphaBetaDelta(fitness)
	if err != nil {
		return nil, err
	}
	leaders := [3][]float64{positions[alpha], positions[beta], positions[delta]}

	a := 2.0 - float64(iteration)*(2.0/float64(s.cfg.MaxIterations))
	if a < 0 {
		a = 0
	}

	next := make([][]float64, len(positions))
	for w := range positions {
		position := make([]float64, s.cfg.Dimensions)
		for d := 0; d < s.cfg.Dimensions; d++ {
			sum := 0.0
			for _, leader := range leaders {
				ak := a * (2*s.rng.Float64() - 1)
				ck := 2 * s.rng.Float64()
				distance := ck*leader[d] - positions[w][d]
				if distance < 0 {
					distance = -distance
				}
				sum += leader[d] - ak*distance
			}
			coordinate := sum / 3
			if len(s.cfg.Min) > 0 {
				if coordinate < s.cfg.Min[d] {
					coordinate = s.cfg.Min[d]
				}
				if coordinate > s.cfg.Max[d] {
					coordinate = s.cfg.Max[d]
				}
			}
			position[d] = coordinate
		}
		next[w] = position
	}
	return next, nil
}

// findAlphaBetaDelta returns the indices of the three lowest-fitness wolves,
// found by repeated minimum search with first-occurrence tie-breaks.
func findAlphaBetaDelta(fitness []float64) (int, int, int, error) {
	if len(fitness) < 3 {
		return 0, 0, 0, fmt.Errorf("leader search requires at least 3 wolves, got %d", len(fitness))
	}
	chosen := [3]int{}
	taken := make(map[int]bool, 3)
	for k := 0; k < 3; k++ {
		idx := -1
		for i, f := range fitness {
			if taken[i] {
				continue
			}
			if idx == -1 || f < fitness[idx] {
				idx = i
			}
		}
		chosen[k] = idx
		taken[idx] = true
	}
	return chosen[0], chosen[1], chosen[2], nil
}

func snapshotBest(positions [][]float64, fitness []float64) Best {
	bestIdx := 0
	for i, f := range fitness {
		if f < fitness[bestIdx] {
			bestIdx = i
		}
	}
	return Best{
		Fitness:  fitness[bestIdx],
		Position: append([]float64(nil), positions[bestIdx]...),
	}
}

// MaxIterations builds an exit condition that stops after n iterations.
func MaxIterations(n int) ExitFunc {
	return func(iteration int, _ Best) bool {
		return iteration >= n
	}
}

// FitnessAtMost builds an exit condition that stops once the overall best
// fitness falls to target.
func FitnessAtMost(target float64) ExitFunc {
	return func(_ int, best Best) bool {
		return best.Fitness <= target
	}
}
