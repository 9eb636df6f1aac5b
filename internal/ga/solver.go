// Package ga implements the genetic algorithm solver: a fixed, even-sized
// population of integer genotypes evolved by concurrent fitness evaluation,
// binary tournament selection, and space-delegated reproduction.
//
// The GA maximizes: the tracked best is the highest fitness seen across all
// generations. This is a per-solver contract; gwo minimizes.
package ga

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"metis/internal/logging"
	"metis/internal/model"
	"metis/internal/randvar"
)

// EvaluationFunc scores a genotype. Higher is better.
type EvaluationFunc func(model.Genotype) float64

// ExitFunc reports whether the run should stop after the given generation.
// A nil predicate means unbounded iteration.
type ExitFunc func(generation int, best Best) bool

// Best is the highest-fitness individual observed so far.
type Best struct {
	Fitness  float64
	Genotype model.Genotype
}

// Space is the genotype-space collaborator the solver breeds through.
type Space interface {
	Random() (model.Genotype, error)
	Reproduce(parent1, parent2 model.Genotype, mutation, recombination randvar.Source) (model.Genotype, model.Genotype, error)
}

// Config parameterizes a Solver. Validation failures at construction are
// fatal; an invalid configuration never reaches Solve.
type Config struct {
	// PopulationSize is the fixed individual count. Required, positive, even.
	PopulationSize int
	// Space generates and recombines genotypes. Required.
	Space Space
	// MutationProbability parameterizes the geometric mutation-delta variate.
	MutationProbability float64
	// RecombinationProbability parameterizes the uniform blend-coefficient
	// variate.
	RecombinationProbability float64
	// Starting, when present, seeds the initial population instead of
	// sampling the space.
	Starting []model.Genotype
	// Exit stops the run; nil runs unboundedly.
	Exit ExitFunc
	// Workers caps the evaluation pool. Defaults to hardware parallelism.
	Workers int
	// Seed drives selection, shuffling and the variate generators.
	Seed int64
	// Logger receives per-generation progress. Nil disables logging.
	Logger *logging.Logger
}

// individual pairs a genotype with its fitness. Fitness is absent until the
// evaluation barrier releases, then immutable for the individual's lifetime.
type individual struct {
	genotype model.Genotype
	fitness  float64
}

// Solver drives generations of a genetic algorithm.
type Solver struct {
	cfg             Config
	rng             *rand.Rand
	mutationRV      randvar.Source
	recombinationRV randvar.Source
	generation      int
}

// New validates cfg and builds a solver.
func New(cfg Config) (*Solver, error) {
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0, got %d", cfg.PopulationSize)
	}
	if cfg.PopulationSize%2 != 0 {
		return nil, fmt.Errorf("population size must be even, got %d", cfg.PopulationSize)
	}
	if cfg.Space == nil {
		return nil, fmt.Errorf("genotype space is required")
	}
	if cfg.MutationProbability < 0 || cfg.MutationProbability > 1 {
		return nil, fmt.Errorf("mutation probability must be in [0, 1], got %v", cfg.MutationProbability)
	}
	if cfg.RecombinationProbability < 0 || cfg.RecombinationProbability > 1 {
		return nil, fmt.Errorf("recombination probability must be in [0, 1], got %v", cfg.RecombinationProbability)
	}
	if len(cfg.Starting) > 0 && len(cfg.Starting) != cfg.PopulationSize {
		return nil, fmt.Errorf("starting population mismatch: got=%d want=%d", len(cfg.Starting), cfg.PopulationSize)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Solver{
		cfg:             cfg,
		rng:             rng,
		mutationRV:      randvar.Geometric{Rand: rand.New(rand.NewSource(cfg.Seed + 1)), P: cfg.MutationProbability},
		recombinationRV: randvar.Uniform{Rand: rand.New(rand.NewSource(cfg.Seed + 2)), Min: 0, Max: cfg.RecombinationProbability},
	}, nil
}

// Solve evolves the population until the exit condition fires and returns the
// overall best individual. Runtime invariant violations abort the run; there
// are no retries.
func (s *Solver) Solve(evaluate EvaluationFunc) (Best, error) {
	if evaluate == nil {
		return Best{}, fmt.Errorf("evaluation function is required")
	}

	population, err := s.initialPopulation()
	if err != nil {
		return Best{}, err
	}

	var overall Best
	haveOverall := false
	for {
		s.generation++

		s.evaluatePopulation(population, evaluate)

		generationBest, err := fittestOf(population)
		if err != nil {
			return Best{}, err
		}
		if !haveOverall || generationBest.fitness > overall.Fitness {
			overall = Best{Fitness: generationBest.fitness, Genotype: generationBest.genotype.Clone()}
			haveOverall = true
		}
		s.cfg.Logger.Debugf("ga generation=%d best=%v overall=%v", s.generation, generationBest.fitness, overall.Fitness)

		if s.cfg.Exit != nil && s.cfg.Exit(s.generation, overall) {
			return overall, nil
		}

		population, err = s.nextGeneration(population)
		if err != nil {
			return Best{}, err
		}
	}
}

// Generation reports the number of completed generations.
func (s *Solver) Generation() int {
	return s.generation
}

func (s *Solver) initialPopulation() ([]*individual, error) {
	population := make([]*individual, s.cfg.PopulationSize)
	if len(s.cfg.Starting) > 0 {
		for i, g := range s.cfg.Starting {
			population[i] = &individual{genotype: g.Clone()}
		}
		return population, nil
	}
	for i := range population {
		g, err := s.cfg.Space.Random()
		if err != nil {
			return nil, fmt.Errorf("sample initial genotype %d: %w", i, err)
		}
		population[i] = &individual{genotype: g}
	}
	return population, nil
}

// evaluatePopulation scores every individual concurrently. Each individual is
// an independent task; a counting barrier sized to the population blocks the
// generation loop until every task has signalled, and fitness writes are
// serialized by a lock. Selection never observes a partially evaluated
// generation.
func (s *Solver) evaluatePopulation(population []*individual, evaluate EvaluationFunc) {
	workerCount := s.cfg.Workers
	if workerCount > len(population) {
		workerCount = len(population)
	}

	jobs := make(chan *individual)
	var mu sync.Mutex
	var barrier sync.WaitGroup
	barrier.Add(len(population))

	for w := 0; w < workerCount; w++ {
		go func() {
			for ind := range jobs {
				fitness := evaluate(ind.genotype)
				mu.Lock()
				ind.fitness = fitness
				mu.Unlock()
				barrier.Done()
			}
		}()
	}

	for _, ind := range population {
		jobs <- ind
	}
	close(jobs)
	barrier.Wait()
}

// nextGeneration fully replaces the population: binary tournament selection
// population-size times, a shuffle of the selected pool, then pairwise
// reproduction through the genotype space.
func (s *Solver) nextGeneration(population []*individual) ([]*individual, error) {
	selected := make([]*individual, 0, s.cfg.PopulationSize)
	for i := 0; i < s.cfg.PopulationSize; i++ {
		winner, err := s.binaryTournament(population)
		if err != nil {
			return nil, err
		}
		selected = append(selected, winner)
	}

	s.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	next := make([]*individual, 0, s.cfg.PopulationSize)
	for i := 0; i+1 < len(selected); i += 2 {
		child1, child2, err := s.cfg.Space.Reproduce(selected[i].genotype, selected[i+1].genotype, s.mutationRV, s.recombinationRV)
		if err != nil {
			return nil, fmt.Errorf("reproduce pair %d: %w", i/2, err)
		}
		next = append(next, &individual{genotype: child1}, &individual{genotype: child2})
		if len(next) > s.cfg.PopulationSize {
			return nil, fmt.Errorf("children exceed population size: got=%d want=%d", len(next), s.cfg.PopulationSize)
		}
	}
	return next, nil
}

// binaryTournament picks two distinct individuals uniformly at random and
// keeps the higher-fitness one.
func (s *Solver) binaryTournament(population []*individual) (*individual, error) {
	if len(population) < 2 {
		return nil, fmt.Errorf("binary tournament requires at least 2 individuals, got %d", len(population))
	}
	i := s.rng.Intn(len(population))
	j := s.rng.Intn(len(population))
	for j == i {
		j = s.rng.Intn(len(population))
	}
	if population[i].fitness >= population[j].fitness {
		return population[i], nil
	}
	return population[j], nil
}

// fittestOf returns the maximum-fitness individual. An empty population is a
// contract violation.
func fittestOf(population []*individual) (*individual, error) {
	if len(population) == 0 {
		return nil, fmt.Errorf("fittest of empty population")
	}
	best := population[0]
	for _, ind := range population[1:] {
		if ind.fitness > best.fitness {
			best = ind
		}
	}
	return best, nil
}

// MaxGenerations builds an exit condition that stops after n generations.
func MaxGenerations(n int) ExitFunc {
	return func(generation int, _ Best) bool {
		return generation >= n
	}
}

// FitnessAtLeast builds an exit condition that stops once the overall best
// fitness reaches target.
func FitnessAtLeast(target float64) ExitFunc {
	return func(_ int, best Best) bool {
		return best.Fitness >= target
	}
}
