// Package metis is the public facade over the solver packages: it resolves
// objectives, runs a solver to completion, and records run artifacts and
// results.
package metis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"metis/internal/ga"
	"metis/internal/genospace"
	"metis/internal/gwo"
	"metis/internal/logging"
	"metis/internal/model"
	"metis/internal/mswarm"
	"metis/internal/objective"
	"metis/internal/stats"
	"metis/internal/storage"
	"metis/internal/swarm"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultDBPath        = "metis.db"
)

// Solver names accepted by RunRequest.Solver.
const (
	SolverGA     = "ga"
	SolverGWO    = "gwo"
	SolverMSwarm = "mswarm"
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	LogLevel      string
	Quiet         bool
}

type Client struct {
	store         storage.Store
	logger        *logging.Logger
	benchmarksDir string
	initialized   bool
}

type RunRequest struct {
	Solver     string
	Objective  string
	Dimensions int
	// Population is the individual/wolf count for ga and gwo.
	Population int
	// Iterations bounds the run (generations for ga).
	Iterations int
	Seed       int64
	Workers    int
	// Concurrent toggles concurrent evaluation for gwo.
	Concurrent bool
	// NumSwarms and SwarmSize configure mswarm.
	NumSwarms int
	SwarmSize int
	// Recombination, MutationProbability and RecombinationProbability
	// configure ga's genotype space and variate generators.
	Recombination            string
	MutationProbability      float64
	RecombinationProbability float64
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByIteration  []float64
	FinalBestFitness float64
	BestPosition     []float64
}

type ObjectiveItem struct {
	Name        string
	Description string
	Minimize    bool
	Dimensions  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(level, os.Stderr)
	logger.SetQuiet(opts.Quiet)
	return &Client{
		store:         store,
		logger:        logger,
		benchmarksDir: benchmarksDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Run executes one solver run end to end: solve, write artifacts, persist
// results. Fitness values in the summary are in the objective's native
// direction.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Solver == "" {
		req.Solver = SolverGA
	}
	if req.Objective == "" {
		req.Objective = "sphere"
	}
	obj, err := objective.Lookup(req.Objective)
	if err != nil {
		return RunSummary{}, err
	}
	if req.Dimensions <= 0 {
		req.Dimensions = obj.Dimensions
	}
	if req.Population <= 0 {
		req.Population = 20
	}
	if req.Population%2 != 0 {
		return RunSummary{}, fmt.Errorf("population must be even, got %d", req.Population)
	}
	if req.Iterations <= 0 {
		req.Iterations = 100
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	if req.NumSwarms <= 0 {
		req.NumSwarms = 4
	}
	if req.Recombination == "" {
		req.Recombination = "intermediate"
	}
	if req.MutationProbability == 0 {
		req.MutationProbability = 0.3
	}
	if req.RecombinationProbability == 0 {
		req.RecombinationProbability = 1.0
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	var history []float64
	var finalBest float64
	var bestPosition []float64
	switch req.Solver {
	case SolverGA:
		history, finalBest, bestPosition, err = c.runGA(req, obj)
	case SolverGWO:
		history, finalBest, bestPosition, err = c.runGWO(req, obj)
	case SolverMSwarm:
		history, finalBest, bestPosition, err = c.runMSwarm(req, obj)
	default:
		return RunSummary{}, fmt.Errorf("unsupported solver: %s", req.Solver)
	}
	if err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%s-%s", req.Solver, req.Objective, uuid.NewString())

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          runID,
			Solver:         req.Solver,
			Objective:      req.Objective,
			Dimensions:     req.Dimensions,
			PopulationSize: req.Population,
			SwarmSize:      req.SwarmSize,
			NumSwarms:      req.NumSwarms,
			Iterations:     req.Iterations,
			Recombination:  req.Recombination,
			MutationProb:   req.MutationProbability,
			RecombProb:     req.RecombinationProbability,
			Workers:        req.Workers,
			Concurrent:     req.Concurrent,
			Seed:           req.Seed,
		},
		BestByIteration:  history,
		Diagnostics:      stats.DiagnosticsFromHistory(history),
		FinalBestFitness: finalBest,
		BestPosition:     bestPosition,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:            runID,
		Solver:           req.Solver,
		Objective:        req.Objective,
		Dimensions:       req.Dimensions,
		PopulationSize:   req.Population,
		Iterations:       req.Iterations,
		Seed:             req.Seed,
		FinalBestFitness: finalBest,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	if err := c.store.SaveRun(ctx, model.RunRecord{
		ID:           runID,
		Solver:       req.Solver,
		Objective:    req.Objective,
		Dimensions:   req.Dimensions,
		Population:   req.Population,
		Iterations:   req.Iterations,
		Seed:         req.Seed,
		BestFitness:  finalBest,
		CreatedAtUTC: now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveBestSolution(ctx, model.BestSolution{
		RunID:    runID,
		Fitness:  finalBest,
		Position: bestPosition,
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByIteration:  append([]float64(nil), history...),
		FinalBestFitness: finalBest,
		BestPosition:     bestPosition,
	}, nil
}

// runGA evolves integer genotypes on the objective's integer lattice. The GA
// maximizes, so minimizing objectives are negated and the result restored.
func (c *Client) runGA(req RunRequest, obj objective.Objective) ([]float64, float64, []float64, error) {
	constraints := make([]model.Constraint, req.Dimensions)
	for d := range constraints {
		constraints[d] = model.Constraint{
			From: int(math.Floor(obj.Min)),
			To:   int(math.Ceil(obj.Max)),
		}
	}
	recombination, err := genospace.ParseRecombinationType(req.Recombination)
	if err != nil {
		return nil, 0, nil, err
	}
	space, err := genospace.NewIntegerVector(genospace.Options{
		Dimensions:    req.Dimensions,
		Recombination: recombination,
		Constraints:   constraints,
	})
	if err != nil {
		return nil, 0, nil, err
	}

	var history []float64
	solver, err := ga.New(ga.Config{
		PopulationSize:           req.Population,
		Space:                    space,
		MutationProbability:      req.MutationProbability,
		RecombinationProbability: req.RecombinationProbability,
		Workers:                  req.Workers,
		Seed:                     req.Seed,
		Logger:                   c.logger,
		Exit: func(generation int, best ga.Best) bool {
			history = append(history, best.Fitness)
			return generation >= req.Iterations
		},
	})
	if err != nil {
		return nil, 0, nil, err
	}

	evaluate := func(g model.Genotype) float64 {
		position := make([]float64, len(g))
		for i, v := range g {
			position[i] = float64(v)
		}
		value := obj.Eval(position)
		if obj.Minimize {
			return -value
		}
		return value
	}
	best, err := solver.Solve(evaluate)
	if err != nil {
		return nil, 0, nil, err
	}

	position := make([]float64, len(best.Genotype))
	for i, v := range best.Genotype {
		position[i] = float64(v)
	}
	return restoreDirection(history, best.Fitness, obj.Minimize, position)
}

func (c *Client) runGWO(req RunRequest, obj objective.Objective) ([]float64, float64, []float64, error) {
	min, max := obj.Bounds(req.Dimensions)
	evaluate := func(position []float64) float64 {
		value := obj.Eval(position)
		if !obj.Minimize {
			// GWO minimizes; maximizing objectives are negated and the
			// result restored below.
			return -value
		}
		return value
	}

	solver, err := gwo.New(gwo.Config{
		PopulationSize: req.Population,
		Dimensions:     req.Dimensions,
		Min:            min,
		Max:            max,
		MaxIterations:  req.Iterations,
		Seed:           req.Seed,
		Logger:         c.logger,
		Exit:           gwo.MaxIterations(req.Iterations),
	})
	if err != nil {
		return nil, 0, nil, err
	}
	best, err := solver.Solve(evaluate, req.Concurrent)
	if err != nil {
		return nil, 0, nil, err
	}
	return restoreDirection(solver.BestHistory(), best.Fitness, !obj.Minimize, best.Position)
}

func (c *Client) runMSwarm(req RunRequest, obj objective.Objective) ([]float64, float64, []float64, error) {
	min, max := obj.Bounds(req.Dimensions)
	evaluate := func(position []float64) float64 {
		value := obj.Eval(position)
		if obj.Minimize {
			return -value
		}
		return value
	}

	var history []float64
	solver, err := mswarm.New(mswarm.Config{
		SwarmSize: req.SwarmSize,
		NumSwarms: req.NumSwarms,
		Min:       min,
		Max:       max,
		Seed:      req.Seed,
		Logger:    c.logger,
		Exit: func(iteration int, best swarm.Attractor) bool {
			history = append(history, best.Height)
			return iteration >= req.Iterations
		},
	})
	if err != nil {
		return nil, 0, nil, err
	}
	best, err := solver.Solve(evaluate)
	if err != nil {
		return nil, 0, nil, err
	}
	return restoreDirection(history, best.Height, obj.Minimize, best.Position)
}

// restoreDirection undoes the negation applied when a solver's optimization
// direction disagrees with the objective's.
func restoreDirection(history []float64, finalBest float64, negated bool, position []float64) ([]float64, float64, []float64, error) {
	if !negated {
		return history, finalBest, position, nil
	}
	restored := make([]float64, len(history))
	for i, v := range history {
		restored[i] = -v
	}
	return restored, -finalBest, position, nil
}

// Runs lists persisted run records, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// FitnessHistory returns the best-by-iteration series for a run; latest
// resolves to the most recent run in the benchmarks index.
func (c *Client) FitnessHistory(ctx context.Context, runID string, latest bool) ([]float64, error) {
	runID, err := c.resolveRunID(runID, latest)
	if err != nil {
		return nil, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	return history, nil
}

// BestSolution returns a run's best point and fitness.
func (c *Client) BestSolution(ctx context.Context, runID string, latest bool) (model.BestSolution, error) {
	runID, err := c.resolveRunID(runID, latest)
	if err != nil {
		return model.BestSolution{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return model.BestSolution{}, err
	}
	best, ok, err := c.store.GetBestSolution(ctx, runID)
	if err != nil {
		return model.BestSolution{}, err
	}
	if !ok {
		return model.BestSolution{}, fmt.Errorf("best solution not found for run id: %s", runID)
	}
	return best, nil
}

// Objectives lists the registered benchmark objectives.
func (c *Client) Objectives() []ObjectiveItem {
	all := objective.All()
	out := make([]ObjectiveItem, 0, len(all))
	for _, o := range all {
		out = append(out, ObjectiveItem{
			Name:        o.Name,
			Description: o.Description,
			Minimize:    o.Minimize,
			Dimensions:  o.Dimensions,
		})
	}
	return out
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}
