package mswarm

import (
	"testing"

	"metis/internal/swarm"
)

func negSphere(position []float64) float64 {
	sum := 0.0
	for _, v := range position {
		sum += v * v
	}
	return -sum
}

func boundedConfig(numSwarms int) Config {
	return Config{
		SwarmSize: 5,
		NumSwarms: numSwarms,
		Min:       []float64{-5, -5},
		Max:       []float64{5, 5},
		Seed:      17,
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{NumSwarms: 0}); err == nil {
		t.Fatal("expected error for zero swarm count")
	}
	if _, err := New(Config{NumSwarms: 2}); err == nil {
		t.Fatal("expected error when no seeding source exists")
	}
	cfg := boundedConfig(2)
	cfg.Min = cfg.Min[:1]
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for mismatched constraint vectors")
	}
	cfg = boundedConfig(2)
	cfg.StartingPositions = make([][][]float64, 3)
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for starting positions mismatch")
	}
}

func TestNewAcceptsGeneratorWithoutConstraints(t *testing.T) {
	cfg := Config{
		SwarmSize:      3,
		NumSwarms:      1,
		RandomPosition: func() []float64 { return []float64{0, 0} },
		Seed:           1,
	}
	if _, err := New(cfg); err != nil {
		t.Fatalf("generator seeding rejected: %v", err)
	}
}

func TestSolveMaximizesNegatedSphere(t *testing.T) {
	cfg := boundedConfig(3)
	cfg.Exit = MaxIterations(40)
	solver, err := New(cfg)
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}
	best, err := solver.Solve(negSphere)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if best.Height < -1 {
		t.Fatalf("expected best height near 0, got %v", best.Height)
	}
	if solver.Iteration() != 40 {
		t.Fatalf("expected 40 iterations, got %d", solver.Iteration())
	}
}

func TestSolveBestNeverRegresses(t *testing.T) {
	var heights []float64
	cfg := boundedConfig(2)
	cfg.Exit = func(iteration int, best swarm.Attractor) bool {
		heights = append(heights, best.Height)
		return iteration >= 20
	}
	solver, err := New(cfg)
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}
	if _, err := solver.Solve(negSphere); err != nil {
		t.Fatalf("solve: %v", err)
	}
	for i := 1; i < len(heights); i++ {
		if heights[i] < heights[i-1] {
			t.Fatalf("best regressed at iteration %d: %v -> %v", i+1, heights[i-1], heights[i])
		}
	}
}

func TestExclusionReinitializesExactlyOneOfAClosePair(t *testing.T) {
	cfg := boundedConfig(2)
	solver, err := New(cfg)
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}

	// Two swarms whose particles sit on top of nearly identical points:
	// their attractors fall well inside the exclusion radius.
	near := func(offset float64) [][]float64 {
		positions := make([][]float64, cfg.SwarmSize)
		for i := range positions {
			positions[i] = []float64{offset, offset}
		}
		return positions
	}
	first, err := solver.swarmFromPositions(near(0))
	if err != nil {
		t.Fatalf("build swarm: %v", err)
	}
	second, err := solver.swarmFromPositions(near(0.1))
	if err != nil {
		t.Fatalf("build swarm: %v", err)
	}
	first.Evaluate(negSphere)
	second.Evaluate(negSphere)
	first.UpdateAttractor()
	second.UpdateAttractor()
	solver.swarms = []*swarm.Swarm{first, second}

	if err := solver.exclusion(negSphere); err != nil {
		t.Fatalf("exclusion: %v", err)
	}
	replacedFirst := solver.swarms[0] != first
	replacedSecond := solver.swarms[1] != second
	if replacedFirst == replacedSecond {
		t.Fatalf("expected exactly one reinitialized swarm, replaced first=%v second=%v", replacedFirst, replacedSecond)
	}
	// The lower attractor of the pair loses; (0.1, 0.1) scores below (0, 0).
	if !replacedSecond {
		t.Fatal("expected the lower-height swarm to be reinitialized")
	}
	if len(solver.swarms) != 2 {
		t.Fatalf("exclusion changed the swarm count: %d", len(solver.swarms))
	}
}

func TestAntiConvergenceSpawnsWhenAllSwarmsConverged(t *testing.T) {
	cfg := boundedConfig(1)
	solver, err := New(cfg)
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}

	// Every particle on one point: diameter 0, the swarm is converged.
	positions := make([][]float64, cfg.SwarmSize)
	for i := range positions {
		positions[i] = []float64{1, 1}
	}
	converged, err := solver.swarmFromPositions(positions)
	if err != nil {
		t.Fatalf("build swarm: %v", err)
	}
	converged.Evaluate(negSphere)
	converged.UpdateAttractor()
	solver.swarms = []*swarm.Swarm{converged}

	if err := solver.antiConvergence(negSphere); err != nil {
		t.Fatalf("anti-convergence: %v", err)
	}
	if got := solver.SwarmCount(); got != 2 {
		t.Fatalf("expected a spawned swarm, count=%d", got)
	}
}

func TestAntiConvergenceRemovesWorstWhenTooManyDiverged(t *testing.T) {
	cfg := boundedConfig(4)
	solver, err := New(cfg)
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}

	// Four wide swarms (diameter >> 1), each centered farther from the
	// origin than the last; the last one carries the lowest attractor.
	spread := func(center float64) [][]float64 {
		positions := make([][]float64, cfg.SwarmSize)
		for i := range positions {
			positions[i] = []float64{center + float64(i), center}
		}
		return positions
	}
	swarms := make([]*swarm.Swarm, 4)
	for i := range swarms {
		sw, err := solver.swarmFromPositions(spread(float64(i)))
		if err != nil {
			t.Fatalf("build swarm %d: %v", i, err)
		}
		sw.Evaluate(negSphere)
		sw.UpdateAttractor()
		swarms[i] = sw
	}
	worst := swarms[3]
	solver.swarms = append([]*swarm.Swarm(nil), swarms...)

	if err := solver.antiConvergence(negSphere); err != nil {
		t.Fatalf("anti-convergence: %v", err)
	}
	if got := solver.SwarmCount(); got != 3 {
		t.Fatalf("expected worst swarm removed, count=%d", got)
	}
	for _, sw := range solver.swarms {
		if sw == worst {
			t.Fatal("worst swarm survived removal")
		}
	}
}
