package metis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:     "memory",
		BenchmarksDir: t.TempDir(),
		Quiet:         true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRunRejectsOddPopulation(t *testing.T) {
	client := newTestClient(t)
	_, err := client.Run(context.Background(), RunRequest{
		Solver:     SolverGA,
		Objective:  "sum",
		Population: 5,
	})
	if err == nil {
		t.Fatal("expected error for odd population")
	}
}

func TestRunRejectsUnknownSolver(t *testing.T) {
	client := newTestClient(t)
	_, err := client.Run(context.Background(), RunRequest{Solver: "annealing"})
	if err == nil {
		t.Fatal("expected error for unknown solver")
	}
}

func TestRunGAWritesArtifactsAndPersists(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		Solver:     SolverGA,
		Objective:  "sum",
		Population: 4,
		Iterations: 3,
		Seed:       42,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(summary.RunID, "ga-sum-") {
		t.Fatalf("unexpected run id: %s", summary.RunID)
	}
	if len(summary.BestByIteration) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(summary.BestByIteration))
	}
	if len(summary.BestPosition) != 2 {
		t.Fatalf("expected 2-dimensional best position, got %v", summary.BestPosition)
	}
	if summary.FinalBestFitness < 0 || summary.FinalBestFitness > 20 {
		t.Fatalf("final best fitness outside the sum objective's range: %v", summary.FinalBestFitness)
	}

	for _, name := range []string{"config.json", "fitness_history.json", "best_solution.json", "diagnostics.json"} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	runs, err := client.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != summary.RunID {
		t.Fatalf("unexpected run records: %+v", runs)
	}

	history, err := client.FitnessHistory(ctx, "", true)
	if err != nil {
		t.Fatalf("FitnessHistory: %v", err)
	}
	if len(history) != len(summary.BestByIteration) {
		t.Fatalf("persisted history length %d, want %d", len(history), len(summary.BestByIteration))
	}

	best, err := client.BestSolution(ctx, summary.RunID, false)
	if err != nil {
		t.Fatalf("BestSolution: %v", err)
	}
	if best.Fitness != summary.FinalBestFitness {
		t.Fatalf("persisted best fitness %v, want %v", best.Fitness, summary.FinalBestFitness)
	}
}

func TestRunGWORestoresMinimizingDirection(t *testing.T) {
	client := newTestClient(t)

	summary, err := client.Run(context.Background(), RunRequest{
		Solver:     SolverGWO,
		Objective:  "sphere",
		Population: 10,
		Iterations: 20,
		Seed:       7,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FinalBestFitness < 0 {
		t.Fatalf("sphere is non-negative, got %v", summary.FinalBestFitness)
	}
	if len(summary.BestByIteration) != 20 {
		t.Fatalf("expected 20 history entries, got %d", len(summary.BestByIteration))
	}
}

func TestRunMSwarmMaximizesNegatedSphere(t *testing.T) {
	client := newTestClient(t)

	summary, err := client.Run(context.Background(), RunRequest{
		Solver:     SolverMSwarm,
		Objective:  "sphere",
		NumSwarms:  3,
		SwarmSize:  8,
		Iterations: 15,
		Seed:       11,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The facade reports in the objective's native direction.
	if summary.FinalBestFitness < 0 {
		t.Fatalf("sphere is non-negative, got %v", summary.FinalBestFitness)
	}
}

func TestResolveRunIDValidation(t *testing.T) {
	client := newTestClient(t)

	if _, err := client.resolveRunID("abc", true); err == nil {
		t.Fatal("expected error when both run id and latest are set")
	}
	if _, err := client.resolveRunID("", false); err == nil {
		t.Fatal("expected error when neither run id nor latest is set")
	}
	if _, err := client.resolveRunID("", true); err == nil {
		t.Fatal("expected error when no runs exist")
	}
}

func TestObjectivesListsRegistry(t *testing.T) {
	client := newTestClient(t)

	items := client.Objectives()
	if len(items) == 0 {
		t.Fatal("expected registered objectives")
	}
	seen := map[string]bool{}
	for _, item := range items {
		seen[item.Name] = true
	}
	for _, name := range []string{"sphere", "rosenbrock", "rastrigin", "ackley", "sum"} {
		if !seen[name] {
			t.Fatalf("missing objective %s", name)
		}
	}
}
