package storage

import (
	"context"
	"testing"

	"metis/internal/model"
)

func newInitializedMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	return store
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	run := model.RunRecord{ID: "run-1", Solver: "ga", Objective: "sum", BestFitness: 20, CreatedAtUTC: "2026-01-01T00:00:00Z"}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if got.Solver != "ga" || got.BestFitness != 20 {
		t.Fatalf("unexpected run: %+v", got)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	older := model.RunRecord{ID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"}
	newer := model.RunRecord{ID: "b", CreatedAtUTC: "2026-01-02T00:00:00Z"}
	if err := store.SaveRun(ctx, older); err != nil {
		t.Fatalf("save older: %v", err)
	}
	if err := store.SaveRun(ctx, newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "b" || runs[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}

func TestMemoryStoreHistoryIsCopied(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	history := []float64{1, 2, 3}
	if err := store.SaveFitnessHistory(ctx, "run-1", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history[0] = 99

	got, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%v err=%v", ok, err)
	}
	if got[0] != 1 {
		t.Fatalf("stored history aliased caller slice: %v", got)
	}

	got[1] = 99
	again, _, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history again: %v", err)
	}
	if again[1] != 2 {
		t.Fatalf("returned history aliased stored slice: %v", again)
	}
}

func TestMemoryStoreBestSolutionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	best := model.BestSolution{RunID: "run-1", Fitness: 0.25, Position: []float64{1, -1}}
	if err := store.SaveBestSolution(ctx, best); err != nil {
		t.Fatalf("save best: %v", err)
	}
	got, ok, err := store.GetBestSolution(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get best: ok=%v err=%v", ok, err)
	}
	if got.Fitness != 0.25 || len(got.Position) != 2 {
		t.Fatalf("unexpected best: %+v", got)
	}
}
