package storage

import (
	"context"

	"metis/internal/model"
)

// Store defines persistence operations for completed run results.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveBestSolution(ctx context.Context, best model.BestSolution) error
	GetBestSolution(ctx context.Context, runID string) (model.BestSolution, bool, error)
}
