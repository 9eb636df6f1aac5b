// Package stats writes per-run artifact directories and maintains the run
// index the CLI lists runs from.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"metis/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig is the resolved configuration a run executed with.
type RunConfig struct {
	RunID          string  `json:"run_id"`
	Solver         string  `json:"solver"`
	Objective      string  `json:"objective"`
	Dimensions     int     `json:"dimensions"`
	PopulationSize int     `json:"population_size"`
	SwarmSize      int     `json:"swarm_size,omitempty"`
	NumSwarms      int     `json:"num_swarms,omitempty"`
	Iterations     int     `json:"iterations"`
	Recombination  string  `json:"recombination,omitempty"`
	MutationProb   float64 `json:"mutation_probability,omitempty"`
	RecombProb     float64 `json:"recombination_probability,omitempty"`
	Workers        int     `json:"workers,omitempty"`
	Concurrent     bool    `json:"concurrent,omitempty"`
	Seed           int64   `json:"seed"`
}

// RunArtifacts is everything written into a run's artifact directory.
type RunArtifacts struct {
	Config           RunConfig                    `json:"config"`
	BestByIteration  []float64                    `json:"best_by_iteration"`
	Diagnostics      []model.IterationDiagnostics `json:"diagnostics,omitempty"`
	FinalBestFitness float64                      `json:"final_best_fitness"`
	BestPosition     []float64                    `json:"best_position"`
}

// RunIndexEntry is one row of the run index, newest first.
type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Solver           string  `json:"solver"`
	Objective        string  `json:"objective"`
	Dimensions       int     `json:"dimensions"`
	PopulationSize   int     `json:"population_size"`
	Iterations       int     `json:"iterations"`
	Seed             int64   `json:"seed"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// WriteRunArtifacts creates the run's directory under baseDir and writes its
// artifact files. It returns the run directory path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "fitness_history.json"), map[string]any{
		"best_by_iteration":  artifacts.BestByIteration,
		"final_best_fitness": artifacts.FinalBestFitness,
	}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "best_solution.json"), map[string]any{
		"fitness":  artifacts.FinalBestFitness,
		"position": artifacts.BestPosition,
	}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "diagnostics.json"), artifacts.Diagnostics); err != nil {
		return "", err
	}

	return runDir, nil
}

// AppendRunIndex inserts or updates the index entry for entry.RunID.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}
	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex reads the run index sorted newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
