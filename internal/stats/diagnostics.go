package stats

import (
	"gonum.org/v1/gonum/stat"

	"metis/internal/model"
)

// SummarizeIteration condenses one iteration's population fitness values into
// a diagnostics record.
func SummarizeIteration(iteration int, best float64, fitness []float64) model.IterationDiagnostics {
	d := model.IterationDiagnostics{
		Iteration:   iteration,
		BestFitness: best,
	}
	if len(fitness) == 0 {
		return d
	}
	d.MeanFitness = stat.Mean(fitness, nil)
	if len(fitness) > 1 {
		d.StdFitness = stat.StdDev(fitness, nil)
	}
	return d
}

// DiagnosticsFromHistory derives a diagnostics series from a best-by-
// iteration history when per-individual fitness values were not captured.
func DiagnosticsFromHistory(history []float64) []model.IterationDiagnostics {
	out := make([]model.IterationDiagnostics, 0, len(history))
	for i, best := range history {
		window := history[:i+1]
		d := model.IterationDiagnostics{
			Iteration:   i + 1,
			BestFitness: best,
			MeanFitness: stat.Mean(window, nil),
		}
		if len(window) > 1 {
			d.StdFitness = stat.StdDev(window, nil)
		}
		out = append(out, d)
	}
	return out
}
