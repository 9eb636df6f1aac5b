package model

// Genotype is an ordered sequence of integer genes. Its length is fixed to
// the configured dimension count for the lifetime of a run.
type Genotype []int

// Clone returns an independent copy of the genotype.
func (g Genotype) Clone() Genotype {
	out := make(Genotype, len(g))
	copy(out, g)
	return out
}

// Constraint bounds a single gene dimension. Sampling treats the range as
// [From, To); repair clamps into [From, To].
type Constraint struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord is the persistent summary of one completed solver run.
type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id"`
	Solver       string  `json:"solver"`
	Objective    string  `json:"objective"`
	Dimensions   int     `json:"dimensions"`
	Population   int     `json:"population"`
	Iterations   int     `json:"iterations"`
	Seed         int64   `json:"seed"`
	BestFitness  float64 `json:"best_fitness"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// BestSolution is the best point a run produced, in the objective's native
// fitness direction.
type BestSolution struct {
	VersionedRecord
	RunID    string    `json:"run_id"`
	Fitness  float64   `json:"fitness"`
	Position []float64 `json:"position"`
}

// IterationDiagnostics summarizes one iteration or generation of a run.
type IterationDiagnostics struct {
	Iteration   int     `json:"iteration"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	StdFitness  float64 `json:"std_fitness"`
}
