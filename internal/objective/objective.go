// Package objective registers the benchmark evaluation functions the CLI and
// facade run the solvers against.
package objective

import (
	"fmt"
	"math"
	"sort"
)

// Objective is a named black-box evaluation function over a vector space.
type Objective struct {
	Name        string
	Description string
	// Minimize reports the function's native direction. Maximizing solvers
	// negate minimizing objectives.
	Minimize bool
	// Min and Max bound each dimension of the suggested search domain.
	Min float64
	Max float64
	// Dimensions is the suggested dimensionality.
	Dimensions int
	Eval       func(position []float64) float64
}

var registry = map[string]Objective{}

func register(o Objective) {
	registry[o.Name] = o
}

// Lookup resolves an objective by name.
func Lookup(name string) (Objective, error) {
	o, ok := registry[name]
	if !ok {
		return Objective{}, fmt.Errorf("unknown objective: %s", name)
	}
	return o, nil
}

// All returns every registered objective sorted by name.
func All() []Objective {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Objective, 0, len(names))
	for _, name := range names {
		out = append(out, registry[name])
	}
	return out
}

// Bounds expands the objective's scalar bounds into parallel per-dimension
// vectors.
func (o Objective) Bounds(dimensions int) ([]float64, []float64) {
	min := make([]float64, dimensions)
	max := make([]float64, dimensions)
	for d := range min {
		min[d] = o.Min
		max[d] = o.Max
	}
	return min, max
}

func init() {
	register(Objective{
		Name:        "sphere",
		Description: "sum of squared coordinates; global minimum 0 at the origin",
		Minimize:    true,
		Min:         -5.12,
		Max:         5.12,
		Dimensions:  2,
		Eval: func(x []float64) float64 {
			sum := 0.0
			for _, v := range x {
				sum += v * v
			}
			return sum
		},
	})
	register(Objective{
		Name:        "rosenbrock",
		Description: "banana valley; global minimum 0 at (1, ..., 1)",
		Minimize:    true,
		Min:         -2.048,
		Max:         2.048,
		Dimensions:  2,
		Eval: func(x []float64) float64 {
			sum := 0.0
			for i := 0; i+1 < len(x); i++ {
				a := x[i+1] - x[i]*x[i]
				b := 1 - x[i]
				sum += 100*a*a + b*b
			}
			return sum
		},
	})
	register(Objective{
		Name:        "rastrigin",
		Description: "highly multimodal; global minimum 0 at the origin",
		Minimize:    true,
		Min:         -5.12,
		Max:         5.12,
		Dimensions:  2,
		Eval: func(x []float64) float64 {
			sum := 10 * float64(len(x))
			for _, v := range x {
				sum += v*v - 10*math.Cos(2*math.Pi*v)
			}
			return sum
		},
	})
	register(Objective{
		Name:        "ackley",
		Description: "nearly flat outer region with a central funnel; global minimum 0 at the origin",
		Minimize:    true,
		Min:         -32.768,
		Max:         32.768,
		Dimensions:  2,
		Eval: func(x []float64) float64 {
			n := float64(len(x))
			sumSq, sumCos := 0.0, 0.0
			for _, v := range x {
				sumSq += v * v
				sumCos += math.Cos(2 * math.Pi * v)
			}
			return -20*math.Exp(-0.2*math.Sqrt(sumSq/n)) - math.Exp(sumCos/n) + 20 + math.E
		},
	})
	register(Objective{
		Name:        "sum",
		Description: "sum of coordinates; maximized at the upper bound corner",
		Minimize:    false,
		Min:         0,
		Max:         10,
		Dimensions:  2,
		Eval: func(x []float64) float64 {
			sum := 0.0
			for _, v := range x {
				sum += v
			}
			return sum
		},
	})
}
