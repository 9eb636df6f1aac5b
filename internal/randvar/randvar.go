// Package randvar supplies the random-variate generators the solvers draw
// mutation deltas and recombination blend coefficients from.
package randvar

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	mrand "math/rand"
)

// Source produces successive draws from a configured distribution.
type Source interface {
	Next() float64
}

// Uniform draws uniformly from [Min, Max).
type Uniform struct {
	Rand *mrand.Rand
	Min  float64
	Max  float64
}

func (u Uniform) Next() float64 {
	return u.Min + u.Rand.Float64()*(u.Max-u.Min)
}

// Geometric draws the number of Bernoulli(P) failures before the first
// success. P <= 0 degenerates to a constant zero draw so a zero mutation
// probability disables mutation instead of failing.
type Geometric struct {
	Rand *mrand.Rand
	P    float64
}

func (g Geometric) Next() float64 {
	if g.P <= 0 {
		return 0
	}
	if g.P >= 1 {
		return 0
	}
	u := g.Rand.Float64()
	for u == 0 {
		u = g.Rand.Float64()
	}
	return math.Floor(math.Log(u) / math.Log(1-g.P))
}

// Const always returns the same draw. Used by tests and degenerate configs.
type Const struct {
	Value float64
}

func (c Const) Next() float64 {
	return c.Value
}

// CryptoIntn returns a uniform integer in [0, n) from a cryptographically
// strong source.
func CryptoIntn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("crypto intn bound must be > 0, got %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
