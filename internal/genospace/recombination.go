package genospace

import (
	"fmt"
	"math"

	"metis/internal/model"
	"metis/internal/randvar"
)

// IntermediateRecombination blends the two genotypes in place, drawing fresh
// alpha and beta coefficients for every gene index. Gene values stay integral
// via round-half-up.
func IntermediateRecombination(g1, g2 model.Genotype, rv randvar.Source) error {
	if len(g1) != len(g2) {
		return fmt.Errorf("genotype length mismatch: %d != %d", len(g1), len(g2))
	}
	for i := range g1 {
		alpha := rv.Next()
		beta := rv.Next()
		g1[i], g2[i] = blend(g1[i], g2[i], alpha, beta)
	}
	return nil
}

// LineRecombination blends the two genotypes in place with a single alpha and
// beta pair shared across every gene index.
func LineRecombination(g1, g2 model.Genotype, rv randvar.Source) error {
	if len(g1) != len(g2) {
		return fmt.Errorf("genotype length mismatch: %d != %d", len(g1), len(g2))
	}
	alpha := rv.Next()
	beta := rv.Next()
	for i := range g1 {
		g1[i], g2[i] = blend(g1[i], g2[i], alpha, beta)
	}
	return nil
}

// blend combines one gene pair. Both outputs derive from the pre-blend
// values; the +0.5 before the floor rounds half up.
func blend(a, b int, alpha, beta float64) (int, int) {
	fa, fb := float64(a), float64(b)
	na := int(math.Floor(alpha*fa + (1-alpha)*fb + 0.5))
	nb := int(math.Floor(beta*fb + (1-beta)*fa + 0.5))
	return na, nb
}
