package vector

import (
	"fmt"

	"github.com/hyperjump/docqa/pkg/utils"
)

// CosineSimilarity returns dot(a,b)/(|a||b|). It is 0 when either vector has zero
// norm and fails with ErrDimensionMismatch when the lengths differ.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	na, nb := utils.L2Norm(a), utils.L2Norm(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return InnerProduct(a, b) / (na * nb), nil
}

// InnerProduct returns the inner product of two equal-length vectors, or 0 when the lengths differ.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
