package utils

import "math"

// L2Norm returns the Euclidean length of x, accumulated in float64.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// NormalizeL2 scales x in place to unit length. A zero vector is left unchanged.
func NormalizeL2(x []float32) {
	norm := L2Norm(x)
	if norm == 0 {
		return
	}
	inv := float32(1 / norm)
	for i := range x {
		x[i] *= inv
	}
}

// Percent maps done out of total onto the integer range [from, to], rounding to
// the nearest point. A non-positive total yields to.
func Percent(done, total, from, to int) int {
	if total <= 0 {
		return to
	}
	return from + int(math.Round(float64(done)/float64(total)*float64(to-from)))
}
