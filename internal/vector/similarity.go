// Package vector provides similarity and centroid helpers for normalized vectors.
package vector

import "math"

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	return math.Sqrt(sum)
}

// Normalize scales x in place to unit L2 norm. The zero vector is left as is.
func Normalize(x []float32) {
	n := L2Norm(x)
	if n == 0 {
		return
	}
	for i := range x {
		x[i] = float32(float64(x[i]) / n)
	}
}

// Centroid returns the normalized mean of vectors. All vectors must have
// length dim; an empty input yields the zero vector.
func Centroid(vectors [][]float32, dim int) []float32 {
	c := make([]float32, dim)
	for _, v := range vectors {
		for i := range c {
			c[i] += v[i]
		}
	}
	Normalize(c)
	return c
}

// Nearest returns the index of the candidate with the highest inner product
// with v, and that product. Ties go to the lower index.
func Nearest(v []float32, candidates [][]float32) (int, float64) {
	best, bestSim := -1, math.Inf(-1)
	for i, c := range candidates {
		if sim := InnerProduct(v, c); sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return best, bestSim
}
