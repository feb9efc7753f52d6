package rag

import "math"

// dotProduct computes the dot product of two vectors.
func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// norm computes the L2 norm of a vector.
func norm(v []float32) float64 {
	return math.Sqrt(dotProduct(v, v))
}

// cosineSimilarity computes cosine similarity between two vectors.
// A zero vector has similarity 0 with everything, which biases the
// chunker toward a boundary at degenerate embeddings.
func cosineSimilarity(a, b []float32) float64 {
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dotProduct(a, b) / (na * nb)
}

// meanVector computes the arithmetic mean of the given vectors.
// The result is intentionally not renormalized; cosine comparisons
// renormalize at use time.
func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	mean := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for i := range v {
			mean[i] += v[i]
		}
	}
	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
