package sqlite

import "math"

// CosineSimilarity scores two equal-length vectors. The store's fixed
// metric is cosine distance; the exposed score is 1 - distance, clamped
// to [0,1], so identical vectors score 1 and orthogonal vectors 0.
// Zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// similarity = 1 - distance, distance = 1 - cosine; clamp the
	// float error out of [0,1].
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return similarity
}
