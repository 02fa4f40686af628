package ai

import "math"

// FallbackEmbedding derives a local embedding from a character-frequency
// histogram projected into the requested dimension. It is deterministic
// (same text, same vector) and only intended for development mode, where it
// keeps retrieval reproducible without a live provider.
func FallbackEmbedding(text string, dimension int) []float32 {
	vec := make([]float64, dimension)
	for i, r := range text {
		// Spread characters across the dimension; the position term keeps
		// anagrams from collapsing onto identical vectors.
		bucket := (int(r) + i*31) % dimension
		if bucket < 0 {
			bucket += dimension
		}
		vec[bucket]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}

	out := make([]float32, dimension)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
