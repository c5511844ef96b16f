// Package similarity implements the exact cosine ranking shared by every
// VectorIndex backend.
package similarity

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b.
// Vectors of different length or with zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Candidate is a stored vector considered for ranking.
// Candidates must be supplied in insertion order.
type Candidate[T any] struct {
	Embedding []float32
	Item      T
}

// Ranked is a candidate with its score.
type Ranked[T any] struct {
	Item  T
	Score float64
}

// TopK scores every candidate against query and returns the k best,
// highest first. Equal scores keep the candidates' input order.
func TopK[T any](query []float32, candidates []Candidate[T], k int) []Ranked[T] {
	if k <= 0 || len(candidates) == 0 {
		return []Ranked[T]{}
	}

	ranked := make([]Ranked[T], len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked[T]{Item: c.Item, Score: Cosine(query, c.Embedding)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
