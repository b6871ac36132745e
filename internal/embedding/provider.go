// Package embedding defines the embedding provider contract and the
// vector math used for candidate similarity ranking. The provider
// itself is an external collaborator; this package supplies an HTTP
// client for Voyage AI plus an LRU cache keyed by event id.
package embedding

import (
	"context"
	"math"
)

// Provider maps text to a fixed-length numeric vector
type Provider interface {
	// Embed returns the embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch returns one vector per input text, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Normalize scales the vector to unit length in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// Cosine returns the cosine similarity of two vectors. Mismatched
// lengths or zero vectors yield 0 rather than an error: a missing or
// degenerate embedding just means "no similarity signal".
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
