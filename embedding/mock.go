package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Mock is a deterministic, dependency-free Embedder for tests and demos.
// It hashes whitespace-separated tokens into a fixed-size bag-of-words
// vector and L2-normalizes it, so identical texts always embed identically
// and token overlap produces nonzero cosine similarity. It is not a
// semantic model.
type Mock struct {
	dims int
}

// NewMock creates a Mock embedder with the given dimensionality.
func NewMock(dims int) *Mock {
	if dims <= 0 {
		dims = 64
	}
	return &Mock{dims: dims}
}

// Embed implements Embedder.
func (m *Mock) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%m.dims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// Dimensions implements Embedder.
func (m *Mock) Dimensions() int { return m.dims }
