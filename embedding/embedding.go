// Package embedding defines the text-to-vector interface consumed by the
// embedded vector store and the durable memory stores, plus a deterministic
// mock for tests and offline development. Real embedding computation lives
// behind this interface (see the openai subpackage); the engine never
// depends on a particular model.
package embedding

import "context"

// Embedder converts text to vector embeddings.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
