package adapter

import "context"

// Embedder converts text into fixed-length vectors suitable for
// distance-based comparison. Implementations must be deterministic: the
// same input text always yields the same vector for a fixed model
// configuration.
//
// Implementations: ONNXEmbedder (local model), GeminiEmbedder (remote
// API), CachedEmbedder (decorator), MockEmbedder (testing).
type Embedder interface {
	// Embed converts a single text to an embedding vector. Empty or
	// whitespace-only text fails with model.ErrInvalidInput before any
	// model invocation.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts in a single model invocation.
	// Semantically equivalent to mapping Embed over the list, but
	// batched inference is materially faster than N sequential calls.
	// Fails if the list is empty or any element is empty after trim.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// Warmup forces the underlying model to load. Called once at
	// process startup so that a broken model configuration fails fast
	// instead of on the first real request.
	Warmup(ctx context.Context) error
}
