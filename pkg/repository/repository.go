package repository

import (
	"context"

	"github.com/m-mizutani/symbios/pkg/model"
)

// SearchHit is one nearest-neighbor candidate with its raw cosine
// distance (0 = identical, larger = less similar). The relevance
// transform is the usecase layer's concern, not the index's.
type SearchHit struct {
	Memory   *model.Memory
	Distance float64
}

// Repository defines the interface for memory persistence and
// nearest-neighbor search.
type Repository interface {
	// PutMemory persists a memory with its embedding and metadata.
	// Atomic: either the memory is fully persisted or not at all.
	PutMemory(ctx context.Context, mem *model.Memory) error

	// SearchSimilarMemories returns up to limit nearest stored memories
	// by vector distance, closest first. An empty store yields an empty
	// result, not an error.
	SearchSimilarMemories(ctx context.Context, embedding []float32, limit int) ([]*SearchHit, error)

	// CountMemories returns the total number of stored memories.
	CountMemories(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
