// Package memory implements the memory store operations: validated
// storage of text with semantic embeddings, and relevance-filtered
// similarity search.
package memory

import (
	"context"
	"time"

	"github.com/m-mizutani/symbios/pkg/adapter"
	"github.com/m-mizutani/symbios/pkg/repository"
	"github.com/m-mizutani/symbios/pkg/utils/logging"
)

// MinRelevanceScore is the cutoff below which a candidate is not worth
// returning. Relevance is a 0-100 linear remap of cosine distance, a
// human-readable scale rather than a calibrated probability.
const MinRelevanceScore = 30.0

// UseCase provides memory store and search operations.
type UseCase struct {
	repo     repository.Repository
	embedder adapter.Embedder
	now      func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new memory UseCase instance
func New(repo repository.Repository, embedder adapter.Embedder, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:     repo,
		embedder: embedder,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Count returns the total number of stored memories.
func (u *UseCase) Count(ctx context.Context) (int, error) {
	return u.repo.CountMemories(ctx)
}

// Warmup loads the embedding model eagerly. A failure here means the
// model configuration is broken and the process should not start.
func (u *UseCase) Warmup(ctx context.Context) error {
	logging.From(ctx).Info("warming up embedding model")
	return u.embedder.Warmup(ctx)
}
