package memory

import (
	"context"

	"github.com/m-mizutani/symbios/pkg/metrics"
	"github.com/m-mizutani/symbios/pkg/model"
	"github.com/m-mizutani/symbios/pkg/utils/logging"
)

// Store persists a new memory. Validation runs before the embedding call
// so that bad input never pays for model inference; a validation failure
// leaves the store untouched.
func (u *UseCase) Store(ctx context.Context, content string, tags []string) (*model.StoreResult, error) {
	timer := metrics.OperationDuration.WithLabelValues("store")
	start := u.now()

	if err := model.ValidateContent(content); err != nil {
		metrics.OperationTotal.WithLabelValues("store", "invalid").Inc()
		return nil, err
	}
	if err := model.ValidateTags(tags); err != nil {
		metrics.OperationTotal.WithLabelValues("store", "invalid").Inc()
		return nil, err
	}

	embedding, err := u.embedder.Embed(ctx, content)
	if err != nil {
		metrics.OperationTotal.WithLabelValues("store", "error").Inc()
		return nil, err
	}

	createdAt := u.now().UTC()
	mem := &model.Memory{
		ID:        model.NewMemoryID(createdAt),
		Content:   content,
		Embedding: embedding,
		CreatedAt: createdAt,
		Tags:      tags,
	}

	if err := u.repo.PutMemory(ctx, mem); err != nil {
		metrics.OperationTotal.WithLabelValues("store", "error").Inc()
		return nil, err
	}

	metrics.OperationTotal.WithLabelValues("store", "ok").Inc()
	timer.Observe(u.now().Sub(start).Seconds())

	logging.From(ctx).Info("stored memory",
		"memory_id", mem.ID,
		"dimensions", len(embedding),
		"tags", len(tags))

	return &model.StoreResult{
		MemoryID:            mem.ID,
		Success:             true,
		Timestamp:           createdAt,
		EmbeddingDimensions: len(embedding),
	}, nil
}
