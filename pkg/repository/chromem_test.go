package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/symbios/pkg/model"
	"github.com/m-mizutani/symbios/pkg/repository"
)

func newMemory(content string, embedding []float32, tags []string) *model.Memory {
	createdAt := time.Date(2026, 8, 23, 9, 30, 0, 0, time.UTC)
	return &model.Memory{
		ID:        model.NewMemoryID(createdAt),
		Content:   content,
		Embedding: embedding,
		CreatedAt: createdAt,
		Tags:      tags,
	}
}

func TestChromemPutAndSearch(t *testing.T) {
	ctx := context.Background()
	repo, err := repository.NewChromem(t.TempDir(), "test_memories", 3)
	gt.NoError(t, err)
	defer repo.Close()

	first := newMemory("the user prefers Go", []float32{1, 0, 0}, []string{"preference", "language"})
	second := newMemory("lunch was ramen", []float32{0, 1, 0}, nil)

	gt.NoError(t, repo.PutMemory(ctx, first))
	gt.NoError(t, repo.PutMemory(ctx, second))

	hits, err := repo.SearchSimilarMemories(ctx, []float32{1, 0, 0}, 5)
	gt.NoError(t, err)
	gt.A(t, hits).Length(2)

	// Closest first.
	gt.Equal(t, hits[0].Memory.ID, first.ID)
	gt.True(t, hits[0].Distance < hits[1].Distance)
	gt.True(t, hits[0].Distance < 0.001)

	// Metadata survives the round-trip.
	gt.Equal(t, hits[0].Memory.Content, "the user prefers Go")
	gt.Equal(t, hits[0].Memory.Tags, []string{"preference", "language"})
	gt.Equal(t, hits[0].Memory.CreatedAt, first.CreatedAt)
	gt.A(t, hits[1].Memory.Tags).Length(0)
}

func TestChromemSearchLimit(t *testing.T) {
	ctx := context.Background()
	repo, err := repository.NewChromem(t.TempDir(), "test_memories", 3)
	gt.NoError(t, err)
	defer repo.Close()

	for _, emb := range [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		gt.NoError(t, repo.PutMemory(ctx, newMemory("memory", emb, nil)))
	}

	hits, err := repo.SearchSimilarMemories(ctx, []float32{1, 0, 0}, 2)
	gt.NoError(t, err)
	gt.A(t, hits).Length(2)

	// A limit above the collection size must not error.
	hits, err = repo.SearchSimilarMemories(ctx, []float32{1, 0, 0}, 20)
	gt.NoError(t, err)
	gt.A(t, hits).Length(3)
}

func TestChromemEmptySearch(t *testing.T) {
	ctx := context.Background()
	repo, err := repository.NewChromem(t.TempDir(), "test_memories", 3)
	gt.NoError(t, err)
	defer repo.Close()

	hits, err := repo.SearchSimilarMemories(ctx, []float32{1, 0, 0}, 5)
	gt.NoError(t, err)
	gt.A(t, hits).Length(0)
}

func TestChromemPersistence(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	repo, err := repository.NewChromem(dataDir, "test_memories", 3)
	gt.NoError(t, err)
	mem := newMemory("persisted fact", []float32{1, 0, 0}, []string{"durable"})
	gt.NoError(t, repo.PutMemory(ctx, mem))
	gt.NoError(t, repo.Close())

	reopened, err := repository.NewChromem(dataDir, "test_memories", 3)
	gt.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.CountMemories(ctx)
	gt.NoError(t, err)
	gt.Equal(t, count, 1)

	hits, err := reopened.SearchSimilarMemories(ctx, []float32{1, 0, 0}, 5)
	gt.NoError(t, err)
	gt.A(t, hits).Length(1)
	gt.Equal(t, hits[0].Memory.ID, mem.ID)
	gt.Equal(t, hits[0].Memory.Content, "persisted fact")
	gt.Equal(t, hits[0].Memory.Tags, []string{"durable"})
}

func TestChromemDimensionsPinned(t *testing.T) {
	dataDir := t.TempDir()

	repo, err := repository.NewChromem(dataDir, "test_memories", 3)
	gt.NoError(t, err)
	gt.NoError(t, repo.Close())

	_, err = repository.NewChromem(dataDir, "test_memories", 4)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrStorageFailure))
}

func TestChromemRejectsWrongEmbeddingSize(t *testing.T) {
	ctx := context.Background()
	repo, err := repository.NewChromem(t.TempDir(), "test_memories", 3)
	gt.NoError(t, err)
	defer repo.Close()

	err = repo.PutMemory(ctx, newMemory("bad vector", []float32{1, 0}, nil))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrStorageFailure))

	_, err = repo.SearchSimilarMemories(ctx, []float32{1, 0}, 5)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrStorageFailure))
}

func TestChromemInvalidConfig(t *testing.T) {
	_, err := repository.NewChromem("", "test_memories", 3)
	gt.Error(t, err)

	_, err = repository.NewChromem(t.TempDir(), "", 3)
	gt.Error(t, err)

	_, err = repository.NewChromem(t.TempDir(), "test_memories", 0)
	gt.Error(t, err)
}
