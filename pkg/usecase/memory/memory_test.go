package memory_test

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/symbios/pkg/adapter"
	"github.com/m-mizutani/symbios/pkg/model"
	"github.com/m-mizutani/symbios/pkg/repository"
	"github.com/m-mizutani/symbios/pkg/usecase/memory"
)

// memRepo is an in-memory Repository backed by a slice, ranking by
// cosine distance the same way the persistent index does.
type memRepo struct {
	memories []*model.Memory
}

func (r *memRepo) PutMemory(_ context.Context, mem *model.Memory) error {
	r.memories = append(r.memories, mem)
	return nil
}

func (r *memRepo) SearchSimilarMemories(_ context.Context, embedding []float32, limit int) ([]*repository.SearchHit, error) {
	hits := make([]*repository.SearchHit, 0, len(r.memories))
	for _, mem := range r.memories {
		hits = append(hits, &repository.SearchHit{
			Memory:   mem,
			Distance: cosineDistance(embedding, mem.Embedding),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (r *memRepo) CountMemories(_ context.Context) (int, error) {
	return len(r.memories), nil
}

func (r *memRepo) Close() error { return nil }

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func TestStoreAndSearch(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	embedder := adapter.NewMock(3)
	embedder.Register("the user prefers Go", []float32{1, 0, 0})
	embedder.Register("lunch was ramen", []float32{0, 0, 1})
	// Close to the first memory: dot 0.9 -> relevance 90.
	embedder.Register("what language does the user like?", []float32{0.9, 0.43589, 0})

	fixed := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	uc := memory.New(repo, embedder, memory.WithClock(func() time.Time { return fixed }))

	stored, err := uc.Store(ctx, "the user prefers Go", []string{"preference", "language"})
	gt.NoError(t, err)
	gt.True(t, stored.Success)
	gt.Equal(t, stored.EmbeddingDimensions, 3)
	gt.Equal(t, stored.Timestamp, fixed)
	gt.True(t, strings.HasPrefix(string(stored.MemoryID), "mem_"))

	_, err = uc.Store(ctx, "lunch was ramen", nil)
	gt.NoError(t, err)

	resp, err := uc.Search(ctx, "what language does the user like?", 5)
	gt.NoError(t, err)
	gt.Equal(t, resp.TotalResults, 1)
	gt.A(t, resp.Results).Length(1)

	top := resp.Results[0]
	gt.Equal(t, top.MemoryID, stored.MemoryID)
	gt.Equal(t, top.Content, "the user prefers Go")
	gt.Equal(t, top.RelevanceScore, 90.0)
	gt.Equal(t, top.Tags, []string{"preference", "language"})
	gt.Equal(t, top.Timestamp, fixed)
}

func TestSearchOrdering(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	embedder := adapter.NewMock(3)
	embedder.Register("near", []float32{0.95, 0.31225, 0}) // dot 0.95 -> 95.0
	embedder.Register("mid", []float32{0.6, 0.8, 0})       // dot 0.6  -> 60.0
	embedder.Register("far", []float32{0.4, 0.91652, 0})   // dot 0.4  -> 40.0
	embedder.Register("query", []float32{1, 0, 0})

	uc := memory.New(repo, embedder)
	for _, content := range []string{"far", "near", "mid"} {
		_, err := uc.Store(ctx, content, nil)
		gt.NoError(t, err)
	}

	resp, err := uc.Search(ctx, "query", 20)
	gt.NoError(t, err)
	gt.A(t, resp.Results).Length(3)
	gt.Equal(t, resp.Results[0].Content, "near")
	gt.Equal(t, resp.Results[1].Content, "mid")
	gt.Equal(t, resp.Results[2].Content, "far")
	for i := 1; i < len(resp.Results); i++ {
		gt.True(t, resp.Results[i-1].RelevanceScore >= resp.Results[i].RelevanceScore)
	}
}

func TestSearchRelevanceCutoff(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	embedder := adapter.NewMock(3)
	embedder.Register("relevant", []float32{0.8, 0.6, 0}) // dot 0.8 -> 80.0
	embedder.Register("weak", []float32{0.2, 0.97980, 0}) // dot 0.2 -> 20.0, below cutoff
	embedder.Register("orthogonal", []float32{0, 0, 1})   // dot 0   -> 0
	embedder.Register("query", []float32{1, 0, 0})

	uc := memory.New(repo, embedder)
	for _, content := range []string{"relevant", "weak", "orthogonal"} {
		_, err := uc.Store(ctx, content, nil)
		gt.NoError(t, err)
	}

	resp, err := uc.Search(ctx, "query", 20)
	gt.NoError(t, err)
	gt.Equal(t, resp.TotalResults, 1)
	gt.Equal(t, resp.Results[0].Content, "relevant")
}

func TestSearchEmptyStore(t *testing.T) {
	ctx := context.Background()
	uc := memory.New(&memRepo{}, adapter.NewMock(3))

	resp, err := uc.Search(ctx, "anything at all", 5)
	gt.NoError(t, err)
	gt.Equal(t, resp.TotalResults, 0)
	gt.A(t, resp.Results).Length(0)
}

func TestSearchLimitRespected(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	embedder := adapter.NewMock(3)
	embedder.Register("query", []float32{1, 0, 0})

	uc := memory.New(repo, embedder)
	for _, content := range []string{"a", "b", "c", "d", "e"} {
		embedder.Register(content, []float32{1, 0, 0})
		_, err := uc.Store(ctx, content, nil)
		gt.NoError(t, err)
	}

	resp, err := uc.Search(ctx, "query", 2)
	gt.NoError(t, err)
	gt.A(t, resp.Results).Length(2)
}

func TestStoreInvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	uc := memory.New(repo, adapter.NewMock(3))

	_, err := uc.Store(ctx, "   ", nil)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidInput))

	tags := make([]string, 11)
	for i := range tags {
		tags[i] = "t"
	}
	_, err = uc.Store(ctx, "content", tags)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidInput))

	// Rejected input must leave the store untouched.
	count, err := uc.Count(ctx)
	gt.NoError(t, err)
	gt.Equal(t, count, 0)
}

func TestSearchInvalidInput(t *testing.T) {
	ctx := context.Background()
	uc := memory.New(&memRepo{}, adapter.NewMock(3))

	_, err := uc.Search(ctx, "", 5)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidInput))

	for _, limit := range []int{0, 21} {
		_, err := uc.Search(ctx, "query", limit)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrInvalidInput))
	}
}

func TestSearchIsReadOnly(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	embedder := adapter.NewMock(3)
	embedder.Register("fact", []float32{1, 0, 0})
	embedder.Register("query", []float32{1, 0, 0})

	uc := memory.New(repo, embedder)
	_, err := uc.Store(ctx, "fact", nil)
	gt.NoError(t, err)

	first, err := uc.Search(ctx, "query", 5)
	gt.NoError(t, err)
	second, err := uc.Search(ctx, "query", 5)
	gt.NoError(t, err)
	gt.Equal(t, first, second)

	count, err := uc.Count(ctx)
	gt.NoError(t, err)
	gt.Equal(t, count, 1)
}
