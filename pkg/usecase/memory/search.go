package memory

import (
	"context"
	"math"
	"sort"

	"github.com/m-mizutani/symbios/pkg/metrics"
	"github.com/m-mizutani/symbios/pkg/model"
	"github.com/m-mizutani/symbios/pkg/utils/logging"
)

// Search finds the memories most similar to the query. Each candidate's
// cosine distance d is remapped to a relevance percentage
// max(0, (1-d)*100); candidates below MinRelevanceScore are dropped, so
// fewer than limit results may be returned. An empty result set is a
// valid answer, not an error.
func (u *UseCase) Search(ctx context.Context, query string, limit int) (*model.SearchResponse, error) {
	timer := metrics.OperationDuration.WithLabelValues("search")
	start := u.now()

	if err := model.ValidateQuery(query); err != nil {
		metrics.OperationTotal.WithLabelValues("search", "invalid").Inc()
		return nil, err
	}
	if err := model.ValidateLimit(limit); err != nil {
		metrics.OperationTotal.WithLabelValues("search", "invalid").Inc()
		return nil, err
	}

	embedding, err := u.embedder.Embed(ctx, query)
	if err != nil {
		metrics.OperationTotal.WithLabelValues("search", "error").Inc()
		return nil, err
	}

	hits, err := u.repo.SearchSimilarMemories(ctx, embedding, limit)
	if err != nil {
		metrics.OperationTotal.WithLabelValues("search", "error").Inc()
		return nil, err
	}

	results := make([]*model.SearchResult, 0, len(hits))
	for _, hit := range hits {
		score := relevanceScore(hit.Distance)
		if score < MinRelevanceScore {
			continue
		}
		results = append(results, &model.SearchResult{
			MemoryID:       hit.Memory.ID,
			Content:        hit.Memory.Content,
			Timestamp:      hit.Memory.CreatedAt,
			RelevanceScore: score,
			Tags:           hit.Memory.Tags,
		})
	}

	// The index returns candidates closest first, but keep the ordering
	// contract explicit. SliceStable preserves the index's insertion
	// order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	metrics.OperationTotal.WithLabelValues("search", "ok").Inc()
	timer.Observe(u.now().Sub(start).Seconds())

	logging.From(ctx).Debug("search completed",
		"candidates", len(hits),
		"results", len(results))

	return &model.SearchResponse{
		Results:      results,
		TotalResults: len(results),
	}, nil
}

// relevanceScore converts a cosine distance (0 = identical) to a 0-100
// percentage, clamped at zero and rounded to one decimal.
func relevanceScore(distance float64) float64 {
	score := (1 - distance) * 100
	if score < 0 {
		return 0
	}
	return math.Round(score*10) / 10
}
