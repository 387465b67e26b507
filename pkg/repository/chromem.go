package repository

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	chromem "github.com/philippgille/chromem-go"

	"github.com/m-mizutani/symbios/pkg/model"
)

const (
	metaKeyCreatedAt = "created_at"
	metaKeyTags      = "tags"

	// dimensionsFile pins the embedding dimensionality of a data
	// directory. Mixing models without migrating existing vectors is
	// rejected at startup instead of producing garbage distances.
	dimensionsFile = "dimensions"
)

// chromemRepo implements Repository on chromem-go, an embedded pure-Go
// vector database persisted under a local data directory.
type chromemRepo struct {
	col        *chromem.Collection
	dimensions int

	// chromem interleaves concurrent reads and writes safely, but store
	// calls are serialized anyway to keep a single-writer discipline.
	writeMu sync.Mutex
}

// NewChromem opens (or creates) the persistent index in dataDir with one
// named collection. Fails if the directory was created by an embedder
// with a different dimensionality.
func NewChromem(dataDir, collectionName string, dimensions int) (Repository, error) {
	if dataDir == "" {
		return nil, goerr.Wrap(model.ErrStorageFailure, "data directory is required")
	}
	if collectionName == "" {
		return nil, goerr.Wrap(model.ErrStorageFailure, "collection name is required")
	}
	if dimensions <= 0 {
		return nil, goerr.Wrap(model.ErrStorageFailure, "dimensions must be positive",
			goerr.V("dimensions", dimensions))
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, goerr.Wrap(model.ErrStorageFailure, "failed to create data directory",
			goerr.V("path", dataDir))
	}

	if err := pinDimensions(dataDir, dimensions); err != nil {
		return nil, err
	}

	db, err := chromem.NewPersistentDB(dataDir, false)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStorageFailure, "failed to open persistent index",
			goerr.V("path", dataDir))
	}

	col, err := db.GetOrCreateCollection(collectionName, map[string]string{
		"description": "semantic memory collection",
	}, nil)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStorageFailure, "failed to open collection",
			goerr.V("collection", collectionName))
	}

	return &chromemRepo{
		col:        col,
		dimensions: dimensions,
	}, nil
}

// pinDimensions records the embedding dimensionality on first open and
// verifies it on every later open.
func pinDimensions(dataDir string, dimensions int) error {
	path := filepath.Join(dataDir, dimensionsFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(strconv.Itoa(dimensions)), 0o644); err != nil {
			return goerr.Wrap(model.ErrStorageFailure, "failed to pin dimensions",
				goerr.V("path", path))
		}
		return nil
	}
	if err != nil {
		return goerr.Wrap(model.ErrStorageFailure, "failed to read pinned dimensions",
			goerr.V("path", path))
	}

	pinned, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return goerr.Wrap(model.ErrStorageFailure, "corrupted dimensions file",
			goerr.V("path", path))
	}
	if pinned != dimensions {
		return goerr.Wrap(model.ErrStorageFailure, "embedding dimensionality mismatch with existing data directory",
			goerr.V("pinned", pinned), goerr.V("configured", dimensions))
	}
	return nil
}

func (r *chromemRepo) PutMemory(ctx context.Context, mem *model.Memory) error {
	if len(mem.Embedding) != r.dimensions {
		return goerr.Wrap(model.ErrStorageFailure, "embedding dimensionality mismatch",
			goerr.V("got", len(mem.Embedding)), goerr.V("want", r.dimensions))
	}

	metadata := map[string]string{
		metaKeyCreatedAt: mem.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(mem.Tags) > 0 {
		// chromem metadata values are scalar strings, so the tag list
		// is joined here and split back on read.
		metadata[metaKeyTags] = strings.Join(mem.Tags, model.TagDelimiter)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.col.AddDocument(ctx, chromem.Document{
		ID:        string(mem.ID),
		Content:   mem.Content,
		Embedding: mem.Embedding,
		Metadata:  metadata,
	})
	if err != nil {
		return goerr.Wrap(model.ErrStorageFailure, "failed to add document",
			goerr.V("memory_id", mem.ID))
	}

	return nil
}

func (r *chromemRepo) SearchSimilarMemories(ctx context.Context, embedding []float32, limit int) ([]*SearchHit, error) {
	if len(embedding) != r.dimensions {
		return nil, goerr.Wrap(model.ErrStorageFailure, "embedding dimensionality mismatch",
			goerr.V("got", len(embedding)), goerr.V("want", r.dimensions))
	}

	// chromem rejects nResults larger than the collection, so clamp.
	n := limit
	if count := r.col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := r.col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStorageFailure, "failed to query index")
	}

	hits := make([]*SearchHit, 0, len(results))
	for _, res := range results {
		mem, err := memoryFromResult(res)
		if err != nil {
			return nil, err
		}
		hits = append(hits, &SearchHit{
			Memory: mem,
			// chromem reports cosine similarity; the index contract
			// speaks in cosine distance.
			Distance: 1 - float64(res.Similarity),
		})
	}

	return hits, nil
}

func (r *chromemRepo) CountMemories(ctx context.Context) (int, error) {
	return r.col.Count(), nil
}

func (r *chromemRepo) Close() error {
	// chromem persists on every write; nothing to flush.
	return nil
}

// memoryFromResult converts a chromem result back into a Memory.
func memoryFromResult(res chromem.Result) (*model.Memory, error) {
	createdAt, err := time.Parse(time.RFC3339, res.Metadata[metaKeyCreatedAt])
	if err != nil {
		return nil, goerr.Wrap(model.ErrStorageFailure, "corrupted memory timestamp",
			goerr.V("memory_id", res.ID))
	}

	var tags []string
	if raw := res.Metadata[metaKeyTags]; raw != "" {
		tags = strings.Split(raw, model.TagDelimiter)
	}

	return &model.Memory{
		ID:        model.MemoryID(res.ID),
		Content:   res.Content,
		Embedding: res.Embedding,
		CreatedAt: createdAt,
		Tags:      tags,
	}, nil
}
