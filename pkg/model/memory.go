package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID. The ID is derived from the
// creation time so that IDs sort roughly by age; a short random suffix
// prevents collisions between memories stored in the same instant.
func NewMemoryID(now time.Time) MemoryID {
	return MemoryID(fmt.Sprintf("mem_%d_%s", now.UnixNano(), uuid.New().String()[:8]))
}

// Memory represents one durably stored unit of remembered text with its
// embedding and metadata. Memories are immutable after creation: there is
// no update, delete or expiry operation.
type Memory struct {
	ID        MemoryID
	Content   string
	Embedding []float32
	CreatedAt time.Time
	Tags      []string
}

// SearchResult is a transient projection returned by a search call. The
// relevance score is computed at query time from the index's cosine
// distance and never stored.
type SearchResult struct {
	MemoryID       MemoryID  `json:"memory_id"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	RelevanceScore float64   `json:"relevance_score"`
	Tags           []string  `json:"tags,omitempty"`
}

// SearchResponse is the result of a search operation. An empty Results
// list is a valid response, not an error.
type SearchResponse struct {
	Results      []*SearchResult `json:"results"`
	TotalResults int             `json:"total_results"`
}

// StoreResult echoes back what the store operation persisted.
type StoreResult struct {
	MemoryID            MemoryID  `json:"memory_id"`
	Success             bool      `json:"success"`
	Timestamp           time.Time `json:"timestamp"`
	EmbeddingDimensions int       `json:"embedding_dimensions"`
}

const (
	MaxTags      = 10
	MaxTagLength = 50
	MinLimit     = 1
	MaxLimit     = 20
	DefaultLimit = 5

	// TagDelimiter joins the tag list into a single metadata value, since
	// the underlying index only supports scalar metadata. Internal
	// encoding detail, not part of the public contract.
	TagDelimiter = ","
)

// ValidateContent checks text to be stored. Rejects empty or
// whitespace-only content before any embedding work is performed.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return goerr.Wrap(ErrInvalidInput, "content must not be empty")
	}
	return nil
}

// ValidateQuery checks a search query string.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return goerr.Wrap(ErrInvalidInput, "query must not be empty")
	}
	return nil
}

// ValidateLimit checks a search result limit.
func ValidateLimit(limit int) error {
	if limit < MinLimit || limit > MaxLimit {
		return goerr.Wrap(ErrInvalidInput, "limit must be between 1 and 20",
			goerr.V("limit", limit))
	}
	return nil
}

// ValidateTags checks an optional tag list: at most MaxTags entries, each
// non-empty after trim and at most MaxTagLength characters. A tag must not
// contain the storage delimiter, otherwise the round-trip through the
// index's scalar metadata would split it apart.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return goerr.Wrap(ErrInvalidInput, "maximum 10 tags allowed",
			goerr.V("count", len(tags)))
	}
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return goerr.Wrap(ErrInvalidInput, "tags must not be empty",
				goerr.V("index", i))
		}
		if len(tag) > MaxTagLength {
			return goerr.Wrap(ErrInvalidInput, "tags must be at most 50 characters",
				goerr.V("index", i), goerr.V("length", len(tag)))
		}
		if strings.Contains(tag, TagDelimiter) {
			return goerr.Wrap(ErrInvalidInput, "tags must not contain a comma",
				goerr.V("index", i), goerr.V("tag", tag))
		}
	}
	return nil
}
