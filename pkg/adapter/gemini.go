package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/m-mizutani/symbios/pkg/model"
)

// GeminiEmbedder generates embeddings through the Gemini API. It is the
// remote alternative to the local ONNX model: no weights to ship, but
// every call leaves the process. The output dimensionality is pinned to
// the store's configured size so both backends are interchangeable.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

type GeminiOption func(*GeminiEmbedder)

// WithGeminiModel overrides the embedding model name.
func WithGeminiModel(name string) GeminiOption {
	return func(g *GeminiEmbedder) {
		g.model = name
	}
}

// WithGeminiDimensions overrides the requested output dimensionality.
func WithGeminiDimensions(dims int) GeminiOption {
	return func(g *GeminiEmbedder) {
		g.dimensions = dims
	}
}

// NewGemini creates a Gemini-backed embedder using Vertex AI credentials.
func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiEmbedder{
		client:     client,
		model:      "gemini-embedding-001",
		dimensions: 384,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Embed converts a single text to an embedding vector.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := model.ValidateContent(text); err != nil {
		return nil, err
	}

	vecs, err := g.embed(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in a single API request.
func (g *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidInput, "texts must not be empty")
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		if err := model.ValidateContent(text); err != nil {
			return nil, err
		}
		contents = append(contents, genai.Text(text)...)
	}

	return g.embed(ctx, contents)
}

func (g *GeminiEmbedder) embed(ctx context.Context, contents []*genai.Content) ([][]float32, error) {
	dims := int32(g.dimensions)
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, goerr.Wrap(model.ErrModelUnavailable, "failed to embed content",
			goerr.V("model", g.model))
	}
	if len(resp.Embeddings) != len(contents) {
		return nil, goerr.Wrap(model.ErrModelUnavailable, "embedding count mismatch",
			goerr.V("got", len(resp.Embeddings)), goerr.V("want", len(contents)))
	}

	vecs := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vecs[i] = emb.Values
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (g *GeminiEmbedder) Dimensions() int {
	return g.dimensions
}

// Warmup verifies credentials and model access with a single probe call,
// so a broken configuration fails at startup instead of on the first
// real request.
func (g *GeminiEmbedder) Warmup(ctx context.Context) error {
	if _, err := g.Embed(ctx, "warmup"); err != nil {
		return err
	}
	return nil
}
