package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/symbios/pkg/model"
)

// MockEmbedder is a deterministic in-process embedder for tests. Texts
// registered in Vectors get those exact vectors; anything else gets a
// unit vector derived from the text's hash, so distinct texts are far
// apart and identical texts are identical.
type MockEmbedder struct {
	Dims    int
	Vectors map[string][]float32
}

// NewMock creates a mock embedder with the given dimensionality.
func NewMock(dims int) *MockEmbedder {
	return &MockEmbedder{
		Dims:    dims,
		Vectors: make(map[string][]float32),
	}
}

// Register pins an exact vector for a text.
func (m *MockEmbedder) Register(text string, vec []float32) {
	m.Vectors[text] = vec
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := model.ValidateContent(text); err != nil {
		return nil, err
	}
	if vec, ok := m.Vectors[text]; ok {
		return vec, nil
	}

	h := sha256.Sum256([]byte(text))
	vec := make([]float32, m.Dims)
	for i := range vec {
		b := h[(i*4)%len(h):]
		bits := binary.LittleEndian.Uint32(b[:4])
		vec[i] = float32(bits%2000)/1000 - 1
	}

	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidInput, "texts must not be empty")
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (m *MockEmbedder) Dimensions() int {
	return m.Dims
}

func (m *MockEmbedder) Warmup(ctx context.Context) error {
	return nil
}
