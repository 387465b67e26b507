package adapter

import (
	"context"
	"math"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/m-mizutani/symbios/pkg/model"
	"github.com/m-mizutani/symbios/pkg/utils/logging"
)

// ONNXConfig configures the local embedding model.
type ONNXConfig struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the HuggingFace tokenizer.json file.
	TokenizerPath string

	// RuntimePath is the path to the onnxruntime shared library. Empty
	// uses the onnxruntime_go default.
	RuntimePath string

	// Dimensions is the embedding vector size (default: 384 for
	// all-MiniLM-L6-v2).
	Dimensions int

	// MaxSeqLength is the token sequence length (default: 128).
	MaxSeqLength int
}

// The ONNX runtime environment is process-wide and may only be
// initialized once, regardless of how many sessions are created.
var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

func initONNXRuntime(runtimePath string) error {
	ortEnvOnce.Do(func() {
		if runtimePath != "" {
			ort.SetSharedLibraryPath(runtimePath)
		}
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// ONNXEmbedder generates embeddings with a local sentence-embedding model
// through ONNX Runtime. The model is large and slow to initialize but
// cheap to reuse, so it is loaded lazily on first use and memoized for
// the lifetime of the process. The load is safe under concurrent
// first-call races.
type ONNXEmbedder struct {
	cfg       ONNXConfig
	loadOnce  sync.Once
	loadErr   error
	session   *ort.DynamicAdvancedSession
	tokenizer *wordPieceTokenizer
}

// NewONNX creates a new local embedder. The model is not loaded here;
// construction stays cheap and the first Embed (or Warmup) pays the
// initialization cost.
func NewONNX(cfg ONNXConfig) *ONNXEmbedder {
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 384
	}
	if cfg.MaxSeqLength == 0 {
		cfg.MaxSeqLength = 128
	}
	return &ONNXEmbedder{cfg: cfg}
}

func (e *ONNXEmbedder) load(ctx context.Context) error {
	e.loadOnce.Do(func() {
		logger := logging.From(ctx)
		logger.Info("loading embedding model", "model", e.cfg.ModelPath)

		if e.cfg.ModelPath == "" {
			e.loadErr = goerr.Wrap(model.ErrModelUnavailable, "model path is required")
			return
		}

		if err := initONNXRuntime(e.cfg.RuntimePath); err != nil {
			e.loadErr = goerr.Wrap(model.ErrModelUnavailable, "failed to initialize ONNX runtime",
				goerr.V("runtime", e.cfg.RuntimePath))
			return
		}

		tokenizer, err := loadWordPieceTokenizer(e.cfg.TokenizerPath)
		if err != nil {
			e.loadErr = goerr.Wrap(model.ErrModelUnavailable, "failed to load tokenizer",
				goerr.V("path", e.cfg.TokenizerPath))
			return
		}

		session, err := ort.NewDynamicAdvancedSession(e.cfg.ModelPath,
			[]string{"input_ids", "attention_mask", "token_type_ids"},
			[]string{"last_hidden_state"},
			nil,
		)
		if err != nil {
			e.loadErr = goerr.Wrap(model.ErrModelUnavailable, "failed to create ONNX session",
				goerr.V("model", e.cfg.ModelPath))
			return
		}

		e.tokenizer = tokenizer
		e.session = session
		logger.Info("embedding model loaded", "dimensions", e.cfg.Dimensions)
	})
	return e.loadErr
}

// Embed converts a single text to an embedding vector.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := model.ValidateContent(text); err != nil {
		return nil, err
	}
	if err := e.load(ctx); err != nil {
		return nil, err
	}

	vecs, err := e.infer(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch converts multiple texts with a single model invocation.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidInput, "texts must not be empty")
	}
	for _, text := range texts {
		if err := model.ValidateContent(text); err != nil {
			return nil, err
		}
	}
	if err := e.load(ctx); err != nil {
		return nil, err
	}

	return e.infer(ctx, texts)
}

// Dimensions returns the embedding vector size.
func (e *ONNXEmbedder) Dimensions() int {
	return e.cfg.Dimensions
}

// Warmup loads the model eagerly. A failure here is treated as fatal by
// the caller at process startup.
func (e *ONNXEmbedder) Warmup(ctx context.Context) error {
	return e.load(ctx)
}

// Close releases the ONNX session.
func (e *ONNXEmbedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

// infer runs one batched forward pass over all texts. Inputs are padded
// to MaxSeqLength; the output is mean-pooled over attended tokens and
// L2-normalized so that cosine distance behaves as the index expects.
func (e *ONNXEmbedder) infer(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "context canceled before inference")
	}

	batch := len(texts)
	seqLen := e.cfg.MaxSeqLength

	inputIDs := make([]int64, batch*seqLen)
	attentionMask := make([]int64, batch*seqLen)
	tokenTypeIDs := make([]int64, batch*seqLen)

	for row, text := range texts {
		ids := e.tokenizer.Encode(text, seqLen)
		base := row * seqLen
		for i, id := range ids {
			inputIDs[base+i] = id
			attentionMask[base+i] = 1
		}
	}

	shape := ort.NewShape(int64(batch), int64(seqLen))

	inputIDsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, goerr.Wrap(model.ErrModelUnavailable, "failed to create input_ids tensor")
	}
	defer inputIDsTensor.Destroy()

	attentionTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, goerr.Wrap(model.ErrModelUnavailable, "failed to create attention_mask tensor")
	}
	defer attentionTensor.Destroy()

	tokenTypeTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, goerr.Wrap(model.ErrModelUnavailable, "failed to create token_type_ids tensor")
	}
	defer tokenTypeTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{inputIDsTensor, attentionTensor, tokenTypeTensor}, outputs); err != nil {
		return nil, goerr.Wrap(model.ErrModelUnavailable, "ONNX inference failed")
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, goerr.Wrap(model.ErrModelUnavailable, "unexpected output tensor type")
	}

	return e.pool(outTensor, attentionMask, batch, seqLen)
}

// pool reduces the model output to one vector per input row. Handles both
// pre-pooled outputs ([batch, dims]) and raw hidden states
// ([batch, seq, dims], mean-pooled over attended tokens).
func (e *ONNXEmbedder) pool(out *ort.Tensor[float32], attentionMask []int64, batch, seqLen int) ([][]float32, error) {
	data := out.GetData()
	shape := out.GetShape()
	dims := e.cfg.Dimensions

	results := make([][]float32, batch)

	switch len(shape) {
	case 2:
		if int(shape[1]) < dims {
			return nil, goerr.Wrap(model.ErrModelUnavailable, "output dimension mismatch",
				goerr.V("got", shape[1]), goerr.V("want", dims))
		}
		for row := 0; row < batch; row++ {
			vec := make([]float32, dims)
			copy(vec, data[row*int(shape[1]):row*int(shape[1])+dims])
			results[row] = normalizeVector(vec)
		}

	case 3:
		if int(shape[2]) != dims {
			return nil, goerr.Wrap(model.ErrModelUnavailable, "hidden size mismatch",
				goerr.V("got", shape[2]), goerr.V("want", dims))
		}
		hidden := int(shape[2])
		for row := 0; row < batch; row++ {
			vec := make([]float32, dims)
			var attended float32
			for pos := 0; pos < seqLen; pos++ {
				if attentionMask[row*seqLen+pos] == 0 {
					continue
				}
				attended++
				offset := (row*seqLen + pos) * hidden
				for j := 0; j < dims; j++ {
					vec[j] += data[offset+j]
				}
			}
			if attended > 0 {
				for j := range vec {
					vec[j] /= attended
				}
			}
			results[row] = normalizeVector(vec)
		}

	default:
		return nil, goerr.Wrap(model.ErrModelUnavailable, "unexpected output shape",
			goerr.V("shape", shape))
	}

	return results, nil
}

// normalizeVector scales a vector to unit length.
func normalizeVector(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
