package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/symbios/pkg/adapter"
	"github.com/m-mizutani/symbios/pkg/repository"
	"github.com/m-mizutani/symbios/pkg/service/persona"
	"github.com/m-mizutani/symbios/pkg/usecase/memory"
	"github.com/m-mizutani/symbios/pkg/utils/logging"
)

// config holds configuration values shared across commands
type config struct {
	// Logging
	logLevel string

	// Storage
	dataDir    string
	collection string

	// Embedder
	embedderBackend string // "onnx" or "gemini"
	dimensions      int64
	cacheSize       int64

	onnxModelPath     string
	onnxTokenizerPath string
	onnxRuntimePath   string

	geminiProject  string
	geminiLocation string
	geminiModel    string

	// Persona
	personaManifest string
	personaVariant  string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("SYMBIOS_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Aliases:     []string{"d"},
			Usage:       "Path to the persistent memory data directory",
			Value:       "./data",
			Sources:     cli.EnvVars("SYMBIOS_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Name of the memory collection",
			Value:       "symbios_memories",
			Sources:     cli.EnvVars("SYMBIOS_COLLECTION"),
			Destination: &cfg.collection,
		},
		&cli.IntFlag{
			Name:        "dimensions",
			Usage:       "Embedding vector dimensions (fixed per data directory)",
			Value:       384,
			Sources:     cli.EnvVars("SYMBIOS_DIMENSIONS"),
			Destination: &cfg.dimensions,
		},
	}
}

// embedderFlags returns flags for embedding model configuration
func embedderFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedder",
			Usage:       "Embedding backend (onnx or gemini)",
			Value:       "onnx",
			Sources:     cli.EnvVars("SYMBIOS_EMBEDDER"),
			Destination: &cfg.embedderBackend,
		},
		&cli.IntFlag{
			Name:        "embedding-cache-size",
			Usage:       "Max cached embeddings (0 disables the cache)",
			Value:       4096,
			Sources:     cli.EnvVars("SYMBIOS_EMBEDDING_CACHE_SIZE"),
			Destination: &cfg.cacheSize,
		},
		&cli.StringFlag{
			Name:        "onnx-model",
			Usage:       "Path to the ONNX embedding model file",
			Sources:     cli.EnvVars("SYMBIOS_ONNX_MODEL"),
			Destination: &cfg.onnxModelPath,
		},
		&cli.StringFlag{
			Name:        "onnx-tokenizer",
			Usage:       "Path to the tokenizer.json file",
			Sources:     cli.EnvVars("SYMBIOS_ONNX_TOKENIZER"),
			Destination: &cfg.onnxTokenizerPath,
		},
		&cli.StringFlag{
			Name:        "onnx-runtime",
			Usage:       "Path to the onnxruntime shared library",
			Sources:     cli.EnvVars("SYMBIOS_ONNX_RUNTIME"),
			Destination: &cfg.onnxRuntimePath,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for the Gemini backend",
			Sources:     cli.EnvVars("SYMBIOS_GEMINI_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for the Gemini backend",
			Value:       "us-central1",
			Sources:     cli.EnvVars("SYMBIOS_GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini embedding model name",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("SYMBIOS_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// personaFlags returns flags for the persona prompt
func personaFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "persona-manifest",
			Usage:       "Path to the persona manifest (YAML)",
			Value:       "personas/personas.yml",
			Sources:     cli.EnvVars("SYMBIOS_PERSONA_MANIFEST"),
			Destination: &cfg.personaManifest,
		},
		&cli.StringFlag{
			Name:        "persona",
			Usage:       "Persona variant to serve (empty = manifest default)",
			Sources:     cli.EnvVars("SYMBIOS_PERSONA"),
			Destination: &cfg.personaVariant,
		},
	}
}

// setupLogger builds the logger from config and attaches it to the
// context. Logs always go to stderr so they never collide with the
// stdio MCP stream.
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newEmbedder creates the configured embedding backend, wrapped with the
// in-process cache unless disabled.
func (cfg *config) newEmbedder(ctx context.Context) (adapter.Embedder, error) {
	var embedder adapter.Embedder

	switch cfg.embedderBackend {
	case "onnx":
		if cfg.onnxModelPath == "" {
			return nil, goerr.New("onnx-model is required for the onnx backend")
		}
		if cfg.onnxTokenizerPath == "" {
			return nil, goerr.New("onnx-tokenizer is required for the onnx backend")
		}
		embedder = adapter.NewONNX(adapter.ONNXConfig{
			ModelPath:     cfg.onnxModelPath,
			TokenizerPath: cfg.onnxTokenizerPath,
			RuntimePath:   cfg.onnxRuntimePath,
			Dimensions:    int(cfg.dimensions),
		})

	case "gemini":
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-project is required for the gemini backend")
		}
		gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
			adapter.WithGeminiModel(cfg.geminiModel),
			adapter.WithGeminiDimensions(int(cfg.dimensions)),
		)
		if err != nil {
			return nil, err
		}
		embedder = gemini

	default:
		return nil, goerr.New("unsupported embedder backend",
			goerr.V("backend", cfg.embedderBackend),
			goerr.V("supported", []string{"onnx", "gemini"}))
	}

	if cfg.cacheSize > 0 {
		cached, err := adapter.NewCached(embedder, cfg.cacheSize)
		if err != nil {
			return nil, err
		}
		embedder = cached
	}

	return embedder, nil
}

// newRepository opens the persistent memory index
func (cfg *config) newRepository() (repository.Repository, error) {
	return repository.NewChromem(cfg.dataDir, cfg.collection, int(cfg.dimensions))
}

// newUseCase wires repository and embedder into the memory usecase
func (cfg *config) newUseCase(ctx context.Context) (*memory.UseCase, error) {
	repo, err := cfg.newRepository()
	if err != nil {
		return nil, err
	}

	embedder, err := cfg.newEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	return memory.New(repo, embedder), nil
}

// newPersona loads the persona prompt
func (cfg *config) newPersona(ctx context.Context) (*persona.Persona, error) {
	return persona.Load(ctx, cfg.personaManifest, cfg.personaVariant)
}
