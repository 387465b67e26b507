// Package mcp exposes the memory operations and the persona prompt as an
// MCP server. Transport (stdio or streamable HTTP) is the caller's
// choice; this package only builds the server.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/m-mizutani/symbios/pkg/model"
	"github.com/m-mizutani/symbios/pkg/service/persona"
	"github.com/m-mizutani/symbios/pkg/usecase/memory"
)

const promptName = "symbiote_identity"

type storeMemoryParams struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

type searchMemoryParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// NewServer builds an MCP server exposing store_memory, search_memory
// and the persona prompt.
func NewServer(uc *memory.UseCase, p *persona.Persona, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "symbios",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "store_memory",
		Description: "Store important information in shared memory with semantic embedding for future retrieval",
		InputSchema: storeMemorySchema(),
	}, storeMemoryHandler(uc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_memory",
		Description: "Search shared memories using semantic similarity (meaning-based, not keyword matching)",
		InputSchema: searchMemorySchema(),
	}, searchMemoryHandler(uc))

	server.AddPrompt(&mcp.Prompt{
		Name:        promptName,
		Description: "Symbiote personality with mandatory memory protocol",
	}, promptHandler(p))

	return server
}

func storeMemoryHandler(uc *memory.UseCase) mcp.ToolHandlerFor[*storeMemoryParams, *model.StoreResult] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params *storeMemoryParams) (*mcp.CallToolResult, *model.StoreResult, error) {
		result, err := uc.Store(ctx, params.Content, params.Tags)
		if err != nil {
			return nil, nil, err
		}
		return textResult(result), result, nil
	}
}

func searchMemoryHandler(uc *memory.UseCase) mcp.ToolHandlerFor[*searchMemoryParams, *model.SearchResponse] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params *searchMemoryParams) (*mcp.CallToolResult, *model.SearchResponse, error) {
		limit := params.Limit
		if limit == 0 {
			limit = model.DefaultLimit
		}

		result, err := uc.Search(ctx, params.Query, limit)
		if err != nil {
			return nil, nil, err
		}
		return textResult(result), result, nil
	}
}

func promptHandler(p *persona.Persona) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: p.Content()},
				},
			},
		}, nil
	}
}

// textResult renders the structured result as JSON text content, for
// clients that only consume text.
func textResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		// Results are plain structs; marshaling cannot fail in practice.
		data = []byte(goerr.Wrap(err, "failed to marshal result").Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}

func storeMemorySchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"content": {
				Type:        "string",
				Description: "Information to remember (user preferences, project details, facts, decisions, etc.)",
			},
			"tags": {
				Type:        "array",
				Description: "Optional categorization tags (e.g. 'preference', 'project', 'personal')",
				Items:       &jsonschema.Schema{Type: "string"},
				MaxItems:    ptr(model.MaxTags),
			},
		},
		Required: []string{"content"},
	}
}

func searchMemorySchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "Natural language query to search for (e.g. 'coding preferences', 'current projects')",
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of results to return",
				Minimum:     ptr(float64(model.MinLimit)),
				Maximum:     ptr(float64(model.MaxLimit)),
				Default:     json.RawMessage("5"),
			},
		},
		Required: []string{"query"},
	}
}

func ptr[T any](v T) *T {
	return &v
}
