package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/symbios/pkg/utils/logging"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:    "symbios",
		Usage:   "Memory-augmented MCP server with semantic search",
		Version: Version,
		Commands: []*cli.Command{
			serveCommand(),
			storeCommand(),
			searchCommand(),
			countCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
