package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/symbios/pkg/server"
	"github.com/m-mizutani/symbios/pkg/service/mcp"
	"github.com/m-mizutani/symbios/pkg/utils/logging"
)

func serveCommand() *cli.Command {
	var (
		cfg       config
		transport string
		addr      string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "transport",
			Aliases:     []string{"t"},
			Usage:       "MCP transport (stdio or http)",
			Value:       "stdio",
			Sources:     cli.EnvVars("SYMBIOS_TRANSPORT"),
			Destination: &transport,
		},
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address for the http transport",
			Value:       ":8000",
			Sources:     cli.EnvVars("SYMBIOS_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embedderFlags(&cfg)...)
	flags = append(flags, personaFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP memory server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := logging.From(ctx)

			uc, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}

			// A broken model configuration must fail here, not on the
			// first tool call.
			if err := uc.Warmup(ctx); err != nil {
				return goerr.Wrap(err, "embedding model warm-up failed")
			}

			p, err := cfg.newPersona(ctx)
			if err != nil {
				return err
			}

			count, err := uc.Count(ctx)
			if err != nil {
				return err
			}
			logger.Info("memory server ready",
				"transport", transport,
				"collection", cfg.collection,
				"persona", p.Variant(),
				"memory_count", count)

			mcpServer := mcp.NewServer(uc, p, Version)

			switch transport {
			case "stdio":
				return mcpServer.Run(ctx, &sdkmcp.StdioTransport{})

			case "http":
				srv := server.New(server.Config{
					Addr:           addr,
					Version:        Version,
					Collection:     cfg.collection,
					PersonaVariant: p.Variant(),
				}, uc, mcpServer)
				return srv.Run(ctx)

			default:
				return goerr.New("unsupported transport",
					goerr.V("transport", transport),
					goerr.V("supported", []string{"stdio", "http"}))
			}
		},
	}
}
