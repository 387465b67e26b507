package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func storeCommand() *cli.Command {
	var (
		cfg     config
		content string
		tags    []string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "content",
			Aliases:     []string{"c"},
			Usage:       "Text content to remember",
			Sources:     cli.EnvVars("SYMBIOS_STORE_CONTENT"),
			Destination: &content,
			Required:    true,
		},
		&cli.StringSliceFlag{
			Name:        "tag",
			Aliases:     []string{"t"},
			Usage:       "Categorization tag (repeatable, max 10)",
			Destination: &tags,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embedderFlags(&cfg)...)

	return &cli.Command{
		Name:  "store",
		Usage: "Store a memory from the command line",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			uc, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}

			result, err := uc.Store(ctx, content, tags)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Stored %s (%d dimensions) at %s\n",
				result.MemoryID,
				result.EmbeddingDimensions,
				result.Timestamp.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
