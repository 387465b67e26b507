package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/symbios/pkg/model"
)

func searchCommand() *cli.Command {
	var (
		cfg   config
		query string
		limit int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Natural language query to search memories",
			Sources:     cli.EnvVars("SYMBIOS_SEARCH_QUERY"),
			Destination: &query,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of results (1-20)",
			Value:       model.DefaultLimit,
			Sources:     cli.EnvVars("SYMBIOS_SEARCH_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embedderFlags(&cfg)...)

	return &cli.Command{
		Name:  "search",
		Usage: "Search memories by semantic similarity",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			uc, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}

			resp, err := uc.Search(ctx, query, int(limit))
			if err != nil {
				return err
			}

			if resp.TotalResults == 0 {
				fmt.Fprintf(c.Root().Writer, "No relevant memories found\n")
				return nil
			}

			fmt.Fprintf(c.Root().Writer, "Found %d memories:\n\n", resp.TotalResults)
			for i, r := range resp.Results {
				fmt.Fprintf(c.Root().Writer, "%d. %s (relevance: %.1f)\n", i+1, r.MemoryID, r.RelevanceScore)
				fmt.Fprintf(c.Root().Writer, "   %s\n", r.Content)
				fmt.Fprintf(c.Root().Writer, "   Created: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
				if len(r.Tags) > 0 {
					fmt.Fprintf(c.Root().Writer, "   Tags: %s\n", strings.Join(r.Tags, ", "))
				}
				fmt.Fprintf(c.Root().Writer, "\n")
			}
			return nil
		},
	}
}
