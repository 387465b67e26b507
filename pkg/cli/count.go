package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func countCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "count",
		Usage: "Show the number of stored memories",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			count, err := repo.CountMemories(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "%d memories stored\n", count)
			return nil
		},
	}
}
