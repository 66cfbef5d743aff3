package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/terrastac/dataplane/internal/crawl"
)

func crawlCmd() *cli.Command {
	return &cli.Command{
		Name:      "crawl",
		Usage:     "walk a catalog's child/item link graph into a local directory",
		ArgsUsage: "href dir",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogger(cmd)
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("crawl: expected href and dir arguments, got %d", cmd.Args().Len())
			}
			href, dir := cmd.Args().Get(0), cmd.Args().Get(1)

			stores, err := buildStores(ctx, cmd)
			if err != nil {
				return err
			}

			res, err := crawl.Crawl(ctx, stores.Registry(), href, dir)
			if err != nil {
				return err
			}
			fmt.Printf("visited %d catalogs, %d collections, %d items\n", res.Catalogs, res.Collections, res.Items)
			return nil
		},
	}
}
