package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/terrastac/dataplane/internal/stac"
)

func translateCmd() *cli.Command {
	return &cli.Command{
		Name:      "translate",
		Usage:     "convert a STAC value between formats",
		ArgsUsage: "src dst",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Usage: "stamp the STAC version onto every translated value"},
			&cli.StringFlag{Name: "to", Usage: "target STAC version when --migrate is set"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogger(cmd)
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("translate: expected src and dst arguments, got %d", cmd.Args().Len())
			}
			src, dst := cmd.Args().Get(0), cmd.Args().Get(1)

			in, err := inputFormat(cmd)
			if err != nil {
				return err
			}
			out, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			stores, err := buildStores(ctx, cmd)
			if err != nil {
				return err
			}

			v, err := stores.GetValue(ctx, src, in)
			if err != nil {
				return fmt.Errorf("translate: reading %s: %w", src, err)
			}

			if cmd.Bool("migrate") {
				migrateVersion(v, cmd.String("to"))
			}

			canonical, err := stores.PutValue(ctx, dst, v, out)
			if err != nil {
				return fmt.Errorf("translate: writing %s: %w", dst, err)
			}
			fmt.Println(canonical)
			return nil
		},
	}
}

// migrateVersion stamps the target STAC version onto v's Version field.
// Field renames between STAC versions are out of scope (translate only
// moves bytes between encodings); this covers the common case of
// republishing a static catalog under a newer version declaration.
func migrateVersion(v any, to string) {
	if to == "" {
		return
	}
	switch val := v.(type) {
	case *stac.Item:
		val.Version = to
	case *stac.Catalog:
		val.Version = to
	case *stac.Collection:
		val.Version = to
	case *stac.ItemCollection:
		for _, item := range val.Features {
			item.Version = to
		}
	}
}
