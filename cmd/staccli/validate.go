package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/terrastac/dataplane/internal/codec"
	"github.com/terrastac/dataplane/internal/stac"
	"github.com/terrastac/dataplane/internal/validate"
)

// validateCmd checks href's STAC value against its schema. The actual
// JSON Schema engine is never this module's job (Non-goal); this shells
// out through the validate.Validator seam, defaulting to a no-op
// validator so the subcommand still round-trips the value and confirms
// it decodes cleanly even with no schema engine wired in.
func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate a STAC value against its schema",
		ArgsUsage: "href",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogger(cmd)
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("validate: expected an href argument, got %d", cmd.Args().Len())
			}
			href := cmd.Args().Get(0)

			in, err := inputFormat(cmd)
			if err != nil {
				return err
			}
			stores, err := buildStores(ctx, cmd)
			if err != nil {
				return err
			}

			v, err := stores.GetValue(ctx, href, in)
			if err != nil {
				return fmt.Errorf("validate: reading %s: %w", href, err)
			}

			kind := kindOf(v)
			var validator validate.Validator = validate.NopValidator{}
			issues, err := validator.Validate(ctx, kind, v)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			if err := validate.AsError(issues); err != nil {
				return err
			}
			fmt.Println("valid")
			return nil
		},
	}
}

func kindOf(v any) codec.Kind {
	switch v.(type) {
	case *stac.Item:
		return codec.KindItem
	case *stac.Catalog:
		return codec.KindCatalog
	case *stac.Collection:
		return codec.KindCollection
	case *stac.ItemCollection:
		return codec.KindItemCollection
	default:
		return codec.KindItem
	}
}
