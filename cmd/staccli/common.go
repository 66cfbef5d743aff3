package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/terrastac/dataplane/internal/config"
	"github.com/terrastac/dataplane/internal/format"
	"github.com/terrastac/dataplane/internal/service"
)

// parseOpts turns the repeatable "--opt k=v" flag into a map, ignoring
// malformed entries rather than failing the whole command over one typo.
func parseOpts(cmd *cli.Command) map[string]string {
	opts := map[string]string{}
	for _, kv := range cmd.StringSlice("opt") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		opts[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return opts
}

// inputFormat resolves the --input-format global flag, if set.
func inputFormat(cmd *cli.Command) (*format.Format, error) {
	return namedFormat(cmd, "input-format")
}

// outputFormat resolves the --output-format / --compact-json /
// --parquet-compression global flags into an explicit Format, if any
// of them were set.
func outputFormat(cmd *cli.Command) (*format.Format, error) {
	if s := cmd.String("output-format"); s != "" {
		return namedFormat(cmd, "output-format")
	}
	if cmd.Bool("compact-json") {
		f := format.JSON(false)
		return &f, nil
	}
	if c := cmd.String("parquet-compression"); c != "" {
		f, err := format.Parse("parquet[" + c + "]")
		if err != nil {
			return nil, err
		}
		return &f, nil
	}
	return nil, nil
}

func namedFormat(cmd *cli.Command, flag string) (*format.Format, error) {
	s := cmd.String(flag)
	if s == "" {
		return nil, nil
	}
	f, err := format.Parse(s)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// buildStores loads StoreConfig from the environment and layers any
// "--opt k=v" overrides on top, then constructs the Store Plane.
func buildStores(ctx context.Context, cmd *cli.Command) (*service.Stores, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	applyStoreOpts(&cfg.Store, parseOpts(cmd))

	stores, err := service.NewStores(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("configuring store plane: %w", err)
	}
	return stores, nil
}

// applyStoreOpts maps the --opt backend-specific option keys spec.md §6
// leaves open onto StoreConfig, letting a one-off credential or endpoint
// override skip round-tripping through the environment.
func applyStoreOpts(cfg *config.StoreConfig, opts map[string]string) {
	if v, ok := opts["region"]; ok {
		cfg.S3.Region = v
	}
	if v, ok := opts["access-key-id"]; ok {
		cfg.S3.AccessKeyID = v
	}
	if v, ok := opts["secret-access-key"]; ok {
		cfg.S3.SecretAccessKey = v
	}
	if v, ok := opts["session-token"]; ok {
		cfg.S3.SessionToken = v
	}
	if v, ok := opts["endpoint"]; ok {
		cfg.S3.Endpoint = v
	}
	if v, ok := opts["skip-signature"]; ok {
		cfg.S3.SkipSignature = v == "true" || v == "1"
	}
	if v, ok := opts["azure-account-url"]; ok {
		cfg.Azure.AccountURL = v
	}
	if v, ok := opts["http-timeout"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTPTimeout = d
		}
	}
}
