// Command staccli is the thin CLI wrapper around the STAC data-plane
// library packages: translate, search, serve, crawl, validate.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	root := &cli.Command{
		Name:  "staccli",
		Usage: "translate, search, serve, crawl, and validate STAC data",

		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input-format", Usage: "explicit input format (json, json-pretty, ndjson, parquet[compression])"},
			&cli.StringFlag{Name: "output-format", Usage: "explicit output format (json, json-pretty, ndjson, parquet[compression])"},
			&cli.StringSliceFlag{Name: "opt", Usage: "backend-specific option, k=v (repeatable)"},
			&cli.BoolFlag{Name: "compact-json", Usage: "write JSON without indentation"},
			&cli.StringFlag{Name: "parquet-compression", Usage: "GeoParquet compression codec (snappy, gzip, zstd; lz4 and brotli are accepted but written uncompressed)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "increase log verbosity"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress all but error-level logging"},
		},

		Commands: []*cli.Command{
			translateCmd(),
			searchCmd(),
			serveCmd(),
			crawlCmd(),
			validateCmd(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger installs a slog default logger whose level follows -v/-q,
// ported in shape from the teacher's cmd/server logging setup.
func setupLogger(cmd *cli.Command) {
	level := slog.LevelInfo
	switch {
	case cmd.Bool("quiet"):
		level = slog.LevelError
	case cmd.Bool("verbose"):
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
