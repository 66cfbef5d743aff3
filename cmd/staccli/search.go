package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/terrastac/dataplane/internal/backend/columnarbackend"
	"github.com/terrastac/dataplane/internal/backend/memory"
	"github.com/terrastac/dataplane/internal/config"
	stacjson "github.com/terrastac/dataplane/internal/codec/json"
	"github.com/terrastac/dataplane/internal/query"
	"github.com/terrastac/dataplane/internal/sortmerge"
	"github.com/terrastac/dataplane/internal/stac"
)

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "run an item search against a STAC data source",
		ArgsUsage: "href [dst]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "use-duckdb", Usage: "scan href directly through the columnar/DuckDB backend"},
			&cli.IntFlag{Name: "max-items", Usage: "stop after this many total items (0 = no cap)"},
			&cli.StringFlag{Name: "intersects", Usage: "GeoJSON geometry"},
			&cli.StringFlag{Name: "ids", Usage: "comma-separated item ids"},
			&cli.StringFlag{Name: "collections", Usage: "comma-separated collection ids"},
			&cli.StringFlag{Name: "bbox", Usage: "comma-separated bbox, 4 or 6 elements"},
			&cli.StringFlag{Name: "datetime", Usage: "RFC 3339 instant or interval"},
			&cli.StringFlag{Name: "fields", Usage: "comma-separated field spec, \"-\" prefix excludes"},
			&cli.StringFlag{Name: "sortby", Usage: "comma-separated sort spec, \"-\" prefix descends"},
			&cli.StringFlag{Name: "filter", Usage: "CQL2-JSON filter expression"},
			&cli.IntFlag{Name: "limit", Value: 10, Usage: "page size"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogger(cmd)
			if cmd.Args().Len() < 1 {
				return fmt.Errorf("search: expected an href argument")
			}
			href := cmd.Args().Get(0)
			dst := cmd.Args().Get(1)

			search, err := buildSearch(cmd)
			if err != nil {
				return err
			}
			if err := search.Validate(); err != nil {
				return fmt.Errorf("search: invalid request: %w", err)
			}

			items, err := runSearch(ctx, cmd, href, search)
			if err != nil {
				return err
			}

			if max := int(cmd.Int("max-items")); max > 0 && len(items) > max {
				items = items[:max]
			}

			ic := stac.NewItemCollection(items)
			if dst == "" {
				data, err := stacjson.Encode(ic, !cmd.Bool("compact-json"))
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(append(data, '\n'))
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
			canonical, err := stores.PutItemCollection(ctx, dst, ic, out)
			if err != nil {
				return fmt.Errorf("search: writing %s: %w", dst, err)
			}
			fmt.Println(canonical)
			return nil
		},
	}
}

func runSearch(ctx context.Context, cmd *cli.Command, href string, search *query.Search) ([]*stac.Item, error) {
	if cmd.Bool("use-duckdb") {
		be, err := columnarbackend.Open(href)
		if err != nil {
			return nil, fmt.Errorf("search: opening columnar backend at %s: %w", href, err)
		}
		res, err := be.Search(ctx, search)
		if err != nil {
			return nil, err
		}
		return res.Items, nil
	}

	in, err := inputFormat(cmd)
	if err != nil {
		return nil, err
	}
	stores, err := buildStores(ctx, cmd)
	if err != nil {
		return nil, err
	}
	ic, err := stores.GetItemCollection(ctx, href, in)
	if err != nil {
		return nil, fmt.Errorf("search: reading %s: %w", href, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	be := memory.New(cfg.Backend.CursorTTL)
	if err := be.AddItems(ctx, ic.Features); err != nil {
		return nil, err
	}
	res, err := be.Search(ctx, search)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func buildSearch(cmd *cli.Command) (*query.Search, error) {
	s := &query.Search{
		Limit:  int(cmd.Int("limit")),
		Offset: 0,
	}
	if v := cmd.String("ids"); v != "" {
		s.IDs = splitCSV(v)
	}
	if v := cmd.String("collections"); v != "" {
		s.Collections = splitCSV(v)
	}
	if v := cmd.String("bbox"); v != "" {
		bbox, err := parseBbox(v)
		if err != nil {
			return nil, err
		}
		s.Bbox = bbox
	}
	if v := cmd.String("intersects"); v != "" {
		s.Intersects = json.RawMessage(v)
	}
	if v := cmd.String("datetime"); v != "" {
		s.Datetime = v
	}
	if v := cmd.String("filter"); v != "" {
		s.Filter = json.RawMessage(v)
		s.FilterLang = "cql2-json"
	}
	if v := cmd.String("fields"); v != "" {
		s.Fields = parseFields(v)
	}
	if v := cmd.String("sortby"); v != "" {
		fields, err := parseSortby(v)
		if err != nil {
			return nil, err
		}
		s.Sortby = fields
	}
	return s, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBbox(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("search: invalid bbox value %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseFields applies the STAC API fields-extension grammar: a bare name
// includes it, a "-" prefix excludes it.
func parseFields(s string) query.Fields {
	var f query.Fields
	for _, part := range splitCSV(s) {
		if strings.HasPrefix(part, "-") {
			f.Exclude = append(f.Exclude, part[1:])
		} else {
			f.Include = append(f.Include, strings.TrimPrefix(part, "+"))
		}
	}
	return f
}

// parseSortby applies the STAC API sortby grammar: a "-" prefix sorts
// descending, a "+" prefix or no prefix sorts ascending.
func parseSortby(s string) ([]sortmerge.SortField, error) {
	var fields []sortmerge.SortField
	for _, part := range splitCSV(s) {
		dir := sortmerge.Asc
		field := part
		switch {
		case strings.HasPrefix(part, "-"):
			dir = sortmerge.Desc
			field = part[1:]
		case strings.HasPrefix(part, "+"):
			field = part[1:]
		}
		if field == "" {
			return nil, fmt.Errorf("search: invalid sortby entry %q", part)
		}
		fields = append(fields, sortmerge.SortField{Field: field, Direction: dir})
	}
	return fields, nil
}
