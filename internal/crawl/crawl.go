// Package crawl implements the crawl operation: walking a Catalog's or
// Collection's "child"/"item" link graph and materializing every
// discovered document to a local directory.
//
// STAC link graphs form a DAG that sometimes carries back-edges (a
// child linking to its own root, say) — spec.md's "Cyclic link graphs"
// design note is explicit that parsing must never follow links, and
// that crawling is the one operation that does, guarding termination
// with a visited set keyed by each link's resolved reference rather
// than trusting the source graph to be acyclic.
package crawl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/terrastac/dataplane/internal/codec"
	stacjson "github.com/terrastac/dataplane/internal/codec/json"
	"github.com/terrastac/dataplane/internal/href"
	"github.com/terrastac/dataplane/internal/stac"
	"github.com/terrastac/dataplane/internal/store"
)

// Result summarizes a completed crawl.
type Result struct {
	Catalogs    int
	Collections int
	Items       int
	// Visited holds every resolved reference the crawl fetched, in visit
	// order (a pre-order walk: a node is recorded before its children).
	Visited []string
}

// Crawl fetches root through reg and walks its "child" and "item" links
// (every other rel — "parent", "root", "self", asset links on Items —
// is never followed, since crawling only ever walks downward), writing
// each fetched document as JSON under dir. Catalogs and Collections are
// JSON-only per the format/kind matrix, so Crawl never consults the
// Format Registry: every fetched document is sniffed as JSON directly.
func Crawl(ctx context.Context, reg *store.Registry, root string, dir string) (*Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crawl: creating output directory %s: %w", dir, err)
	}
	res := &Result{}
	visited := map[string]bool{}
	if err := crawlOne(ctx, reg, root, root, dir, res, visited); err != nil {
		return nil, err
	}
	return res, nil
}

func crawlOne(ctx context.Context, reg *store.Registry, ref, base, dir string, res *Result, visited map[string]bool) error {
	resolved, err := href.MakeAbsolute(ref, base)
	if err != nil {
		resolved = ref
	}
	if visited[resolved] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	visited[resolved] = true

	rc, err := reg.Get(ctx, resolved)
	if err != nil {
		return fmt.Errorf("crawl: fetching %s: %w", resolved, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("crawl: reading %s: %w", resolved, err)
	}

	kind, err := stacjson.Sniff(data)
	if err != nil {
		return fmt.Errorf("crawl: sniffing %s: %w", resolved, err)
	}

	outPath := filepath.Join(dir, fmt.Sprintf("%04d-%s", len(res.Visited), sanitizeName(resolved)))
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("crawl: writing %s: %w", outPath, err)
	}
	res.Visited = append(res.Visited, resolved)

	switch kind {
	case codec.KindItem:
		res.Items++
		return nil
	case codec.KindCatalog:
		res.Catalogs++
		cat, err := stacjson.DecodeCatalog(data)
		if err != nil {
			return fmt.Errorf("crawl: decoding catalog %s: %w", resolved, err)
		}
		return crawlLinks(ctx, reg, cat.Links, resolved, dir, res, visited)
	case codec.KindCollection:
		res.Collections++
		col, err := stacjson.DecodeCollection(data)
		if err != nil {
			return fmt.Errorf("crawl: decoding collection %s: %w", resolved, err)
		}
		return crawlLinks(ctx, reg, col.Links, resolved, dir, res, visited)
	default:
		return &codec.ErrUnsupportedKind{Format: "json", Kind: kind}
	}
}

func crawlLinks(ctx context.Context, reg *store.Registry, links []*stac.Link, base, dir string, res *Result, visited map[string]bool) error {
	for _, l := range links {
		if l == nil || l.Href == "" {
			continue
		}
		if l.Rel != "child" && l.Rel != "item" {
			continue
		}
		if err := crawlOne(ctx, reg, l.Href, base, dir, res, visited); err != nil {
			return err
		}
	}
	return nil
}

// sanitizeName derives a filesystem-safe basename from a resolved
// reference for the output file crawl writes: the path's last segment,
// query strings flattened, and a ".json" suffix if it lacks one.
func sanitizeName(ref string) string {
	base := ref
	if idx := strings.LastIndexAny(ref, "/\\"); idx >= 0 {
		base = ref[idx+1:]
	}
	if idx := strings.IndexByte(base, '?'); idx >= 0 {
		base = base[:idx]
	}
	base = strings.ReplaceAll(base, ":", "_")
	if base == "" {
		base = "index.json"
	}
	if !strings.HasSuffix(base, ".json") {
		base += ".json"
	}
	return base
}
