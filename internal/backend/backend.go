// Package backend provides the storage-engine abstraction every catalog
// implementation (in-memory, SQL, columnar/DuckDB) satisfies: item and
// collection CRUD plus a predicated search entry point.
package backend

import (
	"context"
	"fmt"

	"github.com/terrastac/dataplane/internal/query"
	"github.com/terrastac/dataplane/internal/stac"
)

// Backend is the interface every catalog storage engine implements.
// Both the in-memory reference backend and the SQL/columnar backends
// satisfy this, so the Query Translator and CLI can be written against
// it without caring which engine is underneath.
type Backend interface {
	// Search executes a validated, translated query and returns the
	// matching items alongside a continuation cursor when more results
	// remain.
	Search(ctx context.Context, s *query.Search) (*SearchResult, error)

	// Item retrieves a single item by collection and ID.
	Item(ctx context.Context, collection, id string) (*stac.Item, error)

	// Items retrieves every item in a collection, honoring limit/cursor.
	Items(ctx context.Context, collection string, limit int, cursor string) (*SearchResult, error)

	// Collections lists every collection the backend knows about.
	Collections(ctx context.Context) ([]*stac.Collection, error)

	// Collection retrieves a single collection by ID.
	Collection(ctx context.Context, id string) (*stac.Collection, error)

	// AddCollection registers a collection, creating it if absent or
	// replacing it if present.
	AddCollection(ctx context.Context, c *stac.Collection) error

	// AddItem inserts or replaces a single item.
	AddItem(ctx context.Context, item *stac.Item) error

	// AddItems inserts or replaces a batch of items in one call.
	AddItems(ctx context.Context, items []*stac.Item) error

	// Name identifies the backend implementation (e.g. "memory", "sql",
	// "columnar"), used in diagnostics and capability negotiation.
	Name() string

	// SupportsCQL2Filter reports whether this backend can evaluate the
	// `filter` extension natively, or needs it evaluated in the scan
	// loop (true for the in-memory backend; the SQL and columnar
	// backends report false).
	SupportsCQL2Filter() bool
}

// SearchResult is the page of items a Search/Items call returns.
type SearchResult struct {
	Items      []*stac.Item
	NextCursor string // opaque, empty when no more results remain
	Matched    *int   // total match count, nil when the backend can't cheaply compute it
}

// ErrCollectionNotFound is returned when a referenced collection does
// not exist.
type ErrCollectionNotFound struct{ ID string }

func (e *ErrCollectionNotFound) Error() string {
	return fmt.Sprintf("backend: collection not found: %s", e.ID)
}

// ErrItemNotFound is returned when a referenced item does not exist.
type ErrItemNotFound struct {
	Collection string
	ID         string
}

func (e *ErrItemNotFound) Error() string {
	return fmt.Sprintf("backend: item not found: %s/%s", e.Collection, e.ID)
}
