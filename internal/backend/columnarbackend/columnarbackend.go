// Package columnarbackend implements backend.Backend on top of an
// embedded DuckDB database (github.com/marcboeker/go-duckdb), mirroring
// the original implementation's duckdb-backed query engine: items are
// held as JSON documents in a DuckDB table alongside plain collection,
// id and datetime columns that searches filter on, giving analytic SQL
// over local or in-memory catalogs without a separate server process.
package columnarbackend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/terrastac/dataplane/internal/backend"
	"github.com/terrastac/dataplane/internal/query"
	"github.com/terrastac/dataplane/internal/sortmerge"
	"github.com/terrastac/dataplane/internal/stac"
)

// Backend queries an embedded DuckDB database through database/sql.
type Backend struct {
	db *sql.DB
}

// Open creates (or reopens) a DuckDB database at path. Use ":memory:"
// for a process-local, non-persistent catalog.
func Open(path string) (*Backend, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("columnarbackend: opening duckdb: %w", err)
	}
	b := &Backend{db: db}
	if err := b.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// Close releases the underlying DuckDB connection.
func (b *Backend) Close() error { return b.db.Close() }

func (b *Backend) ensureSchema() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS collections (id VARCHAR PRIMARY KEY, doc JSON);
		CREATE TABLE IF NOT EXISTS items (
			collection VARCHAR,
			id         VARCHAR,
			datetime   VARCHAR,
			doc        JSON,
			PRIMARY KEY (collection, id)
		);
	`)
	return err
}

func (b *Backend) Name() string            { return "columnar" }
func (b *Backend) SupportsCQL2Filter() bool { return false }

func (b *Backend) AddCollection(ctx context.Context, c *stac.Collection) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO collections (id, doc) VALUES (?, ?)`, c.Id, string(doc))
	return err
}

func (b *Backend) Collection(ctx context.Context, id string) (*stac.Collection, error) {
	var doc string
	err := b.db.QueryRowContext(ctx, `SELECT doc FROM collections WHERE id = ?`, id).Scan(&doc)
	if err != nil {
		return nil, &backend.ErrCollectionNotFound{ID: id}
	}
	var c stac.Collection
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (b *Backend) Collections(ctx context.Context) ([]*stac.Collection, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT doc FROM collections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*stac.Collection
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var c stac.Collection
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (b *Backend) AddItem(ctx context.Context, item *stac.Item) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return err
	}
	dt, _ := item.Properties["datetime"].(string)
	_, err = b.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO items (collection, id, datetime, doc) VALUES (?, ?, ?, ?)`,
		item.Collection, item.Id, dt, string(doc))
	return err
}

func (b *Backend) AddItems(ctx context.Context, items []*stac.Item) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO items (collection, id, datetime, doc) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		doc, err := json.Marshal(item)
		if err != nil {
			tx.Rollback()
			return err
		}
		dt, _ := item.Properties["datetime"].(string)
		if _, err := stmt.ExecContext(ctx, item.Collection, item.Id, dt, string(doc)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (b *Backend) Item(ctx context.Context, collection, id string) (*stac.Item, error) {
	var doc string
	err := b.db.QueryRowContext(ctx,
		`SELECT doc FROM items WHERE collection = ? AND id = ?`, collection, id).Scan(&doc)
	if err != nil {
		return nil, &backend.ErrItemNotFound{Collection: collection, ID: id}
	}
	var item stac.Item
	if err := json.Unmarshal([]byte(doc), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (b *Backend) Items(ctx context.Context, collection string, limit int, cursor string) (*backend.SearchResult, error) {
	s := &query.Search{Limit: limit, Cursor: cursor}
	if collection != "" {
		s.Collections = []string{collection}
	}
	return b.Search(ctx, s)
}

// Search evaluates the Search's id/collection/datetime predicates as
// DuckDB SQL pushed down against the items table, then sorts and pages
// the rows in process. The datetime bounds are compared with the
// datetime column, which holds each item's `datetime` property as
// stored at insert time, so items that carry only start_datetime/
// end_datetime do not match a datetime bound. No CQL2 filter is
// applied (SupportsCQL2Filter() == false), and s.Cursor is not read:
// paging is by Offset only and NextCursor is never set.
func (b *Backend) Search(ctx context.Context, s *query.Search) (*backend.SearchResult, error) {
	where, args := whereClause(s)
	sqlText := fmt.Sprintf(`SELECT doc FROM items %s ORDER BY datetime DESC, id ASC`, where)

	rows, err := b.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	var candidates []sortmerge.Fielder
	var docs []*stac.Item
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			return nil, err
		}
		var item stac.Item
		if err := json.Unmarshal([]byte(doc), &item); err != nil {
			rows.Close()
			return nil, err
		}
		docs = append(docs, &item)
		candidates = append(candidates, itemFielder{&item})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	cmp := sortmerge.Default()
	if len(s.Sortby) > 0 {
		cmp = sortmerge.New(s.Sortby)
	}
	cmp.Sort(candidates)
	sorted := make([]*stac.Item, len(candidates))
	for i, f := range candidates {
		sorted[i] = f.(itemFielder).item
	}

	offset := s.Offset
	limit := s.Limit
	if limit <= 0 {
		limit = len(sorted) - offset
	}
	if offset > len(sorted) {
		offset = len(sorted)
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}

	result := &backend.SearchResult{Items: sorted[offset:end]}
	matched := len(sorted)
	result.Matched = &matched
	return result, nil
}

func whereClause(s *query.Search) (string, []any) {
	var clauses []string
	var args []any

	if len(s.Collections) > 0 {
		placeholders := make([]string, len(s.Collections))
		for i, c := range s.Collections {
			placeholders[i] = "?"
			args = append(args, c)
		}
		clauses = append(clauses, "collection IN ("+joinPlaceholders(placeholders)+")")
	}
	if len(s.IDs) > 0 {
		placeholders := make([]string, len(s.IDs))
		for i, id := range s.IDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		clauses = append(clauses, "id IN ("+joinPlaceholders(placeholders)+")")
	}
	if dt := s.NormalizedDatetime(); dt != "" {
		start, end := dt, dt
		for i := 0; i < len(dt); i++ {
			if dt[i] == '/' {
				start, end = dt[:i], dt[i+1:]
				break
			}
		}
		if start != "" && start != ".." {
			clauses = append(clauses, "datetime >= ?")
			args = append(args, start)
		}
		if end != "" && end != ".." {
			clauses = append(clauses, "datetime <= ?")
			args = append(args, end)
		}
	}

	if len(clauses) == 0 {
		return "", args
	}
	out := "WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		out += " AND " + c
	}
	return out, args
}

func joinPlaceholders(ph []string) string {
	out := ph[0]
	for _, p := range ph[1:] {
		out += ", " + p
	}
	return out
}

// itemFielder adapts *stac.Item to sortmerge.Fielder, mirroring the
// memory backend's adapter.
type itemFielder struct{ item *stac.Item }

func (f itemFielder) Field(name string) (any, bool) {
	switch name {
	case "id":
		return f.item.Id, true
	case "collection":
		return f.item.Collection, true
	}
	v, ok := f.item.Properties[name]
	return v, ok
}
