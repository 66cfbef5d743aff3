// Package sqlbackend implements backend.Backend on top of PostgreSQL:
// collections and items are stored as JSONB documents, with plain
// collection, id and datetime columns beside them for the common search
// predicates ((collection, id) is the primary key and datetime has its
// own index). Paging tokens reuse the teacher's opaque-cursor
// idiom (internal/stac/pagination.go's EncodeCursorWithStore design),
// adapted here to an offset stored server-side in a dedicated table
// instead of the in-memory map the memory backend uses.
package sqlbackend

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrastac/dataplane/internal/backend"
	"github.com/terrastac/dataplane/internal/query"
	"github.com/terrastac/dataplane/internal/stac"
)

// Backend stores the catalog in PostgreSQL via pgx's connection pool.
type Backend struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// Open connects to PostgreSQL using dsn (a libpq connection string or
// postgres:// URL) and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlbackend: connecting: %w", err)
	}
	b := &Backend{pool: pool, ttl: 5 * time.Minute}
	if err := b.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

// Close releases the connection pool.
func (b *Backend) Close() { b.pool.Close() }

func (b *Backend) ensureSchema(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS stac_collections (
			id   TEXT PRIMARY KEY,
			doc  JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS stac_items (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			datetime   TIMESTAMPTZ,
			doc        JSONB NOT NULL,
			PRIMARY KEY (collection, id)
		);
		CREATE INDEX IF NOT EXISTS stac_items_datetime_idx ON stac_items (datetime);
		CREATE TABLE IF NOT EXISTS stac_cursors (
			token      TEXT PRIMARY KEY,
			offset_val INTEGER NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func (b *Backend) Name() string            { return "sql" }
func (b *Backend) SupportsCQL2Filter() bool { return false }

func (b *Backend) AddCollection(ctx context.Context, c *stac.Collection) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = b.pool.Exec(ctx, `
		INSERT INTO stac_collections (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`, c.Id, doc)
	return err
}

func (b *Backend) Collection(ctx context.Context, id string) (*stac.Collection, error) {
	var doc []byte
	err := b.pool.QueryRow(ctx, `SELECT doc FROM stac_collections WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		return nil, &backend.ErrCollectionNotFound{ID: id}
	}
	var c stac.Collection
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (b *Backend) Collections(ctx context.Context) ([]*stac.Collection, error) {
	rows, err := b.pool.Query(ctx, `SELECT doc FROM stac_collections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*stac.Collection
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var c stac.Collection
		if err := json.Unmarshal(doc, &c); err != nil {
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
	var dt any
	if s, ok := item.Properties["datetime"].(string); ok && s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			dt = t
		}
	}
	_, err = b.pool.Exec(ctx, `
		INSERT INTO stac_items (collection, id, datetime, doc) VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE SET datetime = EXCLUDED.datetime, doc = EXCLUDED.doc`,
		item.Collection, item.Id, dt, doc)
	return err
}

func (b *Backend) AddItems(ctx context.Context, items []*stac.Item) error {
	batch := &pgxPipeline{b: b}
	for _, item := range items {
		if err := batch.addItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// pgxPipeline is a thin wrapper kept separate from AddItem so a future
// real pgx.Batch pipeline can replace the sequential inserts without
// touching the Backend's public surface.
type pgxPipeline struct{ b *Backend }

func (p *pgxPipeline) addItem(ctx context.Context, item *stac.Item) error {
	return p.b.AddItem(ctx, item)
}

func (b *Backend) Item(ctx context.Context, collection, id string) (*stac.Item, error) {
	var doc []byte
	err := b.pool.QueryRow(ctx,
		`SELECT doc FROM stac_items WHERE collection = $1 AND id = $2`, collection, id).Scan(&doc)
	if err != nil {
		return nil, &backend.ErrItemNotFound{Collection: collection, ID: id}
	}
	var item stac.Item
	if err := json.Unmarshal(doc, &item); err != nil {
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

func (b *Backend) Search(ctx context.Context, s *query.Search) (*backend.SearchResult, error) {
	offset := s.Offset
	if s.Cursor != "" {
		if o, ok := b.resolveCursor(ctx, s.Cursor); ok {
			offset = o
		}
	}
	limit := s.Limit
	if limit <= 0 {
		limit = 100
	}

	where, args := whereClause(s)
	sqlText := fmt.Sprintf(`
		SELECT doc FROM stac_items
		%s
		ORDER BY datetime DESC NULLS LAST, id ASC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit+1, offset)

	rows, err := b.pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*stac.Item
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var item stac.Item
		if err := json.Unmarshal(doc, &item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &backend.SearchResult{}
	if len(items) > limit {
		items = items[:limit]
		result.NextCursor = b.mintCursor(ctx, offset+limit)
	}
	result.Items = items
	return result, nil
}

func whereClause(s *query.Search) (string, []any) {
	var clauses []string
	var args []any

	if len(s.Collections) > 0 {
		args = append(args, s.Collections)
		clauses = append(clauses, fmt.Sprintf("collection = ANY($%d)", len(args)))
	}
	if len(s.IDs) > 0 {
		args = append(args, s.IDs)
		clauses = append(clauses, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if dt := s.NormalizedDatetime(); dt != "" {
		start, end := splitDatetime(dt)
		if start != "" {
			args = append(args, start)
			clauses = append(clauses, fmt.Sprintf("datetime >= $%d", len(args)))
		}
		if end != "" {
			args = append(args, end)
			clauses = append(clauses, fmt.Sprintf("datetime <= $%d", len(args)))
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

func splitDatetime(normalized string) (start, end string) {
	for i := 0; i < len(normalized); i++ {
		if normalized[i] == '/' {
			start, end = normalized[:i], normalized[i+1:]
			if start == ".." {
				start = ""
			}
			if end == ".." {
				end = ""
			}
			return start, end
		}
	}
	return normalized, normalized
}

func (b *Backend) mintCursor(ctx context.Context, offset int) string {
	token := randomToken()
	_, _ = b.pool.Exec(ctx,
		`INSERT INTO stac_cursors (token, offset_val, expires_at) VALUES ($1, $2, $3)`,
		token, offset, time.Now().Add(b.ttl))
	return token
}

func (b *Backend) resolveCursor(ctx context.Context, token string) (int, bool) {
	var offset int
	var expiresAt time.Time
	err := b.pool.QueryRow(ctx,
		`SELECT offset_val, expires_at FROM stac_cursors WHERE token = $1`, token).Scan(&offset, &expiresAt)
	if err != nil || time.Now().After(expiresAt) {
		return 0, false
	}
	return offset, true
}

func randomToken() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
