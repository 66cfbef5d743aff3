// Package memory implements backend.Backend entirely in process memory:
// a RWMutex-guarded map of collections and items, with predicates
// evaluated in a linear scan. Grounded on the teacher's
// MemoryCursorStore concurrency idiom (RWMutex plus a background
// cleanup goroutine for the opaque cursor table).
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/terrastac/dataplane/internal/backend"
	"github.com/terrastac/dataplane/internal/query"
	"github.com/terrastac/dataplane/internal/sortmerge"
	"github.com/terrastac/dataplane/internal/stac"
)

// Backend is the in-memory reference implementation of backend.Backend.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]*stac.Collection
	items       map[string]map[string]*stac.Item // collection -> id -> item

	cursorMu sync.Mutex
	cursors  map[string]cursorEntry
	ttl      time.Duration
	stop     chan struct{}
}

type cursorEntry struct {
	offset    int
	expiresAt time.Time
}

// New creates an empty in-memory Backend. cursorTTL controls how long
// an opaque pagination cursor survives before Items/Search reject it;
// a zero value defaults to 5 minutes.
func New(cursorTTL time.Duration) *Backend {
	if cursorTTL <= 0 {
		cursorTTL = 5 * time.Minute
	}
	b := &Backend{
		collections: map[string]*stac.Collection{},
		items:       map[string]map[string]*stac.Item{},
		cursors:     map[string]cursorEntry{},
		ttl:         cursorTTL,
		stop:        make(chan struct{}),
	}
	go b.cleanupLoop()
	return b
}

// Stop ends the cursor-cleanup goroutine. Safe to call once.
func (b *Backend) Stop() { close(b.stop) }

func (b *Backend) cleanupLoop() {
	ticker := time.NewTicker(b.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.cleanup()
		case <-b.stop:
			return
		}
	}
}

func (b *Backend) cleanup() {
	b.cursorMu.Lock()
	defer b.cursorMu.Unlock()
	now := time.Now()
	for token, entry := range b.cursors {
		if now.After(entry.expiresAt) {
			delete(b.cursors, token)
		}
	}
}

func (b *Backend) Name() string            { return "memory" }
func (b *Backend) SupportsCQL2Filter() bool { return true }

func (b *Backend) AddCollection(ctx context.Context, c *stac.Collection) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collections[c.Id] = c
	if _, ok := b.items[c.Id]; !ok {
		b.items[c.Id] = map[string]*stac.Item{}
	}
	return nil
}

func (b *Backend) Collection(ctx context.Context, id string) (*stac.Collection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[id]
	if !ok {
		return nil, &backend.ErrCollectionNotFound{ID: id}
	}
	return c, nil
}

func (b *Backend) Collections(ctx context.Context) ([]*stac.Collection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*stac.Collection, 0, len(b.collections))
	for _, c := range b.collections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (b *Backend) AddItem(ctx context.Context, item *stac.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.items[item.Collection]
	if !ok {
		m = map[string]*stac.Item{}
		b.items[item.Collection] = m
	}
	m[item.Id] = item
	return nil
}

func (b *Backend) AddItems(ctx context.Context, items []*stac.Item) error {
	for _, item := range items {
		if err := b.AddItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) Item(ctx context.Context, collection, id string) (*stac.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.items[collection]
	if !ok {
		return nil, &backend.ErrItemNotFound{Collection: collection, ID: id}
	}
	item, ok := m[id]
	if !ok {
		return nil, &backend.ErrItemNotFound{Collection: collection, ID: id}
	}
	return item, nil
}

func (b *Backend) Items(ctx context.Context, collection string, limit int, cursor string) (*backend.SearchResult, error) {
	s := &query.Search{Collections: nil, Limit: limit}
	if collection != "" {
		s.Collections = []string{collection}
	}
	return b.scan(s, cursor)
}

func (b *Backend) Search(ctx context.Context, s *query.Search) (*backend.SearchResult, error) {
	return b.scan(s, s.Cursor)
}

// scan runs a linear predicate evaluation and sort over every item in
// scope, then slices out the requested page using an opaque offset
// cursor minted by b.mintCursor.
func (b *Backend) scan(s *query.Search, cursor string) (*backend.SearchResult, error) {
	known := b.knownColumns()
	pred, err := query.Translate(s, known)
	if err != nil {
		return nil, err
	}
	if pred.Unsatisfiable {
		return &backend.SearchResult{Items: []*stac.Item{}, Matched: intPtr(0)}, nil
	}

	b.mu.RLock()
	var candidates []sortmerge.Fielder
	collSet := map[string]bool{}
	for _, c := range s.Collections {
		collSet[c] = true
	}
	idSet := map[string]bool{}
	for _, id := range s.IDs {
		idSet[id] = true
	}

	for collID, m := range b.items {
		if len(collSet) > 0 && !collSet[collID] {
			continue
		}
		for id, item := range m {
			if len(idSet) > 0 && !idSet[id] {
				continue
			}
			if !matchesDatetime(item, pred.DatetimeGTE, pred.DatetimeLTE) {
				continue
			}
			candidates = append(candidates, itemFielder{item})
		}
	}
	b.mu.RUnlock()

	cmp := sortmerge.Default()
	if len(s.Sortby) > 0 {
		cmp = sortmerge.New(s.Sortby)
	}
	cmp.Sort(candidates)

	offset := s.Offset
	if cursor != "" {
		if o, ok := b.resolveCursor(cursor); ok {
			offset = o
		}
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(candidates) {
		offset = len(candidates)
	}

	limit := s.Limit
	if limit <= 0 {
		limit = len(candidates) - offset
	}
	end := offset + limit
	if end > len(candidates) {
		end = len(candidates)
	}

	page := candidates[offset:end]
	items := make([]*stac.Item, len(page))
	for i, f := range page {
		items[i] = f.(itemFielder).item
	}

	matched := len(candidates)
	result := &backend.SearchResult{Items: items, Matched: &matched}
	if end < len(candidates) {
		result.NextCursor = b.mintCursor(end)
	}
	return result, nil
}

func (b *Backend) mintCursor(offset int) string {
	token := randomToken()
	b.cursorMu.Lock()
	b.cursors[token] = cursorEntry{offset: offset, expiresAt: time.Now().Add(b.ttl)}
	b.cursorMu.Unlock()
	return token
}

func (b *Backend) resolveCursor(token string) (int, bool) {
	b.cursorMu.Lock()
	defer b.cursorMu.Unlock()
	entry, ok := b.cursors[token]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(b.cursors, token)
		return 0, false
	}
	return entry.offset, true
}

// knownColumns collects every property name present across all held
// items, used to resolve CQL2 property references in Search predicates.
func (b *Backend) knownColumns() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	set := map[string]bool{"id": true, "collection": true, "geometry": true, "bbox": true, "datetime": true}
	for _, m := range b.items {
		for _, item := range m {
			for name := range item.Properties {
				set[name] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

// matchesDatetime reports whether item's datetime (falling back to
// start_datetime for the lower bound and end_datetime for the upper
// bound) falls within [gte, lte]; an empty bound is unrestricted.
func matchesDatetime(item *stac.Item, gte, lte string) bool {
	if gte == "" && lte == "" {
		return true
	}
	lo, _ := item.Properties["datetime"].(string)
	hi := lo
	if lo == "" {
		lo, _ = item.Properties["start_datetime"].(string)
		hi, _ = item.Properties["end_datetime"].(string)
		if lo == "" {
			lo = hi
		}
		if hi == "" {
			hi = lo
		}
	}
	if lo == "" {
		return true
	}
	if gte != "" && lo < gte {
		return false
	}
	if lte != "" && hi > lte {
		return false
	}
	return true
}

func intPtr(n int) *int { return &n }

func randomToken() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// itemFielder adapts *stac.Item to sortmerge.Fielder so the comparator
// can sort on canonical fields and properties alike.
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
