package memory

import (
	"context"
	"testing"
	"time"

	"github.com/terrastac/dataplane/internal/query"
	"github.com/terrastac/dataplane/internal/stac"
)

func seeded(t *testing.T) *Backend {
	t.Helper()
	b := New(time.Minute)
	t.Cleanup(b.Stop)

	coll := stac.NewCollection("demo", "Demo", "", "1.0.0")
	if err := b.AddCollection(context.Background(), coll); err != nil {
		t.Fatal(err)
	}
	for i, dt := range []string{"2023-01-01T00:00:00Z", "2023-06-01T00:00:00Z", "2023-12-01T00:00:00Z"} {
		item := stac.NewItem(string(rune('a'+i)), "demo", "1.0.0")
		item.Properties["datetime"] = dt
		if err := b.AddItem(context.Background(), item); err != nil {
			t.Fatal(err)
		}
	}
	return b
}

func TestItemRoundTrip(t *testing.T) {
	b := seeded(t)
	item, err := b.Item(context.Background(), "demo", "a")
	if err != nil {
		t.Fatal(err)
	}
	if item.Id != "a" {
		t.Errorf("got id %q", item.Id)
	}
}

func TestItemNotFound(t *testing.T) {
	b := seeded(t)
	_, err := b.Item(context.Background(), "demo", "missing")
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestSearchPagination(t *testing.T) {
	b := seeded(t)
	s := &query.Search{Collections: []string{"demo"}, Limit: 2, Sortby: nil}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	res, err := b.Search(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items", len(res.Items))
	}
	if res.NextCursor == "" {
		t.Fatal("expected a continuation cursor")
	}

	s2 := &query.Search{Collections: []string{"demo"}, Limit: 2}
	res2, err := b.Items(context.Background(), "demo", 2, res.NextCursor)
	if err != nil {
		t.Fatal(err)
	}
	_ = s2
	if len(res2.Items) != 1 {
		t.Fatalf("got %d items on second page, want 1", len(res2.Items))
	}
}

func TestSearchDatetimeFilter(t *testing.T) {
	b := seeded(t)
	s := &query.Search{Collections: []string{"demo"}, Datetime: "2023-06-01T00:00:00Z/.."}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	res, err := b.Search(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(res.Items))
	}
}

func TestSearchUnsatisfiableFilterYieldsEmpty(t *testing.T) {
	b := seeded(t)
	s := &query.Search{Filter: []byte(`{"op":"=","args":[{"property":"not:a:column"},"x"]}`)}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	res, err := b.Search(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("got %d items, want 0", len(res.Items))
	}
}
