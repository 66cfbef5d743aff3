package sqlbackend

import (
	"testing"

	"github.com/terrastac/dataplane/internal/query"
)

func TestWhereClauseBuildsPlaceholders(t *testing.T) {
	s := &query.Search{Collections: []string{"demo"}, IDs: []string{"a", "b"}}
	where, args := whereClause(s)
	if where == "" {
		t.Fatal("expected a non-empty WHERE clause")
	}
	if len(args) != 2 {
		t.Fatalf("got %d args, want 2", len(args))
	}
}

func TestWhereClauseEmptyWhenUnfiltered(t *testing.T) {
	where, args := whereClause(&query.Search{})
	if where != "" || len(args) != 0 {
		t.Fatalf("expected empty clause, got %q %v", where, args)
	}
}

func TestSplitDatetimeRange(t *testing.T) {
	start, end := splitDatetime("2023-01-01T00:00:00Z/2023-12-31T00:00:00Z")
	if start != "2023-01-01T00:00:00Z" || end != "2023-12-31T00:00:00Z" {
		t.Fatalf("got %q/%q", start, end)
	}
}

func TestSplitDatetimeOpenStart(t *testing.T) {
	start, end := splitDatetime("../2023-12-31T00:00:00Z")
	if start != "" || end != "2023-12-31T00:00:00Z" {
		t.Fatalf("got %q/%q", start, end)
	}
}

func TestSplitDatetimeSingleInstant(t *testing.T) {
	start, end := splitDatetime("2023-06-01T00:00:00Z")
	if start != end {
		t.Fatalf("single instant should set both bounds equal, got %q/%q", start, end)
	}
}
