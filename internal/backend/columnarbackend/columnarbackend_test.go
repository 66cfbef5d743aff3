package columnarbackend

import (
	"testing"

	"github.com/terrastac/dataplane/internal/query"
)

func TestWhereClauseCombinesFilters(t *testing.T) {
	s := &query.Search{Collections: []string{"a", "b"}, IDs: []string{"x"}}
	where, args := whereClause(s)
	if where == "" {
		t.Fatal("expected a non-empty WHERE clause")
	}
	if len(args) != 3 {
		t.Fatalf("got %d args, want 3", len(args))
	}
}

func TestWhereClauseNoFilters(t *testing.T) {
	where, args := whereClause(&query.Search{})
	if where != "" || args != nil {
		t.Fatalf("expected no clause, got %q %v", where, args)
	}
}

func TestJoinPlaceholders(t *testing.T) {
	if got := joinPlaceholders([]string{"?"}); got != "?" {
		t.Fatalf("got %q", got)
	}
	if got := joinPlaceholders([]string{"?", "?", "?"}); got != "?, ?, ?" {
		t.Fatalf("got %q", got)
	}
}
