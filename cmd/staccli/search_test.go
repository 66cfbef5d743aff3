package main

import (
	"testing"

	"github.com/terrastac/dataplane/internal/sortmerge"
)

func TestParseBbox(t *testing.T) {
	got, err := parseBbox("-105.5, 40.0, -104.5, 41.0")
	if err != nil {
		t.Fatalf("parseBbox failed: %v", err)
	}
	want := []float64{-105.5, 40.0, -104.5, 41.0}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestParseBboxInvalid(t *testing.T) {
	if _, err := parseBbox("1,2,nope,4"); err == nil {
		t.Error("expected an error for a non-numeric bbox element")
	}
}

func TestParseFields(t *testing.T) {
	f := parseFields("id,+collection,-properties.gsd")
	if len(f.Include) != 2 || f.Include[0] != "id" || f.Include[1] != "collection" {
		t.Errorf("unexpected include list: %v", f.Include)
	}
	if len(f.Exclude) != 1 || f.Exclude[0] != "properties.gsd" {
		t.Errorf("unexpected exclude list: %v", f.Exclude)
	}
}

func TestParseSortby(t *testing.T) {
	fields, err := parseSortby("-datetime,+id,collection")
	if err != nil {
		t.Fatalf("parseSortby failed: %v", err)
	}
	want := []sortmerge.SortField{
		{Field: "datetime", Direction: sortmerge.Desc},
		{Field: "id", Direction: sortmerge.Asc},
		{Field: "collection", Direction: sortmerge.Asc},
	}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d: expected %+v, got %+v", i, want[i], fields[i])
		}
	}
}

func TestParseSortbyRejectsEmptyField(t *testing.T) {
	if _, err := parseSortby("-"); err == nil {
		t.Error("expected an error for an empty sortby field")
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" a, b ,,c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
