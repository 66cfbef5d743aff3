package ndjson

import (
	"bytes"
	"strings"
	"testing"

	"github.com/terrastac/dataplane/internal/stac"
)

func TestEncodeDecodeItemsRoundTrip(t *testing.T) {
	items := []*stac.Item{
		stac.NewItem("a", "demo", "1.0.0"),
		stac.NewItem("b", "demo", "1.0.0"),
	}
	var buf bytes.Buffer
	if err := EncodeItems(&buf, items); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeItems(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Id != "a" || got[1].Id != "b" {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeItemsSkipsBlankLines(t *testing.T) {
	r := strings.NewReader("{\"type\":\"Feature\",\"id\":\"a\"}\n\n{\"type\":\"Feature\",\"id\":\"b\"}\n")
	got, err := DecodeItems(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items", len(got))
	}
}

func TestDecodeSingleOrManySingleLine(t *testing.T) {
	r := strings.NewReader(`{"type":"Feature","id":"solo"}`)
	v, err := DecodeSingleOrMany(r)
	if err != nil {
		t.Fatal(err)
	}
	item, ok := v.(*stac.Item)
	if !ok {
		t.Fatalf("got %T, want *stac.Item", v)
	}
	if item.Id != "solo" {
		t.Errorf("got id %q", item.Id)
	}
}

func TestDecodeSingleOrManyMultipleLines(t *testing.T) {
	r := strings.NewReader("{\"type\":\"Feature\",\"id\":\"a\"}\n{\"type\":\"Feature\",\"id\":\"b\"}\n")
	v, err := DecodeSingleOrMany(r)
	if err != nil {
		t.Fatal(err)
	}
	ic, ok := v.(*stac.ItemCollection)
	if !ok {
		t.Fatalf("got %T, want *stac.ItemCollection", v)
	}
	if len(ic.Features) != 2 {
		t.Fatalf("got %d features", len(ic.Features))
	}
}
