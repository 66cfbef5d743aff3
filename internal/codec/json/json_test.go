package json

import (
	"testing"

	"github.com/terrastac/dataplane/internal/stac"
)

func TestEncodeDecodeItemRoundTrip(t *testing.T) {
	item := stac.NewItem("item-1", "demo", "1.0.0")
	item.Properties["datetime"] = "2023-01-01T00:00:00Z"

	data, err := Encode(item, false)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeItem(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Id != "item-1" {
		t.Errorf("got id %q", got.Id)
	}
}

func TestDecodeItemMissingIDFails(t *testing.T) {
	_, err := DecodeItem([]byte(`{"type":"Feature","properties":{}}`))
	if err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestSniff(t *testing.T) {
	cases := map[string]string{
		`{"type":"Feature"}`:           "Item",
		`{"type":"FeatureCollection"}`: "ItemCollection",
		`{"type":"Catalog"}`:           "Catalog",
		`{"type":"Collection"}`:        "Collection",
	}
	for doc, want := range cases {
		k, err := Sniff([]byte(doc))
		if err != nil {
			t.Fatal(err)
		}
		if k.String() != want {
			t.Errorf("Sniff(%q) = %s, want %s", doc, k, want)
		}
	}
}

func TestSniffUnrecognized(t *testing.T) {
	if _, err := Sniff([]byte(`{"type":"Nonsense"}`)); err == nil {
		t.Fatal("expected error for unrecognized type")
	}
}
