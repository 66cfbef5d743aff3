package geoparquet

import (
	"testing"

	"github.com/terrastac/dataplane/internal/stac"
)

func TestBufferedRoundTrip(t *testing.T) {
	a := stac.NewItem("a", "demo", "1.0.0")
	a.Geometry = map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}}
	a.Bbox = []float64{1, 2, 1, 2}
	a.Properties["datetime"] = "2023-06-01T00:00:00Z"

	data, err := BufferedBytes([]*stac.Item{a}, CompressionSnappy)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty parquet bytes")
	}

	got, err := DecodeItems(ReaderAtFromBytes(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Id != "a" {
		t.Fatalf("got %+v", got)
	}

	wantBbox := []float64{1, 2, 1, 2}
	if len(got[0].Bbox) != len(wantBbox) {
		t.Fatalf("got bbox %v, want %v", got[0].Bbox, wantBbox)
	}
	for i := range wantBbox {
		if got[0].Bbox[i] != wantBbox[i] {
			t.Errorf("bbox[%d] = %v, want %v", i, got[0].Bbox[i], wantBbox[i])
		}
	}

	geom, ok := got[0].Geometry.(map[string]any)
	if !ok || geom["type"] != "Point" {
		t.Fatalf("got geometry %#v, want a Point", got[0].Geometry)
	}
}
