package columnar

import (
	"testing"

	"github.com/terrastac/dataplane/internal/stac"
)

func sampleItems() []*stac.Item {
	a := stac.NewItem("a", "demo", "1.0.0")
	a.Geometry = map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}}
	a.Bbox = []float64{1, 2, 1, 2}
	a.Properties["datetime"] = "2023-06-01T00:00:00Z"
	a.Properties["platform"] = "sentinel-1"

	b := stac.NewItem("b", "demo", "1.0.0")
	b.Geometry = map[string]any{"type": "Point", "coordinates": []any{3.0, 4.0}}
	b.Bbox = []float64{3, 4, 3, 4}
	b.Properties["datetime"] = "2023-07-01T00:00:00Z"
	b.Properties["platform"] = "sentinel-2"

	return []*stac.Item{a, b}
}

func TestBuildAndDecodeRoundTrip(t *testing.T) {
	items := sampleItems()
	rec, err := Build(items, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	if rec.NumRows() != 2 {
		t.Fatalf("got %d rows, want 2", rec.NumRows())
	}

	md := rec.Schema().Metadata()
	found := false
	for i, k := range md.Keys() {
		if k == "stac:geoparquet_version" && md.Values()[i] == GeoparquetVersion {
			found = true
		}
	}
	if !found {
		t.Error("expected stac:geoparquet_version metadata on schema")
	}

	decoded, err := Decode(rec)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Fatalf("got %d items, want 2", len(decoded))
	}
	if decoded[0].Id != "a" || decoded[1].Id != "b" {
		t.Errorf("got ids %q, %q", decoded[0].Id, decoded[1].Id)
	}
	if decoded[0].Properties["platform"] != "sentinel-1" {
		t.Errorf("got platform %v", decoded[0].Properties["platform"])
	}

	wantBbox := []float64{1, 2, 1, 2}
	if len(decoded[0].Bbox) != len(wantBbox) {
		t.Fatalf("got bbox %v, want %v", decoded[0].Bbox, wantBbox)
	}
	for i := range wantBbox {
		if decoded[0].Bbox[i] != wantBbox[i] {
			t.Errorf("bbox[%d] = %v, want %v", i, decoded[0].Bbox[i], wantBbox[i])
		}
	}

	geom, ok := decoded[0].Geometry.(map[string]any)
	if !ok || geom["type"] != "Point" {
		t.Fatalf("got geometry %#v, want a Point", decoded[0].Geometry)
	}
}

func TestDatetimeColumnPromoted(t *testing.T) {
	items := sampleItems()
	rec, err := Build(items, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	for _, f := range rec.Schema().Fields() {
		if f.Name == "datetime" {
			if f.Type.Name() != "timestamp" {
				t.Errorf("datetime column type = %s, want timestamp", f.Type.Name())
			}
			return
		}
	}
	t.Fatal("datetime column not found")
}

func TestBuildAndDecodeRoundTrip3DBbox(t *testing.T) {
	a := stac.NewItem("a", "demo", "1.0.0")
	a.Geometry = map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0, 3.0}}
	a.Bbox = []float64{1, 2, 3, 4, 5, 6}
	a.Properties["platform"] = "sentinel-1"

	rec, err := Build([]*stac.Item{a}, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	decoded, err := Decode(rec)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 1 {
		t.Fatalf("got %d items, want 1", len(decoded))
	}
	want := []float64{1, 2, 3, 4, 5, 6}
	if len(decoded[0].Bbox) != len(want) {
		t.Fatalf("got bbox %v, want %v", decoded[0].Bbox, want)
	}
	for i := range want {
		if decoded[0].Bbox[i] != want[i] {
			t.Errorf("bbox[%d] = %v, want %v", i, decoded[0].Bbox[i], want[i])
		}
	}
}

func TestBboxStructRoundTrip(t *testing.T) {
	s := bboxStruct([]float64{1, 2, 3, 4})
	got := bboxFromStruct(s)
	want := []float64{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	s6 := bboxStruct([]float64{1, 2, 3, 4, 5, 6})
	got6 := bboxFromStruct(s6)
	want6 := []float64{1, 2, 3, 4, 5, 6}
	for i := range want6 {
		if got6[i] != want6[i] {
			t.Fatalf("got %v, want %v", got6, want6)
		}
	}
}

func TestGeometryWKBRoundTrip(t *testing.T) {
	geom := map[string]any{"type": "Point", "coordinates": []any{1.5, 2.5}}
	b, err := geometryToWKB(geom)
	if err != nil {
		t.Fatal(err)
	}
	back, err := wkbToGeometry(b)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := back.(map[string]any)
	if !ok || m["type"] != "Point" {
		t.Fatalf("got %#v", back)
	}
}
