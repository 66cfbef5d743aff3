package columnar

import (
	"encoding/json"

	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
)

// ErrUnsupportedGeometry is returned when a geometry value cannot be
// interpreted as GeoJSON or decoded from WKB.
type ErrUnsupportedGeometry struct{ Reason string }

func (e *ErrUnsupportedGeometry) Error() string {
	return "columnar: unsupported geometry: " + e.Reason
}

// geometryToWKB converts an Item's GeoJSON geometry value (as produced
// by encoding/json decoding into `any`) to its WKB encoding, the native
// on-disk representation stac-geoparquet uses for the geometry column.
func geometryToWKB(geom any) ([]byte, error) {
	if geom == nil {
		return nil, nil
	}
	raw, err := json.Marshal(geom)
	if err != nil {
		return nil, err
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, &ErrUnsupportedGeometry{Reason: err.Error()}
	}
	return wkb.Marshal(g.Geometry())
}

// wkbToGeometry reverses geometryToWKB, producing the GeoJSON-shaped
// `any` value an Item's Geometry field expects.
func wkbToGeometry(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, &ErrUnsupportedGeometry{Reason: err.Error()}
	}
	gj := geojson.NewGeometry(g)
	raw, err := gj.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// computeBbox derives a planar [xmin, ymin, xmax, ymax] bbox from a
// geometry. Nothing in the module calls it.
func computeBbox(geom any) []float64 {
	if geom == nil {
		return nil
	}
	raw, err := json.Marshal(geom)
	if err != nil {
		return nil
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil
	}
	b := g.Geometry().Bound()
	return []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}
