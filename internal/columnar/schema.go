// Package columnar bridges the row-oriented STAC JSON object model and
// the columnar stac-geoparquet layout: flattening items to an Arrow
// record batch, inferring a schema with datetime promotion, materializing
// bbox structs, and encoding geometry to WKB/GeoArrow — and the reverse.
package columnar

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
)

// GeoparquetVersion is stamped into every built record batch's schema
// metadata, per spec.md §3/§6.
const GeoparquetVersion = "1.0.0"

// canonicalColumns are kept at the top level of every record batch; every
// other item property is hoisted to its own top-level column.
var canonicalColumns = map[string]bool{
	"type": true, "stac_version": true, "stac_extensions": true,
	"id": true, "geometry": true, "bbox": true, "properties": true,
	"links": true, "assets": true, "collection": true,
}

// datetimeColumns are promoted from string to timestamp-millis UTC
// regardless of what schema inference alone would produce.
var datetimeColumns = map[string]bool{
	"datetime": true, "start_datetime": true, "end_datetime": true,
	"created": true, "updated": true, "expires": true,
	"published": true, "unpublished": true,
}

// ConflictPolicy controls what happens when a property name collides
// with a reserved top-level column during flatten.
type ConflictPolicy int

const (
	// ConflictDrop silently drops the colliding property value (default).
	ConflictDrop ConflictPolicy = iota
	// ConflictFail returns ErrSchemaMismatch on a collision.
	ConflictFail
)

// inferredType is the JSON-value-derived type for one column before
// datetime promotion.
type inferredType int

const (
	typeNull inferredType = iota
	typeBool
	typeInt64
	typeFloat64
	typeString
	typeList
	typeStruct
)

// inferSchema scans the accumulated per-item property maps and derives a
// base Arrow schema, then promotes any datetime-named column regardless
// of what was inferred for it. The "bbox" column is always a fixed
// struct type (see BboxFields), never inferred from JSON value shape,
// since flattenRow hands it the Item's []float64 Bbox directly.
func inferSchema(rows []map[string]any, extraColumns []string) *arrow.Schema {
	columns := map[string]inferredType{}
	order := append([]string{}, extraColumns...)
	seen := map[string]bool{}
	for _, c := range order {
		seen[c] = true
	}

	for _, row := range rows {
		names := make([]string, 0, len(row))
		for name := range row {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if name == "bbox" {
				if !seen[name] {
					order = append(order, name)
					seen[name] = true
				}
				continue
			}
			v := row[name]
			t := inferValueType(v)
			if existing, ok := columns[name]; ok {
				columns[name] = widen(existing, t)
			} else {
				columns[name] = t
				if !seen[name] {
					order = append(order, name)
					seen[name] = true
				}
			}
		}
	}

	fields := make([]arrow.Field, 0, len(order))
	for _, name := range order {
		var dt arrow.DataType
		switch {
		case name == "bbox":
			dt = arrow.StructOf(BboxFields(bboxColumnHas3D(rows))...)
		case datetimeColumns[name]:
			dt = arrow.FixedWidthTypes.Timestamp_ms
		default:
			dt = arrowType(columns[name])
		}
		fields = append(fields, arrow.Field{Name: name, Type: dt, Nullable: true})
	}

	md := arrow.NewMetadata([]string{"stac:geoparquet_version"}, []string{GeoparquetVersion})
	return arrow.NewSchema(fields, &md)
}

// bboxColumnHas3D reports whether any row's bbox carries a z range, so
// the whole column is built with the wider 6-field struct type.
func bboxColumnHas3D(rows []map[string]any) bool {
	for _, row := range rows {
		if bbox, ok := row["bbox"].([]float64); ok && len(bbox) == 6 {
			return true
		}
	}
	return false
}

func inferValueType(v any) inferredType {
	switch v.(type) {
	case nil:
		return typeNull
	case bool:
		return typeBool
	case float64:
		return typeFloat64
	case int, int64:
		return typeInt64
	case string:
		return typeString
	case []any:
		return typeList
	case map[string]any:
		return typeStruct
	default:
		return typeString
	}
}

// widen resolves a type conflict across rows by falling back to string,
// the only representation that can hold every JSON scalar.
func widen(a, b inferredType) inferredType {
	if a == b {
		return a
	}
	if a == typeNull {
		return b
	}
	if b == typeNull {
		return a
	}
	if (a == typeInt64 && b == typeFloat64) || (a == typeFloat64 && b == typeInt64) {
		return typeFloat64
	}
	return typeString
}

func arrowType(t inferredType) arrow.DataType {
	switch t {
	case typeBool:
		return arrow.FixedWidthTypes.Boolean
	case typeInt64:
		return arrow.PrimitiveTypes.Int64
	case typeFloat64:
		return arrow.PrimitiveTypes.Float64
	case typeList, typeStruct:
		return arrow.BinaryTypes.String // JSON-encoded, see flatten.go
	default:
		return arrow.BinaryTypes.String
	}
}

// BboxFields builds the {xmin, ymin, (zmin?), xmax, ymax, (zmax?)} struct
// field list for a bbox column, per spec.md's resolved Open Question on
// 6-element z-ordering: [xmin, ymin, zmin, xmax, ymax, zmax].
func BboxFields(has3D bool) []arrow.Field {
	f := []arrow.Field{
		{Name: "xmin", Type: arrow.PrimitiveTypes.Float64},
		{Name: "ymin", Type: arrow.PrimitiveTypes.Float64},
	}
	if has3D {
		f = append(f, arrow.Field{Name: "zmin", Type: arrow.PrimitiveTypes.Float64})
	}
	f = append(f,
		arrow.Field{Name: "xmax", Type: arrow.PrimitiveTypes.Float64},
		arrow.Field{Name: "ymax", Type: arrow.PrimitiveTypes.Float64},
	)
	if has3D {
		f = append(f, arrow.Field{Name: "zmax", Type: arrow.PrimitiveTypes.Float64})
	}
	return f
}
