package columnar

import (
	"encoding/json"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// geometryEncodingKey is the schema metadata key stac-geoparquet readers
// use to tell whether the geometry column holds WKB bytes or GeoJSON text.
const geometryEncodingKey = "stac:geometry_encoding"

// WithWKBGeometry returns a copy of rec whose "geometry" column (if
// present as GeoJSON text) has been rewritten to WKB binary, the
// interchange encoding stac-geoparquet files are written with.
func WithWKBGeometry(rec arrow.Record, mem memory.Allocator) (arrow.Record, error) {
	return rewriteGeometryColumn(rec, mem, true)
}

// WithNativeGeometry returns a copy of rec whose "geometry" column (if
// present as WKB binary) has been rewritten back to GeoJSON text, the
// representation flattenRow/unflattenRow operate on.
func WithNativeGeometry(rec arrow.Record, mem memory.Allocator) (arrow.Record, error) {
	return rewriteGeometryColumn(rec, mem, false)
}

func rewriteGeometryColumn(rec arrow.Record, mem memory.Allocator, toWKB bool) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	schema := rec.Schema()
	idx := -1
	for i, f := range schema.Fields() {
		if f.Name == "geometry" {
			idx = i
			break
		}
	}
	if idx == -1 {
		rec.Retain()
		return rec, nil
	}

	col, ok := rec.Column(idx).(*array.String)
	if !ok {
		return nil, &ErrUnsupportedGeometry{Reason: "geometry column is not string-encoded"}
	}

	var out arrow.Array
	if toWKB {
		bldr := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
		defer bldr.Release()
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				bldr.AppendNull()
				continue
			}
			wkbBytes, err := geometryToWKBFromJSON(col.Value(i))
			if err != nil {
				return nil, err
			}
			bldr.Append(wkbBytes)
		}
		out = bldr.NewArray()
	} else {
		wkbCol, ok := rec.Column(idx).(*array.Binary)
		if !ok {
			return nil, &ErrUnsupportedGeometry{Reason: "geometry column is not WKB-encoded"}
		}
		bldr := array.NewStringBuilder(mem)
		defer bldr.Release()
		for i := 0; i < wkbCol.Len(); i++ {
			if wkbCol.IsNull(i) {
				bldr.AppendNull()
				continue
			}
			g, err := wkbToGeometry(wkbCol.Value(i))
			if err != nil {
				return nil, err
			}
			s, err := jsonString(g)
			if err != nil {
				return nil, err
			}
			bldr.Append(s)
		}
		out = bldr.NewArray()
	}
	defer out.Release()

	cols := make([]arrow.Array, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		if i == idx {
			cols[i] = out
		} else {
			cols[i] = rec.Column(i)
		}
	}
	newSchema := retagGeometryEncoding(schema, toWKB)
	return array.NewRecord(newSchema, cols, rec.NumRows()), nil
}

func geometryToWKBFromJSON(s string) ([]byte, error) {
	var geom any
	if err := json.Unmarshal([]byte(s), &geom); err != nil {
		return nil, err
	}
	return geometryToWKB(geom)
}

// isWKBEncoded reports whether schema's geometry column (if any) is
// tagged as WKB-encoded rather than native GeoJSON text.
func isWKBEncoded(schema *arrow.Schema) bool {
	md := schema.Metadata()
	for i, k := range md.Keys() {
		if k == geometryEncodingKey {
			return md.Values()[i] == "wkb"
		}
	}
	return false
}

// retagGeometryEncoding stamps geometryEncodingKey onto the schema
// metadata alongside the existing stac:geoparquet_version tag.
func retagGeometryEncoding(schema *arrow.Schema, isWKB bool) *arrow.Schema {
	md := schema.Metadata()
	keys := append([]string{}, md.Keys()...)
	values := append([]string{}, md.Values()...)
	encoding := "native"
	if isWKB {
		encoding = "wkb"
	}
	replaced := false
	for i, k := range keys {
		if k == geometryEncodingKey {
			values[i] = encoding
			replaced = true
		}
	}
	if !replaced {
		keys = append(keys, geometryEncodingKey)
		values = append(values, encoding)
	}
	newMD := arrow.NewMetadata(keys, values)
	return arrow.NewSchema(schema.Fields(), &newMD)
}

// AddWKBMetadata stamps a record batch's schema with the
// stac:geoparquet_version tag without touching column data, for record
// batches assembled elsewhere (e.g. read back from a parquet file) that
// need the tag asserted before being handed to a stac-geoparquet reader.
func AddWKBMetadata(rec arrow.Record) arrow.Record {
	schema := rec.Schema()
	md := schema.Metadata()
	keys := append([]string{}, md.Keys()...)
	values := append([]string{}, md.Values()...)
	hasVersion := false
	for _, k := range keys {
		if k == "stac:geoparquet_version" {
			hasVersion = true
		}
	}
	if !hasVersion {
		keys = append(keys, "stac:geoparquet_version")
		values = append(values, GeoparquetVersion)
	}
	newMD := arrow.NewMetadata(keys, values)
	newSchema := arrow.NewSchema(schema.Fields(), &newMD)
	cols := make([]arrow.Array, rec.NumCols())
	for i := range cols {
		cols[i] = rec.Column(i)
	}
	return array.NewRecord(newSchema, cols, rec.NumRows())
}

func jsonString(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("columnar: %w", err)
	}
	return string(b), nil
}
