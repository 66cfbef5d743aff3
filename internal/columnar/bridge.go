package columnar

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/terrastac/dataplane/internal/stac"
)

// GeometryEncoding selects how the geometry column is materialized.
type GeometryEncoding int

const (
	// GeometryWKB stores geometry as a WKB binary column (the
	// stac-geoparquet interchange default).
	GeometryWKB GeometryEncoding = iota
	// GeometryNative stores geometry as GeoJSON text, used when a
	// consumer wants to avoid a WKB decode round trip.
	GeometryNative
)

// BuildOptions configures Build.
type BuildOptions struct {
	Conflict  ConflictPolicy
	Geometry  GeometryEncoding
	Allocator memory.Allocator
}

// Build flattens a slice of Items into a single Arrow record batch: one
// row per item, one column per reserved field or hoisted property, with
// the stac:geoparquet_version metadata stamped onto the schema.
func Build(items []*stac.Item, opts BuildOptions) (arrow.Record, error) {
	if opts.Allocator == nil {
		opts.Allocator = memory.NewGoAllocator()
	}

	rows := make([]map[string]any, len(items))
	for i, item := range items {
		row, err := flattenRow(item, opts.Conflict)
		if err != nil {
			return nil, fmt.Errorf("columnar: item %d: %w", i, err)
		}
		rows[i] = row
	}

	schema := inferSchema(rows, nil)
	bldr := array.NewRecordBuilder(opts.Allocator, schema)
	defer bldr.Release()

	for i, field := range schema.Fields() {
		fb := bldr.Field(i)
		for _, row := range rows {
			v, ok := row[field.Name]
			if !ok || v == nil {
				fb.AppendNull()
				continue
			}
			if err := appendValue(fb, field.Type, v); err != nil {
				return nil, fmt.Errorf("columnar: column %q: %w", field.Name, err)
			}
		}
	}

	rec := bldr.NewRecord()
	if opts.Geometry == GeometryWKB {
		wkbRec, err := WithWKBGeometry(rec, opts.Allocator)
		rec.Release()
		if err != nil {
			return nil, fmt.Errorf("columnar: converting geometry to WKB: %w", err)
		}
		rec = wkbRec
	}
	return rec, nil
}

func appendValue(fb array.Builder, dt arrow.DataType, v any) error {
	switch b := fb.(type) {
	case *array.StructBuilder:
		bbox, ok := v.([]float64)
		if !ok {
			b.AppendNull()
			return nil
		}
		m := bboxStruct(bbox)
		if m == nil {
			b.AppendNull()
			return nil
		}
		st, ok := dt.(*arrow.StructType)
		if !ok {
			return fmt.Errorf("bbox column has unexpected type %s", dt)
		}
		b.Append(true)
		for i, f := range st.Fields() {
			cb, ok := b.FieldBuilder(i).(*array.Float64Builder)
			if !ok {
				return fmt.Errorf("unexpected bbox field builder for %s", f.Name)
			}
			cb.Append(m[f.Name])
		}
	case *array.BooleanBuilder:
		bv, ok := v.(bool)
		if !ok {
			b.AppendNull()
			return nil
		}
		b.Append(bv)
	case *array.Int64Builder:
		switch n := v.(type) {
		case float64:
			b.Append(int64(n))
		case int64:
			b.Append(n)
		case int:
			b.Append(int64(n))
		default:
			b.AppendNull()
		}
	case *array.Float64Builder:
		switch n := v.(type) {
		case float64:
			b.Append(n)
		case int64:
			b.Append(float64(n))
		default:
			b.AppendNull()
		}
	case *array.TimestampBuilder:
		s, ok := v.(string)
		if !ok {
			b.AppendNull()
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		ts, err := arrow.TimestampFromTime(t, arrow.Millisecond)
		if err != nil {
			return err
		}
		b.Append(ts)
	case *array.StringBuilder:
		switch s := v.(type) {
		case string:
			b.Append(s)
		default:
			b.AppendNull()
		}
	default:
		return fmt.Errorf("unsupported builder type %T for %s", fb, dt)
	}
	return nil
}

// Decode reverses Build, reconstructing Items from a record batch. A
// geometry column stamped as WKB-encoded is converted back to GeoJSON
// text first, since unflattenRow only understands the native string form.
func Decode(rec arrow.Record) ([]*stac.Item, error) {
	if isWKBEncoded(rec.Schema()) {
		native, err := WithNativeGeometry(rec, nil)
		if err != nil {
			return nil, fmt.Errorf("columnar: converting geometry from WKB: %w", err)
		}
		defer native.Release()
		rec = native
	}

	schema := rec.Schema()
	n := int(rec.NumRows())
	items := make([]*stac.Item, n)

	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{}
	}

	for colIdx, field := range schema.Fields() {
		col := rec.Column(colIdx)
		for rowIdx := 0; rowIdx < n; rowIdx++ {
			if col.IsNull(rowIdx) {
				continue
			}
			v, err := readValue(col, field.Type, rowIdx)
			if err != nil {
				return nil, fmt.Errorf("columnar: column %q row %d: %w", field.Name, rowIdx, err)
			}
			rows[rowIdx][field.Name] = v
		}
	}

	for i, row := range rows {
		item, err := unflattenRow(row)
		if err != nil {
			return nil, fmt.Errorf("columnar: row %d: %w", i, err)
		}
		items[i] = item
	}
	return items, nil
}

func readValue(col arrow.Array, dt arrow.DataType, i int) (any, error) {
	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(i), nil
	case *array.Int64:
		return c.Value(i), nil
	case *array.Float64:
		return c.Value(i), nil
	case *array.Timestamp:
		ts := c.Value(i)
		unit := dt.(*arrow.TimestampType).Unit
		return ts.ToTime(unit).UTC().Format(time.RFC3339Nano), nil
	case *array.String:
		return c.Value(i), nil
	case *array.Struct:
		st, ok := dt.(*arrow.StructType)
		if !ok {
			return nil, fmt.Errorf("unexpected struct column type %s", dt)
		}
		m := make(map[string]float64, st.NumFields())
		for idx, f := range st.Fields() {
			child, ok := c.Field(idx).(*array.Float64)
			if !ok {
				return nil, fmt.Errorf("unexpected bbox field array for %s", f.Name)
			}
			m[f.Name] = child.Value(i)
		}
		return bboxFromStruct(m), nil
	default:
		return nil, fmt.Errorf("unsupported array type %T", col)
	}
}
