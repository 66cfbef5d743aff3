package columnar

import (
	"encoding/json"

	"github.com/terrastac/dataplane/internal/stac"
)

// ErrSchemaMismatch is returned when flattening or unflattening discovers
// a row whose shape is incompatible with the record batch's schema, or
// (with ConflictFail) a property name collides with a reserved column.
type ErrSchemaMismatch struct{ Reason string }

func (e *ErrSchemaMismatch) Error() string { return "columnar: schema mismatch: " + e.Reason }

// flattenRow converts one Item into the flat name->value map that
// inferSchema and the record builder operate over: canonical top-level
// fields plus every property hoisted to its own column.
func flattenRow(item *stac.Item, policy ConflictPolicy) (map[string]any, error) {
	row := map[string]any{
		"type":       "Feature",
		"id":         item.Id,
		"collection": item.Collection,
	}
	if item.Version != "" {
		row["stac_version"] = item.Version
	}
	if item.Geometry != nil {
		b, err := json.Marshal(item.Geometry)
		if err != nil {
			return nil, err
		}
		row["geometry"] = string(b)
	}
	if len(item.Bbox) > 0 {
		row["bbox"] = item.Bbox
	}
	if len(item.Links) > 0 {
		b, err := json.Marshal(item.Links)
		if err != nil {
			return nil, err
		}
		row["links"] = string(b)
	}
	if len(item.Assets) > 0 {
		b, err := json.Marshal(item.Assets)
		if err != nil {
			return nil, err
		}
		row["assets"] = string(b)
	}

	for name, v := range item.Properties {
		if canonicalColumns[name] {
			if policy == ConflictFail {
				return nil, &ErrSchemaMismatch{Reason: "property " + name + " collides with a reserved column"}
			}
			continue
		}
		row[name] = flattenValue(v)
	}
	return row, nil
}

// flattenValue JSON-encodes nested arrays/objects so they can live in a
// single string column; scalars pass through unchanged.
func flattenValue(v any) any {
	switch v.(type) {
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return v
	}
}

// unflattenRow reverses flattenRow: given a column-name->value map for
// one row (as read back from a record batch), rebuild an Item.
func unflattenRow(row map[string]any) (*stac.Item, error) {
	item := stac.NewItem(asString(row["id"]), asString(row["collection"]), "")
	if v, ok := row["stac_version"].(string); ok && v != "" {
		item.Version = v
	}
	if v, ok := row["geometry"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &item.Geometry); err != nil {
			return nil, &ErrSchemaMismatch{Reason: "invalid geometry column: " + err.Error()}
		}
	}
	if v, ok := row["bbox"].([]float64); ok {
		item.Bbox = v
	}
	if v, ok := row["links"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &item.Links); err != nil {
			return nil, &ErrSchemaMismatch{Reason: "invalid links column: " + err.Error()}
		}
	}
	if v, ok := row["assets"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &item.Assets); err != nil {
			return nil, &ErrSchemaMismatch{Reason: "invalid assets column: " + err.Error()}
		}
	}

	if item.Properties == nil {
		item.Properties = map[string]any{}
	}
	for name, v := range row {
		if canonicalColumns[name] || name == "" {
			continue
		}
		item.Properties[name] = unflattenValue(v)
	}
	return item, nil
}

func unflattenValue(v any) any {
	s, ok := v.(string)
	if !ok || len(s) == 0 {
		return v
	}
	if s[0] != '{' && s[0] != '[' {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return v
	}
	return decoded
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
