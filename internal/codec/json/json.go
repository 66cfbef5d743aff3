// Package json implements the JSON and pretty-JSON STAC codecs: every
// STAC value kind (Item, Catalog, Collection, ItemCollection) encodes
// and decodes losslessly through encoding/json, matching the wire format
// a STAC API or static catalog file uses.
package json

import (
	"bytes"
	"encoding/json"

	"github.com/terrastac/dataplane/internal/codec"
	"github.com/terrastac/dataplane/internal/stac"
)

// Encode marshals v (a *stac.Item, *stac.Catalog, *stac.Collection, or
// *stac.ItemCollection) to JSON, indenting with two spaces when pretty
// is set.
func Encode(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// DecodeItem parses a single STAC Item.
func DecodeItem(data []byte) (*stac.Item, error) {
	var item stac.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, &codec.ErrParse{Format: "json", Kind: codec.KindItem, Err: err}
	}
	if item.Id == "" {
		return nil, &codec.ErrSchemaMismatch{Kind: codec.KindItem, Reason: "missing id"}
	}
	return &item, nil
}

// DecodeCatalog parses a single STAC Catalog.
func DecodeCatalog(data []byte) (*stac.Catalog, error) {
	var cat stac.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, &codec.ErrParse{Format: "json", Kind: codec.KindCatalog, Err: err}
	}
	if cat.Id == "" {
		return nil, &codec.ErrSchemaMismatch{Kind: codec.KindCatalog, Reason: "missing id"}
	}
	return &cat, nil
}

// DecodeCollection parses a single STAC Collection.
func DecodeCollection(data []byte) (*stac.Collection, error) {
	var coll stac.Collection
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, &codec.ErrParse{Format: "json", Kind: codec.KindCollection, Err: err}
	}
	if coll.Id == "" {
		return nil, &codec.ErrSchemaMismatch{Kind: codec.KindCollection, Reason: "missing id"}
	}
	return &coll, nil
}

// DecodeItemCollection parses a GeoJSON FeatureCollection of Items.
func DecodeItemCollection(data []byte) (*stac.ItemCollection, error) {
	ic := &stac.ItemCollection{}
	if err := json.Unmarshal(data, ic); err != nil {
		return nil, &codec.ErrParse{Format: "json", Kind: codec.KindItemCollection, Err: err}
	}
	if ic.Type != "FeatureCollection" {
		return nil, &codec.ErrSchemaMismatch{Kind: codec.KindItemCollection, Reason: "type is not FeatureCollection"}
	}
	return ic, nil
}

// Sniff inspects a JSON document's "type" field to classify which STAC
// value kind it encodes, without a full decode.
func Sniff(data []byte) (codec.Kind, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return 0, &codec.ErrParse{Format: "json", Err: err}
	}
	switch head.Type {
	case "Feature":
		return codec.KindItem, nil
	case "FeatureCollection":
		return codec.KindItemCollection, nil
	case "Catalog":
		return codec.KindCatalog, nil
	case "Collection":
		return codec.KindCollection, nil
	default:
		return 0, &codec.ErrSchemaMismatch{Reason: "unrecognized \"type\" value: " + head.Type}
	}
}

// Compact removes insignificant whitespace from a pretty-printed JSON
// document, the inverse direction of Encode(v, true).
func Compact(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
