// Package stac carries the STAC value model: Item, Catalog, Collection,
// and ItemCollection, built on top of planetlabs/go-stac's core types.
package stac

import (
	"encoding/json"
	"time"

	gostac "github.com/planetlabs/go-stac"
)

// Core STAC types are re-exported from go-stac rather than redefined.
type (
	Item       = gostac.Item
	Collection = gostac.Collection
	Catalog    = gostac.Catalog
	Asset      = gostac.Asset
	Link       = gostac.Link
	Provider   = gostac.Provider
	Extent     = gostac.Extent
)

// Context carries the STAC API Context extension fields describing a
// search result page.
type Context struct {
	Returned int  `json:"returned"`
	Limit    int  `json:"limit,omitempty"`
	Matched  *int `json:"matched,omitempty"`
}

// ItemCollection is an ordered sequence of Items with pagination links
// and optional search context — a GeoJSON FeatureCollection augmented
// with STAC API fields. Unrecognized top-level keys are preserved in
// Additional so a round trip through JSON never silently drops fields
// the original producer set (this was present in the source
// implementation's ItemCollection and easy to lose in a naive port).
type ItemCollection struct {
	Type           string
	Features       []*Item
	Links          []*Link
	NumberMatched  *int
	NumberReturned int
	Context        *Context
	Additional     map[string]any
}

// NewItemCollection creates an ItemCollection wrapping items.
func NewItemCollection(items []*Item) *ItemCollection {
	if items == nil {
		items = []*Item{}
	}
	return &ItemCollection{
		Type:           "FeatureCollection",
		Features:       items,
		Links:          []*Link{},
		NumberReturned: len(items),
	}
}

// AddLink appends a link to the ItemCollection.
func (ic *ItemCollection) AddLink(rel, href, mediaType string) {
	ic.Links = append(ic.Links, &Link{Rel: rel, Href: href, Type: mediaType})
}

// SetContext sets the search-result context metadata.
func (ic *ItemCollection) SetContext(returned, limit int, matched *int) {
	ic.Context = &Context{Returned: returned, Limit: limit, Matched: matched}
	if matched != nil {
		ic.NumberMatched = matched
	}
}

// MarshalJSON flattens Additional fields alongside the canonical ones.
func (ic *ItemCollection) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for k, v := range ic.Additional {
		out[k] = v
	}
	out["type"] = ic.Type
	out["features"] = ic.Features
	out["links"] = ic.Links
	if ic.NumberMatched != nil {
		out["numberMatched"] = *ic.NumberMatched
	}
	out["numberReturned"] = ic.NumberReturned
	if ic.Context != nil {
		out["context"] = ic.Context
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores canonical fields and stashes everything else in
// Additional.
func (ic *ItemCollection) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	canonical := map[string]bool{
		"type": true, "features": true, "links": true,
		"numberMatched": true, "numberReturned": true, "context": true,
	}
	if v, ok := raw["type"]; ok {
		_ = json.Unmarshal(v, &ic.Type)
	}
	if v, ok := raw["features"]; ok {
		_ = json.Unmarshal(v, &ic.Features)
	}
	if v, ok := raw["links"]; ok {
		_ = json.Unmarshal(v, &ic.Links)
	}
	if v, ok := raw["numberMatched"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil {
			ic.NumberMatched = &n
		}
	}
	if v, ok := raw["numberReturned"]; ok {
		_ = json.Unmarshal(v, &ic.NumberReturned)
	}
	if v, ok := raw["context"]; ok {
		_ = json.Unmarshal(v, &ic.Context)
	}
	ic.Additional = map[string]any{}
	for k, v := range raw {
		if canonical[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err == nil {
			ic.Additional[k] = val
		}
	}
	return nil
}

// NewItem creates an empty Item ready for population.
func NewItem(id, collection, version string) *Item {
	return &Item{
		Version:    version,
		Id:         id,
		Collection: collection,
		Properties: make(map[string]any),
		Assets:     make(map[string]*Asset),
		Links:      make([]*Link, 0),
	}
}

// NewCollection creates an empty Collection ready for population.
func NewCollection(id, title, description, version string) *Collection {
	return &Collection{
		Version:     version,
		Id:          id,
		Title:       title,
		Description: description,
		Links:       make([]*Link, 0),
		Assets:      make(map[string]*Asset),
		Summaries:   make(map[string]any),
	}
}

// NewCatalog creates an empty Catalog ready for population.
func NewCatalog(id, title, description, version string) *Catalog {
	return &Catalog{
		Version:     version,
		Id:          id,
		Title:       title,
		Description: description,
		Links:       make([]*Link, 0),
	}
}

// FromItems derives a Collection from a set of items: the spatial extent
// is the union bbox across all item bboxes, the temporal extent is the
// [min, max] of each item's datetime (falling back to start/end_datetime),
// and one "item" link per item is appended. Per end-to-end scenario 4,
// a single shared instant/bbox across all items collapses to that one
// value repeated as [start, start].
func FromItems(id, title, description, version string, items []*Item) *Collection {
	c := NewCollection(id, title, description, version)
	if len(items) == 0 {
		return c
	}

	var unionBbox []float64
	var minT, maxT time.Time
	haveTime := false

	for _, item := range items {
		if len(item.Bbox) >= 4 {
			unionBbox = unionBboxes(unionBbox, item.Bbox)
		}
		lo, okLo := itemDatetime(item, "start_datetime")
		hi, okHi := itemDatetime(item, "end_datetime")
		if !okLo {
			lo, okLo = hi, okHi
		}
		if !okHi {
			hi = lo
		}
		if okLo {
			if !haveTime || lo.Before(minT) {
				minT = lo
			}
			if !haveTime || hi.After(maxT) {
				maxT = hi
			}
			haveTime = true
		}
		c.Links = append(c.Links, &Link{Rel: "item", Href: item.Id, Type: "application/geo+json"})
	}

	c.Extent = Extent{}
	if unionBbox != nil {
		c.Extent.Spatial.Bbox = [][]float64{unionBbox}
	}
	if haveTime {
		c.Extent.Temporal.Interval = [][]*time.Time{{&minT, &maxT}}
	}
	return c
}

func itemDatetime(item *Item, fallback string) (time.Time, bool) {
	for _, key := range []string{"datetime", fallback} {
		if v, ok := item.Properties[key]; ok && v != nil {
			if s, isStr := v.(string); isStr {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return t, true
				}
			}
		}
	}
	return time.Time{}, false
}

func unionBboxes(acc, bbox []float64) []float64 {
	if acc == nil {
		out := make([]float64, len(bbox))
		copy(out, bbox)
		return out
	}
	n := len(acc)
	if n == 4 {
		acc[0] = min(acc[0], bbox[0])
		acc[1] = min(acc[1], bbox[1])
		acc[2] = max(acc[2], bbox[2])
		acc[3] = max(acc[3], bbox[3])
	} else if n == 6 && len(bbox) == 6 {
		acc[0] = min(acc[0], bbox[0])
		acc[1] = min(acc[1], bbox[1])
		acc[2] = min(acc[2], bbox[2])
		acc[3] = max(acc[3], bbox[3])
		acc[4] = max(acc[4], bbox[4])
		acc[5] = max(acc[5], bbox[5])
	}
	return acc
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Standard STAC API conformance URIs.
const (
	ConformanceCore         = "https://api.stacspec.org/v1.0.0/core"
	ConformanceOGCFeatures  = "https://api.stacspec.org/v1.0.0/ogcapi-features"
	ConformanceItemSearch   = "https://api.stacspec.org/v1.0.0/item-search"
	ConformanceFilter       = "https://api.stacspec.org/v1.0.0/item-search#filter"
	ConformanceOGCFeatCore  = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core"
	ConformanceOGCFeatGeoJSON = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/geojson"
)

// DefaultConformance returns the conformance classes a backend wrapping
// this library typically advertises.
func DefaultConformance() []string {
	return []string{
		ConformanceCore,
		ConformanceOGCFeatures,
		ConformanceItemSearch,
		ConformanceOGCFeatCore,
		ConformanceOGCFeatGeoJSON,
	}
}
