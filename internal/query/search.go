// Package query translates a STAC API Search request into a predicated
// columnar scan: id/collection IN-lists, bbox/intersects geometry
// predicates, datetime interval matching, CQL2 predicates, sortby,
// field projection, and limit/offset.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/terrastac/dataplane/internal/sortmerge"
	"github.com/terrastac/dataplane/pkg/geojson"
)

// Errors matching spec.md §7's taxonomy entries owned by this package.
var (
	ErrBothBboxAndIntersects = errors.New("query: bbox and intersects are mutually exclusive")
	ErrQueryNotImplemented   = errors.New("query: the `query` extension is not implemented")
)

// ErrInvalidIntersects is returned when the `intersects` parameter is
// not a well-formed GeoJSON geometry.
type ErrInvalidIntersects struct{ Reason string }

func (e *ErrInvalidIntersects) Error() string {
	return "query: invalid intersects geometry: " + e.Reason
}

// ErrInvalidBbox is returned for a bbox array of the wrong arity or with
// non-finite values.
type ErrInvalidBbox struct{ Reason string }

func (e *ErrInvalidBbox) Error() string { return "query: invalid bbox: " + e.Reason }

// Fields is the include/exclude field-selection clause of a Search.
type Fields struct {
	Include []string
	Exclude []string
}

// Search is a STAC API item-search request: the composition of an Items
// request with intersects/ids/collections.
type Search struct {
	IDs         []string
	Collections []string
	Bbox        []float64
	Intersects  json.RawMessage
	Datetime    string
	Sortby      []sortmerge.SortField
	Filter      json.RawMessage
	FilterLang  string // informational only; Translate always parses Filter as CQL2-JSON
	Fields      Fields
	Limit       int
	Offset      int
	Cursor      string          // opaque continuation token from a previous page's NextCursor
	Query       json.RawMessage // always rejected, see Validate

	// normalizedDatetime caches the result of NormalizeDatetime so
	// Validate can be called more than once without re-deriving it.
	normalizedDatetime string
	// intersectsBbox caches the envelope of Intersects, computed during
	// Validate, used as a cheap pre-filter before a true intersection test.
	intersectsBbox []float64
}

// IntersectsBbox returns the envelope of the Intersects geometry after
// Validate has run, or nil if no Intersects geometry was given.
func (s *Search) IntersectsBbox() []float64 { return s.intersectsBbox }

// Validate runs the normalization and mutual-exclusion checks spec.md
// §4.F requires before a Search is translated to predicates.
func (s *Search) Validate() error {
	if len(s.Bbox) > 0 && len(s.Intersects) > 0 {
		return ErrBothBboxAndIntersects
	}
	if len(s.Bbox) != 0 && len(s.Bbox) != 4 && len(s.Bbox) != 6 {
		return &ErrInvalidBbox{Reason: fmt.Sprintf("must have 4 or 6 elements, got %d", len(s.Bbox))}
	}
	if len(s.Bbox) > 0 {
		for _, v := range s.Bbox {
			if isNonFinite(v) {
				return &ErrInvalidBbox{Reason: "contains a non-finite value"}
			}
		}
	}
	if len(s.Intersects) > 0 {
		var g geojson.Geometry
		if err := json.Unmarshal(s.Intersects, &g); err != nil {
			return &ErrInvalidIntersects{Reason: err.Error()}
		}
		bbox, err := g.BBox()
		if err != nil {
			return &ErrInvalidIntersects{Reason: err.Error()}
		}
		s.intersectsBbox = bbox
	}
	if s.Query != nil {
		return ErrQueryNotImplemented
	}
	if s.Datetime != "" {
		norm, err := NormalizeDatetime(s.Datetime)
		if err != nil {
			return err
		}
		s.normalizedDatetime = norm
	}
	return nil
}

func isNonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// NormalizedDatetime returns the datetime string after Validate has run.
func (s *Search) NormalizedDatetime() string { return s.normalizedDatetime }

// ProjectedColumns applies the field-selection rule: if Include is
// non-empty, only those columns (plus the always-present identity
// columns) survive, then Exclude is subtracted.
func (f Fields) ProjectedColumns(allColumns []string, identityColumns []string) []string {
	identity := make(map[string]bool, len(identityColumns))
	for _, c := range identityColumns {
		identity[c] = true
	}

	var base []string
	if len(f.Include) > 0 {
		include := make(map[string]bool, len(f.Include))
		for _, c := range f.Include {
			include[c] = true
		}
		for _, c := range allColumns {
			if include[c] || identity[c] {
				base = append(base, c)
			}
		}
	} else {
		base = append(base, allColumns...)
	}

	if len(f.Exclude) == 0 {
		return base
	}
	exclude := make(map[string]bool, len(f.Exclude))
	for _, c := range f.Exclude {
		if !identity[c] {
			exclude[c] = true
		}
	}
	out := base[:0:0]
	for _, c := range base {
		if !exclude[c] {
			out = append(out, c)
		}
	}
	return out
}

// IdentityColumns are always retained by field projection regardless of
// include/exclude.
var IdentityColumns = []string{"id", "type", "collection", "geometry", "bbox"}
