package query

import (
	"encoding/json"

	"github.com/planetlabs/go-ogc/filter"
)

// Predicate is the translated form of a Search, ready for a scan
// executor (an in-memory loop or a columnar/SQL backend) to apply.
type Predicate struct {
	IDIn         []string
	CollectionIn []string
	BboxPolygon    []float64 // the bbox re-expressed as a rectangle predicate
	Intersects     []byte    // raw GeoJSON geometry bytes
	IntersectsBbox []float64 // envelope of Intersects, for a cheap pre-filter
	DatetimeGTE  string    // inclusive lower bound, RFC 3339, empty if unbounded
	DatetimeLTE  string    // inclusive upper bound, RFC 3339, empty if unbounded
	Filter       filter.Expression
	OrderBy      []OrderTerm
	Projection   []string
	Limit        int
	Offset       int

	// Unsatisfiable is set when the CQL2 filter references a property
	// that is not among the known columns; per spec.md §4.F this means
	// the whole query yields an empty result with no error, rather than
	// failing, so the scan executor should short-circuit on this flag.
	Unsatisfiable bool
}

// OrderTerm is one ORDER BY clause entry.
type OrderTerm struct {
	Field string
	Desc  bool
}

// Translate builds a Predicate from a validated Search and the set of
// known scan columns (used both for CQL2 property resolution and field
// projection). Search.Validate must have been called first.
func Translate(s *Search, knownColumns []string) (*Predicate, error) {
	p := &Predicate{
		IDIn:         s.IDs,
		CollectionIn: s.Collections,
		Limit:        s.Limit,
		Offset:       s.Offset,
	}

	if len(s.Bbox) > 0 {
		p.BboxPolygon = s.Bbox
	}
	if len(s.Intersects) > 0 {
		p.Intersects = []byte(s.Intersects)
		p.IntersectsBbox = s.IntersectsBbox()
	}

	if dt := s.NormalizedDatetime(); dt != "" {
		start, end := splitDatetime(dt)
		p.DatetimeGTE = start
		p.DatetimeLTE = end
	}

	columnSet := make(map[string]bool, len(knownColumns))
	for _, c := range knownColumns {
		columnSet[c] = true
	}

	if len(s.Filter) > 0 {
		var f filter.Filter
		if err := json.Unmarshal(s.Filter, &f); err != nil {
			return nil, err
		}
		p.Filter = f.Expression
		if f.Expression != nil && !propertiesKnown(f.Expression, columnSet) {
			p.Unsatisfiable = true
		}
	}

	for _, sf := range s.Sortby {
		p.OrderBy = append(p.OrderBy, OrderTerm{Field: sf.Field, Desc: sf.Direction != 0})
	}

	p.Projection = s.Fields.ProjectedColumns(knownColumns, IdentityColumns)

	return p, nil
}

func splitDatetime(normalized string) (start, end string) {
	for i := 0; i < len(normalized); i++ {
		if normalized[i] == '/' {
			start, end = normalized[:i], normalized[i+1:]
			if start == ".." {
				start = ""
			}
			if end == ".." {
				end = ""
			}
			return start, end
		}
	}
	return normalized, normalized
}

// propertiesKnown walks a CQL2 expression tree (generalizing the
// property-extraction walk the teacher used for SAR-specific filter
// parameters) and reports whether every referenced property name is
// among the known columns.
func propertiesKnown(expr filter.Expression, columns map[string]bool) bool {
	switch e := expr.(type) {
	case *filter.And:
		for _, arg := range e.Args {
			if !propertiesKnown(arg, columns) {
				return false
			}
		}
		return true
	case *filter.Or:
		for _, arg := range e.Args {
			if !propertiesKnown(arg, columns) {
				return false
			}
		}
		return true
	case *filter.Not:
		return propertiesKnown(e.Arg, columns)
	case *filter.Comparison:
		return scalarPropertiesKnown(e.Left, columns) && scalarPropertiesKnown(e.Right, columns)
	case *filter.In:
		if !scalarPropertiesKnown(e.Item, columns) {
			return false
		}
		for _, item := range e.List {
			if !scalarPropertiesKnown(item, columns) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func scalarPropertiesKnown(expr filter.ScalarExpression, columns map[string]bool) bool {
	if prop, ok := expr.(*filter.Property); ok {
		return columns[prop.Name]
	}
	return true
}
