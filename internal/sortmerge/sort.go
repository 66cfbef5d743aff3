// Package sortmerge implements the multi-key STAC item comparator and a
// stable k-way merge of sorted item streams.
package sortmerge

import (
	"container/heap"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// SortField is one (field, direction) entry in a sort key sequence.
type SortField struct {
	Field     string
	Direction Direction
}

// Fielder is the minimal read access a comparator needs into an item: a
// named field lookup returning the raw JSON-decoded value (string,
// float64, bool, nil, []any, map[string]any), or the two-value ok=false
// when the field is entirely absent.
type Fielder interface {
	Field(name string) (any, bool)
}

// Comparator orders items by an ordered list of (field, direction)
// entries. The first non-equal field decides the order.
type Comparator struct {
	fields []SortField
}

// New builds a Comparator from an explicit sort key sequence.
func New(fields []SortField) *Comparator {
	return &Comparator{fields: fields}
}

// Default is the STAC API default: datetime descending, then id
// ascending to break ties deterministically.
func Default() *Comparator {
	return New([]SortField{
		{Field: "datetime", Direction: Desc},
		{Field: "id", Direction: Asc},
	})
}

// Compare returns -1, 0, or 1 comparing l and r under the comparator's
// key sequence.
func (c *Comparator) Compare(l, r Fielder) int {
	for _, sf := range c.fields {
		cmp := c.compareField(sf.Field, l, r)
		if cmp != 0 {
			if sf.Direction == Desc {
				cmp = -cmp
			}
			return cmp
		}
	}
	return 0
}

var chronologicalFields = map[string]bool{
	"datetime": true, "start_datetime": true, "end_datetime": true,
	"created": true, "updated": true,
}

var lexicographicFields = map[string]bool{
	"id": true, "collection": true, "title": true, "description": true,
}

func (c *Comparator) compareField(field string, l, r Fielder) int {
	switch {
	case field == "datetime":
		return compareWithFallback(l, r, "datetime", "start_datetime")
	case field == "start_datetime":
		return compareWithFallback(l, r, "start_datetime", "datetime")
	case field == "end_datetime":
		return compareWithFallback(l, r, "end_datetime", "datetime")
	case chronologicalFields[field]:
		return compareChronological(fieldOrNil(l, field), fieldOrNil(r, field))
	case lexicographicFields[field]:
		lv, lok := l.Field(field)
		rv, rok := r.Field(field)
		return compareValues(asString(lv, lok), asString(rv, rok))
	default:
		lv, lok := l.Field(field)
		rv, rok := r.Field(field)
		return compareJSONValues(lv, lok, rv, rok)
	}
}

// compareWithFallback compares `field` on both sides, falling back to
// `fallback` when `field` is absent on that side — this implements the
// datetime / start_datetime / end_datetime mutual-substitution rule.
func compareWithFallback(l, r Fielder, field, fallback string) int {
	lv, lok := fieldWithFallback(l, field, fallback)
	rv, rok := fieldWithFallback(r, field, fallback)
	return compareChronological(optTime{lv, lok}, optTime{rv, rok})
}

func fieldWithFallback(f Fielder, field, fallback string) (any, bool) {
	if v, ok := f.Field(field); ok && v != nil {
		return v, true
	}
	if v, ok := f.Field(fallback); ok && v != nil {
		return v, true
	}
	return nil, false
}

type optTime struct {
	v  any
	ok bool
}

func fieldOrNil(f Fielder, field string) optTime {
	v, ok := f.Field(field)
	return optTime{v, ok && v != nil}
}

// compareChronological parses both sides as RFC3339 datetimes; missing on
// both sides is equal, missing vs present sorts the missing side less.
func compareChronological(l, r optTime) int {
	if !l.ok && !r.ok {
		return 0
	}
	if !l.ok {
		return -1
	}
	if !r.ok {
		return 1
	}
	lt, lerr := parseTime(l.v)
	rt, rerr := parseTime(r.v)
	if lerr != nil || rerr != nil {
		return compareValues(asString(l.v, true), asString(r.v, true))
	}
	switch {
	case lt.Before(rt):
		return -1
	case lt.After(rt):
		return 1
	default:
		return 0
	}
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return time.Time{}, err
		}
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	}
}

func asString(v any, ok bool) string {
	if !ok || v == nil {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func compareValues(l, r string) int {
	return strings.Compare(l, r)
}

// jsonRank assigns the total order null < bool < number < string < array
// < object used for arbitrary property comparisons.
func jsonRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64, int, int64:
		return 2
	case string:
		return 3
	case []any:
		return 4
	case map[string]any:
		return 5
	default:
		return 5
	}
}

// compareJSONValues implements the typed JSON ordering used for any
// non-canonical sort field: null < bool < number < string < array <
// object; arrays compare element-wise then by length; missing on both
// sides is equal, missing vs present sorts the missing side less.
func compareJSONValues(l any, lok bool, r any, rok bool) int {
	if !lok && !rok {
		return 0
	}
	if !lok {
		return -1
	}
	if !rok {
		return 1
	}
	lr, rr := jsonRank(l), jsonRank(r)
	if lr != rr {
		if lr < rr {
			return -1
		}
		return 1
	}
	switch lr {
	case 0:
		return 0
	case 1:
		lb, rb := l.(bool), r.(bool)
		if lb == rb {
			return 0
		}
		if !lb {
			return -1
		}
		return 1
	case 2:
		lf, rf := toFloat(l), toFloat(r)
		switch {
		case lf < rf:
			return -1
		case lf > rf:
			return 1
		default:
			return 0
		}
	case 3:
		return strings.Compare(l.(string), r.(string))
	case 4:
		la, ra := l.([]any), r.([]any)
		n := len(la)
		if len(ra) < n {
			n = len(ra)
		}
		for i := 0; i < n; i++ {
			if c := compareJSONValues(la[i], true, ra[i], true); c != 0 {
				return c
			}
		}
		switch {
		case len(la) < len(ra):
			return -1
		case len(la) > len(ra):
			return 1
		default:
			return 0
		}
	default:
		// Objects carry no defined ordering: any two objects compare
		// equal regardless of content.
		return 0
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// Sort sorts items in place according to the comparator. Stable so that
// equal-key items keep their relative order, matching the idempotence
// property required of repeated sorts.
func (c *Comparator) Sort(items []Fielder) {
	sort.SliceStable(items, func(i, j int) bool {
		return c.Compare(items[i], items[j]) < 0
	})
}

// MapFielder adapts a decoded-JSON map (as produced by encoding/json's
// default map[string]any unmarshaling, or a flattened item's top-level +
// property fields) to the Fielder interface.
type MapFielder map[string]any

func (m MapFielder) Field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Stream is a sorted (per the comparator in use) sequence of items,
// pulled lazily element by element.
type Stream interface {
	// Next returns the next item, or ok=false when the stream is drained.
	Next() (Fielder, bool)
}

// MergeStreams performs a stable k-way merge of N streams, each already
// sorted by cmp, emitting the smallest head element repeatedly until all
// streams drain. Ties break in the order streams are listed.
func MergeStreams(streams []Stream, cmp *Comparator) []Fielder {
	h := &mergeHeap{cmp: cmp}
	for i, s := range streams {
		if v, ok := s.Next(); ok {
			heap.Push(h, mergeEntry{value: v, stream: i})
		}
	}
	heap.Init(h)

	var out []Fielder
	for h.Len() > 0 {
		top := heap.Pop(h).(mergeEntry)
		out = append(out, top.value)
		if next, ok := streams[top.stream].Next(); ok {
			heap.Push(h, mergeEntry{value: next, stream: top.stream})
		}
	}
	return out
}

type mergeEntry struct {
	value  Fielder
	stream int
}

type mergeHeap struct {
	cmp     *Comparator
	entries []mergeEntry
}

func (h *mergeHeap) Len() int { return len(h.entries) }
func (h *mergeHeap) Less(i, j int) bool {
	c := h.cmp.Compare(h.entries[i].value, h.entries[j].value)
	if c != 0 {
		return c < 0
	}
	return h.entries[i].stream < h.entries[j].stream
}
func (h *mergeHeap) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }
func (h *mergeHeap) Push(x any)    { h.entries = append(h.entries, x.(mergeEntry)) }
func (h *mergeHeap) Pop() any {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return e
}

var _ heap.Interface = (*mergeHeap)(nil)
