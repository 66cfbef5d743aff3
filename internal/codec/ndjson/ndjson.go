// Package ndjson implements the newline-delimited JSON STAC codec: one
// Item per line for a stream of items, with the single-line special
// case of yielding the raw decoded value rather than a one-element
// slice (spec.md §3's NDJSON rule).
package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/terrastac/dataplane/internal/codec"
	"github.com/terrastac/dataplane/internal/stac"
)

// EncodeItems writes one compact JSON line per item to w.
func EncodeItems(w io.Writer, items []*stac.Item) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

// DecodeItems reads a stream of newline-delimited Items. Blank lines
// are skipped. A single non-blank line still returns a one-element
// slice here; callers that need the "single line yields a raw value"
// rule should use DecodeSingleOrMany.
func DecodeItems(r io.Reader) ([]*stac.Item, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var items []*stac.Item
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var item stac.Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &codec.ErrParse{Format: "ndjson", Kind: codec.KindItem, Err: err}
		}
		cp := item
		items = append(items, &cp)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DecodeSingleOrMany implements the NDJSON single-line rule: if the
// stream contains exactly one non-blank line, the raw decoded value for
// that line is returned (e.g. a bare Item); with more than one line, an
// ItemCollection wrapping every decoded Item is returned.
func DecodeSingleOrMany(r io.Reader) (any, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var lines [][]byte
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		dup := make([]byte, len(raw))
		copy(dup, raw)
		lines = append(lines, dup)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return stac.NewItemCollection(nil), nil
	}
	if len(lines) == 1 {
		var item stac.Item
		if err := json.Unmarshal(lines[0], &item); err != nil {
			return nil, &codec.ErrParse{Format: "ndjson", Kind: codec.KindItem, Err: err}
		}
		return &item, nil
	}

	items := make([]*stac.Item, len(lines))
	for i, raw := range lines {
		var item stac.Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &codec.ErrParse{Format: "ndjson", Kind: codec.KindItem, Err: err}
		}
		items[i] = &item
	}
	return stac.NewItemCollection(items), nil
}
