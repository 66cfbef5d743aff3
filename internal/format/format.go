// Package format recognizes and infers the on-disk encoding of a STAC
// reference: JSON, NDJSON, or GeoParquet.
package format

import (
	"fmt"
	"strings"
)

// Compression is a Parquet page/column compression codec.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionSnappy
	CompressionGzip
	CompressionZstd
	CompressionLZ4
	CompressionBrotli
)

func parseCompression(s string) (Compression, bool) {
	switch strings.ToLower(s) {
	case "snappy":
		return CompressionSnappy, true
	case "gzip":
		return CompressionGzip, true
	case "zstd":
		return CompressionZstd, true
	case "lz4":
		return CompressionLZ4, true
	case "brotli":
		return CompressionBrotli, true
	default:
		return CompressionNone, false
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionSnappy:
		return "snappy"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionBrotli:
		return "brotli"
	default:
		return "none"
	}
}

// Kind distinguishes the three supported format families.
type Kind int

const (
	KindJSON Kind = iota
	KindNDJSON
	KindGeoParquet
)

// Format is the fully resolved encoding: JSON carries a pretty flag,
// GeoParquet carries an optional compression.
type Format struct {
	Kind        Kind
	Pretty      bool
	Compression Compression
	HasCompression bool
}

// JSON returns a compact or pretty JSON format.
func JSON(pretty bool) Format { return Format{Kind: KindJSON, Pretty: pretty} }

// NDJSON returns the newline-delimited JSON format.
func NDJSON() Format { return Format{Kind: KindNDJSON} }

// GeoParquetFormat returns a geoparquet format, optionally with explicit
// compression. Writers default to Snappy when none is given.
func GeoParquetFormat(c Compression, has bool) Format {
	return Format{Kind: KindGeoParquet, Compression: c, HasCompression: has}
}

// DefaultWriteCompression is applied when a GeoParquet format carries no
// explicit compression at write time.
const DefaultWriteCompression = CompressionSnappy

// ErrUnsupportedFormat is returned when a suffix cannot be resolved to a
// known format.
type ErrUnsupportedFormat struct{ Token string }

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("format: unsupported format %q", e.Token)
}

// Infer derives a Format from the last "." separated suffix segment of
// ref. A parquet/geoparquet suffix may carry a bracketed compression
// token, e.g. "data.parquet[zstd]". Returns ok=false if no suffix is
// recognized.
func Infer(ref string) (Format, bool) {
	idx := strings.LastIndex(ref, ".")
	if idx < 0 || idx == len(ref)-1 {
		return Format{}, false
	}
	suffix := ref[idx+1:]
	return parseSuffix(suffix)
}

// IsGeoParquetRef reports whether ref infers to a GeoParquet format.
func IsGeoParquetRef(ref string) bool {
	f, ok := Infer(ref)
	return ok && f.Kind == KindGeoParquet
}

func parseSuffix(suffix string) (Format, bool) {
	token := suffix
	var compressionToken string
	if open := strings.IndexByte(suffix, '['); open >= 0 && strings.HasSuffix(suffix, "]") {
		token = suffix[:open]
		compressionToken = suffix[open+1 : len(suffix)-1]
	}

	switch strings.ToLower(token) {
	case "json", "geojson":
		return JSON(false), true
	case "json-pretty":
		return JSON(true), true
	case "ndjson":
		return NDJSON(), true
	case "parquet", "geoparquet":
		if compressionToken == "" {
			return GeoParquetFormat(DefaultWriteCompression, false), true
		}
		c, ok := parseCompression(compressionToken)
		if !ok {
			return Format{}, false
		}
		return GeoParquetFormat(c, true), true
	default:
		return Format{}, false
	}
}

// Parse parses an explicit format setting string (as accepted by the
// --input-format/--output-format CLI flags), the same grammar as Infer's
// suffix token.
func Parse(s string) (Format, error) {
	f, ok := parseSuffix(s)
	if !ok {
		return Format{}, &ErrUnsupportedFormat{Token: s}
	}
	return f, nil
}
