// Package geoparquet implements the GeoParquet STAC codec: Items and
// ItemCollections encode to and decode from a single Arrow/Parquet file
// via the columnar bridge. Catalog and Collection have no columnar
// representation and are rejected with codec.ErrUnsupportedKind.
package geoparquet

import (
	"bytes"
	"io"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/terrastac/dataplane/internal/codec"
	"github.com/terrastac/dataplane/internal/columnar"
	"github.com/terrastac/dataplane/internal/stac"
)

// Compression selects the parquet page compression codec, mirroring the
// bracketed compression token the format registry parses (e.g.
// ".parquet[zstd]").
type Compression int

const (
	CompressionNone Compression = iota
	CompressionSnappy
	CompressionGzip
	CompressionZstd
)

func (c Compression) codec() compress.Compression {
	switch c {
	case CompressionSnappy:
		return compress.Codecs.Snappy
	case CompressionGzip:
		return compress.Codecs.Gzip
	case CompressionZstd:
		return compress.Codecs.Zstd
	default:
		return compress.Codecs.Uncompressed
	}
}

// seekWriter is the Write+Seek surface pqarrow's file writer needs for
// its footer. Callers with a plain io.Writer should buffer through
// BufferedBytes instead of calling EncodeItems directly.
type seekWriter interface {
	io.Writer
	io.Seeker
}

// EncodeItems writes items as a single GeoParquet file to w.
func EncodeItems(w seekWriter, items []*stac.Item, c Compression) error {
	rec, err := columnar.Build(items, columnar.BuildOptions{})
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(c.codec()))
	writer, err := pqarrow.NewFileWriter(rec.Schema(), w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return err
	}
	if err := writer.WriteBuffered(rec); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// DecodeItems reads every row of a GeoParquet file as Items.
func DecodeItems(r io.ReaderAt, size int64) ([]*stac.Item, error) {
	pf, err := file.NewParquetReader(r)
	if err != nil {
		return nil, &codec.ErrParse{Format: "geoparquet", Kind: codec.KindItem, Err: err}
	}
	defer pf.Close()

	rdr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, &codec.ErrParse{Format: "geoparquet", Kind: codec.KindItem, Err: err}
	}
	table, err := rdr.ReadTable(nil)
	if err != nil {
		return nil, &codec.ErrParse{Format: "geoparquet", Kind: codec.KindItem, Err: err}
	}
	defer table.Release()

	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()

	var items []*stac.Item
	for tr.Next() {
		rec := tr.Record()
		decoded, err := columnar.Decode(rec)
		if err != nil {
			return nil, &codec.ErrParse{Format: "geoparquet", Kind: codec.KindItem, Err: err}
		}
		items = append(items, decoded...)
	}
	return items, nil
}

// DecodeItemCollection reads a GeoParquet file and wraps its Items in an
// ItemCollection.
func DecodeItemCollection(r io.ReaderAt, size int64) (*stac.ItemCollection, error) {
	items, err := DecodeItems(r, size)
	if err != nil {
		return nil, err
	}
	return stac.NewItemCollection(items), nil
}

// EncodeItemCollection writes an ItemCollection's Features as a single
// GeoParquet file.
func EncodeItemCollection(w seekWriter, ic *stac.ItemCollection, c Compression) error {
	return EncodeItems(w, ic.Features, c)
}

// bufferSeeker adapts a bytes.Buffer to seekWriter; parquet footer
// writes are small appends so a byte-slice-backed rewrite is sufficient.
type bufferSeeker struct {
	buf *bytes.Buffer
	pos int64
}

func (b *bufferSeeker) Write(p []byte) (int, error) {
	data := b.buf.Bytes()
	if int(b.pos) < len(data) {
		n := copy(data[b.pos:], p)
		b.pos += int64(n)
		if n < len(p) {
			b.buf.Write(p[n:])
			b.pos += int64(len(p) - n)
		}
		return len(p), nil
	}
	n, err := b.buf.Write(p)
	b.pos += int64(n)
	return n, err
}

func (b *bufferSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		b.pos = offset
	case io.SeekCurrent:
		b.pos += offset
	case io.SeekEnd:
		b.pos = int64(b.buf.Len()) + offset
	}
	return b.pos, nil
}

// BufferedBytes round-trips items through an in-memory buffer, for
// callers (store backends, tests) that want the encoded bytes directly
// rather than writing to a seekable file handle.
func BufferedBytes(items []*stac.Item, c Compression) ([]byte, error) {
	bs := &bufferSeeker{buf: &bytes.Buffer{}}
	if err := EncodeItems(bs, items, c); err != nil {
		return nil, err
	}
	return bs.buf.Bytes(), nil
}

// ReaderAtFromBytes adapts a byte slice to the io.ReaderAt DecodeItems
// needs.
func ReaderAtFromBytes(data []byte) io.ReaderAt {
	return bytes.NewReader(data)
}
