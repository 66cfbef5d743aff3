// Package service wires the Reference Resolver, Format Registry, Store
// Plane, and Codec Layer together into the read/write pipelines spec.md
// §2 describes: reference -> format -> store -> bytes -> codec -> STAC
// value, and the reverse on write. It is the thin seam the CLI
// (cmd/staccli) and any embedding service call into; the library
// packages it wires stay usable standalone.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/terrastac/dataplane/internal/codec"
	"github.com/terrastac/dataplane/internal/codec/geoparquet"
	stacjson "github.com/terrastac/dataplane/internal/codec/json"
	"github.com/terrastac/dataplane/internal/codec/ndjson"
	"github.com/terrastac/dataplane/internal/config"
	"github.com/terrastac/dataplane/internal/format"
	"github.com/terrastac/dataplane/internal/href"
	"github.com/terrastac/dataplane/internal/stac"
	"github.com/terrastac/dataplane/internal/store"
	"github.com/terrastac/dataplane/internal/store/azurestore"
	"github.com/terrastac/dataplane/internal/store/gcsstore"
	"github.com/terrastac/dataplane/internal/store/httpstore"
	"github.com/terrastac/dataplane/internal/store/local"
	"github.com/terrastac/dataplane/internal/store/s3store"
)

// Stores owns a Store Plane Registry configured from StoreConfig:
// "file:"/bare paths to the local backend, "http(s):" to httpstore,
// "s3:" to s3store, "gs:" to gcsstore, "az:" to azurestore.
type Stores struct {
	registry *store.Registry
}

// Registry returns the underlying Store Plane Registry, for callers
// (crawl) that need raw Get/Put access below the Format/Codec layers.
func (s *Stores) Registry() *store.Registry { return s.registry }

// NewStores builds a Registry wired for every scheme spec.md §6 lists.
// GCS and Azure backends that fail to construct (missing application
// default credentials, no account URL configured) are silently skipped
// rather than failing the whole call — a caller who never touches a
// "gs://" or "az://" reference shouldn't need credentials for it.
func NewStores(ctx context.Context, cfg config.StoreConfig) (*Stores, error) {
	reg := store.NewRegistry()
	reg.SetFallback(local.New())
	reg.Register("file", local.New())
	reg.Register("http", httpstore.New(cfg.HTTPTimeout))
	reg.Register("https", httpstore.New(cfg.HTTPTimeout))

	s3Backend, err := s3store.New(ctx, s3LoadOptions(cfg.S3)...)
	if err != nil {
		return nil, fmt.Errorf("service: configuring s3 store: %w", err)
	}
	reg.Register("s3", s3Backend)

	if gcsBackend, err := gcsstore.New(ctx); err == nil {
		reg.Register("gs", gcsBackend)
	}

	if cfg.Azure.AccountURL != "" {
		if client, err := azblob.NewClientWithNoCredential(cfg.Azure.AccountURL, nil); err == nil {
			reg.Register("az", azurestore.New(client))
			reg.Register("azblob", azurestore.New(client))
		}
	}

	return &Stores{registry: reg}, nil
}

// NewStoresWithClients lets tests and embedders substitute already
// constructed backends/clients instead of the network calls NewStores
// makes. Any nil argument leaves that scheme unregistered.
func NewStoresWithClients(httpStore store.Store, s3Backend store.Store, gcsClient *storage.Client, azureClient *azblob.Client) *Stores {
	reg := store.NewRegistry()
	reg.SetFallback(local.New())
	reg.Register("file", local.New())
	if httpStore != nil {
		reg.Register("http", httpStore)
		reg.Register("https", httpStore)
	}
	if s3Backend != nil {
		reg.Register("s3", s3Backend)
	}
	if gcsClient != nil {
		reg.Register("gs", gcsstore.NewFromClient(gcsClient))
	}
	if azureClient != nil {
		reg.Register("az", azurestore.New(azureClient))
	}
	return &Stores{registry: reg}
}

// s3LoadOptions translates the flat credential/region/endpoint/
// skip-signature option map spec.md §6 defines for S3 into the
// aws-sdk-go-v2 config.LoadOptions functions s3store.New accepts.
func s3LoadOptions(cfg config.S3Config) []func(*awsconfig.LoadOptions) error {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	if cfg.SkipSignature {
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}
	return opts
}

// resolveFormat picks the explicit format if given, otherwise infers it
// from ref's suffix.
func resolveFormat(ref string, explicit *format.Format) (format.Format, error) {
	if explicit != nil {
		return *explicit, nil
	}
	f, ok := format.Infer(ref)
	if !ok {
		return format.Format{}, &format.ErrUnsupportedFormat{Token: ref}
	}
	return f, nil
}

// GetValue reads ref through the Store Plane and decodes it as whichever
// STAC value kind the bytes hold: *stac.Item, *stac.Catalog,
// *stac.Collection, or *stac.ItemCollection. NDJSON and GeoParquet are
// restricted to Item/ItemCollection per spec.md §4.C's format/kind
// matrix; Catalog/Collection only ever arrive as JSON.
func (s *Stores) GetValue(ctx context.Context, ref string, explicit *format.Format) (any, error) {
	f, err := resolveFormat(ref, explicit)
	if err != nil {
		return nil, err
	}

	if f.Kind != format.KindJSON {
		return s.GetItemCollection(ctx, ref, &f)
	}

	rc, err := s.registry.Get(ctx, ref)
	if err != nil {
		return nil, translateStoreErr(ref, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &store.ErrNetwork{Ref: ref, Err: err}
	}

	kind, err := stacjson.Sniff(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case codec.KindItem:
		return stacjson.DecodeItem(data)
	case codec.KindCatalog:
		return stacjson.DecodeCatalog(data)
	case codec.KindCollection:
		return stacjson.DecodeCollection(data)
	case codec.KindItemCollection:
		return stacjson.DecodeItemCollection(data)
	default:
		return nil, &codec.ErrUnsupportedKind{Format: "json", Kind: kind}
	}
}

// GetItemCollection reads ref through the Store Plane and decodes it as
// an ItemCollection via the format-appropriate codec (JSON, NDJSON, or
// GeoParquet).
func (s *Stores) GetItemCollection(ctx context.Context, ref string, explicit *format.Format) (*stac.ItemCollection, error) {
	f, err := resolveFormat(ref, explicit)
	if err != nil {
		return nil, err
	}

	rc, err := s.registry.Get(ctx, ref)
	if err != nil {
		return nil, translateStoreErr(ref, err)
	}
	defer rc.Close()

	switch f.Kind {
	case format.KindJSON:
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, &store.ErrNetwork{Ref: ref, Err: err}
		}
		kind, err := stacjson.Sniff(data)
		if err != nil {
			return nil, err
		}
		switch kind {
		case codec.KindItemCollection:
			return stacjson.DecodeItemCollection(data)
		case codec.KindItem:
			item, err := stacjson.DecodeItem(data)
			if err != nil {
				return nil, err
			}
			return stac.NewItemCollection([]*stac.Item{item}), nil
		default:
			return nil, &codec.ErrUnsupportedKind{Format: "json", Kind: kind}
		}
	case format.KindNDJSON:
		v, err := ndjson.DecodeSingleOrMany(rc)
		if err != nil {
			return nil, err
		}
		switch val := v.(type) {
		case *stac.Item:
			return stac.NewItemCollection([]*stac.Item{val}), nil
		case *stac.ItemCollection:
			return val, nil
		default:
			return nil, fmt.Errorf("service: unexpected ndjson decode result %T", v)
		}
	case format.KindGeoParquet:
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, &store.ErrNetwork{Ref: ref, Err: err}
		}
		return geoparquet.DecodeItemCollection(geoparquet.ReaderAtFromBytes(data), int64(len(data)))
	default:
		return nil, &format.ErrUnsupportedFormat{Token: ref}
	}
}

// PutValue encodes v (a *stac.Item, *stac.Catalog, *stac.Collection, or
// *stac.ItemCollection) and writes it to ref. Catalog and Collection are
// JSON-only per the format/kind matrix; Item and ItemCollection go
// through PutItemCollection so GeoParquet/NDJSON stay available to them.
func (s *Stores) PutValue(ctx context.Context, ref string, v any, explicit *format.Format) (string, error) {
	switch val := v.(type) {
	case *stac.Item:
		return s.PutItemCollection(ctx, ref, stac.NewItemCollection([]*stac.Item{val}), explicit)
	case *stac.ItemCollection:
		return s.PutItemCollection(ctx, ref, val, explicit)
	case *stac.Catalog, *stac.Collection:
		f, err := resolveFormat(ref, explicit)
		if err != nil {
			return "", err
		}
		if f.Kind != format.KindJSON {
			kind := codec.KindCatalog
			if _, ok := val.(*stac.Collection); ok {
				kind = codec.KindCollection
			}
			return "", &codec.ErrUnsupportedKind{Format: "non-json", Kind: kind}
		}
		data, err := stacjson.Encode(val, f.Pretty)
		if err != nil {
			return "", err
		}
		if err := s.registry.Put(ctx, ref, bytes.NewReader(data)); err != nil {
			return "", translateStoreErr(ref, err)
		}
		return canonicalRef(ref), nil
	default:
		return "", fmt.Errorf("service: unsupported value type %T", v)
	}
}

// PutItemCollection encodes ic via the format-appropriate codec and
// writes it to ref through the Store Plane, returning the canonical
// (absolute) reference per spec.md §4.E.
func (s *Stores) PutItemCollection(ctx context.Context, ref string, ic *stac.ItemCollection, explicit *format.Format) (string, error) {
	f, err := resolveFormat(ref, explicit)
	if err != nil {
		return "", err
	}

	var data []byte
	switch f.Kind {
	case format.KindJSON:
		data, err = stacjson.Encode(ic, f.Pretty)
		if err != nil {
			return "", err
		}
	case format.KindNDJSON:
		var buf bytes.Buffer
		if err := ndjson.EncodeItems(&buf, ic.Features); err != nil {
			return "", err
		}
		data = buf.Bytes()
	case format.KindGeoParquet:
		compression := geoparquet.CompressionSnappy
		if f.HasCompression {
			compression = toGeoparquetCompression(f.Compression)
		}
		data, err = geoparquet.BufferedBytes(ic.Features, compression)
		if err != nil {
			return "", err
		}
	default:
		return "", &format.ErrUnsupportedFormat{Token: ref}
	}

	if err := s.registry.Put(ctx, ref, bytes.NewReader(data)); err != nil {
		return "", translateStoreErr(ref, err)
	}

	return canonicalRef(ref), nil
}

// canonicalRef resolves a possibly-relative local path to an absolute
// one (via the filesystem, since "canonical" implies a real working
// directory); URLs and already-absolute paths pass through unchanged
// per href.IsAbsolute.
func canonicalRef(ref string) string {
	if href.IsAbsolute(ref) {
		return ref
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return ref
	}
	return abs
}

func toGeoparquetCompression(c format.Compression) geoparquet.Compression {
	switch c {
	case format.CompressionSnappy:
		return geoparquet.CompressionSnappy
	case format.CompressionGzip:
		return geoparquet.CompressionGzip
	case format.CompressionZstd:
		return geoparquet.CompressionZstd
	default:
		return geoparquet.CompressionNone
	}
}

func translateStoreErr(ref string, err error) error {
	switch err.(type) {
	case *store.ErrNotFound, *store.ErrForbidden, *store.ErrNetwork, *store.ErrCodec:
		return err
	default:
		return &store.ErrCodec{Ref: ref, Err: err}
	}
}
