// Package store defines the uniform Get/Put surface every storage
// backend (local filesystem, HTTP(S), S3, GCS, Azure Blob) implements,
// and a scheme-based Registry that dispatches a reference to the right
// backend.
package store

import (
	"context"
	"fmt"
	"io"
)

// Store reads and writes bytes at a reference (a local path or a URL),
// the level every codec and the Columnar Bridge operate above.
type Store interface {
	// Get opens a reference for reading. The caller must Close the
	// returned ReadCloser.
	Get(ctx context.Context, ref string) (io.ReadCloser, error)
	// Put writes r's contents to ref, replacing any existing object.
	Put(ctx context.Context, ref string, r io.Reader) error
}

// ErrNotFound is returned when a reference does not exist.
type ErrNotFound struct{ Ref string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("store: not found: %s", e.Ref) }

// ErrForbidden is returned when a reference exists but access was denied.
type ErrForbidden struct{ Ref string }

func (e *ErrForbidden) Error() string { return fmt.Sprintf("store: forbidden: %s", e.Ref) }

// ErrNetwork wraps a transport-level failure (DNS, connection reset,
// timeout) while preserving the original reference string.
type ErrNetwork struct {
	Ref string
	Err error
}

func (e *ErrNetwork) Error() string  { return fmt.Sprintf("store: network error for %s: %v", e.Ref, e.Err) }
func (e *ErrNetwork) Unwrap() error { return e.Err }

// ErrCodec wraps a decode/encode failure encountered while a Store
// implementation was materializing a value, preserving the reference.
type ErrCodec struct {
	Ref string
	Err error
}

func (e *ErrCodec) Error() string  { return fmt.Sprintf("store: codec error for %s: %v", e.Ref, e.Err) }
func (e *ErrCodec) Unwrap() error { return e.Err }

// Registry dispatches a reference to a backend by scheme: "file"/no
// scheme to the local backend, "http"/"https" to the HTTP backend,
// "s3" to S3, "gs" to GCS, "az"/"azblob" to Azure Blob.
type Registry struct {
	backends map[string]Store
	fallback Store
}

// NewRegistry creates an empty Registry. Register backends with
// Register, and set a fallback (typically the local filesystem backend)
// with SetFallback.
func NewRegistry() *Registry {
	return &Registry{backends: map[string]Store{}}
}

// Register associates a URL scheme with a backend.
func (r *Registry) Register(scheme string, backend Store) {
	r.backends[scheme] = backend
}

// SetFallback sets the backend used for references with no recognized
// scheme (bare local paths).
func (r *Registry) SetFallback(backend Store) { r.fallback = backend }

// Resolve returns the backend responsible for ref's scheme, or the
// fallback if ref has none.
func (r *Registry) Resolve(scheme string) (Store, bool) {
	if scheme == "" {
		if r.fallback != nil {
			return r.fallback, true
		}
		return nil, false
	}
	b, ok := r.backends[scheme]
	if !ok && r.fallback != nil {
		return r.fallback, true
	}
	return b, ok
}

// Get dispatches to the backend for ref's scheme.
func (r *Registry) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	backend, scheme := r.backendFor(ref)
	if backend == nil {
		return nil, &ErrNotFound{Ref: ref}
	}
	_ = scheme
	return backend.Get(ctx, ref)
}

// Put dispatches to the backend for ref's scheme.
func (r *Registry) Put(ctx context.Context, ref string, body io.Reader) error {
	backend, _ := r.backendFor(ref)
	if backend == nil {
		return &ErrNotFound{Ref: ref}
	}
	return backend.Put(ctx, ref, body)
}

func (r *Registry) backendFor(ref string) (Store, string) {
	scheme := schemeOf(ref)
	b, ok := r.Resolve(scheme)
	if !ok {
		return nil, scheme
	}
	return b, scheme
}

func schemeOf(ref string) string {
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c == ':':
			if i+2 < len(ref) && ref[i+1] == '/' && ref[i+2] == '/' {
				return ref[:i]
			}
			return ""
		case c == '/' || c == '\\':
			return ""
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.':
			continue
		default:
			return ""
		}
	}
	return ""
}
