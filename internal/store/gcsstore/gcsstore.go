// Package gcsstore implements store.Store over Google Cloud Storage,
// for "gs://bucket/object" references.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	stacstore "github.com/terrastac/dataplane/internal/store"
)

// Store reads and writes GCS objects.
type Store struct {
	client *storage.Client
}

// New dials GCS using application-default credentials.
func New(ctx context.Context) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcsstore: creating client: %w", err)
	}
	return &Store{client: client}, nil
}

// NewFromClient wraps an already-configured storage.Client, for tests.
func NewFromClient(client *storage.Client) *Store {
	return &Store{client: client}
}

func parseRef(ref string) (bucket, object string, err error) {
	const prefix = "gs://"
	if !strings.HasPrefix(ref, prefix) {
		return "", "", fmt.Errorf("gcsstore: ref %q is not a gs:// URL", ref)
	}
	rest := ref[len(prefix):]
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return rest, "", nil
	}
	return rest[:idx], rest[idx+1:], nil
}

func (s *Store) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	bucket, object, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, &stacstore.ErrNotFound{Ref: ref}
		}
		return nil, &stacstore.ErrNetwork{Ref: ref, Err: err}
	}
	return r, nil
}

func (s *Store) Put(ctx context.Context, ref string, body io.Reader) error {
	bucket, object, err := parseRef(ref)
	if err != nil {
		return err
	}
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return &stacstore.ErrNetwork{Ref: ref, Err: err}
	}
	if err := w.Close(); err != nil {
		return &stacstore.ErrNetwork{Ref: ref, Err: err}
	}
	return nil
}
