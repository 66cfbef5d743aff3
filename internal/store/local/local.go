// Package local implements store.Store over the local filesystem.
package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/terrastac/dataplane/internal/store"
)

// Store reads and writes files on the local filesystem. References are
// either bare paths or "file://" URLs; FileMode controls the permission
// bits used for Put.
type Store struct {
	FileMode os.FileMode
}

// New creates a local Store with the default 0644 file mode.
func New() *Store {
	return &Store{FileMode: 0o644}
}

func (s *Store) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	path := toPath(ref)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &store.ErrNotFound{Ref: ref}
		}
		if errors.Is(err, os.ErrPermission) {
			return nil, &store.ErrForbidden{Ref: ref}
		}
		return nil, err
	}
	return f, nil
}

func (s *Store) Put(ctx context.Context, ref string, body io.Reader) error {
	path := toPath(ref)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	mode := s.FileMode
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return &store.ErrForbidden{Ref: ref}
		}
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return err
	}
	return nil
}

func toPath(ref string) string {
	const prefix = "file://"
	if len(ref) >= len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):]
	}
	return ref
}
