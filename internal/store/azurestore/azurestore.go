// Package azurestore implements store.Store over Azure Blob Storage,
// for "az://container/blob" references.
package azurestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	stacstore "github.com/terrastac/dataplane/internal/store"
)

// Store reads and writes Azure Blob Storage blobs.
type Store struct {
	client *azblob.Client
}

// New creates a Store from a shared, already-configured client (the
// caller supplies the account URL and credentials, since Azure's auth
// surface varies by deployment).
func New(client *azblob.Client) *Store {
	return &Store{client: client}
}

func parseRef(ref string) (container, blob string, err error) {
	const prefix = "az://"
	if !strings.HasPrefix(ref, prefix) {
		return "", "", fmt.Errorf("azurestore: ref %q is not an az:// URL", ref)
	}
	rest := ref[len(prefix):]
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return rest, "", nil
	}
	return rest[:idx], rest[idx+1:], nil
}

func (s *Store) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	container, blob, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, &stacstore.ErrNotFound{Ref: ref}
		}
		if bloberror.HasCode(err, bloberror.AuthorizationFailure) {
			return nil, &stacstore.ErrForbidden{Ref: ref}
		}
		return nil, &stacstore.ErrNetwork{Ref: ref, Err: err}
	}
	return resp.Body, nil
}

func (s *Store) Put(ctx context.Context, ref string, body io.Reader) error {
	container, blob, err := parseRef(ref)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	_, err = s.client.UploadBuffer(ctx, container, blob, data, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.AuthorizationFailure) {
			return &stacstore.ErrForbidden{Ref: ref}
		}
		return &stacstore.ErrNetwork{Ref: ref, Err: err}
	}
	return nil
}
