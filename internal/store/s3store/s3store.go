// Package s3store implements store.Store over S3-compatible object
// storage, for "s3://bucket/key" references.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/terrastac/dataplane/internal/store"
)

// Store reads and writes S3 objects.
type Store struct {
	client *s3.Client
}

// New loads the default AWS config chain (env vars, shared config,
// instance profile) and returns a ready Store.
func New(ctx context.Context, opts ...func(*awsconfig.LoadOptions) error) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3store: loading AWS config: %w", err)
	}
	return &Store{client: s3.NewFromConfig(cfg)}, nil
}

// NewFromClient wraps an already-configured s3.Client, for tests and
// callers pointed at a non-AWS S3-compatible endpoint.
func NewFromClient(client *s3.Client) *Store {
	return &Store{client: client}
}

func parseRef(ref string) (bucket, key string, err error) {
	const prefix = "s3://"
	if !strings.HasPrefix(ref, prefix) {
		return "", "", fmt.Errorf("s3store: ref %q is not an s3:// URL", ref)
	}
	rest := ref[len(prefix):]
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return rest, "", nil
	}
	return rest[:idx], rest[idx+1:], nil
}

func (s *Store) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	bucket, key, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, translateError(ref, err)
	}
	return out.Body, nil
}

func (s *Store) Put(ctx context.Context, ref string, body io.Reader) error {
	bucket, key, err := parseRef(ref)
	if err != nil {
		return err
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf),
	})
	if err != nil {
		return translateError(ref, err)
	}
	return nil
}

func translateError(ref string, err error) error {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case 404:
			return &store.ErrNotFound{Ref: ref}
		case 403, 401:
			return &store.ErrForbidden{Ref: ref}
		}
	}
	return &store.ErrNetwork{Ref: ref, Err: err}
}
