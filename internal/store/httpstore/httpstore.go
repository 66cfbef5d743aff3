// Package httpstore implements store.Store over HTTP(S), adapted from
// the teacher's ASF/CMR HTTP client construction pattern: a shared
// *http.Client with tuned connection pooling, a logger, and explicit
// status-code-to-error-taxonomy translation.
package httpstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/terrastac/dataplane/internal/store"
)

// Store fetches and PUTs references over HTTP(S).
type Store struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates an HTTP Store with a connection-pooled client, mirroring
// the teacher's internal/asf.Client construction.
func New(timeout time.Duration) *Store {
	return &Store{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the store.
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	s.logger = logger
	return s
}

func (s *Store) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("httpstore: building request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.ErrorContext(ctx, "http store GET failed",
			slog.String("error", err.Error()), slog.String("ref", ref))
		return nil, &store.ErrNetwork{Ref: ref, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, &store.ErrNotFound{Ref: ref}
	case http.StatusForbidden, http.StatusUnauthorized:
		resp.Body.Close()
		return nil, &store.ErrForbidden{Ref: ref}
	default:
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		s.logger.ErrorContext(ctx, "http store GET returned non-200 status",
			slog.Int("status_code", resp.StatusCode), slog.String("ref", ref),
			slog.String("response_body", string(body)))
		return nil, &store.ErrNetwork{Ref: ref, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
}

func (s *Store) Put(ctx context.Context, ref string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ref, body)
	if err != nil {
		return fmt.Errorf("httpstore: building request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &store.ErrNetwork{Ref: ref, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return &store.ErrForbidden{Ref: ref}
	default:
		data, _ := io.ReadAll(resp.Body)
		return &store.ErrNetwork{Ref: ref, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)}
	}
}
