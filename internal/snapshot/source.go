package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skuboard/skuboard/internal/platform/httpx"
)

// Mode controls whether a read may be served from the snapshot cache.
type Mode string

const (
	// ModeDefault allows cached snapshots within the configured TTL.
	ModeDefault Mode = "default"
	// ModeNoStore always reads straight from the upstream source.
	ModeNoStore Mode = "no-store"
)

// Source fetches a fresh snapshot from the upstream exporter.
type Source interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Provider hands out snapshots to request handlers.
type Provider interface {
	Snapshot(ctx context.Context, mode Mode) (*Snapshot, error)
}

// HTTPSource reads the snapshot document from a URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource constructs an HTTP snapshot source.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and decodes the snapshot.
func (s *HTTPSource) Fetch(ctx context.Context) (*Snapshot, error) {
	if s == nil || s.url == "" {
		return nil, fmt.Errorf("%w: missing env var SNAPSHOT_URL: %w", httpx.ErrFetch, httpx.ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", httpx.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", httpx.ErrFetch, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: SNAPSHOT_URL returned %s", httpx.ErrFetch, resp.Status)
	}
	snap, err := Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", httpx.ErrFetch, err)
	}
	return snap, nil
}

// ErrNoSource is returned by UnconfiguredSource.
var ErrNoSource = errors.New("snapshot: set SNAPSHOT_URL or SNAPSHOT_GCS_BUCKET + SNAPSHOT_GCS_OBJECT")

// UnconfiguredSource fails every fetch. It keeps the API up (and answering
// with a descriptive error) when no snapshot location is configured.
type UnconfiguredSource struct{}

// Fetch always reports the missing configuration.
func (UnconfiguredSource) Fetch(context.Context) (*Snapshot, error) {
	return nil, fmt.Errorf("%w: %w: %w", httpx.ErrFetch, httpx.ErrNotConfigured, ErrNoSource)
}
