package snapshot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuboard/skuboard/internal/platform/httpx"
)

const sampleDoc = `{"generated_at":"2025-06-01T09:00:00+09:00","products":[{"product_code":"P-1"}],"skus":[],"notes":[],"settings":[]}`

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	snap, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T09:00:00+09:00", snap.GeneratedAt)
	assert.Len(t, snap.Products, 1)
}

func TestHTTPSourceFailures(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer srv.Close()
		_, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
		require.ErrorIs(t, err, httpx.ErrFetch)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("malformed json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		defer srv.Close()
		_, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
		assert.ErrorIs(t, err, httpx.ErrFetch)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := NewHTTPSource("  ", time.Second).Fetch(context.Background())
		assert.ErrorIs(t, err, httpx.ErrFetch)
		assert.ErrorIs(t, err, httpx.ErrNotConfigured)
	})

	t.Run("cancelled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewHTTPSource(srv.URL, time.Second).Fetch(ctx)
		assert.ErrorIs(t, err, httpx.ErrFetch)
	})
}

type fakeOpener struct {
	body string
	err  error
	got  string
}

func (f *fakeOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	f.got = bucket + "/" + object
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func TestGCSSourceFetch(t *testing.T) {
	opener := &fakeOpener{body: sampleDoc}
	snap, err := NewGCSSourceWithOpener(opener, "exports", "snapshot.json").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "exports/snapshot.json", opener.got)
	assert.Len(t, snap.Products, 1)
}

func TestGCSSourceFailures(t *testing.T) {
	_, err := NewGCSSourceWithOpener(&fakeOpener{err: gcs.ErrObjectNotExist}, "b", "o").Fetch(context.Background())
	require.ErrorIs(t, err, httpx.ErrFetch)
	assert.Contains(t, err.Error(), "does not exist")

	_, err = NewGCSSourceWithOpener(&fakeOpener{err: errors.New("denied")}, "b", "o").Fetch(context.Background())
	assert.ErrorIs(t, err, httpx.ErrFetch)

	_, err = NewGCSSourceWithOpener(&fakeOpener{body: sampleDoc}, "", "o").Fetch(context.Background())
	assert.ErrorIs(t, err, httpx.ErrNotConfigured)

	_, err = NewGCSSource(nil, "b", "o").Fetch(context.Background())
	assert.ErrorIs(t, err, httpx.ErrNotConfigured)
}

func TestUnconfiguredSource(t *testing.T) {
	_, err := UnconfiguredSource{}.Fetch(context.Background())
	assert.ErrorIs(t, err, httpx.ErrFetch)
	assert.ErrorIs(t, err, httpx.ErrNotConfigured)
	assert.ErrorIs(t, err, ErrNoSource)
}
