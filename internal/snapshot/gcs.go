package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/skuboard/skuboard/internal/platform/httpx"
)

// ObjectOpener opens a Cloud Storage object for reading.
type ObjectOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

type gcsOpener struct {
	client *gcs.Client
}

func (o gcsOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return o.client.Bucket(bucket).Object(object).NewReader(ctx)
}

// NewGCSClient builds a Cloud Storage client. When credentialsJSON is empty
// application default credentials are used.
func NewGCSClient(ctx context.Context, credentialsJSON string) (*gcs.Client, error) {
	var opts []option.ClientOption
	if key := strings.TrimSpace(credentialsJSON); key != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(key)))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: storage client: %w", err)
	}
	return client, nil
}

// GCSSource reads the snapshot document from a Cloud Storage object.
type GCSSource struct {
	opener ObjectOpener
	bucket string
	object string
}

// NewGCSSource wraps a Cloud Storage client.
func NewGCSSource(client *gcs.Client, bucket, object string) *GCSSource {
	var opener ObjectOpener
	if client != nil {
		opener = gcsOpener{client: client}
	}
	return NewGCSSourceWithOpener(opener, bucket, object)
}

// NewGCSSourceWithOpener allows injecting a custom object opener.
func NewGCSSourceWithOpener(opener ObjectOpener, bucket, object string) *GCSSource {
	return &GCSSource{
		opener: opener,
		bucket: strings.TrimSpace(bucket),
		object: strings.TrimSpace(object),
	}
}

// Fetch reads and decodes the snapshot object.
func (s *GCSSource) Fetch(ctx context.Context) (*Snapshot, error) {
	if s == nil || s.opener == nil || s.bucket == "" || s.object == "" {
		return nil, fmt.Errorf("%w: SNAPSHOT_GCS_BUCKET/SNAPSHOT_GCS_OBJECT: %w", httpx.ErrFetch, httpx.ErrNotConfigured)
	}
	reader, err := s.opener.Open(ctx, s.bucket, s.object)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s does not exist", httpx.ErrFetch, s.bucket, s.object)
		}
		return nil, fmt.Errorf("%w: open gs://%s/%s: %w", httpx.ErrFetch, s.bucket, s.object, err)
	}
	defer func() {
		_ = reader.Close()
	}()
	snap, err := Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", httpx.ErrFetch, err)
	}
	return snap, nil
}
