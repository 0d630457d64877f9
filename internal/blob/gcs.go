package blob

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/rotisserie/eris"
	"google.golang.org/api/iterator"
)

// GCSBucket backs Bucket with a Google Cloud Storage bucket. Credentials
// come from the ambient application-default chain.
type GCSBucket struct {
	bucket *storage.BucketHandle
}

// NewGCS opens the named GCS bucket.
func NewGCS(ctx context.Context, bucketName string) (*GCSBucket, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "blob: create gcs client")
	}
	return &GCSBucket{bucket: client.Bucket(bucketName)}, nil
}

func (b *GCSBucket) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	it := b.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "blob: gcs list %s", prefix)
		}
		paths = append(paths, attrs.Name)
	}
	return paths, nil
}

func (b *GCSBucket) Upload(ctx context.Context, path string, data []byte) error {
	w := b.bucket.Object(path).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return eris.Wrapf(err, "blob: gcs write %s", path)
	}
	if err := w.Close(); err != nil {
		return eris.Wrapf(err, "blob: gcs close %s", path)
	}
	return nil
}

func (b *GCSBucket) Download(ctx context.Context, path string) ([]byte, error) {
	r, err := b.bucket.Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, &NotFoundError{Path: path}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "blob: gcs open %s", path)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: gcs read %s", path)
	}
	return data, nil
}
