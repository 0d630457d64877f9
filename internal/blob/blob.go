// Package blob abstracts the object storage that holds entity source
// corpora. Paths are slash-separated keys relative to the bucket root.
package blob

import (
	"context"
	"errors"
)

// Bucket is the object-storage contract the corpus layer runs on.
type Bucket interface {
	// List returns all object paths beginning with prefix, unordered.
	List(ctx context.Context, prefix string) ([]string, error)
	// Upload writes data at path, overwriting any existing object.
	Upload(ctx context.Context, path string, data []byte) error
	// Download reads the object at path.
	Download(ctx context.Context, path string) ([]byte, error)
}

// NotFoundError reports a missing object.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string { return "blob: object not found: " + e.Path }

// IsNotFound reports whether err is a missing-object error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
