package corpus

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civiclens/enrich-cli/internal/blob"
	"github.com/civiclens/enrich-cli/internal/limiter"
)

// Store reads and writes chunked corpora against a blob bucket.
type Store struct {
	bucket blob.Bucket
}

// New creates a corpus store over the given bucket.
func New(bucket blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// Exists reports whether any chunk is stored under base.
func (s *Store) Exists(ctx context.Context, base string) (bool, error) {
	paths, err := s.bucket.List(ctx, base)
	if err != nil {
		return false, eris.Wrapf(err, "corpus: list %s", base)
	}
	return len(paths) > 0, nil
}

// Save splits text at the chunk limit and uploads the parts. Parts are
// uploaded strictly in order so a partial failure never leaves a later
// chunk without its predecessors. Returns the stored paths in order.
func (s *Store) Save(ctx context.Context, base, text string) ([]string, error) {
	parts := Split(text, PartLen)

	paths := make([]string, len(parts))
	for i, part := range parts {
		path := PartPath(base, i+1, len(parts))
		if err := s.bucket.Upload(ctx, path, []byte(part)); err != nil {
			return nil, eris.Wrapf(err, "corpus: upload part %d of %d", i+1, len(parts))
		}
		paths[i] = path
	}

	zap.L().Debug("corpus saved",
		zap.String("base", base),
		zap.Int("parts", len(parts)),
		zap.Int("chars", len(text)),
	)
	return paths, nil
}

// Load lists all chunks under base, downloads them concurrently bounded by
// n, and concatenates them in part order. Returns a not-found error when
// nothing is stored under base.
func (s *Store) Load(ctx context.Context, base string, n int) (string, error) {
	paths, err := s.bucket.List(ctx, base)
	if err != nil {
		return "", eris.Wrapf(err, "corpus: list %s", base)
	}
	if len(paths) == 0 {
		return "", &blob.NotFoundError{Path: base}
	}
	SortParts(paths)

	parts, err := limiter.MapLimit(ctx, paths, n, func(ctx context.Context, path string) (string, error) {
		data, err := s.bucket.Download(ctx, path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
	if err != nil {
		return "", eris.Wrapf(err, "corpus: download %s", base)
	}

	return strings.Join(parts, ""), nil
}
